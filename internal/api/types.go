// Package api implements the HTTP execute endpoint with gin and
// go-playground/validator request validation. Wire-level JSON is decoded
// into request DTOs here and converted into internal/domain types; the
// engine itself never sees JSON.
package api

import (
	"time"

	"github.com/brightpath/orchestrator/internal/domain"
)

// NodeData wraps a node's free-form config the way the wire format nests
// it: `nodes:[{id,type,data{config}}]`.
type NodeData struct {
	Config   map[string]any `json:"config"`
	Label    string         `json:"label"`
	Metadata map[string]any `json:"metadata"`
}

// NodeRequest is the wire shape of one workflow node.
type NodeRequest struct {
	ID   string   `json:"id" validate:"required"`
	Type string   `json:"type" validate:"required"`
	Data NodeData `json:"data"`
}

// EdgeRequest is the wire shape of one workflow edge.
type EdgeRequest struct {
	ID         string `json:"id"`
	Source     string `json:"source" validate:"required"`
	Target     string `json:"target" validate:"required"`
	SourcePort string `json:"sourcePort"`
	TargetPort string `json:"targetPort"`
}

// WorkflowRequest is the wire shape of the request's `workflow` field.
type WorkflowRequest struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Nodes       []NodeRequest `json:"nodes" validate:"required,min=1"`
	Edges       []EdgeRequest `json:"edges"`
	Category    string        `json:"category"`
}

// StudentRequest is the wire shape of the request's `student` field.
type StudentRequest struct {
	ID               string   `json:"id" validate:"required"`
	GradeLevel       int      `json:"gradeLevel"`
	NativeLanguage   string   `json:"nativeLanguage"`
	AdditionalLangs  []string `json:"additionalLanguages"`
	ELPALevel        int      `json:"elpaLevel" validate:"required,min=1,max=5"`
	LiteracyLevel    int      `json:"literacyLevel"`
	NumeracyLevel    int      `json:"numeracyLevel"`
	LearningStyles   []string `json:"learningStyles"`
	Interests        []string `json:"interests"`
	Accommodations   []string `json:"accommodations"`
	SchoolID         string   `json:"schoolId"`
	TeacherID        string   `json:"teacherId"`
}

// ExecuteOptions is the request's opaque `options` field.
type ExecuteOptions struct {
	ClassroomID string `json:"classroomId"`
}

// ExecuteRequest is the execute endpoint's full request body.
type ExecuteRequest struct {
	Workflow WorkflowRequest `json:"workflow" validate:"required"`
	Student  StudentRequest  `json:"student" validate:"required"`
	Options  ExecuteOptions  `json:"options"`
}

// ToDomain converts the wire request into a domain.Workflow, ready for
// graph.Build validation.
func (r WorkflowRequest) ToDomain() domain.Workflow {
	nodes := make([]domain.Node, 0, len(r.Nodes))
	for _, n := range r.Nodes {
		nodes = append(nodes, domain.Node{
			ID:       n.ID,
			Type:     domain.ParseNodeType(n.Type),
			RawType:  n.Type,
			Label:    n.Data.Label,
			Config:   n.Data.Config,
			Metadata: n.Data.Metadata,
		})
	}
	edges := make([]domain.Edge, 0, len(r.Edges))
	for _, e := range r.Edges {
		edges = append(edges, domain.Edge{
			ID:         e.ID,
			Source:     e.Source,
			Target:     e.Target,
			SourcePort: domain.EdgePort(e.SourcePort),
			TargetPort: domain.EdgePort(e.TargetPort),
		})
	}
	return domain.Workflow{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Nodes:       nodes,
		Edges:       edges,
		Category:    r.Category,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}

// ToDomain converts the wire request into a domain.StudentProfile.
func (r StudentRequest) ToDomain() domain.StudentProfile {
	return domain.StudentProfile{
		ID:               r.ID,
		GradeLevel:       r.GradeLevel,
		PrimaryLanguage:  r.NativeLanguage,
		AdditionalLangs:  r.AdditionalLangs,
		ProficiencyLevel: r.ELPALevel,
		LiteracyLevel:    r.LiteracyLevel,
		NumeracyLevel:    r.NumeracyLevel,
		LearningStyles:   r.LearningStyles,
		Interests:        r.Interests,
		Accommodations:   r.Accommodations,
		SchoolID:         r.SchoolID,
		TeacherID:        r.TeacherID,
	}
}

// ValidationIssue is one {path,message} entry in the 400 response body.
type ValidationIssue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// QuotaBody is one window's usage snapshot in the usage response.
type QuotaBody struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"resetAt"`
}

// UsageResponse is the usage endpoint's body.
type UsageResponse struct {
	TeacherID string    `json:"teacherId"`
	Daily     QuotaBody `json:"daily"`
	Burst     QuotaBody `json:"burst"`
}

// RateLimitErrorBody is the 429 response body.
type RateLimitErrorBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	LimitType  string `json:"limitType"`
	Limit      int    `json:"limit"`
	Remaining  int    `json:"remaining"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}
