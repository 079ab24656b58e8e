// Package storage declares the persistence façade the orchestrator
// consumes: typed tables for workflows, students, learning sessions,
// progress records, assessment results and teacher alerts, each with
// CRUD-style methods. The row structs carry github.com/uptrace/bun tags so
// a Postgres-backed Store over pgdialect/pgdriver is a drop-in behind the
// same interfaces; the shipped implementation is in-memory, since the
// engine itself is storage-agnostic.
package storage

import (
	"context"
	"time"

	"github.com/brightpath/orchestrator/internal/domain"
)

// LearningSession is one recorded workflow execution, the row shape
// `learning_sessions` would persist.
type LearningSession struct {
	ID         string `bun:",pk"`
	WorkflowID string
	StudentID  string
	Status     string
	StartedAt  time.Time
	EndedAt    time.Time
}

// ProgressRecord is one student's accumulated progress snapshot.
type ProgressRecord struct {
	ID        string `bun:",pk"`
	StudentID string
	Metric    string
	Value     float64
	RecordedAt time.Time
}

// AssessmentResult is one scored comprehension/assessment outcome.
type AssessmentResult struct {
	ID        string `bun:",pk"`
	SessionID string
	NodeID    string
	Score     float64
	RecordedAt time.Time
}

// TeacherAlert is a notification surfaced to a teacher (e.g. a student
// stuck below threshold across N sessions).
type TeacherAlert struct {
	ID        string `bun:",pk"`
	TeacherID string
	Message   string
	CreatedAt time.Time
	Resolved  bool
}

// Workflows is the typed table for workflow definitions.
type Workflows interface {
	Get(ctx context.Context, id string) (domain.Workflow, bool, error)
	Create(ctx context.Context, wf domain.Workflow) error
	Update(ctx context.Context, wf domain.Workflow) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.Workflow, error)
}

// Students is the typed table for student profiles.
type Students interface {
	Get(ctx context.Context, id string) (domain.StudentProfile, bool, error)
	Create(ctx context.Context, s domain.StudentProfile) error
	Update(ctx context.Context, s domain.StudentProfile) error
	ListByTeacher(ctx context.Context, teacherID string) ([]domain.StudentProfile, error)
}

// LearningSessions is the typed table for recorded executions.
type LearningSessions interface {
	Create(ctx context.Context, s LearningSession) error
	Update(ctx context.Context, s LearningSession) error
	Get(ctx context.Context, id string) (LearningSession, bool, error)
	ListByStudent(ctx context.Context, studentID string) ([]LearningSession, error)
}

// ProgressRecords is the typed table for progress snapshots.
type ProgressRecords interface {
	Create(ctx context.Context, p ProgressRecord) error
	ListByStudent(ctx context.Context, studentID string) ([]ProgressRecord, error)
}

// AssessmentResults is the typed table for scored outcomes.
type AssessmentResults interface {
	Create(ctx context.Context, a AssessmentResult) error
	ListBySession(ctx context.Context, sessionID string) ([]AssessmentResult, error)
}

// TeacherAlerts is the typed table for teacher-facing notifications.
type TeacherAlerts interface {
	Create(ctx context.Context, a TeacherAlert) error
	ListByTeacher(ctx context.Context, teacherID string) ([]TeacherAlert, error)
	Resolve(ctx context.Context, id string) error
}

// Store bundles every typed table, the shape the engine's collaborators
// (outside the CORE scope) would depend on.
type Store interface {
	Workflows() Workflows
	Students() Students
	LearningSessions() LearningSessions
	ProgressRecords() ProgressRecords
	AssessmentResults() AssessmentResults
	TeacherAlerts() TeacherAlerts
}
