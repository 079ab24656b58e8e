package runner

import (
	"context"

	"github.com/brightpath/orchestrator/internal/domain"
)

// studentProfileRunner is the entry node: it never consumes input, only
// copies fields out of the execution context's student profile.
func studentProfileRunner(_ context.Context, _ domain.Node, _ map[string]any, execCtx *domain.ExecutionContext, _ Deps) (Result, error) {
	out := map[string]any{}
	if s := execCtx.Student; s != nil {
		out["studentProfile"] = s
		out["elpaLevel"] = s.ProficiencyLevel
		out["nativeLanguage"] = s.PrimaryLanguage
		out["gradeLevel"] = s.GradeLevel
		out["interests"] = s.Interests
	}
	return Result{Output: out}, nil
}

// curriculumSelectorRunner pulls grade from context and defaults the
// subject area to "ela".
func curriculumSelectorRunner(_ context.Context, node domain.Node, _ map[string]any, execCtx *domain.ExecutionContext, _ Deps) (Result, error) {
	cfg, err := parseConfig[CurriculumSelectorConfig](node.Config)
	if err != nil {
		return Result{}, err
	}
	subject := cfg.SubjectArea
	if subject == "" {
		subject = "ela"
	}
	grade := 0
	if execCtx.Student != nil {
		grade = execCtx.Student.GradeLevel
	}
	return Result{Output: map[string]any{
		"subjectArea": subject,
		"strand":      cfg.Strand,
		"outcomes":    cfg.SpecificOutcomes,
		"gradeLevel":  grade,
	}}, nil
}

// inputRunner is an identity/boundary marker: it passes its configured
// value (or whatever arrived on its input) through unchanged.
func inputRunner(_ context.Context, node domain.Node, input map[string]any, _ *domain.ExecutionContext, _ Deps) (Result, error) {
	out := map[string]any{}
	for k, v := range input {
		out[k] = v
	}
	if v, ok := node.Config["value"]; ok {
		out["value"] = v
	}
	return Result{Output: out}, nil
}

// outputRunner is the terminal boundary marker: it forwards whatever
// reached it, optionally narrowed to a configured key.
func outputRunner(_ context.Context, node domain.Node, input map[string]any, _ *domain.ExecutionContext, _ Deps) (Result, error) {
	if key := stringOr(node.Config, "key", ""); key != "" {
		if v, ok := input[key]; ok {
			return Result{Output: map[string]any{"value": v}}, nil
		}
	}
	out := map[string]any{}
	for k, v := range input {
		out[k] = v
	}
	return Result{Output: out}, nil
}

// variableRunner assigns a value (from config or input) to a named
// variable in the execution context, following a simple assignment shape.
func variableRunner(_ context.Context, node domain.Node, input map[string]any, execCtx *domain.ExecutionContext, _ Deps) (Result, error) {
	name := stringOr(node.Config, "name", "")
	var value any
	if v, ok := node.Config["value"]; ok {
		value = v
	} else if v, ok := input["value"]; ok {
		value = v
	}
	if name != "" {
		execCtx.SetVariable(name, value)
	}
	return Result{Output: map[string]any{"name": name, "value": value}}, nil
}
