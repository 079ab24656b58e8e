package runner

import (
	"context"
	"fmt"

	"github.com/brightpath/orchestrator/internal/domain"
)

// progressTrackerRunner folds questionsAnswered/correctAnswers/timeSpent
// into a progress summary and side-effects by appending a report line to
// the execution context's accumulated content.
func progressTrackerRunner(_ context.Context, _ domain.Node, input map[string]any, execCtx *domain.ExecutionContext, _ Deps) (Result, error) {
	answered := intOr(input, "questionsAnswered", 0)
	correct := intOr(input, "correctAnswers", 0)
	timeSpent := intOr(input, "timeSpent", 0)

	accuracy := 0.0
	if answered > 0 {
		accuracy = float64(correct) / float64(answered)
	}

	progress := map[string]any{
		"questionsAnswered": answered,
		"correctAnswers":    correct,
		"timeSpent":         timeSpent,
		"accuracy":          accuracy,
	}
	report := fmt.Sprintf("answered %d of %d correctly (%.0f%%) in %ds", correct, answered, accuracy*100, timeSpent)
	execCtx.AppendContent(report)

	return Result{Output: map[string]any{
		"progress": progress,
		"report":   report,
	}}, nil
}

// feedbackGeneratorRunner produces one of three feedback bands from a
// 0..100 score.
func feedbackGeneratorRunner(_ context.Context, _ domain.Node, input map[string]any, _ *domain.ExecutionContext, _ Deps) (Result, error) {
	score, _ := asFloat(input["score"])
	var feedback string
	switch {
	case score >= 80:
		feedback = "Excellent work! You've mastered this material."
	case score >= 50:
		feedback = "Good effort — review the parts you missed and try again."
	default:
		feedback = "Let's revisit this together with more support."
	}
	return Result{Output: map[string]any{"feedback": feedback}}, nil
}

// celebrationRunner is a terminal decoration node: trigger mirrors the
// input's boolean "achieved" field and is true when that field is absent.
func celebrationRunner(_ context.Context, node domain.Node, input map[string]any, _ *domain.ExecutionContext, _ Deps) (Result, error) {
	celebrationType := stringOr(node.Config, "celebrationType", "badge")
	message := stringOr(node.Config, "message", "Great job!")
	achieved := true
	if v, ok := input["achieved"].(bool); ok {
		achieved = v
	}
	return Result{Output: map[string]any{
		"celebration": map[string]any{
			"type":    celebrationType,
			"message": message,
		},
		"trigger": achieved,
	}}, nil
}
