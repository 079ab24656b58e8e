package api

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/brightpath/orchestrator/internal/domain"
	"github.com/brightpath/orchestrator/internal/exec"
	"github.com/brightpath/orchestrator/internal/storage"
)

// sessionRecorder persists a finished execution through the storage façade:
// one learning_sessions row per run, plus an assessment_results row for
// every node that produced a numeric score. Recording is best-effort — a
// storage error is logged, never surfaced into the stream.
type sessionRecorder struct {
	exec.NoopObserver
	store  storage.Store
	logger zerolog.Logger
}

func (r *sessionRecorder) OnExecutionComplete(we *domain.WorkflowExecution) {
	ctx := context.Background()
	session := storage.LearningSession{
		ID:         we.ID,
		WorkflowID: we.WorkflowID,
		StudentID:  we.StudentID,
		Status:     string(we.Status),
		StartedAt:  we.StartedAt,
		EndedAt:    we.EndedAt,
	}
	if err := r.store.LearningSessions().Create(ctx, session); err != nil {
		r.logger.Error().Err(err).Str("execution_id", we.ID).Msg("failed to record learning session")
		return
	}
	for _, ne := range we.NodeExecutions {
		score, ok := numericScore(ne.Output)
		if !ok {
			continue
		}
		result := storage.AssessmentResult{
			ID:         ne.ID,
			SessionID:  we.ID,
			NodeID:     ne.NodeID,
			Score:      score,
			RecordedAt: ne.EndedAt,
		}
		if err := r.store.AssessmentResults().Create(ctx, result); err != nil {
			r.logger.Error().Err(err).Str("node_id", ne.NodeID).Msg("failed to record assessment result")
		}
	}
}

func numericScore(output map[string]any) (float64, bool) {
	switch v := output["score"].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}
