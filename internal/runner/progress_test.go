package runner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath/orchestrator/internal/domain"
)

func TestProgressTrackerRunner_ComputesAccuracyAndAppendsReport(t *testing.T) {
	execCtx := domain.NewExecutionContext(nil)
	input := map[string]any{"questionsAnswered": 10, "correctAnswers": 7, "timeSpent": 120}
	res, err := runNode(t, domain.NodeProgressTracker, nil, input, execCtx)
	require.NoError(t, err)

	progress := res.Output["progress"].(map[string]any)
	assert.Equal(t, 0.7, progress["accuracy"])
	require.Len(t, execCtx.AccumulatedContent, 1)
	assert.Contains(t, execCtx.AccumulatedContent[0], "7 of 10")
}

func TestProgressTrackerRunner_ZeroAnsweredAvoidsDivideByZero(t *testing.T) {
	res, err := runNode(t, domain.NodeProgressTracker, nil, map[string]any{}, nil)
	require.NoError(t, err)
	progress := res.Output["progress"].(map[string]any)
	assert.Equal(t, 0.0, progress["accuracy"])
}

func TestFeedbackGeneratorRunner_BandsByScore(t *testing.T) {
	res, err := runNode(t, domain.NodeFeedbackGenerator, nil, map[string]any{"score": 95.0}, nil)
	require.NoError(t, err)
	assert.Contains(t, res.Output["feedback"], "Excellent")

	res, err = runNode(t, domain.NodeFeedbackGenerator, nil, map[string]any{"score": 60.0}, nil)
	require.NoError(t, err)
	assert.Contains(t, res.Output["feedback"], "Good effort")

	res, err = runNode(t, domain.NodeFeedbackGenerator, nil, map[string]any{"score": 10.0}, nil)
	require.NoError(t, err)
	assert.Contains(t, res.Output["feedback"], "revisit")
}
