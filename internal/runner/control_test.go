package runner_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath/orchestrator/internal/domain"
	domainerrors "github.com/brightpath/orchestrator/internal/domain/errors"
	"github.com/brightpath/orchestrator/internal/runner"
)

func runNode(t *testing.T, nodeType domain.NodeType, config map[string]any, input map[string]any, execCtx *domain.ExecutionContext) (runner.Result, error) {
	t.Helper()
	reg := runner.NewRegistry()
	fn, ok := reg.GetNodeRunner(nodeType)
	require.True(t, ok, "runner must be registered for %s", nodeType)
	if execCtx == nil {
		execCtx = domain.NewExecutionContext(&domain.StudentProfile{ID: "s1", ProficiencyLevel: 3})
	}
	deps := runner.Deps{Conditions: runner.NewConditionEvaluator()}
	node := domain.Node{ID: "n1", Type: nodeType, Config: config}
	return fn(context.Background(), node, input, execCtx, deps)
}

func TestConditionalRunner_EvaluatesExpression(t *testing.T) {
	res, err := runNode(t, domain.NodeConditional, map[string]any{"condition": "score >= 80"}, map[string]any{"score": 90.0}, nil)
	require.NoError(t, err)
	assert.Equal(t, true, res.Output["conditionMet"])
}

func TestConditionalRunner_MissingVariableIsGracefulFalse(t *testing.T) {
	res, err := runNode(t, domain.NodeConditional, map[string]any{"condition": "missingVar == true"}, map[string]any{}, nil)
	require.NoError(t, err)
	assert.Equal(t, false, res.Output["conditionMet"])
}

func TestProficiencyRouterRunner_PicksHighestMetThreshold(t *testing.T) {
	cfg := map[string]any{"routingCriteria": map[string]any{"mastered": 80.0, "developing": 50.0}}
	res, err := runNode(t, domain.NodeProficiencyRouter, cfg, map[string]any{"score": 85.0}, nil)
	require.NoError(t, err)
	assert.Equal(t, "mastered", res.Output["route"])
}

func TestProficiencyRouterRunner_FallsBackToNeedsReview(t *testing.T) {
	cfg := map[string]any{"routingCriteria": map[string]any{"mastered": 80.0}}
	res, err := runNode(t, domain.NodeProficiencyRouter, cfg, map[string]any{"score": 10.0}, nil)
	require.NoError(t, err)
	assert.Equal(t, "needs-review", res.Output["route"])
}

func TestLoopRunner_ComputesIterationAndCompletion(t *testing.T) {
	res, err := runNode(t, domain.NodeLoop, map[string]any{"maxIterations": 2}, map[string]any{"_loopIteration": 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Output["iteration"])
	assert.Equal(t, true, res.Output["isComplete"])
}

func TestMergeRunner_SelectBest_PicksHighestScore(t *testing.T) {
	input := map[string]any{
		runner.MergeSourcesKey: []runner.MergeSourceInput{
			{Key: "a", Output: map[string]any{"score": 0.5, "content": "low"}},
			{Key: "b", Output: map[string]any{"score": 0.9, "content": "high"}},
		},
	}
	res, err := runNode(t, domain.NodeMerge, map[string]any{"mergeStrategy": "select-best"}, input, nil)
	require.NoError(t, err)
	merged := res.Output["merged"].(map[string]any)
	assert.Equal(t, "high", merged["content"])
}

func TestMergeRunner_SelectBest_NoScoreField_IsConfigurationError(t *testing.T) {
	input := map[string]any{
		runner.MergeSourcesKey: []runner.MergeSourceInput{
			{Key: "a", Output: map[string]any{"content": "low"}},
		},
	}
	_, err := runNode(t, domain.NodeMerge, map[string]any{"mergeStrategy": "select-best"}, input, nil)
	require.Error(t, err)
	var cfgErr *domainerrors.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestMergeRunner_Concatenate_KeysByEdgeSource(t *testing.T) {
	input := map[string]any{
		runner.MergeSourcesKey: []runner.MergeSourceInput{
			{Key: "left", Output: map[string]any{"v": 1}},
			{Key: "right", Output: map[string]any{"v": 2}},
		},
	}
	res, err := runNode(t, domain.NodeMerge, nil, input, nil)
	require.NoError(t, err)
	merged := res.Output["merged"].(map[string]any)
	assert.Contains(t, merged, "left")
	assert.Contains(t, merged, "right")
}

func TestHumanInputRunner_Pauses(t *testing.T) {
	res, err := runNode(t, domain.NodeHumanInput, map[string]any{"prompt": "answer?"}, nil, nil)
	require.NoError(t, err)
	assert.True(t, res.ShouldPause)
	assert.Equal(t, "answer?", res.Output["prompt"])
}

func TestSpeakingAssessmentRunner_ScoresAgainstTarget(t *testing.T) {
	res, err := runNode(t, domain.NodeSpeakingAssessment, map[string]any{"targetPhrase": "good morning"}, map[string]any{"userAnswer": "good morning"}, nil)
	require.NoError(t, err)
	score, ok := res.Output["score"].(float64)
	require.True(t, ok)
	assert.Greater(t, score, 0.0)
}

func TestCelebrationRunner_DefaultsToTriggered(t *testing.T) {
	res, err := runNode(t, domain.NodeCelebration, nil, map[string]any{}, nil)
	require.NoError(t, err)
	assert.Equal(t, true, res.Output["trigger"])
}

func TestCelebrationRunner_NotTriggeredWhenAchievedFalse(t *testing.T) {
	res, err := runNode(t, domain.NodeCelebration, nil, map[string]any{"achieved": false}, nil)
	require.NoError(t, err)
	assert.Equal(t, false, res.Output["trigger"])
}

func TestParallelRunner_ForwardsInputUnchanged(t *testing.T) {
	res, err := runNode(t, domain.NodeParallel, nil, map[string]any{"a": 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Output["a"])
}

func TestMergeRunner_Aggregate_CollectsValuesAcrossSources(t *testing.T) {
	input := map[string]any{
		runner.MergeSourcesKey: []runner.MergeSourceInput{
			{Key: "a", Output: map[string]any{"tag": "x"}},
			{Key: "b", Output: map[string]any{"tag": "y"}},
		},
	}
	res, err := runNode(t, domain.NodeMerge, map[string]any{"mergeStrategy": "aggregate"}, input, nil)
	require.NoError(t, err)
	merged := res.Output["merged"].(map[string]any)
	assert.Equal(t, []any{"x", "y"}, merged["tag"])
}

func TestProficiencyRouterRunner_NoRoutingCriteriaDefaultsToMasteredAtEighty(t *testing.T) {
	res, err := runNode(t, domain.NodeProficiencyRouter, nil, map[string]any{"score": 85.0}, nil)
	require.NoError(t, err)
	assert.Equal(t, "mastered", res.Output["route"])
}
