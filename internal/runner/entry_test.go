package runner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath/orchestrator/internal/domain"
)

func TestStudentProfileRunner_CopiesFieldsFromContext(t *testing.T) {
	execCtx := domain.NewExecutionContext(&domain.StudentProfile{
		ID: "s1", ProficiencyLevel: 4, PrimaryLanguage: "es", GradeLevel: 3, Interests: []string{"dinosaurs"},
	})
	res, err := runNode(t, domain.NodeStudentProfile, nil, nil, execCtx)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Output["elpaLevel"])
	assert.Equal(t, "es", res.Output["nativeLanguage"])
	assert.Equal(t, 3, res.Output["gradeLevel"])
	assert.Equal(t, []string{"dinosaurs"}, res.Output["interests"])
}

func TestCurriculumSelectorRunner_DefaultsSubjectAreaToELA(t *testing.T) {
	execCtx := domain.NewExecutionContext(&domain.StudentProfile{ID: "s1", GradeLevel: 5})
	res, err := runNode(t, domain.NodeCurriculumSelector, nil, nil, execCtx)
	require.NoError(t, err)
	assert.Equal(t, "ela", res.Output["subjectArea"])
	assert.Equal(t, 5, res.Output["gradeLevel"])
}

func TestCurriculumSelectorRunner_RespectsConfiguredSubject(t *testing.T) {
	res, err := runNode(t, domain.NodeCurriculumSelector, map[string]any{"subjectArea": "math", "strand": "fractions"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "math", res.Output["subjectArea"])
	assert.Equal(t, "fractions", res.Output["strand"])
}

func TestInputRunner_PassesThroughAndAppliesConfiguredValue(t *testing.T) {
	res, err := runNode(t, domain.NodeInput, map[string]any{"value": "seed"}, map[string]any{"existing": 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, "seed", res.Output["value"])
	assert.Equal(t, 1, res.Output["existing"])
}

func TestOutputRunner_NarrowsToConfiguredKey(t *testing.T) {
	res, err := runNode(t, domain.NodeOutput, map[string]any{"key": "score"}, map[string]any{"score": 99, "other": "x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"value": 99}, res.Output)
}

func TestOutputRunner_ForwardsEverythingWithoutKey(t *testing.T) {
	res, err := runNode(t, domain.NodeOutput, nil, map[string]any{"a": 1, "b": 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Output["a"])
	assert.Equal(t, 2, res.Output["b"])
}

func TestVariableRunner_AssignsConfigValueOverInput(t *testing.T) {
	execCtx := domain.NewExecutionContext(nil)
	res, err := runNode(t, domain.NodeVariable, map[string]any{"name": "score", "value": 10}, map[string]any{"value": 5}, execCtx)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Output["value"])
	v, ok := execCtx.GetVariable("score")
	require.True(t, ok)
	assert.Equal(t, 10, v)
}

func TestVariableRunner_FallsBackToInputValueWhenUnconfigured(t *testing.T) {
	execCtx := domain.NewExecutionContext(nil)
	_, err := runNode(t, domain.NodeVariable, map[string]any{"name": "score"}, map[string]any{"value": 5}, execCtx)
	require.NoError(t, err)
	v, ok := execCtx.GetVariable("score")
	require.True(t, ok)
	assert.Equal(t, 5, v)
}
