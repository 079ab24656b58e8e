package scaffold_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brightpath/orchestrator/internal/scaffold"
)

func TestAnalyzeReadability_EmptyText(t *testing.T) {
	r := scaffold.AnalyzeReadability("")
	assert.Equal(t, 0, r.TotalWords)
	assert.Equal(t, 1, r.TotalSentences, "sentinel of 1 to avoid division by zero")
	assert.GreaterOrEqual(t, r.FleschReadingEase, 0.0)
	assert.LessOrEqual(t, r.FleschReadingEase, 100.0)
}

func TestAnalyzeReadability_PunctuationOnly(t *testing.T) {
	assert.NotPanics(t, func() {
		scaffold.AnalyzeReadability("... !!! ???")
	})
}

func TestAnalyzeReadability_BoundsHoldAcrossInputs(t *testing.T) {
	samples := []string{
		"The cat sat on the mat.",
		strings.Repeat("Extraordinarily multisyllabic vocabulary perpetuates incomprehensibility. ", 5),
		"Run. Jump. Play.",
	}
	for _, s := range samples {
		r := scaffold.AnalyzeReadability(s)
		assert.GreaterOrEqual(t, r.FleschReadingEase, 0.0)
		assert.LessOrEqual(t, r.FleschReadingEase, 100.0)
		assert.GreaterOrEqual(t, r.FleschKincaid, 0.0)
		assert.GreaterOrEqual(t, r.SuggestedELPALevel, 1)
		assert.LessOrEqual(t, r.SuggestedELPALevel, 5)
	}
}

func TestAnalyzeReadability_SimpleTextScoresEasier(t *testing.T) {
	simple := scaffold.AnalyzeReadability("The cat sat on the mat. The dog ran fast.")
	complex_ := scaffold.AnalyzeReadability(
		"The extraordinarily multifaceted epistemological ramifications necessitate comprehensive reconsideration.")
	assert.Greater(t, simple.FleschReadingEase, complex_.FleschReadingEase)
}

func TestGenerateSentenceFrames_LevelBounds(t *testing.T) {
	frames := scaffold.GenerateSentenceFrames("space", 1, 0)
	assert.LessOrEqual(t, len(frames), 5)
	for _, f := range frames {
		assert.Equal(t, 1, f.ELPALevel)
	}
}

func TestGenerateSentenceFrames_InvalidLevelFallsBackToThree(t *testing.T) {
	frames := scaffold.GenerateSentenceFrames("space", 99, 3)
	assert.NotEmpty(t, frames)
	assert.Equal(t, 3, frames[0].ELPALevel)
}

func TestGenerateSentenceFrames_CountCapped(t *testing.T) {
	frames := scaffold.GenerateSentenceFrames("space", 2, 100)
	assert.LessOrEqual(t, len(frames), 5)
}
