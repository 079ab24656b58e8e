package runner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath/orchestrator/internal/domain"
)

func TestContentGeneratorRunner_FallsBackWithoutAIClientAndAppendsContent(t *testing.T) {
	execCtx := domain.NewExecutionContext(nil)
	cfg := map[string]any{"contentType": "passage", "topic": "seasons"}
	res, err := runNode(t, domain.NodeContentGenerator, cfg, map[string]any{"topic": "seasons"}, execCtx)
	require.NoError(t, err)
	assert.Contains(t, res.Output["content"], "generated content for")
	require.Len(t, execCtx.AccumulatedContent, 1)
}

func TestMathProblemGeneratorRunner_DefaultsTopicAndDifficulty(t *testing.T) {
	execCtx := domain.NewExecutionContext(nil)
	res, err := runNode(t, domain.NodeMathProblemGen, nil, nil, execCtx)
	require.NoError(t, err)
	assert.Equal(t, "addition", res.Output["topic"])
	assert.Equal(t, "grade-level", res.Output["difficulty"])
}

func TestVocabularyBuilderRunner_CapsWordsAndAttachesL1(t *testing.T) {
	execCtx := domain.NewExecutionContext(&domain.StudentProfile{ID: "s1", PrimaryLanguage: "vi"})
	content := "elephant giraffe hippopotamus rhinoceros crocodile alligator"
	cfg := map[string]any{"maxWords": 2}
	res, err := runNode(t, domain.NodeVocabularyBuilder, cfg, map[string]any{"content": content}, execCtx)
	require.NoError(t, err)
	vocab := res.Output["vocabulary"].([]map[string]any)
	require.Len(t, vocab, 2)
	assert.Equal(t, "vi", vocab[0]["l1Translation"])
}

func TestScaffoldedContentRunner_DefaultsSupportsAndRecordsAdaptations(t *testing.T) {
	execCtx := domain.NewExecutionContext(&domain.StudentProfile{ID: "s1", ProficiencyLevel: 3})
	res, err := runNode(t, domain.NodeScaffoldedContent, nil, map[string]any{"content": "a short simple text"}, execCtx)
	require.NoError(t, err)
	supports := res.Output["supports"].([]string)
	assert.Len(t, supports, 3)
	assert.Len(t, execCtx.Adaptations, 3)
}

func TestScaffoldedContentRunner_GeneratesSentenceFramesAtStudentLevel(t *testing.T) {
	execCtx := domain.NewExecutionContext(&domain.StudentProfile{ID: "s1", ProficiencyLevel: 2})
	input := map[string]any{"content": "a short simple text", "topic": "seasons"}
	res, err := runNode(t, domain.NodeScaffoldedContent, nil, input, execCtx)
	require.NoError(t, err)

	frames, ok := res.Output["sentenceFrames"].([]map[string]any)
	require.True(t, ok, "default supports include sentence starters, so frames must be generated")
	require.NotEmpty(t, frames)
	assert.Equal(t, 2, frames[0]["elpaLevel"])
	assert.Contains(t, frames[0], "pattern")
	assert.Contains(t, frames[0], "example")
}

func TestScaffoldedContentRunner_NoFramesWithoutSentenceStarters(t *testing.T) {
	cfg := map[string]any{"supports": []any{"word bank"}}
	res, err := runNode(t, domain.NodeScaffoldedContent, cfg, map[string]any{"content": "text"}, nil)
	require.NoError(t, err)
	assert.NotContains(t, res.Output, "sentenceFrames")
}

func TestL1BridgeRunner_UsesStudentPrimaryLanguage(t *testing.T) {
	execCtx := domain.NewExecutionContext(&domain.StudentProfile{ID: "s1", PrimaryLanguage: "fr"})
	res, err := runNode(t, domain.NodeL1Bridge, nil, map[string]any{"content": "hello"}, execCtx)
	require.NoError(t, err)
	assert.Contains(t, res.Output["translatedText"], "generated content for")
	assert.Equal(t, "hello", res.Output["originalText"])
}

func TestVisualSupportRunner_DescribesConfiguredSupportType(t *testing.T) {
	res, err := runNode(t, domain.NodeVisualSupport, map[string]any{"supportType": "diagram"}, map[string]any{"content": "the water cycle"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "diagram", res.Output["supportType"])
	assert.Contains(t, res.Output["description"], "the water cycle")
}

func TestComprehensibleInputRunner_FlagsComprehensibleWithinOneLevel(t *testing.T) {
	execCtx := domain.NewExecutionContext(&domain.StudentProfile{ID: "s1", ProficiencyLevel: 3})
	res, err := runNode(t, domain.NodeComprehensibleInput, nil, map[string]any{"content": "The cat sat on the mat."}, execCtx)
	require.NoError(t, err)
	assert.Contains(t, res.Output, "comprehensible")
}

func TestReadingPassageRunner_CleansHTMLContent(t *testing.T) {
	html := `<html><body><p>Plain reading passage content for testing extraction.</p></body></html>`
	res, err := runNode(t, domain.NodeReadingPassage, nil, map[string]any{"content": html}, nil)
	require.NoError(t, err)
	passage, _ := res.Output["passage"].(string)
	assert.NotContains(t, passage, "<p>")
}

func TestReadingPassageRunner_PlainTextPassesThroughUnchanged(t *testing.T) {
	res, err := runNode(t, domain.NodeReadingPassage, map[string]any{"passage": "a simple plain passage"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "a simple plain passage", res.Output["passage"])
}
