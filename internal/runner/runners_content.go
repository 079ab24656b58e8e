package runner

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"

	"github.com/brightpath/orchestrator/internal/aiclient"
	"github.com/brightpath/orchestrator/internal/domain"
	domainerrors "github.com/brightpath/orchestrator/internal/domain/errors"
	"github.com/brightpath/orchestrator/internal/scaffold"
)

// contentGeneratorRunner produces content, optionally via the AI
// collaborator; when no AI client is injected it falls back to a
// deterministic topic-based stub so workflows remain runnable in tests
// that never wire one.
func contentGeneratorRunner(ctx context.Context, node domain.Node, input map[string]any, execCtx *domain.ExecutionContext, deps Deps) (Result, error) {
	cfg, err := parseConfig[ContentGeneratorConfig](node.Config)
	if err != nil {
		return Result{}, err
	}
	length := cfg.Length
	if length == 0 {
		length = 150
	}
	topic := cfg.Topic
	if topic == "" {
		topic, _ = input["topic"].(string)
	}

	content, err := generateContent(ctx, deps, node.ID, fmt.Sprintf("Write a %s of about %d words about %s for a language learner.", cfg.ContentType, length, topic))
	if err != nil {
		return Result{}, err
	}

	execCtx.AppendContent(content)
	analysis := scaffold.AnalyzeReadability(content)
	return Result{Output: map[string]any{
		"content":          content,
		"readabilityLevel": analysis.SuggestedELPALevel,
		"wordCount":        analysis.TotalWords,
		"vocabulary":       extractKeyWords(content, 5),
	}}, nil
}

// mathProblemGeneratorRunner follows content-generator's shape: same
// AI-or-fallback generation, numeric framing instead of prose length.
func mathProblemGeneratorRunner(ctx context.Context, node domain.Node, input map[string]any, execCtx *domain.ExecutionContext, deps Deps) (Result, error) {
	topic := stringOr(node.Config, "topic", "addition")
	difficulty := stringOr(node.Config, "difficulty", "grade-level")
	problem, err := generateContent(ctx, deps, node.ID, fmt.Sprintf("Write a %s word problem about %s.", difficulty, topic))
	if err != nil {
		return Result{}, err
	}
	execCtx.AppendContent(problem)
	return Result{Output: map[string]any{"problem": problem, "topic": topic, "difficulty": difficulty}}, nil
}

// vocabularyBuilderRunner respects L1 from the student and caps the list at
// MaxWords (default 5).
func vocabularyBuilderRunner(_ context.Context, node domain.Node, input map[string]any, execCtx *domain.ExecutionContext, _ Deps) (Result, error) {
	cfg, err := parseConfig[VocabularyBuilderConfig](node.Config)
	if err != nil {
		return Result{}, err
	}
	maxWords := cfg.MaxWords
	if maxWords <= 0 {
		maxWords = 5
	}
	content, _ := input["content"].(string)
	words := extractKeyWords(content, maxWords)

	l1 := ""
	if execCtx.Student != nil {
		l1 = execCtx.Student.PrimaryLanguage
	}
	vocab := make([]map[string]any, 0, len(words))
	for _, w := range words {
		vocab = append(vocab, map[string]any{
			"word":           w,
			"definition":     fmt.Sprintf("a key term from the passage: %s", w),
			"l1Translation":  l1,
		})
	}
	return Result{Output: map[string]any{
		"vocabulary":    vocab,
		"sourceContent": content,
	}}, nil
}

// scaffoldedContentRunner adjusts content to the current proficiency level,
// recording which supports it applied. When sentence starters are among the
// supports, it generates level-appropriate sentence frames from the shared
// catalogue.
func scaffoldedContentRunner(_ context.Context, node domain.Node, input map[string]any, execCtx *domain.ExecutionContext, _ Deps) (Result, error) {
	cfg, err := parseConfig[ScaffoldedContentConfig](node.Config)
	if err != nil {
		return Result{}, err
	}
	content, _ := input["content"].(string)
	analysis := scaffold.AnalyzeReadability(content)

	supports := cfg.Supports
	if len(supports) == 0 {
		supports = []string{"sentence starters", "word bank", "visual supports"}
	}

	scaffolding := make([]string, 0, len(supports))
	for _, s := range supports {
		scaffolding = append(scaffolding, s)
		execCtx.AddAdaptation(s)
	}

	adjusted := execCtx.CurrentLanguageLevel
	if analysis.SuggestedELPALevel > adjusted+1 {
		// Content reads well above the student's level: drop the working
		// level so downstream runners scaffold more aggressively.
		adjusted--
		if adjusted < 1 {
			adjusted = 1
		}
	}
	execCtx.ProposeLanguageLevel(adjusted)

	out := map[string]any{
		"scaffolding":   scaffolding,
		"adjustedLevel": adjusted,
		"supports":      supports,
		"content":       content,
	}
	if hasSupport(supports, "sentence starters") {
		topic := stringOr(node.Config, "topic", "")
		if topic == "" {
			topic, _ = input["topic"].(string)
		}
		frames := scaffold.GenerateSentenceFrames(topic, adjusted, 3)
		list := make([]map[string]any, 0, len(frames))
		for _, f := range frames {
			list = append(list, map[string]any{
				"pattern":   f.Pattern,
				"example":   f.Example,
				"purpose":   f.Purpose,
				"elpaLevel": f.ELPALevel,
			})
		}
		out["sentenceFrames"] = list
	}
	return Result{Output: out}, nil
}

func hasSupport(supports []string, name string) bool {
	for _, s := range supports {
		if s == name {
			return true
		}
	}
	return false
}

// l1BridgeRunner uses the student's native language to produce an explicit
// bridge between the original and translated text.
func l1BridgeRunner(ctx context.Context, node domain.Node, input map[string]any, execCtx *domain.ExecutionContext, deps Deps) (Result, error) {
	cfg, err := parseConfig[L1BridgeConfig](node.Config)
	if err != nil {
		return Result{}, err
	}
	mode := cfg.BridgeMode
	if mode == "" {
		mode = "full"
	}
	original, _ := input["content"].(string)
	nativeLang := "the student's native language"
	if execCtx.Student != nil && execCtx.Student.PrimaryLanguage != "" {
		nativeLang = execCtx.Student.PrimaryLanguage
	}

	translated, err := generateContent(ctx, deps, node.ID, fmt.Sprintf("Translate the following into %s (%s mode): %s", nativeLang, mode, original))
	if err != nil {
		return Result{}, err
	}

	return Result{Output: map[string]any{
		"originalText":   original,
		"translatedText": translated,
		"keyTerms":       extractKeyWords(original, 5),
	}}, nil
}

// visualSupportRunner names the visual aids that would accompany content;
// actual image generation is outside this engine's scope, so the runner
// only produces the descriptive plan an AI image tool would consume.
func visualSupportRunner(_ context.Context, node domain.Node, input map[string]any, _ *domain.ExecutionContext, _ Deps) (Result, error) {
	content, _ := input["content"].(string)
	supportType := stringOr(node.Config, "supportType", "illustration")
	return Result{Output: map[string]any{
		"supportType": supportType,
		"description": fmt.Sprintf("%s depicting: %s", supportType, truncate(content, 120)),
	}}, nil
}

// comprehensibleInputRunner passes its input content through unchanged and
// reports, via the shared readability analysis, whether it sits within one
// level of the student's current language level.
func comprehensibleInputRunner(_ context.Context, _ domain.Node, input map[string]any, execCtx *domain.ExecutionContext, _ Deps) (Result, error) {
	content, _ := input["content"].(string)
	analysis := scaffold.AnalyzeReadability(content)
	return Result{Output: map[string]any{
		"content":           content,
		"fleschReadingEase": analysis.FleschReadingEase,
		"suggestedLevel":    analysis.SuggestedELPALevel,
		"comprehensible":    analysis.SuggestedELPALevel <= execCtx.CurrentLanguageLevel+1,
	}}, nil
}

// readingPassageRunner serves a passage, scoring its readability and, if
// the content looks like HTML, cleaning it to plain text first via
// go-readability's extraction.
func readingPassageRunner(_ context.Context, node domain.Node, input map[string]any, _ *domain.ExecutionContext, _ Deps) (Result, error) {
	passage, _ := input["content"].(string)
	if passage == "" {
		passage = stringOr(node.Config, "passage", "")
	}
	if looksLikeHTML(passage) {
		if cleaned, ok := extractReadableText(passage); ok {
			passage = cleaned
		}
	}
	analysis := scaffold.AnalyzeReadability(passage)
	return Result{Output: map[string]any{
		"passage":           passage,
		"fleschReadingEase": analysis.FleschReadingEase,
		"fleschKincaid":     analysis.FleschKincaid,
		"suggestedLevel":    analysis.SuggestedELPALevel,
	}}, nil
}

func looksLikeHTML(s string) bool {
	t := strings.TrimSpace(s)
	return strings.HasPrefix(t, "<") && strings.Contains(t, ">")
}

// extractReadableText delegates to go-readability's HTML extraction. The
// passage never has a source URL, so a dummy base satisfies the library's
// relative-link resolution.
func extractReadableText(html string) (string, bool) {
	base, _ := url.Parse("http://localhost")
	article, err := readability.FromReader(strings.NewReader(html), base)
	if err != nil {
		return "", false
	}
	return article.TextContent, true
}

// generateContent calls the injected AI client for a single completion,
// falling back to a deterministic stub when no client was injected so
// content-bearing nodes remain runnable without a concrete provider.
func generateContent(ctx context.Context, deps Deps, nodeID, prompt string) (string, error) {
	if deps.AI == nil {
		return fmt.Sprintf("[generated content for: %s]", truncate(prompt, 80)), nil
	}
	resp, err := deps.AI.GenerateTextCompletion(ctx, aiclient.CompletionRequest{Prompt: prompt})
	if err != nil {
		return "", domainerrors.NewAIUnavailableError(nodeID, err)
	}
	return resp.Text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// extractKeyWords picks up to n distinct longer words from text, a simple
// deterministic stand-in for a real vocabulary extraction model.
func extractKeyWords(text string, n int) []string {
	fields := strings.Fields(text)
	seen := map[string]bool{}
	var out []string
	for _, f := range fields {
		w := strings.ToLower(strings.Trim(f, ".,!?;:\"'"))
		if len(w) < 5 || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
		if len(out) >= n {
			break
		}
	}
	return out
}
