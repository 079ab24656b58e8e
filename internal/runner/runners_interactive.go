package runner

import (
	"context"
	"fmt"

	"github.com/brightpath/orchestrator/internal/domain"
)

// humanInputRunner is the human-in-the-loop pause point: it always reports
// shouldPause. The scheduler is responsible for augmenting this node's
// output with userAnswer on resume; the runner only describes what it is
// waiting for.
func humanInputRunner(_ context.Context, node domain.Node, _ map[string]any, _ *domain.ExecutionContext, _ Deps) (Result, error) {
	cfg, err := parseConfig[HumanInputConfig](node.Config)
	if err != nil {
		return Result{}, err
	}
	inputType := cfg.InputType
	if inputType == "" {
		inputType = "text"
	}
	return Result{
		Output: map[string]any{
			"prompt":    cfg.Prompt,
			"inputType": inputType,
			"awaiting":  true,
		},
		ShouldPause: true,
	}, nil
}

// voiceInputRunner follows human-input's pause contract but tags the
// expected answer shape as audio, for oral-practice-adjacent workflows.
func voiceInputRunner(_ context.Context, node domain.Node, _ map[string]any, _ *domain.ExecutionContext, _ Deps) (Result, error) {
	prompt := stringOr(node.Config, "prompt", "")
	return Result{
		Output: map[string]any{
			"prompt":    prompt,
			"inputType": "audio",
			"awaiting":  true,
		},
		ShouldPause: true,
	}, nil
}

// comprehensionCheckRunner is passive: it surfaces the configured questions
// and pass threshold; downstream flow (a proficiency-router or conditional)
// decides what to do with a score.
func comprehensionCheckRunner(_ context.Context, node domain.Node, _ map[string]any, _ *domain.ExecutionContext, _ Deps) (Result, error) {
	cfg, err := parseConfig[ComprehensionCheckConfig](node.Config)
	if err != nil {
		return Result{}, err
	}
	threshold := cfg.PassThreshold
	if threshold == 0 {
		threshold = 0.7
	}
	return Result{Output: map[string]any{
		"questions":     cfg.Questions,
		"passThreshold": threshold,
	}}, nil
}

// multipleChoiceRunner shares comprehension-check's passive contract.
func multipleChoiceRunner(ctx context.Context, node domain.Node, input map[string]any, execCtx *domain.ExecutionContext, deps Deps) (Result, error) {
	return comprehensionCheckRunner(ctx, node, input, execCtx, deps)
}

// freeResponseRunner records a free-text prompt and pauses for the
// student's written answer, mirroring human-input but labelled for
// open-ended response collection.
func freeResponseRunner(_ context.Context, node domain.Node, _ map[string]any, _ *domain.ExecutionContext, _ Deps) (Result, error) {
	prompt := stringOr(node.Config, "prompt", "")
	rubric := stringOr(node.Config, "rubric", "")
	return Result{
		Output: map[string]any{
			"prompt":    prompt,
			"rubric":    rubric,
			"inputType": "text",
			"awaiting":  true,
		},
		ShouldPause: true,
	}, nil
}

// oralPracticeRunner asks the student to produce speech for a target
// phrase/pattern, pausing for a voice-input-shaped answer.
func oralPracticeRunner(ctx context.Context, node domain.Node, input map[string]any, execCtx *domain.ExecutionContext, deps Deps) (Result, error) {
	targetPhrase := stringOr(node.Config, "targetPhrase", "")
	if targetPhrase == "" {
		targetPhrase, _ = input["content"].(string)
	}
	return Result{
		Output: map[string]any{
			"targetPhrase": targetPhrase,
			"inputType":    "audio",
			"awaiting":     true,
		},
		ShouldPause: true,
	}, nil
}

// speakingAssessmentRunner scores a previously-collected oral response.
// Without a concrete speech-scoring collaborator it derives a deterministic
// score from transcript length against the target phrase, the same
// fallback shape contentGeneratorRunner uses when deps.AI is nil.
func speakingAssessmentRunner(_ context.Context, node domain.Node, input map[string]any, _ *domain.ExecutionContext, _ Deps) (Result, error) {
	transcript, _ := input["userAnswer"].(string)
	target := stringOr(node.Config, "targetPhrase", "")
	score := scoreTranscript(transcript, target)
	return Result{Output: map[string]any{
		"transcript": transcript,
		"score":      score,
		"fluency":    fluencyBand(score),
	}}, nil
}

func scoreTranscript(transcript, target string) float64 {
	if target == "" {
		if transcript == "" {
			return 0
		}
		return 70
	}
	if transcript == "" {
		return 0
	}
	ratio := float64(len(transcript)) / float64(len(target))
	if ratio > 1 {
		ratio = 1 / ratio
	}
	return clampScore(ratio * 100)
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func fluencyBand(score float64) string {
	switch {
	case score >= 80:
		return "fluent"
	case score >= 50:
		return "developing"
	default:
		return "emerging"
	}
}

// wordProblemDecoderRunner extracts the numeric operation hints out of a
// math word problem so downstream nodes (or a human-input check) can verify
// a student's decomposition of it, with the same AI-or-fallback shape as
// math-problem-generator.
func wordProblemDecoderRunner(ctx context.Context, node domain.Node, input map[string]any, _ *domain.ExecutionContext, deps Deps) (Result, error) {
	problem, _ := input["problem"].(string)
	if problem == "" {
		problem = stringOr(node.Config, "problem", "")
	}
	decoded, err := generateContent(ctx, deps, node.ID, fmt.Sprintf("List the quantities and the operation needed to solve: %s", problem))
	if err != nil {
		return Result{}, err
	}
	return Result{Output: map[string]any{
		"problem": problem,
		"decoded": decoded,
	}}, nil
}
