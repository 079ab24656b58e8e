package runner

import (
	"context"

	"github.com/brightpath/orchestrator/internal/aiclient"
	"github.com/brightpath/orchestrator/internal/domain"
	domainerrors "github.com/brightpath/orchestrator/internal/domain/errors"
)

// aiModelRunner is the generic AI-call node: it substitutes {{variable}}
// placeholders in its prompt against the execution context's variables and
// the current input, then calls the AI collaborator — streaming tokens to
// deps.OnToken when configured to stream.
func aiModelRunner(ctx context.Context, node domain.Node, input map[string]any, execCtx *domain.ExecutionContext, deps Deps) (Result, error) {
	cfg, err := parseConfig[AIModelConfig](node.Config)
	if err != nil {
		return Result{}, err
	}

	vars := mergeVars(execCtx.Snapshot(), input)
	prompt := substituteVariables(cfg.Prompt, vars)

	if cfg.Stream && deps.AI != nil {
		return streamCompletion(ctx, node, cfg, prompt, deps)
	}

	text, err := generateContent(ctx, deps, node.ID, prompt)
	if err != nil {
		return Result{}, err
	}
	return Result{Output: map[string]any{"output": text, "model": cfg.Model}}, nil
}

func streamCompletion(ctx context.Context, node domain.Node, cfg *AIModelConfig, prompt string, deps Deps) (Result, error) {
	stream, err := deps.AI.StreamTextCompletion(ctx, aiclient.CompletionRequest{
		Prompt:      prompt,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxOutputTokens: cfg.MaxTokens,
	})
	if err != nil {
		return Result{}, domainerrors.NewAIUnavailableError(node.ID, err)
	}
	defer stream.Close()

	var full string
	for {
		token, ok, err := stream.Next(ctx)
		if err != nil {
			return Result{}, domainerrors.NewAIUnavailableError(node.ID, err)
		}
		if !ok {
			break
		}
		full += token
		if deps.OnToken != nil {
			deps.OnToken(node.ID, token)
		}
	}
	return Result{Output: map[string]any{"output": full, "model": cfg.Model}, Streamed: true}, nil
}

// promptTemplateRunner substitutes variables into a template and returns the
// resolved prompt without invoking the AI client — the pairing with
// ai-model is left to the workflow author.
func promptTemplateRunner(_ context.Context, node domain.Node, input map[string]any, execCtx *domain.ExecutionContext, _ Deps) (Result, error) {
	cfg, err := parseConfig[PromptTemplateConfig](node.Config)
	if err != nil {
		return Result{}, err
	}
	vars := mergeVars(execCtx.Snapshot(), input)
	resolved := substituteVariables(cfg.Template, vars)
	return Result{Output: map[string]any{"prompt": resolved}}, nil
}

// structuredOutputRunner calls generateStructuredOutput with a schema,
// falling back to a deterministic empty object when no AI client is wired.
func structuredOutputRunner(ctx context.Context, node domain.Node, input map[string]any, execCtx *domain.ExecutionContext, deps Deps) (Result, error) {
	cfg, err := parseConfig[StructuredOutputConfig](node.Config)
	if err != nil {
		return Result{}, err
	}
	vars := mergeVars(execCtx.Snapshot(), input)
	prompt := substituteVariables(cfg.Prompt, vars)

	if deps.AI == nil {
		return Result{Output: map[string]any{"object": map[string]any{}}}, nil
	}
	resp, err := deps.AI.GenerateStructuredOutput(ctx, aiclient.StructuredRequest{
		CompletionRequest: aiclient.CompletionRequest{Prompt: prompt},
		Schema:            cfg.Schema,
	})
	if err != nil {
		return Result{}, domainerrors.NewAIUnavailableError(node.ID, err)
	}
	return Result{Output: map[string]any{"object": resp.Object}}, nil
}

func mergeVars(base map[string]any, overlay map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}
