package runner

import (
	"context"
	"fmt"
	"sort"

	"github.com/brightpath/orchestrator/internal/domain"
	domainerrors "github.com/brightpath/orchestrator/internal/domain/errors"
)

// conditionalRunner evaluates config.Condition against the merged
// context-variables + input environment via the shared ConditionEvaluator.
// The scheduler, not this runner, decides which outgoing edge is live based
// on conditionMet — this runner only produces the verdict.
func conditionalRunner(_ context.Context, node domain.Node, input map[string]any, execCtx *domain.ExecutionContext, deps Deps) (Result, error) {
	cfg, err := parseConfig[ConditionalConfig](node.Config)
	if err != nil {
		return Result{}, err
	}
	env := mergeVars(execCtx.Snapshot(), input)
	evaluator := deps.Conditions
	if evaluator == nil {
		evaluator = NewConditionEvaluator()
	}
	met, err := evaluator.Evaluate(cfg.Condition, env)
	if err != nil {
		return Result{}, fmt.Errorf("conditional node %s: %w", node.ID, err)
	}
	return Result{Output: map[string]any{
		"conditionMet":      met,
		"conditionEvaluated": cfg.Condition,
	}}, nil
}

// proficiencyRouterRunner picks the highest-threshold route whose criterion
// the score meets, falling back to "needs-review" when none is met — a
// multi-way branch the scheduler resolves by matching the produced route
// against each outgoing edge's source port.
func proficiencyRouterRunner(_ context.Context, node domain.Node, input map[string]any, execCtx *domain.ExecutionContext, _ Deps) (Result, error) {
	cfg, err := parseConfig[ProficiencyRouterConfig](node.Config)
	if err != nil {
		return Result{}, err
	}
	score, ok := input["score"].(float64)
	if !ok {
		if n, ok2 := input["score"].(int); ok2 {
			score = float64(n)
		} else {
			score = float64(execCtx.CurrentLanguageLevel)
		}
	}

	type routeThreshold struct {
		name      string
		threshold float64
	}
	var routes []routeThreshold
	for name, threshold := range cfg.RoutingCriteria {
		routes = append(routes, routeThreshold{name, threshold})
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i].threshold > routes[j].threshold })

	route := "needs-review"
	for _, r := range routes {
		if score >= r.threshold {
			route = r.name
			break
		}
	}
	if len(routes) == 0 {
		if score >= 80 {
			route = "mastered"
		}
	}

	return Result{Output: map[string]any{
		"score":    score,
		"route":    route,
		"criteria": cfg.RoutingCriteria,
	}}, nil
}

// LoopMaxIterations reads a loop node's configured maxIterations the same
// way loopRunner does, defaulting to 5 when unset or non-positive. Exported
// so the scheduler's own re-entry ceiling reads the node's configuration
// instead of a scheduler-global default — a loop configured for k
// iterations must produce exactly k visits, not be silently truncated.
func LoopMaxIterations(node domain.Node) int {
	maxIterations := intOr(node.Config, "maxIterations", 5)
	if maxIterations <= 0 {
		maxIterations = 5
	}
	return maxIterations
}

// loopRunner computes the next iteration and completion flag; the
// scheduler owns re-entry, the maxIterations ceiling enforcement, and
// _loopIteration injection.
func loopRunner(_ context.Context, node domain.Node, input map[string]any, _ *domain.ExecutionContext, _ Deps) (Result, error) {
	maxIterations := LoopMaxIterations(node)
	prior := intOr(input, "_loopIteration", 0)
	iteration := prior + 1
	return Result{Output: map[string]any{
		"iteration":  iteration,
		"isComplete": iteration >= maxIterations,
	}}, nil
}

// MergeSourceInput is one live inbound edge's contribution to a merge node,
// assembled by the scheduler (not the runner) since only the scheduler
// knows which edges are live for this visit.
type MergeSourceInput struct {
	Key    string // source port if set, else source node id
	Output map[string]any
}

// MergeSourcesKey is the input key under which the scheduler supplies a
// merge node's collected []MergeSourceInput; exported so internal/exec can
// populate it without either package reaching into the other's internals.
const MergeSourcesKey = "_mergeSources"

const mergeSourcesKey = MergeSourcesKey

// mergeRunner combines every live inbound edge's output per the configured
// strategy. Strategies read from input[mergeSourcesKey] ([]MergeSourceInput)
// when the scheduler supplies it; a direct call without that key falls back
// to treating the plain input map as the sole source (useful for single-edge
// merges and tests that call the runner directly).
func mergeRunner(_ context.Context, node domain.Node, input map[string]any, _ *domain.ExecutionContext, _ Deps) (Result, error) {
	cfg, err := parseConfig[MergeConfig](node.Config)
	if err != nil {
		return Result{}, err
	}
	strategy := cfg.Strategy
	if strategy == "" {
		strategy = string(domain.MergeConcatenate)
	}
	scoreField := cfg.ScoreField
	if scoreField == "" {
		scoreField = "score"
	}

	sources, _ := input[mergeSourcesKey].([]MergeSourceInput)
	if sources == nil {
		sources = []MergeSourceInput{{Key: node.ID, Output: withoutMergeKey(input)}}
	}

	switch domain.MergeStrategy(strategy) {
	case domain.MergeSelectBest:
		best, err := selectBest(sources, scoreField)
		if err != nil {
			return Result{}, err
		}
		return Result{Output: map[string]any{"merged": best}}, nil
	case domain.MergeFirstComplete:
		// Every live in-edge has already completed by the time a merge node
		// fires, so first-complete is deterministically the first source.
		if len(sources) == 0 {
			return Result{Output: map[string]any{"merged": map[string]any{}}}, nil
		}
		return Result{Output: map[string]any{"merged": sources[0].Output}}, nil
	case domain.MergeAggregate:
		agg := map[string]any{}
		for _, s := range sources {
			for k, v := range s.Output {
				agg[k] = appendAggregate(agg[k], v)
			}
		}
		return Result{Output: map[string]any{"merged": agg}}, nil
	default: // concatenate
		merged := make(map[string]any, len(sources))
		for _, s := range sources {
			merged[s.Key] = s.Output
		}
		return Result{Output: map[string]any{"merged": merged}}, nil
	}
}

func withoutMergeKey(input map[string]any) map[string]any {
	out := make(map[string]any, len(input))
	for k, v := range input {
		if k == mergeSourcesKey {
			continue
		}
		out[k] = v
	}
	return out
}

func appendAggregate(existing any, v any) []any {
	list, _ := existing.([]any)
	return append(list, v)
}

// selectBest picks the contributing output with the highest numeric
// scoreField value. A select-best merge with no source exposing scoreField
// is a configuration error, not a guess.
func selectBest(sources []MergeSourceInput, scoreField string) (map[string]any, error) {
	var best map[string]any
	bestScore := -1.0
	found := false
	for _, s := range sources {
		v, ok := s.Output[scoreField]
		score, ok2 := asFloat(v)
		if !ok || !ok2 {
			continue
		}
		if !found || score > bestScore {
			best = s.Output
			bestScore = score
			found = true
		}
	}
	if !found {
		return nil, domainerrors.NewConfigurationError("merge/select-best",
			fmt.Sprintf("no source exposes numeric field %q", scoreField))
	}
	return best, nil
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

// parallelRunner is a structural fan-out marker: the scheduler's edge
// traversal performs the actual fan-out, so the runner only forwards its
// input unchanged, like inputRunner.
func parallelRunner(ctx context.Context, node domain.Node, input map[string]any, execCtx *domain.ExecutionContext, deps Deps) (Result, error) {
	return inputRunner(ctx, node, input, execCtx, deps)
}
