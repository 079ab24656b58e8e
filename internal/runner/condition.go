package runner

import (
	"fmt"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ConditionEvaluator evaluates boolean expressions against a variable
// environment, with compiled-program and per-run result caching. A
// "variable not found" evaluation resolves to false rather than an error,
// because in a branch-lazy scheduler a condition may legitimately reference
// a variable no predecessor has produced yet.
type ConditionEvaluator struct {
	mu            sync.RWMutex
	compiledCache map[string]*vm.Program
	resultCache   map[string]bool
}

// NewConditionEvaluator builds an evaluator with both caches enabled.
func NewConditionEvaluator() *ConditionEvaluator {
	return &ConditionEvaluator{
		compiledCache: make(map[string]*vm.Program),
		resultCache:   make(map[string]bool),
	}
}

// ClearResultCache drops the per-run result cache; call between executions
// since results depend on the execution's variable values, not just the
// condition text.
func (ce *ConditionEvaluator) ClearResultCache() {
	ce.mu.Lock()
	defer ce.mu.Unlock()
	ce.resultCache = make(map[string]bool)
}

// Evaluate runs condition against variables, returning (result, nil) for a
// successful boolean evaluation, (false, nil) for a "variable not yet
// available" condition, and (false, err) for a genuine compile/type error.
func (ce *ConditionEvaluator) Evaluate(condition string, variables map[string]any) (bool, error) {
	if strings.TrimSpace(condition) == "" {
		return false, fmt.Errorf("condition cannot be empty")
	}

	cacheKey := ce.resultCacheKey(condition, variables)
	ce.mu.RLock()
	if cached, ok := ce.resultCache[cacheKey]; ok {
		ce.mu.RUnlock()
		return cached, nil
	}
	ce.mu.RUnlock()

	program, err := ce.compile(condition)
	if err != nil {
		return false, err
	}

	out, err := expr.Run(program, variables)
	if err != nil {
		return ce.handleEvalError(condition, err)
	}

	result, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("condition %q did not evaluate to a boolean, got %T", condition, out)
	}

	ce.mu.Lock()
	ce.resultCache[cacheKey] = result
	ce.mu.Unlock()
	return result, nil
}

func (ce *ConditionEvaluator) compile(condition string) (*vm.Program, error) {
	ce.mu.RLock()
	if p, ok := ce.compiledCache[condition]; ok {
		ce.mu.RUnlock()
		return p, nil
	}
	ce.mu.RUnlock()

	envType := map[string]any{}
	program, err := expr.Compile(condition, expr.Env(envType), expr.AsBool())
	if err != nil {
		program, err = expr.Compile(condition, expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("failed to compile condition %q: %w", condition, err)
		}
	}

	ce.mu.Lock()
	ce.compiledCache[condition] = program
	ce.mu.Unlock()
	return program, nil
}

// handleEvalError treats "variable not found"-shaped errors as a graceful
// false rather than a hard failure.
func (ce *ConditionEvaluator) handleEvalError(condition string, err error) (bool, error) {
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{"cannot fetch", "undefined", "unknown name", "nil pointer", "not found"} {
		if strings.Contains(msg, pattern) {
			return false, nil
		}
	}
	return false, fmt.Errorf("failed to evaluate condition %q: %w", condition, err)
}

func (ce *ConditionEvaluator) resultCacheKey(condition string, variables map[string]any) string {
	var b strings.Builder
	b.WriteString(condition)
	for k, v := range variables {
		fmt.Fprintf(&b, "|%s=%v", k, v)
	}
	return b.String()
}
