// Package runner implements the node-runner registry: a type-indexed table
// of pure functions (node, input, context) -> Result, with built-in runners
// for the full closed set of node kinds. Runners never touch the stream
// manager, never retry internally beyond what their own AI calls do, and an
// unknown type resolves to no runner at all — handled by the scheduler as a
// skip, never a failure.
package runner

import (
	"context"

	"github.com/brightpath/orchestrator/internal/aiclient"
	"github.com/brightpath/orchestrator/internal/domain"
	"github.com/rs/zerolog"
)

// Result is what a runner returns to the scheduler.
type Result struct {
	Output      map[string]any
	ShouldPause bool
	Streamed    bool
}

// Deps bundles the collaborators injected into every runner invocation.
// Runners are pure with respect to (node, input, context) plus these.
type Deps struct {
	AI     aiclient.Client // may be nil; runners that need it must handle absence
	Logger zerolog.Logger
	// OnToken is invoked for each token a streaming AI call produces, before
	// the runner returns; the scheduler wires this to onStreamToken/C7.
	OnToken func(nodeID, content string)
	// Conditions is the shared expr-lang evaluator for conditional nodes,
	// scoped to one execution so its result
	// cache reflects that execution's variable values only.
	Conditions *ConditionEvaluator
}

// Func is the runner signature: (node, input, context, deps) -> Result.
type Func func(ctx context.Context, node domain.Node, input map[string]any, execCtx *domain.ExecutionContext, deps Deps) (Result, error)

// Registry is the type-indexed dispatch table. GetNodeRunner(type) returns
// the runner or (nil, false); callers must treat a miss as a skip, not a
// failure.
type Registry struct {
	runners map[domain.NodeType]Func
}

// NewRegistry builds a registry pre-populated with every built-in runner.
func NewRegistry() *Registry {
	r := &Registry{runners: make(map[domain.NodeType]Func)}
	registerBuiltins(r)
	return r
}

// Register adds or replaces the runner for a node type.
func (r *Registry) Register(t domain.NodeType, fn Func) {
	r.runners[t] = fn
}

// GetNodeRunner resolves a node type to its runner.
func (r *Registry) GetNodeRunner(t domain.NodeType) (Func, bool) {
	fn, ok := r.runners[t]
	return fn, ok
}

// registerBuiltins wires every one of the closed node-kind set's runners.
// A kind left unregistered resolves to a miss at GetNodeRunner — the
// scheduler's "unknown type is a skip, not a failure" rule — so this is the
// single place that decides which kinds actually have behaviour.
func registerBuiltins(r *Registry) {
	r.Register(domain.NodeStudentProfile, studentProfileRunner)
	r.Register(domain.NodeCurriculumSelector, curriculumSelectorRunner)
	r.Register(domain.NodeInput, inputRunner)
	r.Register(domain.NodeOutput, outputRunner)
	r.Register(domain.NodeVariable, variableRunner)

	r.Register(domain.NodeContentGenerator, contentGeneratorRunner)
	r.Register(domain.NodeMathProblemGen, mathProblemGeneratorRunner)
	r.Register(domain.NodeVocabularyBuilder, vocabularyBuilderRunner)
	r.Register(domain.NodeScaffoldedContent, scaffoldedContentRunner)
	r.Register(domain.NodeL1Bridge, l1BridgeRunner)
	r.Register(domain.NodeVisualSupport, visualSupportRunner)
	r.Register(domain.NodeComprehensibleInput, comprehensibleInputRunner)
	r.Register(domain.NodeReadingPassage, readingPassageRunner)

	r.Register(domain.NodeAIModel, aiModelRunner)
	r.Register(domain.NodePromptTemplate, promptTemplateRunner)
	r.Register(domain.NodeStructuredOutput, structuredOutputRunner)

	r.Register(domain.NodeHumanInput, humanInputRunner)
	r.Register(domain.NodeVoiceInput, voiceInputRunner)
	r.Register(domain.NodeComprehensionCheck, comprehensionCheckRunner)
	r.Register(domain.NodeMultipleChoice, multipleChoiceRunner)
	r.Register(domain.NodeFreeResponse, freeResponseRunner)
	r.Register(domain.NodeOralPractice, oralPracticeRunner)
	r.Register(domain.NodeSpeakingAssessment, speakingAssessmentRunner)
	r.Register(domain.NodeWordProblemDecoder, wordProblemDecoderRunner)

	r.Register(domain.NodeProficiencyRouter, proficiencyRouterRunner)
	r.Register(domain.NodeLoop, loopRunner)
	r.Register(domain.NodeMerge, mergeRunner)
	r.Register(domain.NodeParallel, parallelRunner)
	r.Register(domain.NodeConditional, conditionalRunner)

	r.Register(domain.NodeProgressTracker, progressTrackerRunner)
	r.Register(domain.NodeFeedbackGenerator, feedbackGeneratorRunner)
	r.Register(domain.NodeCelebration, celebrationRunner)
}
