// Package orchestrator is the public execution façade: the
// synchronous-looking Execute(workflow, student) entry point plus the
// paired Pause/Resume/Cancel/IsAwaitingInput/GetAwaitingInputNode surface
// and observer registration.
package orchestrator

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/brightpath/orchestrator/internal/aiclient"
	"github.com/brightpath/orchestrator/internal/domain"
	domainerrors "github.com/brightpath/orchestrator/internal/domain/errors"
	"github.com/brightpath/orchestrator/internal/exec"
	"github.com/brightpath/orchestrator/internal/graph"
	"github.com/brightpath/orchestrator/internal/runner"
)

// Engine is the long-lived, reentrant façade: one Engine can drive many
// concurrent Executions, each owning its own scheduler and context.
type Engine struct {
	registry *runner.Registry
	ai       aiclient.Client
	logger   zerolog.Logger
	cfg      exec.Config
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithAIClient injects the AI provider collaborator; nil (the default)
// makes every AI-calling runner fall back to its deterministic stub.
func WithAIClient(c aiclient.Client) Option { return func(e *Engine) { e.ai = c } }

// WithLogger overrides the process-wide zerolog logger runners log through.
func WithLogger(l zerolog.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithSchedulerConfig overrides the per-node timeout default. The loop
// ceiling is not part of it; each loop node's maxIterations sets its own.
func WithSchedulerConfig(cfg exec.Config) Option { return func(e *Engine) { e.cfg = cfg } }

// WithRegistry swaps in a custom runner registry (e.g. one with additional
// node kinds registered); defaults to runner.NewRegistry().
func WithRegistry(r *runner.Registry) Option { return func(e *Engine) { e.registry = r } }

// New builds an Engine with the full built-in runner registry.
func New(opts ...Option) *Engine {
	e := &Engine{
		registry: runner.NewRegistry(),
		cfg:      exec.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Subscriber is the execution lifecycle callback surface, one method per
// event; embed NoopSubscriber to override only what's needed. It IS
// exec.Observer — kept as a named type in this package so callers
// importing only pkg/orchestrator never need to know about internal/exec.
type Subscriber = exec.Observer

// NoopSubscriber is a Subscriber that does nothing; embed it for partial
// overrides.
type NoopSubscriber = exec.NoopObserver

// Execution is the handle a caller holds after Execute returns: the
// record itself plus the paired control surface.
type Execution struct {
	scheduler *exec.Scheduler
}

// Record returns the current (possibly still-updating, if the caller is
// racing a concurrent Cancel) workflow-execution record.
func (ex *Execution) Record() *domain.WorkflowExecution { return ex.scheduler.Execution() }

// Run drives a not-yet-started execution to completion, pause, or failure.
// Callers that used Execute never need this; it exists for collaborators
// that must hold the control surface before the run begins (the stream
// manager's disconnect handler needs Cancel wired before the first node).
func (ex *Execution) Run(ctx context.Context) *domain.WorkflowExecution {
	return ex.scheduler.Run(ctx)
}

// IsAwaitingInput reports whether a human-input-shaped node is paused.
func (ex *Execution) IsAwaitingInput() bool { return ex.scheduler.IsAwaitingInput() }

// GetAwaitingInputNode returns the node currently awaiting resume input.
func (ex *Execution) GetAwaitingInputNode() (domain.Node, bool) {
	return ex.scheduler.GetAwaitingInputNode()
}

// Resume supplies userInput to the awaited node and drives the execution
// onward. Returns (nil, false) if nothing is awaiting.
func (ex *Execution) Resume(ctx context.Context, userInput any) (*domain.WorkflowExecution, bool) {
	return ex.scheduler.Resume(ctx, userInput)
}

// Pause requests a generic checkpoint at the next step boundary.
func (ex *Execution) Pause() { ex.scheduler.Pause() }

// Cancel is idempotent: checked at every step boundary, it stops further
// scheduling and fails the execution with a cancelled error.
func (ex *Execution) Cancel() { ex.scheduler.Cancel() }

// Execute builds an execution context from student, constructs a scheduler
// wired to observer, and runs to completion/pause/failure. g must already
// be a validated *graph.Graph (built via graph.Build); callers that
// haven't validated yet should call ValidateAndBuild first and surface its
// issues to their own boundary.
func (e *Engine) Execute(ctx context.Context, g *graph.Graph, student *domain.StudentProfile, observer Subscriber) *Execution {
	ex := e.NewExecution(g, student, observer)
	ex.Run(ctx)
	return ex
}

// NewExecution constructs an execution without starting it, so the caller
// can wire Cancel into a disconnect handler (or other collaborator) and
// then call Run itself.
func (e *Engine) NewExecution(g *graph.Graph, student *domain.StudentProfile, observer Subscriber) *Execution {
	execCtx := domain.NewExecutionContext(student)
	deps := runner.Deps{
		AI:         e.ai,
		Logger:     e.logger,
		Conditions: runner.NewConditionEvaluator(),
	}
	return &Execution{scheduler: exec.New(g, e.registry, execCtx, deps, observer, e.cfg)}
}

// ValidateAndBuild validates wf and builds its graph, returning the
// per-field issue list on failure.
func ValidateAndBuild(wf domain.Workflow) (*graph.Graph, []*domainerrors.ValidationError) {
	if len(wf.Nodes) == 0 {
		return nil, []*domainerrors.ValidationError{domainerrors.NewValidationError("nodes", "workflow must have at least one node")}
	}
	return graph.Build(wf)
}
