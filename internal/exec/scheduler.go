package exec

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	domainerrors "github.com/brightpath/orchestrator/internal/domain/errors"
	"github.com/brightpath/orchestrator/internal/domain"
	"github.com/brightpath/orchestrator/internal/graph"
	"github.com/brightpath/orchestrator/internal/runner"
)

// queueItem is one ready-to-run visit: a node plus its assembled input.
type queueItem struct {
	node  domain.Node
	input map[string]any
}

// pendingState tracks how many of a node's incoming edges have resolved
// (delivered live or marked dead) for the current pass, and what's been
// collected from the live ones so far.
type pendingState struct {
	required     int
	resolved     int
	collected    map[string]any
	mergeSources []runner.MergeSourceInput
	settled      bool
}

// Config holds scheduler-level knobs.
type Config struct {
	// NodeTimeout is applied to every runner invocation when non-zero;
	// disabled (no deadline) when zero.
	NodeTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{}
}

// Scheduler drives one workflow execution to completion, pause, or
// failure. Not safe for concurrent Run/Resume calls against the same
// instance; Cancel and Pause are, since they may be invoked from a stream
// disconnect handler running on a different goroutine than Run.
type Scheduler struct {
	g        *graph.Graph
	registry *runner.Registry
	execCtx  *domain.ExecutionContext
	deps     runner.Deps
	observer Observer
	cfg      Config
	logger   zerolog.Logger

	mu sync.Mutex

	we *domain.WorkflowExecution

	pending map[string]*pendingState

	cancelled bool
	pauseReq  bool
	finalized bool

	awaitingNodeID string
	awaitingNode   domain.Node
	awaitingIdx    int

	// savedQueue/savedPending/savedDrop let a generic Pause() checkpoint a
	// drain loop and a later Resume() pick it back up exactly where it
	// left off.
	savedQueue   []queueItem
	savedPending map[string]*pendingState
	savedDrop    string

	failedErr error
}

// New builds a Scheduler for one execution of wf against execCtx.
func New(g *graph.Graph, registry *runner.Registry, execCtx *domain.ExecutionContext, deps runner.Deps, observer Observer, cfg Config) *Scheduler {
	if observer == nil {
		observer = NoopObserver{}
	}
	if deps.Conditions == nil {
		deps.Conditions = runner.NewConditionEvaluator()
	}
	wf := g.Workflow()
	we := &domain.WorkflowExecution{
		ID:         uuid.NewString(),
		WorkflowID: wf.ID,
		Status:     domain.StatusPending,
		Context:    execCtx,
	}
	if execCtx.Student != nil {
		we.StudentID = execCtx.Student.ID
	}
	return &Scheduler{
		g:        g,
		registry: registry,
		execCtx:  execCtx,
		deps:     deps,
		observer: observer,
		cfg:      cfg,
		logger:   deps.Logger,
		we:       we,
	}
}

// Execution returns the in-progress or final workflow-execution record.
func (s *Scheduler) Execution() *domain.WorkflowExecution { return s.we }

// IsAwaitingInput reports whether a human-input-shaped node is paused.
func (s *Scheduler) IsAwaitingInput() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.awaitingNodeID != ""
}

// GetAwaitingInputNode returns the node currently awaiting resume input.
func (s *Scheduler) GetAwaitingInputNode() (domain.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.awaitingNodeID == "" {
		return domain.Node{}, false
	}
	return s.awaitingNode, true
}

// Run drives the execution from its entry nodes to completion, pause, or
// failure.
func (s *Scheduler) Run(ctx context.Context) *domain.WorkflowExecution {
	s.we.Status = domain.StatusRunning
	s.we.StartedAt = time.Now()

	entries := s.g.EntryNodes()
	if len(entries) == 0 {
		// No entry nodes: immediate empty-record completion.
		s.we.Status = domain.StatusCompleted
		s.we.EndedAt = time.Now()
		s.observer.OnExecutionComplete(s.we)
		return s.we
	}

	queue := make([]queueItem, 0, len(entries))
	for _, n := range entries {
		queue = append(queue, queueItem{node: n, input: map[string]any{}})
	}
	s.pending = map[string]*pendingState{}
	s.drainQueue(ctx, &queue, s.pending, "")
	s.finalize()
	return s.we
}

// Resume supplies userInput to the currently awaited human-input-shaped
// node (or, if the execution was generically paused via Pause(), simply
// continues the saved drain). Returns (execution, true) on success, or
// (nil, false) if nothing is awaiting.
func (s *Scheduler) Resume(ctx context.Context, userInput any) (*domain.WorkflowExecution, bool) {
	s.mu.Lock()
	if s.awaitingNodeID != "" {
		idx := s.awaitingIdx
		output := copyMap(s.we.NodeExecutions[idx].Output)
		output["userAnswer"] = userInput
		s.we.NodeExecutions[idx].Output = output
		s.we.NodeExecutions[idx].Status = domain.NodeStatusCompleted
		s.we.NodeExecutions[idx].EndedAt = time.Now()
		node := s.awaitingNode
		s.awaitingNodeID = ""
		s.we.Status = domain.StatusRunning
		s.we.CurrentNodeID = ""
		pending := s.pending
		s.mu.Unlock()

		queue := []queueItem{}
		s.scheduleSuccessors(node, output, pending, &queue, "")
		s.drainQueue(ctx, &queue, pending, "")
		s.finalize()
		return s.we, true
	}
	if s.we.Status == domain.StatusPaused {
		queue := s.savedQueue
		pending := s.savedPending
		drop := s.savedDrop
		s.savedQueue, s.savedPending, s.savedDrop = nil, nil, ""
		s.we.Status = domain.StatusRunning
		s.mu.Unlock()

		s.drainQueue(ctx, &queue, pending, drop)
		s.finalize()
		return s.we, true
	}
	s.mu.Unlock()
	return nil, false
}

// Pause requests a checkpoint at the next step boundary: the drain loop
// saves its queue state, transitions to StatusPaused, and returns without
// finalizing, so a later Resume(ctx, nil) continues exactly where it left
// off. A no-op once the execution has already reached a terminal state.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.we.Status.IsTerminal() {
		s.pauseReq = true
	}
}

// Cancel is idempotent: it sets a flag checked at every step boundary. If
// the execution has no active drain loop running
// right now (it is sitting at awaiting-input or paused), Cancel finalizes
// it immediately as failed/cancelled itself, since no loop iteration will
// ever notice the flag.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	if s.we.Status.IsTerminal() {
		s.mu.Unlock()
		return
	}
	s.cancelled = true
	idle := s.awaitingNodeID != "" || s.we.Status == domain.StatusPaused
	s.mu.Unlock()
	if idle {
		s.finalize()
	}
}

// finalize transitions the execution to its terminal state and notifies
// the observer exactly once. Safe to call when the execution is merely
// awaiting input or generically paused (no-op in that case).
func (s *Scheduler) finalize() {
	s.mu.Lock()
	idle := s.awaitingNodeID != "" || s.we.Status == domain.StatusPaused
	if s.finalized || (idle && !s.cancelled) {
		s.mu.Unlock()
		return
	}
	s.finalized = true
	if idle {
		// A cancel during pause/await discards the awaited node.
		s.awaitingNodeID = ""
		s.savedQueue, s.savedPending, s.savedDrop = nil, nil, ""
	}
	switch {
	case s.cancelled:
		s.we.Status = domain.StatusFailed
		s.we.Error = &domain.ExecutionErrorInfo{Kind: string(domainerrors.KindCancelled), Message: "execution cancelled"}
	case s.failedErr != nil:
		kind := domainerrors.KindRunnerFailure
		var execErr *domainerrors.ExecutionError
		if errors.As(s.failedErr, &execErr) && execErr.Kind != "" {
			kind = execErr.Kind
		}
		s.we.Status = domain.StatusFailed
		s.we.Error = &domain.ExecutionErrorInfo{Kind: string(kind), Message: s.failedErr.Error()}
	default:
		s.we.Status = domain.StatusCompleted
	}
	s.we.EndedAt = time.Now()
	we := s.we
	s.mu.Unlock()
	s.observer.OnExecutionComplete(we)
}

// drainQueue pops ready items FIFO — the deterministic tie-break within a
// ready tick — until the queue empties or a terminal/suspend condition
// intervenes.
func (s *Scheduler) drainQueue(ctx context.Context, queue *[]queueItem, pending map[string]*pendingState, dropTarget string) {
	for len(*queue) > 0 {
		s.mu.Lock()
		cancelled := s.cancelled
		pauseReq := s.pauseReq
		s.mu.Unlock()
		if cancelled {
			return
		}
		if pauseReq {
			s.mu.Lock()
			s.pauseReq = false
			s.savedQueue = *queue
			s.savedPending = pending
			s.savedDrop = dropTarget
			s.we.Status = domain.StatusPaused
			s.mu.Unlock()
			return
		}

		item := (*queue)[0]
		*queue = (*queue)[1:]
		s.we.CurrentNodeID = item.node.ID
		s.processNode(ctx, item.node, item.input, pending, queue, dropTarget)

		s.mu.Lock()
		stop := s.failedErr != nil || s.awaitingNodeID != "" || s.cancelled
		s.mu.Unlock()
		if stop {
			return
		}
	}
}

func (s *Scheduler) processNode(ctx context.Context, node domain.Node, input map[string]any, pending map[string]*pendingState, queue *[]queueItem, dropTarget string) {
	if node.Type == domain.NodeLoop {
		s.runLoop(ctx, node, input, pending, queue, dropTarget)
		return
	}

	fn, ok := s.registry.GetNodeRunner(node.Type)
	if !ok {
		// Missing runner: skip, not a failure.
		s.logger.Debug().
			Str("node_id", node.ID).
			Str("node_type", node.RawType).
			Str("kind", string(domainerrors.KindMissingRunner)).
			Msg("no runner registered, skipping node")
		idx := s.recordNode(node, input)
		s.we.NodeExecutions[idx].Status = domain.NodeStatusSkipped
		s.we.NodeExecutions[idx].Output = copyMap(input)
		s.we.NodeExecutions[idx].EndedAt = time.Now()
		s.scheduleSuccessors(node, input, pending, queue, dropTarget)
		return
	}

	idx := s.recordNode(node, input)
	s.we.NodeExecutions[idx].Status = domain.NodeStatusRunning
	s.observer.OnNodeStart(node.ID, node)

	runCtx := ctx
	var cancelTimeout context.CancelFunc
	if s.cfg.NodeTimeout > 0 {
		runCtx, cancelTimeout = context.WithTimeout(ctx, s.cfg.NodeTimeout)
	}
	deps := s.deps
	deps.OnToken = func(nodeID, content string) { s.observer.OnStreamToken(nodeID, content) }

	result, err := fn(runCtx, node, input, s.execCtx, deps)
	if cancelTimeout != nil {
		cancelTimeout()
	}
	if runCtx.Err() == context.DeadlineExceeded && err == nil {
		err = domainerrors.NewExecutionError(s.we.WorkflowID, s.we.ID, node.ID, domainerrors.KindTimeout, "node execution timed out", runCtx.Err(), false)
	}
	if err != nil {
		err = s.wrapRunnerErr(node, err)
		s.we.NodeExecutions[idx].Status = domain.NodeStatusFailed
		s.we.NodeExecutions[idx].Error = err.Error()
		s.we.NodeExecutions[idx].EndedAt = time.Now()
		s.observer.OnNodeError(node.ID, err)
		s.mu.Lock()
		s.failedErr = err
		s.mu.Unlock()
		return
	}

	s.we.NodeExecutions[idx].Status = domain.NodeStatusCompleted
	s.we.NodeExecutions[idx].Output = result.Output
	s.we.NodeExecutions[idx].EndedAt = time.Now()
	if result.Streamed {
		if text, ok := result.Output["output"].(string); ok {
			s.we.NodeExecutions[idx].StreamedText = text
		}
	}
	s.observer.OnNodeComplete(node.ID, result.Output)
	s.reportProgress()

	if result.ShouldPause {
		s.mu.Lock()
		s.we.Status = domain.StatusAwaitingInput
		s.awaitingNodeID = node.ID
		s.awaitingNode = node
		s.awaitingIdx = idx
		s.we.CurrentNodeID = node.ID
		s.mu.Unlock()
		return
	}

	s.scheduleSuccessors(node, result.Output, pending, queue, dropTarget)
}

// wrapRunnerErr decorates a plain runner failure with node/execution
// context; errors that already carry an ExecutionError (timeout,
// ai-unavailable) pass through so their kind survives to the terminal
// error.
func (s *Scheduler) wrapRunnerErr(node domain.Node, err error) error {
	var execErr *domainerrors.ExecutionError
	if errors.As(err, &execErr) {
		return err
	}
	return domainerrors.NewNodeExecutionError(s.we.WorkflowID, s.we.ID, node.ID, string(node.Type), 1, err.Error(), err)
}

// recordNode appends a fresh NodeExecution for this visit and returns its
// index; loop re-entries call this again, producing a new record per visit.
func (s *Scheduler) recordNode(node domain.Node, input map[string]any) int {
	ne := domain.NodeExecution{
		ID:        uuid.NewString(),
		NodeID:    node.ID,
		NodeType:  node.Type,
		Status:    domain.NodeStatusPending,
		StartedAt: time.Now(),
		Input:     copyMap(input),
	}
	s.we.NodeExecutions = append(s.we.NodeExecutions, ne)
	return len(s.we.NodeExecutions) - 1
}

func (s *Scheduler) reportProgress() {
	total := len(s.g.Workflow().Nodes)
	completed := 0
	for _, ne := range s.we.NodeExecutions {
		if ne.Status.IsTerminal() {
			completed++
		}
	}
	s.observer.OnProgress(completed, total)
}

// scheduleSuccessors computes edge liveness for node's outgoing edges and
// delivers/marks-dead accordingly.
func (s *Scheduler) scheduleSuccessors(node domain.Node, output map[string]any, pending map[string]*pendingState, queue *[]queueItem, dropTarget string) {
	edges := s.g.Outgoing(node.ID)
	if len(edges) == 0 {
		return
	}

	switch node.Type {
	case domain.NodeConditional:
		met, _ := output["conditionMet"].(bool)
		want := domain.PortFalse
		if met {
			want = domain.PortTrue
		}
		for _, e := range edges {
			live := e.SourcePort == want || (len(edges) == 1 && e.SourcePort == "")
			s.markEdge(e, output, live, pending, queue, dropTarget)
		}
	case domain.NodeProficiencyRouter:
		route, _ := output["route"].(string)
		for _, e := range edges {
			live := string(e.SourcePort) == route || (len(edges) == 1 && e.SourcePort == "")
			s.markEdge(e, output, live, pending, queue, dropTarget)
		}
	default:
		for _, e := range edges {
			s.markEdge(e, output, true, pending, queue, dropTarget)
		}
	}
}

// markEdge resolves one outgoing edge: if live, its output is folded into
// the target's pending collection; either way the target's resolved count
// advances. A node whose every incoming edge resolves dead never runs, and
// its own outgoing edges are recursively marked dead, so a downstream merge
// only waits on edges that are live.
func (s *Scheduler) markEdge(e domain.Edge, output map[string]any, live bool, pending map[string]*pendingState, queue *[]queueItem, dropTarget string) {
	if e.Target == dropTarget {
		return
	}
	p := pending[e.Target]
	if p == nil {
		p = &pendingState{required: len(s.g.Incoming(e.Target)), collected: map[string]any{}}
		pending[e.Target] = p
	}
	if live {
		key := string(e.SourcePort)
		if key == "" {
			key = e.Source
		}
		p.mergeSources = append(p.mergeSources, runner.MergeSourceInput{Key: key, Output: output})
		for k, v := range output {
			p.collected[k] = v
		}
	}
	p.resolved++
	if p.settled || p.resolved < p.required {
		return
	}
	p.settled = true

	if len(p.mergeSources) == 0 {
		// Fully dead: this node never runs; propagate dead-ness onward.
		for _, out := range s.g.Outgoing(e.Target) {
			s.markEdge(out, nil, false, pending, queue, dropTarget)
		}
		return
	}

	n, ok := s.g.Node(e.Target)
	if !ok {
		return
	}
	assembled := p.collected
	if n.Type == domain.NodeMerge {
		assembled = copyMap(p.collected)
		assembled[runner.MergeSourcesKey] = p.mergeSources
	}
	*queue = append(*queue, queueItem{node: *n, input: assembled})
}

// runLoop drives a loop node's iterations: the body subgraph is re-run as
// a nested, synchronously-drained sub-schedule (its own pending map, a
// queue seeded from the live body edges, and the loop node itself excluded
// from it so the cyclical edge back is never scheduled as data) once per
// iteration, until the loop runner reports isComplete.
func (s *Scheduler) runLoop(ctx context.Context, node domain.Node, input map[string]any, pending map[string]*pendingState, queue *[]queueItem, dropTarget string) {
	iteration := 0
	maxIterations := runner.LoopMaxIterations(node)

	for {
		s.mu.Lock()
		cancelled := s.cancelled
		s.mu.Unlock()
		if cancelled {
			return
		}

		loopInput := copyMap(input)
		loopInput["_loopIteration"] = iteration

		fn, _ := s.registry.GetNodeRunner(domain.NodeLoop)
		idx := s.recordNode(node, loopInput)
		s.we.NodeExecutions[idx].Status = domain.NodeStatusRunning
		s.observer.OnNodeStart(node.ID, node)

		result, err := fn(ctx, node, loopInput, s.execCtx, s.deps)
		if err != nil {
			err = s.wrapRunnerErr(node, err)
			s.we.NodeExecutions[idx].Status = domain.NodeStatusFailed
			s.we.NodeExecutions[idx].Error = err.Error()
			s.we.NodeExecutions[idx].EndedAt = time.Now()
			s.observer.OnNodeError(node.ID, err)
			s.mu.Lock()
			s.failedErr = err
			s.mu.Unlock()
			return
		}
		s.we.NodeExecutions[idx].Status = domain.NodeStatusCompleted
		s.we.NodeExecutions[idx].Output = result.Output
		s.we.NodeExecutions[idx].EndedAt = time.Now()
		s.observer.OnNodeComplete(node.ID, result.Output)
		s.reportProgress()

		iterationVal, _ := result.Output["iteration"].(int)
		isComplete, _ := result.Output["isComplete"].(bool)
		// Belt-and-braces: enforce the same ceiling the runner itself used,
		// in case a future runner implementation disagrees.
		if iterationVal >= maxIterations {
			isComplete = true
		}

		edges := s.g.Outgoing(node.ID)
		var liveEdges, deadEdges []domain.Edge
		for _, e := range edges {
			isContinue := e.SourcePort == domain.PortContinue
			if isComplete == isContinue {
				liveEdges = append(liveEdges, e)
			} else {
				deadEdges = append(deadEdges, e)
			}
		}
		// Edges are resolved only once the loop completes: on an incomplete
		// iteration the continue edges stay pending so they can still be
		// taken when a later iteration reports isComplete.
		if isComplete {
			for _, e := range deadEdges {
				s.markEdge(e, nil, false, pending, queue, dropTarget)
			}
			for _, e := range liveEdges {
				s.markEdge(e, result.Output, true, pending, queue, dropTarget)
			}
			return
		}

		if len(liveEdges) == 0 {
			// No body configured: just re-enter.
			iteration = iterationVal
			continue
		}

		nestedPending := map[string]*pendingState{}
		nestedQueue := []queueItem{}
		for _, e := range liveEdges {
			out := copyMap(result.Output)
			out["_loopIteration"] = iterationVal
			s.markEdge(e, out, true, nestedPending, &nestedQueue, node.ID)
		}
		s.drainQueue(ctx, &nestedQueue, nestedPending, node.ID)

		s.mu.Lock()
		stop := s.failedErr != nil || s.awaitingNodeID != "" || s.cancelled
		s.mu.Unlock()
		if stop {
			return
		}
		iteration = iterationVal
	}
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
