// Package exec implements the workflow scheduler: topological traversal
// with branching, looping, merging and pause/resume/cancel support, driving
// the node-runner registry over a graph and an execution context.
package exec

import "github.com/brightpath/orchestrator/internal/domain"

// Observer is the single subscriber interface for an execution's lifecycle
// callbacks — one interface with no-op defaults instead of a struct of
// optional function fields; callers embed NoopObserver and override
// selectively.
type Observer interface {
	OnNodeStart(nodeID string, node domain.Node)
	OnNodeComplete(nodeID string, output map[string]any)
	OnNodeError(nodeID string, err error)
	OnProgress(completed, total int)
	OnStreamToken(nodeID, content string)
	OnExecutionComplete(we *domain.WorkflowExecution)
}

// NoopObserver implements Observer with no-op methods; embed it in a
// partial observer so only the methods of interest need overriding.
type NoopObserver struct{}

func (NoopObserver) OnNodeStart(string, domain.Node)           {}
func (NoopObserver) OnNodeComplete(string, map[string]any)     {}
func (NoopObserver) OnNodeError(string, error)                 {}
func (NoopObserver) OnProgress(int, int)                       {}
func (NoopObserver) OnStreamToken(string, string)              {}
func (NoopObserver) OnExecutionComplete(*domain.WorkflowExecution) {}

// CompositeObserver fans a single call out to every member observer, in
// order, so a scheduler can be wired to (for example) both a stream
// manager and a test recorder without either knowing about the other.
type CompositeObserver struct {
	Observers []Observer
}

func NewCompositeObserver(observers ...Observer) *CompositeObserver {
	return &CompositeObserver{Observers: observers}
}

func (c *CompositeObserver) OnNodeStart(nodeID string, node domain.Node) {
	for _, o := range c.Observers {
		o.OnNodeStart(nodeID, node)
	}
}

func (c *CompositeObserver) OnNodeComplete(nodeID string, output map[string]any) {
	for _, o := range c.Observers {
		o.OnNodeComplete(nodeID, output)
	}
}

func (c *CompositeObserver) OnNodeError(nodeID string, err error) {
	for _, o := range c.Observers {
		o.OnNodeError(nodeID, err)
	}
}

func (c *CompositeObserver) OnProgress(completed, total int) {
	for _, o := range c.Observers {
		o.OnProgress(completed, total)
	}
}

func (c *CompositeObserver) OnStreamToken(nodeID, content string) {
	for _, o := range c.Observers {
		o.OnStreamToken(nodeID, content)
	}
}

func (c *CompositeObserver) OnExecutionComplete(we *domain.WorkflowExecution) {
	for _, o := range c.Observers {
		o.OnExecutionComplete(we)
	}
}
