// Package graph implements the in-memory topology view over a domain.Workflow:
// adjacency indexing, entry-node discovery and structural validation.
// A workflow is a DAG with self-loops only through an explicit loop node —
// the graph itself never special-cases that; the scheduler (internal/exec)
// does.
package graph

import (
	"fmt"

	domainerrors "github.com/brightpath/orchestrator/internal/domain/errors"
	"github.com/brightpath/orchestrator/internal/domain"
)

// Graph is the adjacency-indexed view of a workflow, built once per
// execution and treated as read-only afterwards.
type Graph struct {
	workflow domain.Workflow
	nodeByID map[string]*domain.Node
	outgoing map[string][]domain.Edge // source -> edges leaving it
	incoming map[string][]domain.Edge // target -> edges arriving at it
}

// Build constructs a Graph from a workflow, validating it in the process.
// Validation failures are returned as a slice of *errors.ValidationError so
// the API layer can report every issue at once.
func Build(wf domain.Workflow) (*Graph, []*domainerrors.ValidationError) {
	g := &Graph{
		workflow: wf,
		nodeByID: make(map[string]*domain.Node, len(wf.Nodes)),
		outgoing: make(map[string][]domain.Edge),
		incoming: make(map[string][]domain.Edge),
	}

	var issues []*domainerrors.ValidationError

	seen := make(map[string]bool, len(wf.Nodes))
	for i := range wf.Nodes {
		n := &wf.Nodes[i]
		if n.ID == "" {
			issues = append(issues, domainerrors.NewValidationError(fmt.Sprintf("nodes[%d].id", i), "node id must not be empty"))
			continue
		}
		if seen[n.ID] {
			issues = append(issues, domainerrors.NewValidationError(fmt.Sprintf("nodes[%d].id", i), fmt.Sprintf("duplicate node id %q", n.ID)))
			continue
		}
		seen[n.ID] = true
		g.nodeByID[n.ID] = n
	}

	for i, e := range wf.Edges {
		if _, ok := g.nodeByID[e.Source]; !ok {
			issues = append(issues, domainerrors.NewValidationError(fmt.Sprintf("edges[%d].source", i), fmt.Sprintf("edge %q references unknown source node %q", e.ID, e.Source)))
			continue
		}
		if _, ok := g.nodeByID[e.Target]; !ok {
			issues = append(issues, domainerrors.NewValidationError(fmt.Sprintf("edges[%d].target", i), fmt.Sprintf("edge %q references unknown target node %q", e.ID, e.Target)))
			continue
		}
		g.outgoing[e.Source] = append(g.outgoing[e.Source], e)
		g.incoming[e.Target] = append(g.incoming[e.Target], e)
	}

	if len(issues) > 0 {
		return nil, issues
	}
	return g, nil
}

// Workflow returns the underlying workflow.
func (g *Graph) Workflow() domain.Workflow { return g.workflow }

// Node looks up a node by id.
func (g *Graph) Node(id string) (*domain.Node, bool) {
	n, ok := g.nodeByID[id]
	return n, ok
}

// Outgoing returns the edges leaving a node, in declaration order.
func (g *Graph) Outgoing(nodeID string) []domain.Edge { return g.outgoing[nodeID] }

// Incoming returns the edges arriving at a node, in declaration order.
func (g *Graph) Incoming(nodeID string) []domain.Edge { return g.incoming[nodeID] }

// EntryNodes returns nodes with zero in-degree, in the declared node order —
// this is the FIFO tie-break basis for the scheduler's ready queue.
func (g *Graph) EntryNodes() []domain.Node {
	var entries []domain.Node
	for _, n := range g.workflow.Nodes {
		if len(g.incoming[n.ID]) == 0 {
			entries = append(entries, n)
		}
	}
	return entries
}
