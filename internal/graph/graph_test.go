package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath/orchestrator/internal/domain"
	"github.com/brightpath/orchestrator/internal/graph"
)

func TestBuild_RejectsEmptyNodeID(t *testing.T) {
	wf := domain.Workflow{Nodes: []domain.Node{{ID: "", Type: domain.NodeInput}}}
	g, issues := graph.Build(wf)
	assert.Nil(t, g)
	require.NotEmpty(t, issues)
	assert.Contains(t, issues[0].Message, "must not be empty")
}

func TestBuild_RejectsDuplicateNodeID(t *testing.T) {
	wf := domain.Workflow{Nodes: []domain.Node{
		{ID: "a", Type: domain.NodeInput},
		{ID: "a", Type: domain.NodeOutput},
	}}
	g, issues := graph.Build(wf)
	assert.Nil(t, g)
	require.NotEmpty(t, issues)
	assert.Contains(t, issues[0].Message, "duplicate node id")
}

func TestBuild_RejectsDanglingEdgeSourceAndTarget(t *testing.T) {
	wf := domain.Workflow{
		Nodes: []domain.Node{{ID: "a", Type: domain.NodeInput}},
		Edges: []domain.Edge{
			{ID: "e1", Source: "a", Target: "ghost"},
			{ID: "e2", Source: "ghost", Target: "a"},
		},
	}
	g, issues := graph.Build(wf)
	assert.Nil(t, g)
	require.Len(t, issues, 2)
}

func TestBuild_ValidWorkflowIndexesAdjacency(t *testing.T) {
	wf := domain.Workflow{
		Nodes: []domain.Node{
			{ID: "a", Type: domain.NodeInput},
			{ID: "b", Type: domain.NodeOutput},
		},
		Edges: []domain.Edge{{ID: "e1", Source: "a", Target: "b"}},
	}
	g, issues := graph.Build(wf)
	require.Empty(t, issues)
	require.NotNil(t, g)

	assert.Len(t, g.Outgoing("a"), 1)
	assert.Len(t, g.Incoming("b"), 1)
	assert.Empty(t, g.Outgoing("b"))

	n, ok := g.Node("a")
	require.True(t, ok)
	assert.Equal(t, domain.NodeInput, n.Type)

	_, ok = g.Node("missing")
	assert.False(t, ok)
}

func TestEntryNodes_ReturnsZeroInDegreeInDeclarationOrder(t *testing.T) {
	wf := domain.Workflow{
		Nodes: []domain.Node{
			{ID: "a", Type: domain.NodeInput},
			{ID: "b", Type: domain.NodeInput},
			{ID: "c", Type: domain.NodeOutput},
		},
		Edges: []domain.Edge{
			{ID: "e1", Source: "a", Target: "c"},
			{ID: "e2", Source: "b", Target: "c"},
		},
	}
	g, issues := graph.Build(wf)
	require.Empty(t, issues)

	entries := g.EntryNodes()
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].ID)
	assert.Equal(t, "b", entries[1].ID)
}
