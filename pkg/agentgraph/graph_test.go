package agentgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkoricho/agentgraph/pkg/agentgraph/checkpoint"
)

func TestAddNode_Panics(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"empty id", func() { NewGraph(nil).AddNode("", say("x")) }},
		{"reserved END", func() { NewGraph(nil).AddNode("END", say("x")) }},
		{"reserved marker", func() { NewGraph(nil).AddNode(END, say("x")) }},
		{"whitespace", func() { NewGraph(nil).AddNode("two words", say("x")) }},
		{"nil fn", func() { NewGraph(nil).AddNode("a", nil) }},
		{"duplicate", func() { NewGraph(nil).AddNode("a", say("x")).AddNode("a", say("y")) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Panics(t, tt.fn)
		})
	}
}

func TestCompile_NoEntryPoint(t *testing.T) {
	_, err := NewGraph(nil).
		AddNode("a", say("a")).
		AddEdge("a", END).
		Compile()
	assert.ErrorIs(t, err, ErrNoEntryPoint)
}

func TestCompile_EntryNotFound(t *testing.T) {
	_, err := NewGraph(nil).
		AddNode("a", say("a")).
		AddEdge("a", END).
		SetEntry("missing").
		Compile()
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestCompile_UnknownEdgeTarget(t *testing.T) {
	_, err := NewGraph(nil).
		AddNode("a", say("a")).
		AddEdge("a", "ghost").
		SetEntry("a").
		Compile()
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestCompile_DuplicateUnconditionalEdge(t *testing.T) {
	_, err := NewGraph(nil).
		AddNode("a", say("a")).
		AddNode("b", say("b")).
		AddNode("c", say("c")).
		AddEdge("a", "b").
		AddEdge("a", "c").
		AddEdge("b", END).
		AddEdge("c", END).
		SetEntry("a").
		Compile()
	assert.ErrorIs(t, err, ErrDuplicateEdge)
}

func TestCompile_OrphanNode(t *testing.T) {
	_, err := NewGraph(nil).
		AddNode("a", say("a")).
		AddNode("island", say("x")).
		AddEdge("a", END).
		AddEdge("island", END).
		SetEntry("a").
		Compile()
	assert.ErrorIs(t, err, ErrOrphanNode)
}

func TestCompile_DanglingNode(t *testing.T) {
	_, err := NewGraph(nil).
		AddNode("lonely", say("hi")).
		SetEntry("lonely").
		Compile()
	assert.ErrorIs(t, err, ErrDanglingNode)

	// Declaring runtime Goto targets counts as an outgoing edge.
	_, err = NewGraph(nil).
		AddNode("lonely", func(_ Context, _ State) (Outcome, error) {
			return Goto("peer", nil), nil
		}).
		AddNode("peer", say("peer")).
		AddDynamicEdges("lonely", "peer").
		AddEdge("peer", END).
		SetEntry("lonely").
		Compile()
	assert.NoError(t, err)
}

func TestCompile_ConditionalEdgeMakesNodesReachable(t *testing.T) {
	// A conditional edge can return any node ID at runtime, so every node
	// counts as reachable from it.
	compiled, err := NewGraph(nil).
		AddNode("a", say("a")).
		AddNode("b", say("b")).
		AddConditionalEdge("a", func(Context, State) string { return "b" }).
		AddEdge("b", END).
		SetEntry("a").
		Compile()
	require.NoError(t, err)
	assert.True(t, compiled.IsConditional("a"))
}

func TestCompile_DynamicEdgesDeclareReachability(t *testing.T) {
	compiled, err := NewGraph(nil).
		AddNode("router", func(_ Context, _ State) (Outcome, error) {
			return Goto("peer", nil), nil
		}).
		AddNode("peer", say("peer")).
		AddDynamicEdges("router", "peer").
		AddEdge("peer", END).
		SetEntry("router").
		Compile()
	require.NoError(t, err)
	assert.Equal(t, []string{"peer"}, compiled.DynamicTargets("router"))
}

func TestCompile_InterruptRequiresCheckpointer(t *testing.T) {
	_, err := NewGraph(nil).
		AddNode("a", say("a")).
		AddEdge("a", END).
		SetEntry("a").
		InterruptBefore("a").
		Compile()
	assert.ErrorIs(t, err, ErrNoCheckpointer)
}

func TestCompile_InterruptUnknownNode(t *testing.T) {
	_, err := NewGraph(nil).
		AddNode("a", say("a")).
		AddEdge("a", END).
		SetEntry("a").
		WithCheckpointer(checkpoint.NewMemoryStore()).
		InterruptAfter("ghost").
		Compile()
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestCompile_JoinsMultipleErrors(t *testing.T) {
	_, err := NewGraph(nil).
		AddNode("a", say("a")).
		AddEdge("a", "ghost").
		Compile()
	assert.ErrorIs(t, err, ErrNoEntryPoint)
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestCompiledGraph_Introspection(t *testing.T) {
	compiled, err := NewGraph(nil).
		AddNode("a", say("a")).
		AddNode("b", say("b")).
		AddEdge("a", "b").
		AddEdge("b", END).
		SetEntry("a").
		Compile()
	require.NoError(t, err)

	assert.Equal(t, "a", compiled.EntryPoint())
	assert.True(t, compiled.HasNode("b"))
	assert.False(t, compiled.HasNode("ghost"))
	assert.Equal(t, "b", compiled.Successor("a"))
	assert.ElementsMatch(t, []string{"a", "b"}, compiled.NodeIDs())
	assert.NotNil(t, compiled.Schema())
}
