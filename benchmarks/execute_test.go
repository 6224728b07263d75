package benchmarks

import (
	"context"
	"fmt"
	"testing"

	"github.com/mkoricho/agentgraph/pkg/agentgraph"
	"github.com/mkoricho/agentgraph/pkg/agentgraph/checkpoint"
	"github.com/mkoricho/agentgraph/pkg/agentgraph/tool"
)

func noop(_ agentgraph.Context, _ agentgraph.State) (agentgraph.Outcome, error) {
	return agentgraph.Continue(nil), nil
}

func nodeID(i int) string {
	return fmt.Sprintf("node-%d", i)
}

func buildLinear(n int) *agentgraph.Graph {
	g := agentgraph.NewGraph(nil)
	for i := 0; i < n; i++ {
		g.AddNode(nodeID(i), noop)
	}
	for i := 0; i < n-1; i++ {
		g.AddEdge(nodeID(i), nodeID(i+1))
	}
	g.AddEdge(nodeID(n-1), agentgraph.END)
	g.SetEntry(nodeID(0))
	return g
}

func mustCompile(g *agentgraph.Graph) *agentgraph.CompiledGraph {
	compiled, err := g.Compile()
	if err != nil {
		panic(err)
	}
	return compiled
}

func benchmarkLinear(b *testing.B, n int) {
	compiled := mustCompile(buildLinear(n))
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = compiled.Invoke(ctx, nil, agentgraph.WithMaxSteps(n+1))
	}
}

func BenchmarkInvoke_Linear_5(b *testing.B)  { benchmarkLinear(b, 5) }
func BenchmarkInvoke_Linear_10(b *testing.B) { benchmarkLinear(b, 10) }
func BenchmarkInvoke_Linear_50(b *testing.B) { benchmarkLinear(b, 50) }

// BenchmarkInvoke_ConditionalLoop measures routing through a conditional
// edge, 10 iterations per run.
func BenchmarkInvoke_ConditionalLoop(b *testing.B) {
	bump := func(_ agentgraph.Context, state agentgraph.State) (agentgraph.Outcome, error) {
		i, _ := state["i"].(int)
		return agentgraph.Continue(agentgraph.State{"i": i + 1}), nil
	}
	route := func(_ agentgraph.Context, state agentgraph.State) string {
		if i, _ := state["i"].(int); i >= 10 {
			return agentgraph.END
		}
		return "loop"
	}

	compiled := mustCompile(agentgraph.NewGraph(nil).
		AddNode("loop", bump).
		AddConditionalEdge("loop", route).
		SetEntry("loop"))

	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = compiled.Invoke(ctx, nil)
	}
}

// BenchmarkInvoke_WithCheckpointing measures the per-step checkpoint cost
// against the in-memory backend.
func BenchmarkInvoke_WithCheckpointing(b *testing.B) {
	store := checkpoint.NewMemoryStore()
	defer store.Close()

	g := buildLinear(5)
	g.WithCheckpointer(store)
	compiled := mustCompile(g)

	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = compiled.Invoke(ctx, nil, agentgraph.WithThreadID(fmt.Sprintf("thread-%d", i)))
	}
}

// BenchmarkInvoke_WithoutCheckpointing is the baseline for the benchmark
// above.
func BenchmarkInvoke_WithoutCheckpointing(b *testing.B) {
	compiled := mustCompile(buildLinear(5))
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = compiled.Invoke(ctx, nil)
	}
}

// BenchmarkToolNode_4Calls measures one tool-node step dispatching four
// concurrent calls.
func BenchmarkToolNode_4Calls(b *testing.B) {
	echo := tool.NewFunctionTool(
		&tool.Declaration{Name: "echo", Description: "Echoes text."},
		func(_ context.Context, args struct {
			Text string `json:"text"`
		}) (any, error) {
			return args.Text, nil
		},
	)
	node := agentgraph.NewToolNode(tool.NewRegistry(echo))

	calls := make([]agentgraph.ToolCall, 4)
	for i := range calls {
		calls[i] = agentgraph.ToolCall{
			ID:        fmt.Sprintf("c%d", i),
			Name:      "echo",
			Arguments: []byte(`{"text":"hi"}`),
		}
	}
	state := agentgraph.State{
		agentgraph.KeyMessages: []agentgraph.Message{
			{Role: agentgraph.RoleAssistant, ToolCalls: calls},
		},
	}
	ctx := agentgraph.NewContext(context.Background())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = node(ctx, state)
	}
}

// BenchmarkContextCreation measures execution-context construction overhead.
func BenchmarkContextCreation(b *testing.B) {
	bg := context.Background()
	for i := 0; i < b.N; i++ {
		agentgraph.NewContext(bg)
	}
}
