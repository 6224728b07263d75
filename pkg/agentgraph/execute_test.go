package agentgraph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkoricho/agentgraph/pkg/agentgraph/callback"
	"github.com/mkoricho/agentgraph/pkg/agentgraph/checkpoint"
)

func TestInvoke_LinearFlow(t *testing.T) {
	compiled, err := NewGraph(nil).
		AddNode("first", say("one")).
		AddNode("second", say("two")).
		AddEdge("first", "second").
		AddEdge("second", END).
		SetEntry("first").
		Compile()
	require.NoError(t, err)

	result, err := compiled.Invoke(testCtx(), userInput("go"))
	require.NoError(t, err)

	assert.Equal(t, StatusComplete, result.Status)
	assert.Equal(t, 2, result.Steps)
	assert.Equal(t, []string{"go", "one", "two"}, transcript(result.State))
}

func TestInvoke_NilContext(t *testing.T) {
	compiled, err := NewGraph(nil).
		AddNode("a", say("a")).
		AddEdge("a", END).
		SetEntry("a").
		Compile()
	require.NoError(t, err)

	_, err = compiled.Invoke(nil, nil)
	assert.ErrorIs(t, err, ErrNilContext)
}

func TestInvoke_ConditionalRouting(t *testing.T) {
	route := func(_ Context, state State) string {
		if len(state.Messages()) > 2 {
			return END
		}
		return "loop"
	}

	compiled, err := NewGraph(nil).
		AddNode("loop", say("again")).
		AddConditionalEdge("loop", route).
		SetEntry("loop").
		Compile()
	require.NoError(t, err)

	result, err := compiled.Invoke(testCtx(), userInput("start"))
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "again", "again"}, transcript(result.State))
}

func TestInvoke_ConditionalBeatsUnconditional(t *testing.T) {
	var visited []string
	record := func(id string) NodeFunc {
		return func(_ Context, _ State) (Outcome, error) {
			visited = append(visited, id)
			return Continue(nil), nil
		}
	}

	compiled, err := NewGraph(nil).
		AddNode("a", record("a")).
		AddNode("fallback", record("fallback")).
		AddNode("chosen", record("chosen")).
		AddEdge("a", "fallback").
		AddConditionalEdge("a", func(Context, State) string { return "chosen" }).
		AddEdge("chosen", END).
		AddEdge("fallback", END).
		SetEntry("a").
		Compile()
	require.NoError(t, err)

	_, err = compiled.Invoke(testCtx(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "chosen"}, visited)
}

func TestInvoke_GotoBypassesEdgeTable(t *testing.T) {
	jump := func(_ Context, _ State) (Outcome, error) {
		return Goto("target", State{KeyMessages: []Message{NewAssistantMessage("jumping")}}), nil
	}

	compiled, err := NewGraph(nil).
		AddNode("a", jump).
		AddNode("skipped", say("skipped")).
		AddNode("target", say("landed")).
		AddEdge("a", "skipped").
		AddEdge("skipped", END).
		AddEdge("target", END).
		AddDynamicEdges("a", "target").
		SetEntry("a").
		Compile()
	require.NoError(t, err)

	result, err := compiled.Invoke(testCtx(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"jumping", "landed"}, transcript(result.State))
}

func TestInvoke_FinishOutcome(t *testing.T) {
	compiled, err := NewGraph(nil).
		AddNode("a", func(_ Context, _ State) (Outcome, error) {
			return Finish(State{KeyMessages: []Message{NewAssistantMessage("done")}}), nil
		}).
		AddNode("never", say("never")).
		AddEdge("a", "never").
		AddEdge("never", END).
		SetEntry("a").
		Compile()
	require.NoError(t, err)

	result, err := compiled.Invoke(testCtx(), nil)
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, result.Status)
	assert.Equal(t, []string{"done"}, transcript(result.State))
}

func TestInvoke_MaxSteps(t *testing.T) {
	compiled, err := NewGraph(nil).
		AddNode("a", say("a")).
		AddNode("b", say("b")).
		AddEdge("a", "b").
		AddEdge("b", "a").
		SetEntry("a").
		Compile()
	require.NoError(t, err)

	_, err = compiled.Invoke(testCtx(), nil, WithMaxSteps(5))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMaxSteps)

	var maxErr *MaxStepsError
	require.ErrorAs(t, err, &maxErr)
	assert.Equal(t, 5, maxErr.Max)
}

func TestInvoke_NodeErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	compiled, err := NewGraph(nil).
		AddNode("a", func(_ Context, _ State) (Outcome, error) {
			return Outcome{}, boom
		}).
		AddEdge("a", END).
		SetEntry("a").
		Compile()
	require.NoError(t, err)

	_, err = compiled.Invoke(testCtx(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var nodeErr *NodeError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, "a", nodeErr.NodeID)
}

func TestInvoke_PanicRecovered(t *testing.T) {
	compiled, err := NewGraph(nil).
		AddNode("a", func(_ Context, _ State) (Outcome, error) {
			panic("kaboom")
		}).
		AddEdge("a", END).
		SetEntry("a").
		Compile()
	require.NoError(t, err)

	_, err = compiled.Invoke(testCtx(), nil)
	require.Error(t, err)

	var panicErr *PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "a", panicErr.NodeID)
	assert.Equal(t, "kaboom", panicErr.Value)
	assert.NotEmpty(t, panicErr.Stack)
}

func TestInvoke_RouteErrors(t *testing.T) {
	t.Run("unknown conditional target", func(t *testing.T) {
		compiled, err := NewGraph(nil).
			AddNode("a", say("a")).
			AddConditionalEdge("a", func(Context, State) string { return "ghost" }).
			SetEntry("a").
			Compile()
		require.NoError(t, err)

		_, err = compiled.Invoke(testCtx(), nil)
		assert.ErrorIs(t, err, ErrRouteTargetNotFound)

		var routeErr *RouteError
		require.ErrorAs(t, err, &routeErr)
		assert.Equal(t, "a", routeErr.FromNode)
		assert.Equal(t, "ghost", routeErr.Target)
	})

	t.Run("empty conditional result", func(t *testing.T) {
		compiled, err := NewGraph(nil).
			AddNode("a", say("a")).
			AddConditionalEdge("a", func(Context, State) string { return "" }).
			SetEntry("a").
			Compile()
		require.NoError(t, err)

		_, err = compiled.Invoke(testCtx(), nil)
		assert.ErrorIs(t, err, ErrInvalidRoute)
	})

	t.Run("unknown goto target", func(t *testing.T) {
		compiled, err := NewGraph(nil).
			AddNode("a", func(_ Context, _ State) (Outcome, error) {
				return Goto("ghost", nil), nil
			}).
			AddEdge("a", END).
			SetEntry("a").
			Compile()
		require.NoError(t, err)

		_, err = compiled.Invoke(testCtx(), nil)
		assert.ErrorIs(t, err, ErrRouteTargetNotFound)
	})
}

func TestInvoke_ThreadIDRequiredWithCheckpointer(t *testing.T) {
	compiled, err := NewGraph(nil).
		AddNode("a", say("a")).
		AddEdge("a", END).
		SetEntry("a").
		WithCheckpointer(checkpoint.NewMemoryStore()).
		Compile()
	require.NoError(t, err)

	_, err = compiled.Invoke(testCtx(), nil)
	assert.ErrorIs(t, err, ErrThreadIDRequired)
}

func TestInvoke_EmitsLifecycleEvents(t *testing.T) {
	var events []callback.Type
	sink := callback.SinkFunc(func(evt callback.Event) error {
		events = append(events, evt.Type)
		return nil
	})

	compiled, err := NewGraph(nil).
		AddNode("a", say("a")).
		AddNode("b", say("b")).
		AddEdge("a", "b").
		AddEdge("b", END).
		SetEntry("a").
		Compile()
	require.NoError(t, err)

	_, err = compiled.Invoke(testCtx(), nil, WithSinks(sink))
	require.NoError(t, err)

	assert.Equal(t, []callback.Type{
		callback.RunStarted,
		callback.RunStep,
		callback.RunStep,
		callback.RunFinished,
	}, events)
}

func TestInvoke_EmitsRunFailed(t *testing.T) {
	var failed []callback.Event
	sink := callback.SinkFunc(func(evt callback.Event) error {
		if evt.Type == callback.RunFailed {
			failed = append(failed, evt)
		}
		return nil
	})

	compiled, err := NewGraph(nil).
		AddNode("a", func(_ Context, _ State) (Outcome, error) {
			return Outcome{}, errors.New("boom")
		}).
		AddEdge("a", END).
		SetEntry("a").
		Compile()
	require.NoError(t, err)

	_, err = compiled.Invoke(testCtx(), nil, WithSinks(sink))
	require.Error(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "a", failed[0].Node)
	assert.Contains(t, failed[0].Detail["error"], "boom")
}

func TestInvoke_FailingSinkDoesNotFailRun(t *testing.T) {
	sink := callback.SinkFunc(func(callback.Event) error {
		return errors.New("observer broke")
	})

	compiled, err := NewGraph(nil).
		AddNode("a", say("a")).
		AddEdge("a", END).
		SetEntry("a").
		Compile()
	require.NoError(t, err)

	result, err := compiled.Invoke(testCtx(), nil, WithSinks(sink))
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, result.Status)
}

func TestInvoke_NodeContextMetadata(t *testing.T) {
	var gotNode, gotRun string
	compiled, err := NewGraph(nil).
		AddNode("inspect", func(ctx Context, _ State) (Outcome, error) {
			gotNode = ctx.NodeID()
			gotRun = ctx.RunID()
			require.NotNil(t, ctx.Logger())
			return Finish(nil), nil
		}).
		SetEntry("inspect").
		AddEdge("inspect", END).
		Compile()
	require.NoError(t, err)

	_, err = compiled.Invoke(testCtx(), nil)
	require.NoError(t, err)
	assert.Equal(t, "inspect", gotNode)
	assert.NotEmpty(t, gotRun)
}

func TestInvoke_ConcurrentThreads(t *testing.T) {
	cp := checkpoint.NewMemoryStore()
	compiled, err := NewGraph(nil).
		AddNode("a", say("reply")).
		AddEdge("a", END).
		SetEntry("a").
		WithCheckpointer(cp).
		Compile()
	require.NoError(t, err)

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		id := string(rune('a' + i))
		go func() {
			_, err := compiled.Invoke(testCtx(), userInput("hi"), WithThreadID("thread-"+id))
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-done)
	}
}
