package agentgraph

import "context"

// say returns a node that appends one assistant message.
func say(content string) NodeFunc {
	return func(_ Context, _ State) (Outcome, error) {
		return Continue(State{
			KeyMessages: []Message{NewAssistantMessage(content)},
		}), nil
	}
}

// userInput builds an initial state carrying one user message.
func userInput(content string) State {
	return State{KeyMessages: []Message{NewUserMessage(content)}}
}

// transcript extracts message contents in order.
func transcript(state State) []string {
	msgs := state.Messages()
	contents := make([]string, len(msgs))
	for i, msg := range msgs {
		contents[i] = msg.Content
	}
	return contents
}

func testCtx() context.Context {
	return context.Background()
}
