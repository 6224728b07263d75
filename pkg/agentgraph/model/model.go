// Package model defines the chat-model boundary consumed by model-backed
// nodes: a request/response contract over the engine's message and tool
// declaration types, independent of any provider SDK.
package model

import (
	"context"

	"github.com/mkoricho/agentgraph/pkg/agentgraph"
	"github.com/mkoricho/agentgraph/pkg/agentgraph/tool"
)

// Request is one chat completion request.
type Request struct {
	// Messages is the transcript sent to the model, in order.
	Messages []agentgraph.Message

	// Tools are the declarations the model may call.
	Tools []*tool.Declaration
}

// Usage reports token consumption for one completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is one chat completion result.
type Response struct {
	// Message is the assistant turn produced by the model, including any
	// tool calls it requested.
	Message agentgraph.Message

	// Usage is the token accounting for the call, when the provider
	// reports it.
	Usage Usage
}

// ChatModel produces assistant turns from a transcript.
// Implementations wrap a provider SDK; nodes depend only on this interface.
type ChatModel interface {
	// Name identifies the underlying model, for logging and events.
	Name() string

	// Complete performs one chat completion.
	Complete(ctx context.Context, req *Request) (*Response, error)
}
