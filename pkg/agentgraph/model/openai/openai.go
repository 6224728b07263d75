// Package openai implements the model.ChatModel interface against any
// OpenAI-compatible chat completion API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openaigo "github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/mkoricho/agentgraph/pkg/agentgraph"
	"github.com/mkoricho/agentgraph/pkg/agentgraph/model"
	"github.com/mkoricho/agentgraph/pkg/agentgraph/tool"
)

// Model is a model.ChatModel backed by an OpenAI-compatible endpoint.
type Model struct {
	name   string
	client openaigo.Client
}

// options holds client construction options.
type options struct {
	apiKey     string
	baseURL    string
	clientOpts []openaiopt.RequestOption
}

// Option configures the client.
type Option func(*options)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(o *options) {
		o.apiKey = key
	}
}

// WithBaseURL points the client at a non-default endpoint, e.g. a proxy or
// a compatible third-party provider.
func WithBaseURL(url string) Option {
	return func(o *options) {
		o.baseURL = url
	}
}

// WithClientOptions passes extra request options through to the SDK client.
func WithClientOptions(opts ...openaiopt.RequestOption) Option {
	return func(o *options) {
		o.clientOpts = append(o.clientOpts, opts...)
	}
}

// New creates a chat model for the named model.
// Without WithAPIKey the SDK falls back to the OPENAI_API_KEY environment
// variable.
func New(name string, opts ...Option) *Model {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	clientOpts := o.clientOpts
	if o.apiKey != "" {
		clientOpts = append(clientOpts, openaiopt.WithAPIKey(o.apiKey))
	}
	if o.baseURL != "" {
		clientOpts = append(clientOpts, openaiopt.WithBaseURL(o.baseURL))
	}

	return &Model{
		name:   name,
		client: openaigo.NewClient(clientOpts...),
	}
}

// Name implements model.ChatModel.
func (m *Model) Name() string {
	return m.name
}

// Complete implements model.ChatModel.
func (m *Model) Complete(ctx context.Context, req *model.Request) (*model.Response, error) {
	params := openaigo.ChatCompletionNewParams{
		Model:    shared.ChatModel(m.name),
		Messages: convertMessages(req.Messages),
	}
	if tools := convertTools(req.Tools); len(tools) > 0 {
		params.Tools = tools
	}

	completion, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	choice := completion.Choices[0]
	msg := agentgraph.NewAssistantMessage(choice.Message.Content)
	for i, call := range choice.Message.ToolCalls {
		id := call.ID
		if id == "" {
			// Some compatible providers omit the call ID.
			id = fmt.Sprintf("auto_call_%d", i)
		}
		msg.ToolCalls = append(msg.ToolCalls, agentgraph.ToolCall{
			ID:        id,
			Name:      call.Function.Name,
			Arguments: json.RawMessage(call.Function.Arguments),
		})
	}

	return &model.Response{
		Message: msg,
		Usage: model.Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		},
	}, nil
}

// convertMessages converts transcript messages to the SDK's union params.
func convertMessages(messages []agentgraph.Message) []openaigo.ChatCompletionMessageParamUnion {
	result := make([]openaigo.ChatCompletionMessageParamUnion, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case agentgraph.RoleSystem:
			result[i] = openaigo.ChatCompletionMessageParamUnion{
				OfSystem: &openaigo.ChatCompletionSystemMessageParam{
					Content: openaigo.ChatCompletionSystemMessageParamContentUnion{
						OfString: openaigo.String(msg.Content),
					},
				},
			}
		case agentgraph.RoleAssistant:
			result[i] = openaigo.ChatCompletionMessageParamUnion{
				OfAssistant: &openaigo.ChatCompletionAssistantMessageParam{
					Content: openaigo.ChatCompletionAssistantMessageParamContentUnion{
						OfString: openaigo.String(msg.Content),
					},
					ToolCalls: convertToolCalls(msg.ToolCalls),
				},
			}
		case agentgraph.RoleTool:
			result[i] = openaigo.ChatCompletionMessageParamUnion{
				OfTool: &openaigo.ChatCompletionToolMessageParam{
					Content: openaigo.ChatCompletionToolMessageParamContentUnion{
						OfString: openaigo.String(msg.Content),
					},
					ToolCallID: msg.ToolCallID,
				},
			}
		default:
			result[i] = openaigo.ChatCompletionMessageParamUnion{
				OfUser: &openaigo.ChatCompletionUserMessageParam{
					Content: openaigo.ChatCompletionUserMessageParamContentUnion{
						OfString: openaigo.String(msg.Content),
					},
				},
			}
		}
	}
	return result
}

// convertToolCalls converts requested calls back to SDK params for replayed
// assistant turns.
func convertToolCalls(calls []agentgraph.ToolCall) []openaigo.ChatCompletionMessageToolCallParam {
	var result []openaigo.ChatCompletionMessageToolCallParam
	for _, call := range calls {
		result = append(result, openaigo.ChatCompletionMessageToolCallParam{
			ID: call.ID,
			Function: openaigo.ChatCompletionMessageToolCallFunctionParam{
				Name:      call.Name,
				Arguments: string(call.Arguments),
			},
		})
	}
	return result
}

// convertTools converts declarations to SDK function tool params.
// The schema goes through a JSON round-trip to map onto the SDK's loosely
// typed FunctionParameters.
func convertTools(decls []*tool.Declaration) []openaigo.ChatCompletionToolParam {
	var result []openaigo.ChatCompletionToolParam
	for _, decl := range decls {
		var parameters shared.FunctionParameters
		if decl.InputSchema != nil {
			schemaBytes, err := json.Marshal(decl.InputSchema)
			if err != nil {
				continue
			}
			if err := json.Unmarshal(schemaBytes, &parameters); err != nil {
				continue
			}
		}
		result = append(result, openaigo.ChatCompletionToolParam{
			Function: openaigo.FunctionDefinitionParam{
				Name:        decl.Name,
				Description: openaigo.String(decl.Description),
				Parameters:  parameters,
			},
		})
	}
	return result
}
