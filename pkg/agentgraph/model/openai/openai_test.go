package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkoricho/agentgraph/pkg/agentgraph"
	"github.com/mkoricho/agentgraph/pkg/agentgraph/tool"
)

func TestNew(t *testing.T) {
	m := New("gpt-4o-mini", WithAPIKey("test-key"), WithBaseURL("http://localhost:8080/v1"))
	assert.Equal(t, "gpt-4o-mini", m.Name())
}

func TestConvertMessages_RoleMapping(t *testing.T) {
	converted := convertMessages([]agentgraph.Message{
		agentgraph.NewSystemMessage("be brief"),
		agentgraph.NewUserMessage("hi"),
		{
			Role:    agentgraph.RoleAssistant,
			Content: "checking",
			ToolCalls: []agentgraph.ToolCall{
				{ID: "c1", Name: "search", Arguments: []byte(`{"q":"go"}`)},
			},
		},
		agentgraph.NewToolMessage("c1", "ten results"),
	})
	require.Len(t, converted, 4)

	require.NotNil(t, converted[0].OfSystem)
	assert.Equal(t, "be brief", converted[0].OfSystem.Content.OfString.Value)

	require.NotNil(t, converted[1].OfUser)
	assert.Equal(t, "hi", converted[1].OfUser.Content.OfString.Value)

	require.NotNil(t, converted[2].OfAssistant)
	require.Len(t, converted[2].OfAssistant.ToolCalls, 1)
	call := converted[2].OfAssistant.ToolCalls[0]
	assert.Equal(t, "c1", call.ID)
	assert.Equal(t, "search", call.Function.Name)
	assert.Equal(t, `{"q":"go"}`, call.Function.Arguments)

	require.NotNil(t, converted[3].OfTool)
	assert.Equal(t, "c1", converted[3].OfTool.ToolCallID)
	assert.Equal(t, "ten results", converted[3].OfTool.Content.OfString.Value)
}

func TestConvertTools(t *testing.T) {
	converted := convertTools([]*tool.Declaration{
		{
			Name:        "search",
			Description: "Searches the web.",
			InputSchema: &tool.Schema{
				Type:     "object",
				Required: []string{"query"},
				Properties: map[string]*tool.Schema{
					"query": {Type: "string", Description: "What to search for."},
				},
			},
		},
		{Name: "ping", Description: "No arguments."},
	})
	require.Len(t, converted, 2)

	search := converted[0].Function
	assert.Equal(t, "search", search.Name)
	assert.Equal(t, "Searches the web.", search.Description.Value)
	assert.Equal(t, "object", search.Parameters["type"])
	props, ok := search.Parameters["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "query")

	assert.Nil(t, converted[1].Function.Parameters)
}
