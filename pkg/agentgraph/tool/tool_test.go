package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoArgs struct {
	Text string `json:"text"`
}

func echoTool() CallableTool {
	return NewFunctionTool(&Declaration{
		Name:        "echo",
		Description: "Echoes the input text.",
		InputSchema: &Schema{
			Type: "object",
			Properties: map[string]*Schema{
				"text": {Type: "string"},
			},
			Required: []string{"text"},
		},
	}, func(_ context.Context, args echoArgs) (any, error) {
		return args.Text, nil
	})
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry(echoTool())

	got, err := r.Lookup("echo")
	require.NoError(t, err)
	assert.Equal(t, "echo", got.Declaration().Name)

	_, err = r.Lookup("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_DuplicateName(t *testing.T) {
	r := NewRegistry(echoTool())
	err := r.Register(echoTool())
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestFunctionTool_Call(t *testing.T) {
	result, err := echoTool().Call(context.Background(), []byte(`{"text":"hi"}`))
	require.NoError(t, err)
	assert.Equal(t, "hi", result)
}

func TestFunctionTool_RepairsMalformedArguments(t *testing.T) {
	// Trailing comma and single quotes, typical small-model output.
	result, err := echoTool().Call(context.Background(), []byte(`{'text': 'hi',}`))
	require.NoError(t, err)
	assert.Equal(t, "hi", result)
}

func TestHandoffTool_FixedAcknowledgement(t *testing.T) {
	h := NewHandoffTool("billing", "")

	assert.Equal(t, "transfer_to_billing", h.Declaration().Name)

	result, err := h.Call(context.Background(), []byte(`{"anything":"ignored"}`))
	require.NoError(t, err)
	assert.Equal(t, "Transferring to agent 'billing'.", result)
}

func TestHandoffTarget(t *testing.T) {
	tests := []struct {
		name   string
		target string
		ok     bool
	}{
		{"transfer_to_billing", "billing", true},
		{"transfer_to_", "", false},
		{"echo", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		target, ok := HandoffTarget(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.target, target, tt.name)
	}
}
