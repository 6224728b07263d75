package tool

import (
	"context"
	"fmt"
	"strings"
)

// HandoffPrefix is the reserved name prefix for control-transfer tools.
// A tool call whose name starts with this prefix is never dispatched to a
// registry; the routing layer redirects the run to the named agent instead.
const HandoffPrefix = "transfer_to_"

// HandoffTool signals a control transfer to another agent.
// Calling it performs no work: it returns a fixed acknowledgement string
// and the actual transfer is carried out by the graph's routing layer,
// which matches on the tool name.
type HandoffTool struct {
	target string
	decl   *Declaration
}

// NewHandoffTool creates a transfer tool for the named target agent.
// The tool is named "transfer_to_<target>" and takes no arguments.
func NewHandoffTool(target string, description string) *HandoffTool {
	if description == "" {
		description = fmt.Sprintf("Transfer the conversation to agent %q.", target)
	}
	return &HandoffTool{
		target: target,
		decl: &Declaration{
			Name:        HandoffPrefix + target,
			Description: description,
			InputSchema: &Schema{Type: "object"},
		},
	}
}

// Target returns the agent this tool transfers to.
func (t *HandoffTool) Target() string {
	return t.target
}

// Declaration implements Tool.
func (t *HandoffTool) Declaration() *Declaration {
	return t.decl
}

// Call implements CallableTool. Arguments are ignored.
func (t *HandoffTool) Call(_ context.Context, _ []byte) (any, error) {
	return HandoffAck(t.target), nil
}

// HandoffAck returns the acknowledgement recorded in the transcript when a
// transfer tool fires.
func HandoffAck(target string) string {
	return fmt.Sprintf("Transferring to agent '%s'.", target)
}

// HandoffTarget extracts the target agent from a tool name.
// Returns false if the name is not a handoff tool name.
func HandoffTarget(name string) (string, bool) {
	if !strings.HasPrefix(name, HandoffPrefix) {
		return "", false
	}
	target := strings.TrimPrefix(name, HandoffPrefix)
	if target == "" {
		return "", false
	}
	return target, true
}
