package tool

import (
	"context"
	"encoding/json"

	"github.com/kaptinlin/jsonrepair"
)

// FunctionTool adapts a plain Go function into a CallableTool.
// The arguments type A is decoded from the model-provided JSON; malformed
// JSON (common with smaller models) is passed through jsonrepair before
// the call is rejected.
type FunctionTool[A any] struct {
	decl *Declaration
	fn   func(ctx context.Context, args A) (any, error)
}

// NewFunctionTool wraps fn as a callable tool with the given declaration.
func NewFunctionTool[A any](decl *Declaration, fn func(ctx context.Context, args A) (any, error)) *FunctionTool[A] {
	return &FunctionTool[A]{decl: decl, fn: fn}
}

// Declaration implements Tool.
func (t *FunctionTool[A]) Declaration() *Declaration {
	return t.decl
}

// Call implements CallableTool.
func (t *FunctionTool[A]) Call(ctx context.Context, args []byte) (any, error) {
	var decoded A
	if len(args) > 0 {
		if err := UnmarshalArgs(args, &decoded); err != nil {
			return nil, err
		}
	}
	return t.fn(ctx, decoded)
}

// UnmarshalArgs decodes JSON tool arguments into v.
// If the payload is not valid JSON it is repaired first; the original
// decode error is returned only when repair also fails.
func UnmarshalArgs(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(string(data))
	if repairErr != nil {
		return err
	}
	return json.Unmarshal([]byte(repaired), v)
}
