package agentgraph

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Well-known state keys used by the built-in nodes.
const (
	// KeyMessages holds the []Message transcript. The default schema gives
	// it an append reducer: deltas grow the transcript, never replace it.
	KeyMessages = "messages"

	// KeyActiveAgent names the agent that produced the latest assistant
	// turn. Used by the multi-agent patterns to route tool results back.
	KeyActiveAgent = "active_agent"
)

// State is the working memory that flows through a graph.
// Nodes receive the current state and return partial deltas; the schema's
// reducers decide how each delta field combines with what is already there.
type State map[string]any

// Clone returns a shallow copy of the state.
func (s State) Clone() State {
	clone := make(State, len(s))
	for k, v := range s {
		clone[k] = v
	}
	return clone
}

// Messages returns the transcript stored under KeyMessages, or nil.
func (s State) Messages() []Message {
	msgs, _ := s[KeyMessages].([]Message)
	return msgs
}

// Reducer merges a delta value into the existing value for one state field.
type Reducer func(existing, update any) any

// Field describes one state field: its Go type (used to rehydrate the field
// after a checkpoint round-trip) and the reducer applied to its deltas.
type Field struct {
	Type    reflect.Type
	Reducer Reducer
	Default func() any
}

// Schema defines the fields of a graph's state and how deltas merge.
// Fields not present in the schema merge with override semantics.
type Schema struct {
	fields map[string]Field
}

// NewSchema creates an empty state schema.
func NewSchema() *Schema {
	return &Schema{fields: make(map[string]Field)}
}

// MessagesSchema returns the canonical schema used by conversational
// graphs: an appending []Message transcript plus an active-agent marker.
func MessagesSchema() *Schema {
	return NewSchema().
		AddField(KeyMessages, Field{
			Type:    reflect.TypeOf([]Message{}),
			Reducer: MessageReducer,
			Default: func() any { return []Message{} },
		}).
		AddField(KeyActiveAgent, Field{
			Type:    reflect.TypeOf(""),
			Reducer: OverrideReducer,
		})
}

// AddField registers a field. A nil reducer defaults to OverrideReducer.
// Returns the schema for chaining.
func (sc *Schema) AddField(name string, f Field) *Schema {
	if f.Reducer == nil {
		f.Reducer = OverrideReducer
	}
	sc.fields[name] = f
	return sc
}

// Field returns the definition for a field, if registered.
func (sc *Schema) Field(name string) (Field, bool) {
	f, ok := sc.fields[name]
	return f, ok
}

// Apply merges a delta into current using the schema's reducers and returns
// the merged state. Neither input is mutated. An empty delta is a no-op:
// the result equals current.
func (sc *Schema) Apply(current, delta State) State {
	result := current.Clone()
	for key, update := range delta {
		field, ok := sc.fields[key]
		if !ok {
			result[key] = update
			continue
		}
		existing, present := result[key]
		if !present && field.Default != nil {
			existing = field.Default()
		}
		result[key] = field.Reducer(existing, update)
	}
	return result
}

// MarshalState serializes state to JSON for checkpointing.
func (sc *Schema) MarshalState(s State) ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalState deserializes checkpointed state, rehydrating schema fields
// into their declared Go types. Without this, a []Message field would come
// back as []any and the append reducer would stop recognizing it.
func (sc *Schema) UnmarshalState(data []byte) (State, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}

	state := make(State, len(raw))
	for key, value := range raw {
		field, ok := sc.fields[key]
		if !ok || field.Type == nil {
			var v any
			if err := json.Unmarshal(value, &v); err != nil {
				return nil, fmt.Errorf("decode state field %s: %w", key, err)
			}
			state[key] = v
			continue
		}

		typed := reflect.New(field.Type)
		if err := json.Unmarshal(value, typed.Interface()); err != nil {
			return nil, fmt.Errorf("decode state field %s: %w", key, err)
		}
		state[key] = typed.Elem().Interface()
	}
	return state, nil
}

// Common reducers.

// OverrideReducer replaces the existing value with the update.
func OverrideReducer(_, update any) any {
	return update
}

// AppendReducer concatenates []any slices; falls back to override when
// either side is not a []any.
func AppendReducer(existing, update any) any {
	if existing == nil {
		existing = []any{}
	}
	existingSlice, ok1 := existing.([]any)
	updateSlice, ok2 := update.([]any)
	if !ok1 || !ok2 {
		return update
	}
	return append(existingSlice[:len(existingSlice):len(existingSlice)], updateSlice...)
}

// StringSliceReducer concatenates []string slices; falls back to override.
func StringSliceReducer(existing, update any) any {
	if existing == nil {
		existing = []string{}
	}
	existingSlice, ok1 := existing.([]string)
	updateSlice, ok2 := update.([]string)
	if !ok1 || !ok2 {
		return update
	}
	return append(existingSlice[:len(existingSlice):len(existingSlice)], updateSlice...)
}

// MergeReducer merges map[string]any values key-wise; falls back to override.
func MergeReducer(existing, update any) any {
	if existing == nil {
		existing = map[string]any{}
	}
	existingMap, ok1 := existing.(map[string]any)
	updateMap, ok2 := update.(map[string]any)
	if !ok1 || !ok2 {
		return update
	}
	result := make(map[string]any, len(existingMap)+len(updateMap))
	for k, v := range existingMap {
		result[k] = v
	}
	for k, v := range updateMap {
		result[k] = v
	}
	return result
}

// MessageReducer appends []Message deltas to the existing transcript.
// It does not collapse consecutive same-role messages; that is a node-level
// concern. Falls back to override when either side is not []Message.
func MessageReducer(existing, update any) any {
	if existing == nil {
		existing = []Message{}
	}
	existingMsgs, ok1 := existing.([]Message)
	updateMsgs, ok2 := update.([]Message)
	if !ok1 || !ok2 {
		return update
	}
	return append(existingMsgs[:len(existingMsgs):len(existingMsgs)], updateMsgs...)
}
