// Package checkpoint provides persistent snapshots of graph execution,
// keyed by thread ID and step sequence, so interrupted or crashed runs can
// be inspected and resumed.
package checkpoint

import (
	"encoding/json"
	"time"
)

// Version is the current checkpoint format version.
// Increment when making breaking changes to the checkpoint structure.
const Version = 1

// Reason records why a checkpoint was written. It tells a resuming executor
// how to re-enter the step loop.
type Reason string

// Checkpoint reasons.
const (
	// ReasonStep is the normal after-step record: NextNode is resolved.
	ReasonStep Reason = "step"
	// ReasonInterruptBefore marks a suspension before NextNode ran.
	ReasonInterruptBefore Reason = "interrupt_before"
	// ReasonInterruptAfter marks a suspension after a node ran and merged;
	// NextNode is resolved.
	ReasonInterruptAfter Reason = "interrupt_after"
	// ReasonSuspend marks an explicit in-node interrupt. NextNode is
	// unresolved; PendingNode names the node that suspended, and resumption
	// re-resolves routing from it.
	ReasonSuspend Reason = "suspend"
	// ReasonFinal marks run completion.
	ReasonFinal Reason = "final"
	// ReasonUpdate marks an out-of-band state edit between suspension and
	// resume. The step counter does not advance.
	ReasonUpdate Reason = "update"
)

// Checkpoint is the persisted snapshot of one thread at one step.
type Checkpoint struct {
	Version   int       `json:"version"`
	ThreadID  string    `json:"thread_id"`
	Step      int       `json:"step"`
	Timestamp time.Time `json:"timestamp"`
	Reason    Reason    `json:"reason"`

	// State is the post-merge state, serialized by the graph's schema.
	State json.RawMessage `json:"state"`

	// NextNode is the node the thread re-enters on resume. Empty for
	// ReasonSuspend and ReasonFinal records.
	NextNode string `json:"next_node,omitempty"`

	// PendingNode is the node whose routing is still unresolved: the node
	// that was about to run (interrupt-before) or the node that suspended
	// (explicit interrupt).
	PendingNode string `json:"pending_node,omitempty"`

	// Interrupt is the serialized payload surfaced by an explicit
	// interrupt, if any.
	Interrupt json.RawMessage `json:"interrupt,omitempty"`
}

// New creates a checkpoint for a thread at a step. State must already be
// serialized by the graph's schema.
func New(threadID string, step int, reason Reason, state []byte) *Checkpoint {
	return &Checkpoint{
		Version:   Version,
		ThreadID:  threadID,
		Step:      step,
		Timestamp: time.Now().UTC(),
		Reason:    reason,
		State:     state,
	}
}

// WithNextNode sets the resolved next node.
func (c *Checkpoint) WithNextNode(id string) *Checkpoint {
	c.NextNode = id
	return c
}

// WithPendingNode sets the node whose routing is unresolved.
func (c *Checkpoint) WithPendingNode(id string) *Checkpoint {
	c.PendingNode = id
	return c
}

// WithInterrupt attaches a serialized interrupt payload.
func (c *Checkpoint) WithInterrupt(payload []byte) *Checkpoint {
	c.Interrupt = payload
	return c
}

// Marshal serializes the checkpoint to JSON.
func (c *Checkpoint) Marshal() ([]byte, error) {
	return json.Marshal(c)
}

// Unmarshal deserializes a checkpoint from JSON.
func Unmarshal(data []byte) (*Checkpoint, error) {
	var c Checkpoint
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
