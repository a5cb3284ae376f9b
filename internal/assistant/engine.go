package assistant

import (
	"context"
	"errors"

	"designify/internal/render"
)

// historyWindow caps how many trailing history entries are sent to the
// decision engine as grounding context.
const historyWindow = 15

// ErrNoDecision is returned when the model does not produce a
// structured decision. The caller maps it to a clarification reply;
// nothing is retried.
var ErrNoDecision = errors.New("assistant: model returned no structured decision")

// Grounding is everything the engine sees for one turn. It is re-sent
// in full on every call; the engine keeps no state between turns.
type Grounding struct {
	History   []Message
	UserText  string
	Templates []render.Template
	Design    *DesignContext
}

// Engine maps one user turn plus grounding context to exactly one
// Decision. Implementations are opaque and swappable; the action
// handler never depends on a concrete inference provider.
type Engine interface {
	Decide(ctx context.Context, g Grounding) (*Decision, error)
}
