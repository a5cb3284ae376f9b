package assistant

import (
	"context"
	"sync"
)

// ScriptedEngine replays a fixed sequence of decisions. It stands in
// for the real model in tests and offline runs; it also records the
// grounding it was handed so tests can assert on the contract.
type ScriptedEngine struct {
	mu        sync.Mutex
	decisions []Decision
	next      int

	// Groundings holds one entry per Decide call, in order.
	Groundings []Grounding
}

func NewScriptedEngine(decisions ...Decision) *ScriptedEngine {
	return &ScriptedEngine{decisions: decisions}
}

func (e *ScriptedEngine) Decide(_ context.Context, g Grounding) (*Decision, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Groundings = append(e.Groundings, g)
	if e.next >= len(e.decisions) {
		return nil, ErrNoDecision
	}
	d := e.decisions[e.next]
	e.next++
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Calls reports how many decisions have been handed out.
func (e *ScriptedEngine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.next
}
