package assistant

import (
	"fmt"
	"strings"

	"designify/internal/render"
)

// Action is the closed vocabulary the decision engine chooses from.
// Exactly one action is produced per conversation turn.
type Action string

const (
	ActionFetchMLSData Action = "FETCH_MLS_DATA"
	ActionModify       Action = "MODIFY"
	ActionGenerate     Action = "GENERATE"
	ActionReset        Action = "RESET"
	ActionConverse     Action = "CONVERSE"
)

// Decision is the structured output of one engine call. It lives for
// the turn that produced it and is never persisted.
type Decision struct {
	Action        Action                `json:"action"`
	TemplateUID   string                `json:"template_uid,omitempty"`
	MLSListingID  string                `json:"mls_listing_id,omitempty"`
	Modifications []render.Modification `json:"modifications,omitempty"`
	ResponseText  string                `json:"response_text"`
}

// Validate enforces the engine contract: one known action and a
// non-empty user-facing response.
func (d *Decision) Validate() error {
	if d == nil {
		return fmt.Errorf("assistant: nil decision")
	}
	switch d.Action {
	case ActionFetchMLSData, ActionModify, ActionGenerate, ActionReset, ActionConverse:
	default:
		return fmt.Errorf("assistant: unknown action %q", d.Action)
	}
	if strings.TrimSpace(d.ResponseText) == "" {
		return fmt.Errorf("assistant: decision has no response text")
	}
	for _, m := range d.Modifications {
		if strings.TrimSpace(m.Name) == "" {
			return fmt.Errorf("assistant: modification without a layer name")
		}
	}
	return nil
}
