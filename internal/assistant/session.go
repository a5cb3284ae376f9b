package assistant

import (
	"strings"
	"sync"
	"time"

	"designify/internal/render"
)

// Message roles in the conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ImageMarker prefixes the embedded image reference appended to a
// reply after a completed render. Assistant turns carrying it are kept
// in the history shown to the user but excluded from the grounding
// window sent to the model.
const ImageMarker = "![Generated Image]("

// Message is one conversation history entry.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// DesignContext is the persistent per-session design state: the
// selected template plus the accumulated layer values.
type DesignContext struct {
	TemplateUID   string                `json:"template_uid,omitempty"`
	Modifications []render.Modification `json:"modifications"`
}

// SetTemplate records the selected template uid.
func (dc *DesignContext) SetTemplate(uid string) {
	dc.TemplateUID = strings.TrimSpace(uid)
}

// ReplaceModifications throws away the accumulated values and installs
// a fresh set, as after an MLS data fetch.
func (dc *DesignContext) ReplaceModifications(mods []render.Modification) {
	dc.Modifications = append([]render.Modification(nil), mods...)
}

// ApplyModifications merges new values in, keyed by layer name. A new
// value for a layer fully replaces the old one; there is no
// field-level merge. Existing layers keep their position, new layers
// append in the order given.
func (dc *DesignContext) ApplyModifications(mods []render.Modification) {
	for _, mod := range mods {
		replaced := false
		for i := range dc.Modifications {
			if dc.Modifications[i].Name == mod.Name {
				dc.Modifications[i] = mod
				replaced = true
				break
			}
		}
		if !replaced {
			dc.Modifications = append(dc.Modifications, mod)
		}
	}
}

// Modification returns the current value for a layer name, if any.
func (dc *DesignContext) Modification(name string) (render.Modification, bool) {
	for _, m := range dc.Modifications {
		if m.Name == name {
			return m, true
		}
	}
	return render.Modification{}, false
}

// Reset clears the selected template and every accumulated value.
func (dc *DesignContext) Reset() {
	dc.TemplateUID = ""
	dc.Modifications = nil
}

// Started reports whether a design is in progress.
func (dc *DesignContext) Started() bool {
	return dc.TemplateUID != ""
}

// Session holds everything the assistant remembers for one user:
// conversation history, the design context, and an optionally staged
// image awaiting the next message. Turns within a session are
// serialized by the controller; Lock guards against concurrent
// gateway requests for the same session id.
type Session struct {
	ID string

	mu          sync.Mutex
	messages    []Message
	design      DesignContext
	stagedImage []byte
	createdAt   time.Time
	lastActive  time.Time
}

func NewSession(id, greeting string) *Session {
	now := time.Now()
	s := &Session{
		ID:         id,
		createdAt:  now,
		lastActive: now,
	}
	if greeting != "" {
		s.messages = append(s.messages, Message{Role: RoleAssistant, Content: greeting})
	}
	return s
}

// Lock serializes one turn. The controller holds it for the whole
// turn, including the render-and-poll cycle.
func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// Design returns the mutable design context. Callers must hold the
// session lock.
func (s *Session) Design() *DesignContext { return &s.design }

// Append records one history entry. Callers must hold the session lock.
func (s *Session) Append(role, content string) {
	s.messages = append(s.messages, Message{Role: role, Content: content})
	s.lastActive = time.Now()
}

// Messages returns a copy of the full history. It takes the session
// lock, so it must not be called by a goroutine already holding it.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// DesignSnapshot returns a copy of the design context for read-only
// use outside a turn. Takes the session lock.
func (s *Session) DesignSnapshot() DesignContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return DesignContext{
		TemplateUID:   s.design.TemplateUID,
		Modifications: append([]render.Modification(nil), s.design.Modifications...),
	}
}

// StageImage stores raw image bytes to be uploaded with the next
// message, replacing any previously staged image. Takes the session
// lock.
func (s *Session) StageImage(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stagedImage = append([]byte(nil), data...)
}

// TakeStagedImage returns and clears the staged image, if any.
// Callers must hold the session lock.
func (s *Session) TakeStagedImage() []byte {
	data := s.stagedImage
	s.stagedImage = nil
	return data
}

// LastActive reports when the session last saw a turn.
func (s *Session) LastActive() time.Time { return s.lastActive }

// WindowedHistory returns up to the last n entries for model
// grounding, dropping assistant turns that embed a generated image.
func (s *Session) WindowedHistory(n int) []Message {
	msgs := s.messages
	if len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	window := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == RoleAssistant && strings.Contains(m.Content, ImageMarker) {
			continue
		}
		window = append(window, m)
	}
	return window
}
