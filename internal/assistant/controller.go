package assistant

import (
	"context"
	"errors"
	"fmt"
	"log"

	"designify/internal/render"
)

// CatalogProvider supplies the full template catalog for grounding.
type CatalogProvider interface {
	Templates(ctx context.Context) ([]render.Template, error)
}

// Uploader turns staged image bytes into a public URL the model can
// reference.
type Uploader interface {
	Upload(ctx context.Context, data []byte) (string, error)
}

// TurnLogger persists chat turns. Optional; failures are logged only.
type TurnLogger interface {
	Append(ctx context.Context, sessionID, role, content string) error
}

const (
	replyUploadFailed = "Sorry, there was an error uploading your image. Please try again."
	replyClarify      = "I'm not sure how to respond to that. Can you clarify what design action you want to take?"
	replyRephrase     = "I'm sorry, I had a problem. Could you please rephrase your request?"
)

// Controller runs one conversation turn end to end: stage upload,
// decision, action, history bookkeeping. One engine call and one
// handler call per turn, synchronously.
type Controller struct {
	engine  Engine
	catalog CatalogProvider
	handler *Handler
	upload  Uploader
	turnlog TurnLogger
	company string
}

func NewController(engine Engine, catalog CatalogProvider, handler *Handler, upload Uploader, company string) *Controller {
	return &Controller{
		engine:  engine,
		catalog: catalog,
		handler: handler,
		upload:  upload,
		company: company,
	}
}

// WithTurnLog attaches an optional turn archive.
func (c *Controller) WithTurnLog(tl TurnLogger) *Controller {
	c.turnlog = tl
	return c
}

// Greeting is the canned assistant message opening every session.
func (c *Controller) Greeting() string {
	return fmt.Sprintf("Hello! I'm your AI design assistant from %s. "+
		"How can I help you create marketing materials today? "+
		"You can ask me to create a design or provide an MLS ID to get started!", c.company)
}

// ProcessTurn handles one user message and returns the reply. Every
// path yields a reply string; no error is fatal to the session.
func (c *Controller) ProcessTurn(ctx context.Context, sess *Session, userText string) string {
	sess.Lock()
	defer sess.Unlock()

	engineText := userText
	if staged := sess.TakeStagedImage(); len(staged) > 0 {
		url, err := c.upload.Upload(ctx, staged)
		if err != nil {
			log.Printf("session %s: image upload failed: %v", sess.ID, err)
			return c.finishTurn(ctx, sess, userText, replyUploadFailed)
		}
		// The model can only "see" the image through its URL, so the
		// prompt is rewritten to carry it inline.
		engineText = fmt.Sprintf("Image context: The user has uploaded an image, its URL is %s. Their text command is: '%s'", url, userText)
	}

	reply := c.decide(ctx, sess, engineText)
	return c.finishTurn(ctx, sess, userText, reply)
}

func (c *Controller) decide(ctx context.Context, sess *Session, engineText string) string {
	templates, err := c.catalog.Templates(ctx)
	if err != nil {
		log.Printf("session %s: template catalog unavailable: %v", sess.ID, err)
		return replyRephrase
	}

	decision, err := c.engine.Decide(ctx, Grounding{
		History:   sess.WindowedHistory(historyWindow),
		UserText:  engineText,
		Templates: templates,
		Design:    sess.Design(),
	})
	if err != nil {
		log.Printf("session %s: decision engine: %v", sess.ID, err)
		if errors.Is(err, ErrNoDecision) {
			return replyClarify
		}
		return replyRephrase
	}
	log.Printf("session %s: decision action=%s template=%s", sess.ID, decision.Action, decision.TemplateUID)

	return c.handler.HandleDecision(ctx, sess, decision)
}

// finishTurn appends the user's original message and the reply to the
// history and mirrors both to the turn log when one is configured.
func (c *Controller) finishTurn(ctx context.Context, sess *Session, userText, reply string) string {
	sess.Append(RoleUser, userText)
	sess.Append(RoleAssistant, reply)
	if c.turnlog != nil {
		if err := c.turnlog.Append(ctx, sess.ID, RoleUser, userText); err != nil {
			log.Printf("session %s: turn log: %v", sess.ID, err)
		}
		if err := c.turnlog.Append(ctx, sess.ID, RoleAssistant, reply); err != nil {
			log.Printf("session %s: turn log: %v", sess.ID, err)
		}
	}
	return reply
}
