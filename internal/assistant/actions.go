package assistant

import (
	"context"
	"log"
	"strings"
	"time"

	"designify/internal/listing"
	"designify/internal/render"
)

// RenderService is the slice of the template service the handler
// needs: submit a job and wait for its terminal state.
type RenderService interface {
	CreateImage(ctx context.Context, templateUID string, mods []render.Modification) (*render.Job, error)
	WaitForImage(ctx context.Context, job *render.Job) (*render.Job, error)
}

// ListingService resolves an MLS listing id to a raw listing record.
type ListingService interface {
	FetchByMLSID(ctx context.Context, mlsListingID string) (map[string]any, error)
}

// DesignRecord captures one completed render for archival.
type DesignRecord struct {
	SessionID     string                `json:"session_id"`
	TemplateUID   string                `json:"template_uid"`
	Modifications []render.Modification `json:"modifications"`
	ImageURL      string                `json:"image_url"`
	CreatedAt     time.Time             `json:"created_at"`
}

// Archiver persists completed designs. Failures are logged, never
// surfaced to the user.
type Archiver interface {
	SaveDesign(ctx context.Context, rec DesignRecord) error
}

// Handler applies one Decision to the session's design context and,
// when the decision calls for it, runs the render-and-poll cycle. The
// design context is the entire state; there is no other machine.
type Handler struct {
	renderer RenderService
	listings ListingService
	fields   listing.FieldTable
	archiver Archiver
}

func NewHandler(renderer RenderService, listings ListingService, fields listing.FieldTable) *Handler {
	if len(fields) == 0 {
		fields = listing.DefaultFieldTable()
	}
	return &Handler{renderer: renderer, listings: listings, fields: fields}
}

// WithArchiver attaches an optional design archive.
func (h *Handler) WithArchiver(a Archiver) *Handler {
	h.archiver = a
	return h
}

const (
	replyNeedBothIDs = "I need both an MLS ID and a design type (like 'just sold') to get started. Can you provide both?"
	replyNoTemplate  = "I can't generate an image yet. Please describe the design you want so I can pick a template."
	replyStartFailed = "**Error:** I couldn't start the image generation process."
	replyRenderError = "**Error:** The image generation timed out or failed. Please try again."
)

// HandleDecision mutates the session's design context per the decision
// and returns the final reply text. The caller holds the session lock.
func (h *Handler) HandleDecision(ctx context.Context, sess *Session, d *Decision) string {
	design := sess.Design()
	responseText := d.ResponseText
	triggerRender := false

	switch d.Action {
	case ActionFetchMLSData:
		return h.fetchMLSData(ctx, design, d)

	case ActionModify:
		newUID := strings.TrimSpace(d.TemplateUID)
		if newUID != "" && newUID != design.TemplateUID {
			// Switching away from an in-progress design re-renders it
			// under the new template; a fresh design does not.
			if design.Started() {
				triggerRender = true
			}
			design.SetTemplate(newUID)
		}
		design.ApplyModifications(d.Modifications)

	case ActionGenerate:
		triggerRender = true

	case ActionReset:
		design.Reset()
		return responseText

	case ActionConverse:
		// No state change.
	}

	if triggerRender {
		responseText = h.render(ctx, sess, responseText)
	}
	return responseText
}

func (h *Handler) fetchMLSData(ctx context.Context, design *DesignContext, d *Decision) string {
	mlsID := strings.TrimSpace(d.MLSListingID)
	templateUID := strings.TrimSpace(d.TemplateUID)
	if mlsID == "" || templateUID == "" {
		return replyNeedBothIDs
	}

	record, err := h.listings.FetchByMLSID(ctx, mlsID)
	if err != nil || record == nil {
		log.Printf("mls lookup for %s failed: %v", mlsID, err)
		return "I'm sorry, I couldn't find any information for MLS ID `" + mlsID + "`. Please double-check the ID and try again."
	}

	design.SetTemplate(templateUID)
	mods := listing.MapListing(record, h.fields)
	design.ReplaceModifications(mods)
	log.Printf("mapped listing %s to %d modifications", mlsID, len(mods))

	address, _ := record["formatted_address"].(string)
	if address == "" {
		address = "that address"
	}
	return "Success! I found the listing for **" + address + "** and pre-filled the available information. " +
		"You can review and edit the details, or just ask me to make changes. What's next?"
}

// render runs the render-and-poll cycle against the current design
// context. On success the image marker is appended to the reply; on
// any failure the reply is replaced wholesale with a generic error.
func (h *Handler) render(ctx context.Context, sess *Session, responseText string) string {
	design := sess.Design()
	if !design.Started() {
		return replyNoTemplate
	}

	job, err := h.renderer.CreateImage(ctx, design.TemplateUID, design.Modifications)
	if err != nil || job == nil {
		log.Printf("create render job: %v", err)
		return replyStartFailed
	}

	final, err := h.renderer.WaitForImage(ctx, job)
	if err != nil || final == nil || final.ImageURLPNG == "" {
		log.Printf("render job did not complete: %v", err)
		return replyRenderError
	}

	h.archive(ctx, sess, final.ImageURLPNG)
	return responseText + "\n\n" + ImageMarker + final.ImageURLPNG + ")"
}

func (h *Handler) archive(ctx context.Context, sess *Session, imageURL string) {
	if h.archiver == nil {
		return
	}
	design := sess.Design()
	rec := DesignRecord{
		SessionID:     sess.ID,
		TemplateUID:   design.TemplateUID,
		Modifications: append([]render.Modification(nil), design.Modifications...),
		ImageURL:      imageURL,
		CreatedAt:     time.Now(),
	}
	if err := h.archiver.SaveDesign(ctx, rec); err != nil {
		log.Printf("archive design for session %s: %v", sess.ID, err)
	}
}
