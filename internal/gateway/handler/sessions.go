package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"designify/internal/assistant"
)

// maxAttachmentBytes caps a staged image upload.
const maxAttachmentBytes = 16 << 20

type createSessionResponse struct {
	SessionID string `json:"session_id"`
	Greeting  string `json:"greeting"`
}

func (h *Handler) HandleCreateSession(w http.ResponseWriter, _ *http.Request) {
	sess := h.store.Create()
	writeJSON(w, http.StatusCreated, createSessionResponse{
		SessionID: sess.ID,
		Greeting:  h.controller.Greeting(),
	})
}

func (h *Handler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "session id is required")
		return
	}
	h.store.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

type messageRequest struct {
	Text string `json:"text"`
}

type messageResponse struct {
	Reply    string `json:"reply"`
	ImageURL string `json:"image_url,omitempty"`
}

func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	reply := h.controller.ProcessTurn(r.Context(), sess, text)
	writeJSON(w, http.StatusOK, messageResponse{
		Reply:    reply,
		ImageURL: extractImageURL(reply),
	})
}

func (h *Handler) HandleAttachment(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAttachmentBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "attachment too large")
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "attachment body is empty")
		return
	}
	sess.StageImage(data)
	writeJSON(w, http.StatusOK, map[string]any{"staged": true, "bytes": len(data)})
}

type historyResponse struct {
	Messages []assistant.Message `json:"messages"`
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{Messages: sess.Messages()})
}

type designResponse struct {
	TemplateUID string      `json:"template_uid,omitempty"`
	Started     bool        `json:"started"`
	Images      []layerView `json:"images,omitempty"`
	Texts       []layerView `json:"texts,omitempty"`
}

// HandleDesign renders the review view: the selected template's layers
// merged with the values collected so far.
func (h *Handler) HandleDesign(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	design := sess.DesignSnapshot()
	resp := designResponse{TemplateUID: design.TemplateUID, Started: design.Started()}
	if !design.Started() {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	templates, err := h.catalog.Templates(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "template catalog unavailable")
		return
	}
	for i := range templates {
		if templates[i].UID == design.TemplateUID {
			resp.Images = layerViews(&templates[i], &design, "image")
			resp.Texts = layerViews(&templates[i], &design, "text")
			break
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
