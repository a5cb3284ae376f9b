package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"designify/internal/assistant"
	"designify/internal/render"
)

// Handler serves the chat gateway endpoints. All session state lives
// in the store; handlers are stateless.
type Handler struct {
	store      *assistant.Store
	controller *assistant.Controller
	catalog    assistant.CatalogProvider
}

func New(store *assistant.Store, controller *assistant.Controller, catalog assistant.CatalogProvider) *Handler {
	return &Handler{store: store, controller: controller, catalog: catalog}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*assistant.Session, bool) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "session id is required")
		return nil, false
	}
	sess, ok := h.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return nil, false
	}
	return sess, true
}

// extractImageURL pulls the generated-image URL out of a reply when
// the render marker is present.
func extractImageURL(reply string) string {
	idx := strings.Index(reply, assistant.ImageMarker)
	if idx < 0 {
		return ""
	}
	rest := reply[idx+len(assistant.ImageMarker):]
	end := strings.Index(rest, ")")
	if end < 0 {
		return ""
	}
	return rest[:end]
}

// layerView is one row of the design review: a template layer and its
// current value, if any.
type layerView struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
	Set   bool   `json:"set"`
}

func layerViews(template *render.Template, design *assistant.DesignContext, layerType string) []layerView {
	views := make([]layerView, 0, len(template.AvailableModifications))
	for _, layer := range template.AvailableModifications {
		if layer.Type != layerType {
			continue
		}
		view := layerView{Name: layer.Name, Type: layer.Type}
		if mod, ok := design.Modification(layer.Name); ok {
			switch layerType {
			case "image":
				view.Value = mod.ImageURL
			default:
				view.Value = mod.Text
			}
			view.Set = view.Value != ""
		}
		views = append(views, view)
	}
	return views
}
