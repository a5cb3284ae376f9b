package render

// Layer is one named slot on a template that a modification can fill.
type Layer struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Template is a read-only catalog entry from the template service.
type Template struct {
	UID                    string  `json:"uid"`
	Name                   string  `json:"name,omitempty"`
	AvailableModifications []Layer `json:"available_modifications,omitempty"`
}

// Modification assigns one concrete value to one layer name.
// Exactly one of Text, ImageURL or Color carries the value.
type Modification struct {
	Name     string `json:"name"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	Color    string `json:"color,omitempty"`
}

// Job statuses reported by the template service.
const (
	JobStatusPending   = "pending"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Job is an asynchronous render request. Self is the polling URL.
type Job struct {
	UID         string `json:"uid,omitempty"`
	Status      string `json:"status"`
	Self        string `json:"self"`
	ImageURLPNG string `json:"image_url_png,omitempty"`
}
