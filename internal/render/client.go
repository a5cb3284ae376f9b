package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrRenderFailed is returned when the service reports a failed job.
	ErrRenderFailed = errors.New("render: job failed")
	// ErrRenderTimeout is returned when a job does not reach a terminal
	// state within the polling budget.
	ErrRenderTimeout = errors.New("render: polling budget exhausted")
)

const (
	defaultPollInterval = time.Second
	defaultPollAttempts = 30
)

// Client talks to the template rendering service.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client

	pollInterval time.Duration
	pollAttempts int
}

func NewClient(endpoint, apiKey string) (*Client, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return nil, fmt.Errorf("render: endpoint is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("render: api key is required")
	}
	return &Client{
		endpoint:     endpoint,
		apiKey:       apiKey,
		http:         &http.Client{Timeout: 15 * time.Second},
		pollInterval: defaultPollInterval,
		pollAttempts: defaultPollAttempts,
	}, nil
}

func (c *Client) do(ctx context.Context, method, url string, body any, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("render: encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("render: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("render: %s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("render: %s %s: unexpected status %d", method, url, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("render: decode response: %w", err)
	}
	return nil
}

// ListTemplates returns the template summaries from GET /templates.
func (c *Client) ListTemplates(ctx context.Context) ([]Template, error) {
	var templates []Template
	if err := c.do(ctx, http.MethodGet, c.endpoint+"/templates", nil, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

// GetTemplate returns the full descriptor for one template, including
// its available modifications.
func (c *Client) GetTemplate(ctx context.Context, uid string) (*Template, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, fmt.Errorf("render: template uid is required")
	}
	var t Template
	if err := c.do(ctx, http.MethodGet, c.endpoint+"/templates/"+uid, nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

type createImageRequest struct {
	Template      string         `json:"template"`
	Modifications []Modification `json:"modifications"`
	Transparent   bool           `json:"transparent"`
}

// CreateImage submits an asynchronous render job. Renders always
// request a transparent background.
func (c *Client) CreateImage(ctx context.Context, templateUID string, mods []Modification) (*Job, error) {
	templateUID = strings.TrimSpace(templateUID)
	if templateUID == "" {
		return nil, fmt.Errorf("render: template uid is required")
	}
	if mods == nil {
		mods = []Modification{}
	}
	payload := createImageRequest{
		Template:      templateUID,
		Modifications: mods,
		Transparent:   true,
	}
	var job Job
	if err := c.do(ctx, http.MethodPost, c.endpoint+"/images", payload, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// WaitForImage polls the job's self URL at a fixed interval until the
// job completes, fails, or the attempt budget runs out. There is no
// retry beyond the budget; the caller reissues the whole render.
func (c *Client) WaitForImage(ctx context.Context, job *Job) (*Job, error) {
	if job == nil || strings.TrimSpace(job.Self) == "" {
		return nil, fmt.Errorf("render: job has no polling url")
	}
	for i := 0; i < c.pollAttempts; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}

		var polled Job
		if err := c.do(ctx, http.MethodGet, job.Self, nil, &polled); err != nil {
			return nil, err
		}
		switch polled.Status {
		case JobStatusCompleted:
			return &polled, nil
		case JobStatusFailed:
			return nil, ErrRenderFailed
		}
	}
	return nil, ErrRenderTimeout
}
