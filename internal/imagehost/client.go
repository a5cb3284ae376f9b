package imagehost

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client uploads image bytes to the public image host and returns the
// hosted URL. The host takes a base64 form post and answers JSON.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

func NewClient(endpoint, apiKey string) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("imagehost: endpoint is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("imagehost: api key is required")
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 60 * time.Second},
	}, nil
}

type uploadResponse struct {
	StatusCode int `json:"status_code"`
	Image      struct {
		URL string `json:"url"`
	} `json:"image"`
}

// Upload pushes raw image bytes and returns the public URL.
func (c *Client) Upload(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("imagehost: no image bytes")
	}

	form := url.Values{}
	form.Set("key", c.apiKey)
	form.Set("source", base64.StdEncoding.EncodeToString(data))
	form.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("imagehost: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("imagehost: upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("imagehost: upload: unexpected status %d", resp.StatusCode)
	}

	var result uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("imagehost: decode response: %w", err)
	}
	if result.StatusCode != http.StatusOK || result.Image.URL == "" {
		return "", fmt.Errorf("imagehost: host rejected the upload (status_code=%d)", result.StatusCode)
	}
	return result.Image.URL, nil
}
