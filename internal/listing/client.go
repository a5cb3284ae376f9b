package listing

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

// ErrNotFound is returned when no listing matches the MLS listing id.
var ErrNotFound = errors.New("listing: not found")

// Client queries the MLS search API: a POST search narrows to one
// listing summary, then a GET by internal id fetches the full record.
type Client struct {
	endpoint string
	systemID int
	http     *http.Client
}

func NewClient(endpoint string, systemID int) (*Client, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return nil, fmt.Errorf("listing: endpoint is required")
	}
	if systemID <= 0 {
		return nil, fmt.Errorf("listing: mls system id is required")
	}
	return &Client{
		endpoint: endpoint,
		systemID: systemID,
		http:     &http.Client{Timeout: 20 * time.Second},
	}, nil
}

type searchRequest struct {
	MLSes       []int    `json:"mlses"`
	MLSListings []string `json:"mls_listings"`
	Size        int      `json:"size"`
}

type searchResponse struct {
	Data struct {
		TotalElements int `json:"total_elements"`
		Content       struct {
			Listings []map[string]any `json:"listings"`
		} `json:"content"`
	} `json:"data"`
}

type detailResponse struct {
	Data map[string]any `json:"data"`
}

func (c *Client) postJSON(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("listing: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("listing: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	return c.send(req, out)
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("listing: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("listing: %s %s: %w", req.Method, req.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("listing: %s %s: unexpected status %d", req.Method, req.URL, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("listing: decode response: %w", err)
	}
	return nil
}

// FetchByMLSID resolves an MLS listing id to the full listing record.
// Returns ErrNotFound when the search comes back empty.
func (c *Client) FetchByMLSID(ctx context.Context, mlsListingID string) (map[string]any, error) {
	mlsListingID = strings.TrimSpace(mlsListingID)
	if mlsListingID == "" {
		return nil, fmt.Errorf("listing: mls listing id is required")
	}

	var search searchResponse
	err := c.postJSON(ctx, c.endpoint+"/listings/", searchRequest{
		MLSes:       []int{c.systemID},
		MLSListings: []string{mlsListingID},
		Size:        1,
	}, &search)
	if err != nil {
		return nil, err
	}
	if search.Data.TotalElements == 0 || len(search.Data.Content.Listings) == 0 {
		return nil, ErrNotFound
	}

	id, _ := search.Data.Content.Listings[0]["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("listing: search hit is missing its internal id")
	}

	var detail detailResponse
	if err := c.getJSON(ctx, c.endpoint+"/listings/"+id+"/", &detail); err != nil {
		return nil, err
	}
	if detail.Data == nil {
		return nil, fmt.Errorf("listing: detail response has no data")
	}
	return detail.Data, nil
}
