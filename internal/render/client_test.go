package render

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(srv.URL, "test-key")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	c.pollInterval = time.Millisecond
	return c
}

func TestListTemplates_SendsBearerAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization header = %q", got)
		}
		json.NewEncoder(w).Encode([]Template{{UID: "tpl_1"}, {UID: "tpl_2"}})
	}))
	defer srv.Close()

	templates, err := newTestClient(t, srv).ListTemplates(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(templates) != 2 || templates[0].UID != "tpl_1" {
		t.Fatalf("unexpected templates: %+v", templates)
	}
}

func TestCreateImage_RequestsTransparentRender(t *testing.T) {
	var captured createImageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/images" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(Job{Status: JobStatusPending, Self: "http://poll/me"})
	}))
	defer srv.Close()

	mods := []Modification{{Name: "property_price", Text: "$500,000"}}
	job, err := newTestClient(t, srv).CreateImage(context.Background(), "tpl_1", mods)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if job.Self != "http://poll/me" {
		t.Fatalf("unexpected job: %+v", job)
	}
	if !captured.Transparent {
		t.Fatal("render was not requested transparent")
	}
	if captured.Template != "tpl_1" || len(captured.Modifications) != 1 {
		t.Fatalf("unexpected payload: %+v", captured)
	}
}

func TestWaitForImage_Completed(t *testing.T) {
	var polls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if polls.Add(1) < 3 {
			json.NewEncoder(w).Encode(Job{Status: JobStatusPending})
			return
		}
		json.NewEncoder(w).Encode(Job{Status: JobStatusCompleted, ImageURLPNG: "http://img/out.png"})
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	final, err := c.WaitForImage(context.Background(), &Job{Self: srv.URL + "/job"})
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if final.ImageURLPNG != "http://img/out.png" {
		t.Fatalf("unexpected final job: %+v", final)
	}
}

func TestWaitForImage_Failed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(Job{Status: JobStatusFailed})
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.WaitForImage(context.Background(), &Job{Self: srv.URL + "/job"})
	if !errors.Is(err, ErrRenderFailed) {
		t.Fatalf("expected ErrRenderFailed, got %v", err)
	}
}

func TestWaitForImage_BudgetIsExactlyThirtyAttempts(t *testing.T) {
	var polls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		polls.Add(1)
		json.NewEncoder(w).Encode(Job{Status: JobStatusPending})
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.WaitForImage(context.Background(), &Job{Self: srv.URL + "/job"})
	if !errors.Is(err, ErrRenderTimeout) {
		t.Fatalf("expected ErrRenderTimeout, got %v", err)
	}
	if got := polls.Load(); got != 30 {
		t.Fatalf("expected exactly 30 poll attempts, got %d", got)
	}
}

func TestWaitForImage_RequiresPollingURL(t *testing.T) {
	c, _ := NewClient("http://unused", "k")
	if _, err := c.WaitForImage(context.Background(), &Job{}); err == nil {
		t.Fatal("expected error for job without self url")
	}
	if _, err := c.WaitForImage(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil job")
	}
}
