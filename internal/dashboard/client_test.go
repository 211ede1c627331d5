package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type capturedRequest struct {
	path    string
	payload map[string]any
}

// captureServer records every POST body so tests can assert the exact
// wire field names the coordinator contract expects.
func captureServer(t *testing.T) (*httptest.Server, func() []capturedRequest) {
	t.Helper()
	var mu sync.Mutex
	var captured []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		payload := map[string]any{}
		if len(body) > 0 {
			if err := json.Unmarshal(body, &payload); err != nil {
				t.Errorf("decode body: %v", err)
			}
		}
		mu.Lock()
		captured = append(captured, capturedRequest{path: r.URL.Path, payload: payload})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedRequest(nil), captured...)
	}
}

func TestClientWireFieldNames(t *testing.T) {
	srv, requests := captureServer(t)
	client := NewClient(srv.URL)
	ctx := context.Background()

	if err := client.RegisterAgent(ctx, "QA Engineer", "QA Engineer", "tester"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := client.UpdateAgent(ctx, "QA Engineer", "busy", "Working on: Tests: Hello World API"); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := client.PostActivity(ctx, "QA Engineer", "Completed: Tests: Hello World API"); err != nil {
		t.Fatalf("activity: %v", err)
	}

	got := requests()
	if len(got) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(got))
	}
	if got[0].path != "/api/agent/register" {
		t.Fatalf("register path = %s", got[0].path)
	}
	if got[0].payload["id"] != "QA Engineer" || got[0].payload["role"] != "tester" {
		t.Fatalf("register payload = %v", got[0].payload)
	}
	if got[1].path != "/api/agent/update" {
		t.Fatalf("update path = %s", got[1].path)
	}
	// The coordinator contract uses agentId, not id, on updates.
	if got[1].payload["agentId"] != "QA Engineer" || got[1].payload["status"] != "busy" {
		t.Fatalf("update payload = %v", got[1].payload)
	}
	if got[2].path != "/api/activity/post" {
		t.Fatalf("activity path = %s", got[2].path)
	}
	if got[2].payload["agent"] != "QA Engineer" || got[2].payload["message"] != "Completed: Tests: Hello World API" {
		t.Fatalf("activity payload = %v", got[2].payload)
	}
}

func TestClientIgnoresResponseStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	client := NewClient(srv.URL)
	if err := client.RegisterAgent(context.Background(), "a", "a", "engineer"); err != nil {
		t.Fatalf("server-side errors must be ignored, got %v", err)
	}
}

func TestClientReportsTransportFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	client := NewClient(srv.URL)
	if err := client.PostActivity(context.Background(), "a", "m"); err == nil {
		t.Fatalf("expected transport error against closed server")
	}
}

func TestProbeFalseOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)
	client := NewClient(srv.URL)
	if client.Probe(context.Background()) {
		t.Fatalf("probe must fail on non-200")
	}
	if client.IterationStatus(context.Background()) {
		t.Fatalf("status probe must fail on non-200")
	}

	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	dead.Close()
	if NewClient(dead.URL).Probe(context.Background()) {
		t.Fatalf("probe must fail when the server is unreachable")
	}
}

func TestWithTimeoutSurvivesHTTPClientOption(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	t.Cleanup(slow.Close)
	client := NewClient(slow.URL,
		WithTimeout(20*time.Millisecond),
		WithHTTPClient(&http.Client{}),
	)
	if err := client.PostActivity(context.Background(), "a", "m"); err == nil {
		t.Fatalf("timeout must apply regardless of option order")
	}
}

func TestNewClientTrimsBaseURL(t *testing.T) {
	client := NewClient("  http://localhost:8787/  ")
	if client.BaseURL() != "http://localhost:8787" {
		t.Fatalf("base url = %q", client.BaseURL())
	}
}
