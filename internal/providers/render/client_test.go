package render

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStartReturnsTaskRef(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("unexpected auth header: %s", got)
		}
		if r.Method != http.MethodPost || r.URL.Path != "/tasks" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload["prompt"] != "goodbye rex" {
			t.Fatalf("prompt not forwarded: %#v", payload)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"task_id": "task-123", "status": "queued"})
	}))
	defer ts.Close()

	client := NewClient(Options{APIKey: "test-key", BaseURL: ts.URL})
	ref, err := client.Start(context.Background(), json.RawMessage(`{"prompt":"goodbye rex"}`))
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if ref != "task-123" {
		t.Fatalf("unexpected task ref: %s", ref)
	}
}

func TestStartMissingKey(t *testing.T) {
	client := NewClient(Options{})
	if _, err := client.Start(context.Background(), nil); err == nil {
		t.Fatal("expected error when api key missing")
	}
}

func TestLookupResultFieldPriority(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"video_url wins", `{"video_url":"https://x/a.mp4","url":"https://x/b.mp4"}`, "https://x/a.mp4"},
		{"result_url next", `{"result_url":"https://x/c.mp4","url":"https://x/b.mp4"}`, "https://x/c.mp4"},
		{"nested output", `{"output":{"video_url":"https://x/d.mp4"}}`, "https://x/d.mp4"},
		{"bare url last", `{"url":"https://x/e.mp4"}`, "https://x/e.mp4"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/tasks/task-1" {
					t.Fatalf("unexpected path: %s", r.URL.Path)
				}
				_, _ = w.Write([]byte(tc.body))
			}))
			defer ts.Close()

			client := NewClient(Options{APIKey: "k", BaseURL: ts.URL})
			look, err := client.Lookup(context.Background(), "task-1")
			if err != nil {
				t.Fatalf("Lookup error: %v", err)
			}
			if look.State != StateSucceeded || look.ResultURL != tc.want {
				t.Fatalf("state=%s url=%q, want succeeded %q", look.State, look.ResultURL, tc.want)
			}
		})
	}
}

func TestLookupRunningWithProgress(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"running","progress":42,"extra":"ignored"}`))
	}))
	defer ts.Close()

	client := NewClient(Options{APIKey: "k", BaseURL: ts.URL})
	look, err := client.Lookup(context.Background(), "ref")
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	if look.State != StateRunning || look.Progress != 42 {
		t.Fatalf("unexpected lookup: %+v", look)
	}
}

func TestLookupProviderFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"failed","error":"render node crashed"}`))
	}))
	defer ts.Close()

	client := NewClient(Options{APIKey: "k", BaseURL: ts.URL})
	look, err := client.Lookup(context.Background(), "ref")
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	if look.State != StateFailed || look.Reason != "render node crashed" {
		t.Fatalf("unexpected lookup: %+v", look)
	}
}

func TestLookupNonSuccessStatusCode(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`upstream unavailable`))
	}))
	defer ts.Close()

	client := NewClient(Options{APIKey: "k", BaseURL: ts.URL})
	_, err := client.Lookup(context.Background(), "ref")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway || apiErr.Body != "upstream unavailable" {
		t.Fatalf("unexpected APIError: %+v", apiErr)
	}
}

func TestLookupSuccessWithoutResultURL(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"succeeded"}`))
	}))
	defer ts.Close()

	client := NewClient(Options{APIKey: "k", BaseURL: ts.URL})
	look, err := client.Lookup(context.Background(), "ref")
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	if look.State != StateSucceeded || look.ResultURL != "" {
		t.Fatalf("unexpected lookup: %+v", look)
	}
}
