package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Options controls how the rendering provider client is configured.
type Options struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client wraps the rendering provider's task API. It normalizes the
// provider's heterogeneous response shapes into a single Lookup value so the
// processor never has to interpret raw payloads.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient constructs a provider client with sane defaults.
func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "https://api.renderfarm.example.com/v1"
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{
		httpClient: client,
		baseURL:    base,
		apiKey:     strings.TrimSpace(opts.APIKey),
	}
}

// State is the normalized provider-reported state of a render task.
type State string

const (
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Lookup is the normalized status of one render task.
type Lookup struct {
	State     State
	ResultURL string // non-empty only when the provider exposed a usable result
	Progress  int    // provider hint, 0 when absent
	Reason    string // provider failure reason, set only on StateFailed
	Raw       json.RawMessage
}

// APIError carries the provider's HTTP status and response body for
// non-success responses and malformed payloads.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("render: http %d: %s", e.StatusCode, e.Body)
}

type taskResponse struct {
	TaskID    string `json:"task_id"`
	ID        string `json:"id"`
	Status    string `json:"status"`
	State     string `json:"state"`
	Progress  int    `json:"progress"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	VideoURL  string `json:"video_url"`
	ResultURL string `json:"result_url"`
	URL       string `json:"url"`
	Output    struct {
		VideoURL string `json:"video_url"`
		URL      string `json:"url"`
	} `json:"output"`
}

// resultURL checks the known result fields in priority order.
func (t *taskResponse) resultURL() string {
	for _, candidate := range []string{t.VideoURL, t.ResultURL, t.Output.VideoURL, t.Output.URL, t.URL} {
		if s := strings.TrimSpace(candidate); s != "" {
			return s
		}
	}
	return ""
}

func (t *taskResponse) taskRef() string {
	if s := strings.TrimSpace(t.TaskID); s != "" {
		return s
	}
	return strings.TrimSpace(t.ID)
}

func (t *taskResponse) state() string {
	if s := strings.TrimSpace(t.Status); s != "" {
		return strings.ToLower(s)
	}
	return strings.ToLower(strings.TrimSpace(t.State))
}

func (t *taskResponse) failureReason() string {
	if s := strings.TrimSpace(t.Error); s != "" {
		return s
	}
	if s := strings.TrimSpace(t.Message); s != "" {
		return s
	}
	return "provider failure"
}

// Start submits a render task for the given generation input and returns the
// provider's task reference.
func (c *Client) Start(ctx context.Context, input json.RawMessage) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("render: API key is missing")
	}
	if len(input) == 0 {
		input = json.RawMessage("{}")
	}

	raw, status, err := c.do(ctx, http.MethodPost, c.baseURL+"/tasks", bytes.NewReader(input))
	if err != nil {
		return "", err
	}

	var out taskResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &APIError{StatusCode: status, Body: clip(raw)}
	}
	ref := out.taskRef()
	if ref == "" {
		return "", errors.New("render: response missing task reference")
	}
	return ref, nil
}

// Lookup queries the provider for the current status of a task. Provider
// failures are reported as failures, never coerced into a running state.
func (c *Client) Lookup(ctx context.Context, taskRef string) (*Lookup, error) {
	if c.apiKey == "" {
		return nil, errors.New("render: API key is missing")
	}
	taskRef = strings.TrimSpace(taskRef)
	if taskRef == "" {
		return nil, errors.New("render: task reference required")
	}

	endpoint := c.baseURL + "/tasks/" + url.PathEscape(taskRef)
	raw, status, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var out taskResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &APIError{StatusCode: status, Body: clip(raw)}
	}

	look := &Lookup{Progress: out.Progress, Raw: raw}
	if u := out.resultURL(); u != "" {
		look.State = StateSucceeded
		look.ResultURL = u
		return look, nil
	}
	switch out.state() {
	case "failed", "error", "cancelled", "canceled":
		look.State = StateFailed
		look.Reason = out.failureReason()
	case "succeeded", "completed", "done":
		// Success claimed without a result field; surface it as-is and let
		// the caller decide.
		look.State = StateSucceeded
	default:
		look.State = StateRunning
	}
	return look, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader) (json.RawMessage, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("render: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("render: read response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, resp.StatusCode, &APIError{StatusCode: resp.StatusCode, Body: clip(raw)}
	}
	return raw, resp.StatusCode, nil
}

func clip(raw []byte) string {
	const max = 512
	s := strings.TrimSpace(string(raw))
	if len(s) > max {
		return s[:max]
	}
	return s
}
