package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/scribe/internal/fonttest"
	"github.com/matzehuels/scribe/pkg/cache"
	"github.com/matzehuels/scribe/pkg/config"
	"github.com/matzehuels/scribe/pkg/observability"
	"github.com/matzehuels/scribe/pkg/pipeline"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	logger := log.New(&bytes.Buffer{})
	cfg := config.Default()
	cfg.Mistakes.Probability = 0

	s := New(pipeline.NewRunner(fc, nil, logger), Options{
		Config:  cfg,
		Font:    fonttest.New(),
		MaxText: 200,
	})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/v1/programs", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, ts *httptest.Server, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatal(err)
	}
	return resp, buf.Bytes()
}

func create(t *testing.T, ts *httptest.Server, body string) createResponse {
	t.Helper()
	resp := post(t, ts, body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d, want 201", resp.StatusCode)
	}
	var out createResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, body := get(t, ts, "/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `"status":"ok"`) {
		t.Errorf("body = %s", body)
	}
}

func TestCreateAndFetch(t *testing.T) {
	ts := newTestServer(t)
	out := create(t, ts, `{"text": "Hallo Welt", "seed": 3, "date": "19.Oct.26"}`)

	if _, err := uuid.Parse(out.ID); err != nil {
		t.Errorf("ID %q is not a UUID", out.ID)
	}
	if out.Title != "Hallo_Welt" || out.Pages != 1 || out.Words != 2 || out.Cached {
		t.Errorf("response = %+v", out)
	}

	resp, body := get(t, ts, out.Links["gcode"])
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET status = %d: %s", resp.StatusCode, body)
	}
	if !strings.HasPrefix(string(body), "; DEVICE INFO:\n") {
		t.Errorf("program should start with the settings header:\n%.100s", body)
	}
	if got := resp.Header.Get("X-Estimate"); got != out.Estimate {
		t.Errorf("X-Estimate = %q, want %q", got, out.Estimate)
	}
	if got := resp.Header.Get("Content-Disposition"); !strings.Contains(got, "Hallo_Welt.gcode") {
		t.Errorf("Content-Disposition = %q", got)
	}

	again := create(t, ts, `{"text": "Hallo Welt", "seed": 3, "date": "19.Oct.26"}`)
	if !again.Cached || again.ID == out.ID {
		t.Errorf("repeat request should hit the cache under a new ID: %+v", again)
	}
}

func TestPreview(t *testing.T) {
	ts := newTestServer(t)
	out := create(t, ts, `{"text": "Hallo", "no_date": true}`)

	resp, body := get(t, ts, out.Links["svg"])
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/svg+xml" {
		t.Fatalf("svg status = %d type = %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if !bytes.HasPrefix(body, []byte("<svg")) {
		t.Errorf("svg body = %.80s", body)
	}

	resp, body = get(t, ts, out.Links["png"])
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("png status = %d", resp.StatusCode)
	}
	if !bytes.HasPrefix(body, []byte("\x89PNG")) {
		t.Error("png body is not a PNG")
	}
}

func TestErrors(t *testing.T) {
	ts := newTestServer(t)
	out := create(t, ts, `{"text": "Hallo"}`)

	tests := []struct {
		name   string
		path   string
		status int
		code   string
	}{
		{"invalid id", "/v1/programs/abc", http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown id", "/v1/programs/" + uuid.NewString(), http.StatusNotFound, "NOT_FOUND"},
		{"page out of range", out.Links["svg"] + "?page=2", http.StatusBadRequest, "INVALID_INPUT"},
		{"bad page", out.Links["svg"] + "?page=x", http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown format", "/v1/programs/" + out.ID + "/preview.gif", http.StatusNotFound, "NOT_FOUND"},
		{"unknown route", "/v2", http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := get(t, ts, tt.path)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d: %s", resp.StatusCode, tt.status, body)
			}
			if !strings.Contains(string(body), `"code":"`+tt.code+`"`) {
				t.Errorf("body = %s, want code %s", body, tt.code)
			}
		})
	}
}

func TestCreateErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"bad json", `{"text":`, http.StatusBadRequest, "INVALID_INPUT"},
		{"empty text", `{"text": "  "}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"too long", `{"text": "` + strings.Repeat("a", 201) + `"}`, http.StatusRequestEntityTooLarge, "INVALID_INPUT"},
		{"bad speed", `{"text": "Hallo", "speed": 0}`, http.StatusBadRequest, "INVALID_CONFIG"},
		{"bad mistakes", `{"text": "Hallo", "mistakes": 150}`, http.StatusBadRequest, "INVALID_CONFIG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts, tt.body)
			var e errorResponse
			if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.status || e.Code != tt.code {
				t.Errorf("got %d %s (%s), want %d %s", resp.StatusCode, e.Code, e.Message, tt.status, tt.code)
			}
		})
	}
}

type recordingHooks struct {
	observability.NoopHTTPHooks
	mu       sync.Mutex
	statuses []int
}

func (h *recordingHooks) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statuses = append(h.statuses, status)
}

func TestHTTPHooks(t *testing.T) {
	h := &recordingHooks{}
	observability.SetHTTPHooks(h)
	defer observability.Reset()

	ts := newTestServer(t)
	get(t, ts, "/healthz")
	get(t, ts, "/nope")

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.statuses) != 2 || h.statuses[0] != 200 || h.statuses[1] != 404 {
		t.Errorf("statuses = %v, want [200 404]", h.statuses)
	}
}

func TestRunShutsDown(t *testing.T) {
	s := New(pipeline.NewRunner(nil, nil, log.New(&bytes.Buffer{})), Options{
		Addr:   "127.0.0.1:0",
		Config: config.Default(),
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
