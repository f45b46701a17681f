package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ayusman/skipspot/internal/app"
	"github.com/ayusman/skipspot/internal/dispatch"
	"github.com/ayusman/skipspot/internal/gesture"
)

func TestServer_Health(t *testing.T) {
	s := New(Config{})

	t.Run("returns 200 with JSON response", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		contentType := rec.Header().Get("Content-Type")
		if contentType != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", contentType)
		}

		var response map[string]interface{}
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if response["status"] != "ok" {
			t.Errorf("expected status 'ok', got %v", response["status"])
		}

		if _, exists := response["uptime"]; !exists {
			t.Error("expected 'uptime' field in response")
		}
	})

	t.Run("only allows GET method", func(t *testing.T) {
		methods := []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch}

		for _, method := range methods {
			req := httptest.NewRequest(method, "/api/health", nil)
			rec := httptest.NewRecorder()

			s.ServeHTTP(rec, req)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("method %s: expected status %d, got %d", method, http.StatusMethodNotAllowed, rec.Code)
			}
		}
	})
}

func TestServer_NotFound(t *testing.T) {
	s := New(Config{})

	req := httptest.NewRequest(http.MethodGet, "/api/nonexistent", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestServer_StaticFiles(t *testing.T) {
	// Create a temporary directory with a static file
	tmpDir := t.TempDir()

	// Create a test HTML file
	testContent := "<html><body>Hello, World!</body></html>"
	if err := os.WriteFile(filepath.Join(tmpDir, "index.html"), []byte(testContent), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	// Create a CSS file for testing direct file access
	cssContent := "body { color: red; }"
	if err := os.WriteFile(filepath.Join(tmpDir, "style.css"), []byte(cssContent), 0644); err != nil {
		t.Fatalf("failed to create test CSS file: %v", err)
	}

	s := New(Config{StaticDir: tmpDir})

	t.Run("serves index.html at root path", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		if rec.Body.String() != testContent {
			t.Errorf("expected body %q, got %q", testContent, rec.Body.String())
		}
	})

	t.Run("serves static files from configured directory", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/style.css", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		if rec.Body.String() != cssContent {
			t.Errorf("expected body %q, got %q", cssContent, rec.Body.String())
		}
	})

	t.Run("returns 404 for non-existent static files", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/nonexistent.html", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestServer_NoStaticDir(t *testing.T) {
	s := New(Config{})

	t.Run("root path returns 404 when no static dir configured", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func newAppWithModes(t *testing.T) *app.App {
	t.Helper()
	a := app.New(nil)
	idleUntilCancelled := func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	a.Register(app.ModeGesture, idleUntilCancelled)
	t.Cleanup(a.Stop)
	return a
}

func TestServer_Status(t *testing.T) {
	a := newAppWithModes(t)
	out := dispatch.Outcome{Action: gesture.Skip, Source: "voice", Status: dispatch.Applied, Volume: -1}
	a.Hub().Publish(app.Event{Type: app.EventLabel, Label: gesture.Pause})
	a.Hub().Publish(app.Event{Type: app.EventOutcome, Outcome: &out})

	s := New(Config{App: a})
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Mode      string   `json:"mode"`
		Available []string `json:"available"`
		LastLabel string   `json:"last_label"`
		Outcomes  []struct {
			Action string `json:"action"`
			Source string `json:"source"`
			Status string `json:"status"`
		} `json:"outcomes"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Mode != "idle" || resp.LastLabel != "pause" {
		t.Errorf("mode/last_label = %s/%s, want idle/pause", resp.Mode, resp.LastLabel)
	}
	if len(resp.Available) != 2 {
		t.Errorf("available = %v, want [idle gesture]", resp.Available)
	}
	if len(resp.Outcomes) != 1 || resp.Outcomes[0].Action != "skip" || resp.Outcomes[0].Status != "applied" {
		t.Errorf("outcomes = %+v", resp.Outcomes)
	}
}

func TestServer_Mode(t *testing.T) {
	a := newAppWithModes(t)
	s := New(Config{App: a})

	tests := []struct {
		name       string
		method     string
		body       string
		wantStatus int
		wantMode   app.Mode
	}{
		{"switch to gesture", http.MethodPost, `{"mode":"gesture"}`, http.StatusOK, app.ModeGesture},
		{"unknown mode", http.MethodPost, `{"mode":"dance"}`, http.StatusBadRequest, app.ModeGesture},
		{"unavailable mode", http.MethodPost, `{"mode":"voice"}`, http.StatusConflict, app.ModeGesture},
		{"bad json", http.MethodPost, `{mode`, http.StatusBadRequest, app.ModeGesture},
		{"get not allowed", http.MethodGet, "", http.StatusMethodNotAllowed, app.ModeGesture},
		{"back to idle", http.MethodPost, `{"mode":"idle"}`, http.StatusOK, app.ModeIdle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/mode", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if got := a.Mode(); got != tt.wantMode {
				t.Errorf("mode = %s, want %s", got, tt.wantMode)
			}
		})
	}
}

func TestServer_RoutesNeedDependencies(t *testing.T) {
	s := New(Config{})
	for _, path := range []string{"/api/status", "/api/mode", "/api/references", "/api/events"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", path, rec.Code)
		}
	}
}
