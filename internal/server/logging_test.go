package server

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })
	return &buf
}

func loggedRouter(status int) chi.Router {
	r := chi.NewRouter()
	r.Use(slogMiddleware)
	r.Route("/api/videos", func(r chi.Router) {
		r.Post("/{id}/open", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"url":"https://example.com"}`))
		})
	})
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {})
	return r
}

func TestSlogMiddleware_LogsRouteAndVideo(t *testing.T) {
	buf := captureLogs(t)

	req := httptest.NewRequest(http.MethodPost, "/api/videos/yt1/open", nil)
	req.RemoteAddr = "192.0.2.4:5555"
	loggedRouter(http.StatusOK).ServeHTTP(httptest.NewRecorder(), req)

	output := buf.String()
	for _, field := range []string{
		`msg="http: request"`,
		"level=INFO",
		"method=POST",
		"route=/api/videos/{id}/open",
		"path=/api/videos/yt1/open",
		"status=200",
		"bytes=29",
		"client_ip=192.0.2.4",
		"video_id=yt1",
		"duration_ms=",
	} {
		if !strings.Contains(output, field) {
			t.Errorf("expected log to contain %q, got: %s", field, output)
		}
	}
}

func TestSlogMiddleware_LevelFollowsStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusNotFound, "level=INFO"},
		{http.StatusTooManyRequests, "level=WARN"},
		{http.StatusInternalServerError, "level=ERROR"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			buf := captureLogs(t)
			req := httptest.NewRequest(http.MethodPost, "/api/videos/yt1/open", nil)
			loggedRouter(tt.status).ServeHTTP(httptest.NewRecorder(), req)

			if !strings.Contains(buf.String(), tt.level) {
				t.Errorf("expected %s, got: %s", tt.level, buf.String())
			}
		})
	}
}

func TestSlogMiddleware_UnmatchedRoute(t *testing.T) {
	buf := captureLogs(t)

	req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	loggedRouter(http.StatusOK).ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(buf.String(), "route=unmatched") || !strings.Contains(buf.String(), "status=404") {
		t.Errorf("expected unmatched 404 logged, got: %s", buf.String())
	}
	if strings.Contains(buf.String(), "video_id=") {
		t.Errorf("expected no video id for an unmatched path, got: %s", buf.String())
	}
}

func TestSlogMiddleware_SkipsHealthCheck(t *testing.T) {
	buf := captureLogs(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	loggedRouter(http.StatusOK).ServeHTTP(httptest.NewRecorder(), req)

	if buf.Len() != 0 {
		t.Errorf("expected no log output for /api/health, got: %s", buf.String())
	}
}
