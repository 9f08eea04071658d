package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type pageSummary struct {
	Total   int      `json:"total"`
	Visible int      `json:"visible"`
	IDs     []string `json:"ids"`
}

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   any
		want   string
	}{
		{"struct", http.StatusOK, pageSummary{Total: 3, Visible: 2, IDs: []string{"yt1", "tt1"}}, `{"total":3,"visible":2,"ids":["yt1","tt1"]}`},
		{"empty list stays a list", http.StatusOK, pageSummary{IDs: []string{}}, `{"total":0,"visible":0,"ids":[]}`},
		{"map", http.StatusCreated, map[string]string{"url": "https://timelesstoday.tv/v/1"}, `{"url":"https://timelesstoday.tv/v/1"}`},
		{"slice", http.StatusOK, []string{"english", "hindi"}, `["english","hindi"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteJSON(rec, tt.status, tt.body)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != tt.want {
				t.Errorf("body = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		status  int
		message string
	}{
		{http.StatusNotFound, "video not found"},
		{http.StatusBadRequest, `unknown source "vimeo"`},
		{http.StatusTooManyRequests, "too many requests"},
		{http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.status, tt.message)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
			var body ErrorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if body.Error != tt.message {
				t.Errorf("error = %q, want %q", body.Error, tt.message)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/api/preferences/language", strings.NewReader(`{"language":"hi"}`))
	var body struct {
		Language string `json:"language"`
	}
	if err := DecodeJSON(httptest.NewRecorder(), req, &body); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if body.Language != "hi" {
		t.Errorf("expected hi, got %q", body.Language)
	}
}

func TestDecodeJSONRejectsBadBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", ``},
		{"malformed", `{"language":`},
		{"unknown field", `{"language":"hi","theme":"dark"}`},
		{"trailing data", `{"language":"hi"}{"language":"en"}`},
		{"wrong type", `{"language":1}`},
		{"oversized", `{"language":"` + strings.Repeat("a", maxBodyBytes) + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/api/preferences/language", strings.NewReader(tt.body))
			var body struct {
				Language string `json:"language"`
			}
			if err := DecodeJSON(httptest.NewRecorder(), req, &body); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
