package server

import (
	"context"
	"html"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
)

const indexFile = "index.html"

// spaFileServer serves the built front-end. Existing assets go out as they
// are; every other path gets index.html with the request's CSP nonce on its
// inline tags and the saved UI language in a meta tag.
type spaFileServer struct {
	assets   http.Handler
	files    fs.FS
	language func(ctx context.Context) string
}

func newSPAFileServer(files fs.FS, language func(ctx context.Context) string) *spaFileServer {
	return &spaFileServer{
		assets:   http.FileServer(http.FS(files)),
		files:    files,
		language: language,
	}
}

func (s *spaFileServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name != "" && name != indexFile {
		if info, err := fs.Stat(s.files, name); err == nil && !info.IsDir() {
			s.assets.ServeHTTP(w, r)
			return
		}
	}
	s.serveIndex(w, r)
}

func (s *spaFileServer) serveIndex(w http.ResponseWriter, r *http.Request) {
	page, err := fs.ReadFile(s.files, indexFile)
	if err != nil {
		slog.Error("server: read index", "error", err)
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = io.WriteString(w, s.render(r.Context(), string(page)))
}

func (s *spaFileServer) render(ctx context.Context, page string) string {
	if nonce := nonceFrom(ctx); nonce != "" {
		attr := ` nonce="` + nonce + `"`
		page = strings.ReplaceAll(page, "<script", "<script"+attr)
		page = strings.ReplaceAll(page, "<style", "<style"+attr)
	}
	if s.language != nil {
		meta := `<meta name="disha-language" content="` + html.EscapeString(s.language(ctx)) + `">`
		page = strings.Replace(page, "</head>", meta+"</head>", 1)
	}
	return page
}
