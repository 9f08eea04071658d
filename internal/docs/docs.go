// Package docs serves the OpenAPI description of the disha API and an
// interactive reference page rendered from it.
package docs

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

const (
	title    = "Disha API Reference"
	specPath = "/api/docs/openapi.yaml"
)

//go:embed openapi.yaml
var specYAML []byte

var specETag = func() string {
	sum := sha256.Sum256(specYAML)
	return `"` + hex.EncodeToString(sum[:8]) + `"`
}()

// Routes mounts the reference page at the root of r and the document at
// openapi.yaml.
func Routes(r chi.Router) {
	r.Get("/", HandleDocs)
	r.Get("/openapi.yaml", HandleSpec)
}

// HandleSpec serves the embedded document. It changes only with a new
// build, so clients revalidate against its content hash.
func HandleSpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("ETag", specETag)
	w.Header().Set("Cache-Control", "no-cache")
	if r.Header.Get("If-None-Match") == specETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(specYAML)
}

func HandleDocs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Security-Policy",
		"default-src 'self'; "+
			"script-src 'self' https://cdn.jsdelivr.net 'unsafe-inline'; "+
			"style-src 'self' https://cdn.jsdelivr.net 'unsafe-inline'; "+
			"font-src 'self' https://cdn.jsdelivr.net data:; "+
			"img-src 'self' data: https:; connect-src 'self'; frame-ancestors 'self';")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = fmt.Fprintf(w, referencePage, title, specPath)
}

const referencePage = `<!DOCTYPE html>
<html><head>
  <title>%s</title>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
</head><body>
  <script id="api-reference" data-url="%s"></script>
  <script src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"></script>
</body></html>`
