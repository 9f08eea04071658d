package server

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

type nonceKey struct{}

type SecurityConfig struct {
	BaseURL               string
	AllowedFrameAncestors string
}

// newNonce returns 16 random bytes, base64url encoded, or "" when the
// system source fails.
func newNonce() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		slog.Error("server: generate csp nonce", "error", err)
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// nonceFrom returns the nonce securityHeaders put in the CSP of this request.
func nonceFrom(ctx context.Context) string {
	if v, ok := ctx.Value(nonceKey{}).(string); ok {
		return v
	}
	return ""
}

// securityHeaders sets the CSP for the web front-end. Thumbnails come from
// arbitrary https hosts, so img-src allows https: in addition to self.
// Inline tags in index.html are admitted through the per-request nonce.
func securityHeaders(cfg SecurityConfig) func(http.Handler) http.Handler {
	strictTransport := strings.HasPrefix(cfg.BaseURL, "https://")

	frameAncestors := "'self'"
	if extra := strings.TrimSpace(cfg.AllowedFrameAncestors); extra != "" {
		frameAncestors += " " + extra
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			inline := "'self'"
			nonce := newNonce()
			if nonce != "" {
				inline = fmt.Sprintf("'self' 'nonce-%s'", nonce)
				r = r.WithContext(context.WithValue(r.Context(), nonceKey{}, nonce))
			}

			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "SAMEORIGIN")
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=(), display-capture=()")
			w.Header().Set("Content-Security-Policy", fmt.Sprintf(
				"default-src 'self'; img-src 'self' data: https:; media-src 'self'; script-src %s; style-src %s; connect-src 'self'; frame-ancestors %s;",
				inline, inline, frameAncestors,
			))
			if strictTransport {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}
