package server

import (
	"context"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"

	"github.com/sendrec/disha/internal/discovery"
	"github.com/sendrec/disha/internal/docs"
	"github.com/sendrec/disha/internal/geoip"
	"github.com/sendrec/disha/internal/httputil"
	"github.com/sendrec/disha/internal/preferences"
	"github.com/sendrec/disha/internal/ratelimit"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	Session               *discovery.Session
	Preferences           *preferences.Preferences
	Pinger                Pinger
	GeoIP                 *geoip.Resolver
	Clock                 clockwork.Clock
	WebFS                 fs.FS
	BaseURL               string
	AllowedFrameAncestors string
	OpenLimiter           *ratelimit.Limiter
	TrustedProxies        *httputil.TrustedProxies
	EnableDocs            bool
}

type Server struct {
	router      chi.Router
	pinger      Pinger
	session     *discovery.Session
	preferences *preferences.Preferences
	geo         *geoip.Resolver
	clock       clockwork.Clock
	openLimiter *ratelimit.Limiter
	enableDocs  bool
	webFS       fs.FS
}

func New(cfg Config) *Server {
	r := chi.NewRouter()
	r.Use(cfg.TrustedProxies.Middleware)
	r.Use(slogMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders(SecurityConfig{
		BaseURL:               cfg.BaseURL,
		AllowedFrameAncestors: cfg.AllowedFrameAncestors,
	}))

	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	openLimiter := cfg.OpenLimiter
	if openLimiter == nil {
		openLimiter = ratelimit.NewLimiter(clock, 5, 20)
	}

	s := &Server{
		router:      r,
		pinger:      cfg.Pinger,
		session:     cfg.Session,
		preferences: cfg.Preferences,
		geo:         cfg.GeoIP,
		clock:       clock,
		openLimiter: openLimiter,
		enableDocs:  cfg.EnableDocs,
		webFS:       cfg.WebFS,
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)

	if s.enableDocs {
		s.router.Route("/api/docs", docs.Routes)
	}

	if s.session != nil {
		s.router.Route("/api/videos", func(r chi.Router) {
			r.Get("/", s.handleListVideos)
			r.Post("/more", s.handleLoadMore)
			r.Get("/{id}", s.handleGetVideo)
			r.With(s.openLimiter.Middleware).Post("/{id}/open", s.handleOpen)
			r.Delete("/{id}/open", s.handleUnmark)
		})
		s.router.With(s.openLimiter.Middleware).Get("/open/{id}", s.handleOpenRedirect)

		s.router.Route("/api/filters", func(r chi.Router) {
			r.Get("/", s.handleGetFilters)
			r.Put("/", s.handleSetFilters)
			r.Delete("/", s.handleResetFilters)
			r.Get("/options", s.handleFilterOptions)
		})
	}

	if s.preferences != nil {
		s.router.Get("/api/preferences/language", s.handleGetLanguage)
		s.router.Put("/api/preferences/language", s.handleSetLanguage)
	}

	if s.webFS != nil {
		var language func(ctx context.Context) string
		if s.preferences != nil {
			language = s.preferences.Language
		}
		s.router.NotFound(newSPAFileServer(s.webFS, language).ServeHTTP)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unhealthy","error":"database unreachable"}`))
			return
		}
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
