package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sendrec/disha/internal/discovery"
	"github.com/sendrec/disha/internal/filter"
	"github.com/sendrec/disha/internal/httputil"
	"github.com/sendrec/disha/internal/languages"
	"github.com/sendrec/disha/internal/preferences"
	"github.com/sendrec/disha/internal/validate"
)

type filtersResponse struct {
	Filters filter.Criteria `json:"filters"`
	Page    discovery.Page  `json:"page"`
}

type optionsResponse struct {
	filter.Options
	Limits map[string]int `json:"limits"`
}

type openResponse struct {
	URL string `json:"url"`
}

type languageBody struct {
	Language string `json:"language"`
}

type languageResponse struct {
	Language  string               `json:"language"`
	Name      string               `json:"name"`
	Available []languages.Language `json:"available"`
}

func newLanguageResponse(code string) languageResponse {
	return languageResponse{
		Language:  code,
		Name:      languages.LanguageName(code),
		Available: languages.CatalogLanguages(),
	}
}

func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, s.session.Page(r.Context()))
}

func (s *Server) handleLoadMore(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, s.session.LoadMore(r.Context()))
}

func (s *Server) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	video, err := s.session.Video(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, discovery.ErrVideoNotFound) {
		httputil.WriteError(w, http.StatusNotFound, "video not found")
		return
	}
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "could not load video")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, video)
}

func (s *Server) handleUnmark(w http.ResponseWriter, r *http.Request) {
	err := s.session.Unmark(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, discovery.ErrVideoNotFound) {
		httputil.WriteError(w, http.StatusNotFound, "video not found")
		return
	}
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "could not unmark video")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	url, ok := s.open(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, openResponse{URL: url})
}

func (s *Server) handleOpenRedirect(w http.ResponseWriter, r *http.Request) {
	url, ok := s.open(w, r)
	if !ok {
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

func (s *Server) open(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	url, err := s.session.Open(r.Context(), id)
	if errors.Is(err, discovery.ErrVideoNotFound) {
		httputil.WriteError(w, http.StatusNotFound, "video not found")
		return "", false
	}
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "could not open video")
		return "", false
	}
	s.logOpen(r, id)
	return url, true
}

func (s *Server) handleGetFilters(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, s.session.Filters(r.Context()))
}

func (s *Server) handleSetFilters(w http.ResponseWriter, r *http.Request) {
	var c filter.Criteria
	if err := httputil.DecodeJSON(w, r, &c); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.session.SetFilters(r.Context(), c); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeFilters(w, r)
}

func (s *Server) handleResetFilters(w http.ResponseWriter, r *http.Request) {
	s.session.ResetFilters(r.Context())
	s.writeFilters(w, r)
}

func (s *Server) writeFilters(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, filtersResponse{
		Filters: s.session.Filters(r.Context()),
		Page:    s.session.Page(r.Context()),
	})
}

func (s *Server) handleFilterOptions(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, optionsResponse{
		Options: filter.OptionsAt(s.clock.Now()),
		Limits:  validate.FieldLimits(),
	})
}

func (s *Server) handleGetLanguage(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, newLanguageResponse(s.preferences.Language(r.Context())))
}

func (s *Server) handleSetLanguage(w http.ResponseWriter, r *http.Request) {
	var req languageBody
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.preferences.SetLanguage(r.Context(), req.Language); err != nil {
		if errors.Is(err, preferences.ErrUnsupportedLanguage) {
			httputil.WriteError(w, http.StatusBadRequest, "language must be en or hi")
			return
		}
		httputil.WriteError(w, http.StatusInternalServerError, "could not save language")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newLanguageResponse(req.Language))
}
