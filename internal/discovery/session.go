// Package discovery is the browsing session the rendering layer drives: the
// loaded catalog, the persisted filter criteria and the pagination window.
package discovery

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendrec/disha/internal/catalog"
	"github.com/sendrec/disha/internal/filter"
	"github.com/sendrec/disha/internal/filterstate"
	"github.com/sendrec/disha/internal/pagination"
)

var ErrVideoNotFound = errors.New("video not found")

// Catalog is the read side of the catalog loader.
type Catalog interface {
	Load(ctx context.Context) []catalog.Video
	Lookup(id string) (catalog.Video, bool)
	State() catalog.State
}

// OpenTracker is the set of videos the user has opened.
type OpenTracker interface {
	MarkOpened(ctx context.Context, id string)
	Forget(ctx context.Context, id string)
	IsOpened(id string) bool
	Count() int
}

// Page is one render of the result list.
type Page struct {
	Videos   []catalog.Video `json:"videos"`
	Total    int             `json:"total"`
	Visible  int             `json:"visible"`
	PageSize int             `json:"pageSize"`
	HasMore  bool            `json:"hasMore"`
	Filtered bool            `json:"filtered"`
	Opened   int             `json:"opened"`
	Loading  bool            `json:"loading"`
	Failed   bool            `json:"failed"`
}

// VideoDetail is one catalog entry together with its opened state.
type VideoDetail struct {
	catalog.Video
	Opened bool `json:"opened"`
}

type Session struct {
	catalog Catalog
	opens   OpenTracker
	filters *filterstate.Store
	pages   *pagination.Controller
}

// NewSession wires the parts together. Every filter change resets the
// pagination window to a single page.
func NewSession(cat Catalog, opens OpenTracker, filters *filterstate.Store, pages *pagination.Controller) *Session {
	s := &Session{
		catalog: cat,
		opens:   opens,
		filters: filters,
		pages:   pages,
	}
	filters.OnChange(func(filter.Criteria) { pages.Reset() })
	return s
}

// Page loads the catalog if needed and returns the visible slice of the
// filtered results.
func (s *Session) Page(ctx context.Context) Page {
	results, criteria := s.results(ctx)
	return s.render(results, criteria)
}

// LoadMore grows the window by one page when more results remain.
func (s *Session) LoadMore(ctx context.Context) Page {
	results, criteria := s.results(ctx)
	if s.pages.HasMore(len(results)) {
		s.pages.Advance()
	}
	return s.render(results, criteria)
}

func (s *Session) Filters(ctx context.Context) filter.Criteria {
	return s.filters.Get(ctx)
}

func (s *Session) SetFilters(ctx context.Context, c filter.Criteria) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validate filters: %w", err)
	}
	s.filters.Set(ctx, c)
	return nil
}

func (s *Session) ResetFilters(ctx context.Context) {
	s.filters.Reset(ctx)
}

// Open marks the video as opened and returns the URL to send the user to.
func (s *Session) Open(ctx context.Context, id string) (string, error) {
	s.catalog.Load(ctx)
	v, ok := s.catalog.Lookup(id)
	if !ok {
		return "", ErrVideoNotFound
	}
	s.opens.MarkOpened(ctx, id)
	return catalog.OutboundURL(v.URL), nil
}

// Unmark forgets that the video was opened. Its new flag comes back only
// when the catalog is classified again.
func (s *Session) Unmark(ctx context.Context, id string) error {
	s.catalog.Load(ctx)
	if _, ok := s.catalog.Lookup(id); !ok {
		return ErrVideoNotFound
	}
	s.opens.Forget(ctx, id)
	return nil
}

// Video returns the current state of one catalog entry.
func (s *Session) Video(ctx context.Context, id string) (VideoDetail, error) {
	s.catalog.Load(ctx)
	v, ok := s.catalog.Lookup(id)
	if !ok {
		return VideoDetail{}, ErrVideoNotFound
	}
	return VideoDetail{Video: v, Opened: s.opens.IsOpened(id)}, nil
}

func (s *Session) results(ctx context.Context) ([]catalog.Video, filter.Criteria) {
	videos := s.catalog.Load(ctx)
	criteria := s.filters.Get(ctx)
	return filter.Apply(videos, criteria), criteria
}

func (s *Session) render(results []catalog.Video, criteria filter.Criteria) Page {
	visible := pagination.Slice(s.pages, results)
	state := s.catalog.State()
	return Page{
		Videos:   visible,
		Total:    len(results),
		Visible:  len(visible),
		PageSize: s.pages.PageSize(),
		HasMore:  s.pages.HasMore(len(results)),
		Filtered: !criteria.IsZero(),
		Opened:   s.opens.Count(),
		Loading:  state == catalog.StateLoading,
		Failed:   state == catalog.StateFailed,
	}
}
