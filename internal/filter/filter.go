// Package filter implements the catalog filter predicate. Apply is pure: it
// never mutates its input and keeps the input order.
package filter

import (
	"strconv"
	"strings"
	"time"

	"github.com/sendrec/disha/internal/catalog"
	"github.com/sendrec/disha/internal/languages"
)

const selectableYears = 15

var categories = []string{"Video", "Music", "Podcast", "Video Music"}

func Apply(videos []catalog.Video, c Criteria) []catalog.Video {
	m := newMatcher(c)
	out := make([]catalog.Video, 0, len(videos))
	for _, v := range videos {
		if m.match(v) {
			out = append(out, v)
		}
	}
	return out
}

type matcher struct {
	language   string
	source     catalog.Source
	categories map[string]struct{}
	years      map[string]struct{}
	bands      []DurationBand
	bandsSet   bool
	tokens     []string
	freeOnly   bool
}

func newMatcher(c Criteria) matcher {
	m := matcher{
		source:   catalog.Source(c.Source),
		freeOnly: c.FreeOnly,
		tokens:   strings.Fields(strings.ToLower(c.TitleSearch)),
	}
	if c.Language != "" {
		m.language = languages.Normalize(c.Language)
	}
	if len(c.Categories) > 0 {
		m.categories = toSet(c.Categories)
	}
	if len(c.Years) > 0 {
		m.years = toSet(c.Years)
	}
	if len(c.DurationBands) > 0 {
		m.bandsSet = true
		for _, label := range c.DurationBands {
			if b, ok := BandByLabel(label); ok {
				m.bands = append(m.bands, b)
			}
		}
	}
	return m
}

func (m matcher) match(v catalog.Video) bool {
	if m.language != "" && v.Language != m.language {
		return false
	}
	if m.source != "" && v.Source != m.source {
		return false
	}
	if m.categories != nil {
		if _, ok := m.categories[v.Category]; !ok {
			return false
		}
	}
	if m.years != nil {
		if _, ok := m.years[strconv.Itoa(v.PublishedYear)]; !ok {
			return false
		}
	}
	if m.bandsSet && !m.inAnyBand(v.DurationMinutes) {
		return false
	}
	if m.freeOnly && v.LoginRequired {
		return false
	}
	if len(m.tokens) > 0 {
		title := strings.ToLower(v.Title)
		description := strings.ToLower(v.Description)
		for _, token := range m.tokens {
			if !strings.Contains(title, token) && !strings.Contains(description, token) {
				return false
			}
		}
	}
	return true
}

func (m matcher) inAnyBand(minutes int) bool {
	for _, b := range m.bands {
		if b.Contains(minutes) {
			return true
		}
	}
	return false
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// Options lists the values a user can pick for each criterion.
type Options struct {
	Languages     []string         `json:"languages"`
	Sources       []catalog.Source `json:"sources"`
	Categories    []string         `json:"categories"`
	DurationBands []DurationBand   `json:"durationBands"`
	Years         []string         `json:"years"`
}

func OptionsAt(now time.Time) Options {
	years := make([]string, selectableYears)
	for i := range years {
		years[i] = strconv.Itoa(now.Year() - i)
	}
	cats := make([]string, len(categories))
	copy(cats, categories)
	return Options{
		Languages:     languages.FilterNames(),
		Sources:       catalog.Sources(),
		Categories:    cats,
		DurationBands: DurationBands(),
		Years:         years,
	}
}
