// Package filterstate holds the user's filter criteria across sessions.
package filterstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sendrec/disha/internal/filter"
	"github.com/sendrec/disha/internal/kvstore"
)

const StorageKey = "videoSearchFilters"

// Listener is called after every change with the new criteria.
type Listener func(filter.Criteria)

// Store keeps the current criteria in memory and mirrors them to storage.
// The in-memory value is authoritative; storage failures are logged only.
type Store struct {
	kv       kvstore.Store
	listener Listener

	mu       sync.Mutex
	loaded   bool
	criteria filter.Criteria
}

func New(kv kvstore.Store) *Store {
	return &Store{kv: kv}
}

// OnChange registers the listener fired by Set and Reset.
func (s *Store) OnChange(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = l
}

// Get returns the current criteria. The persisted value is read on first use.
func (s *Store) Get(ctx context.Context) filter.Criteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		s.criteria = read(ctx, s.kv)
		s.loaded = true
	}
	return clone(s.criteria)
}

func (s *Store) Set(ctx context.Context, c filter.Criteria) {
	s.replace(ctx, c.Normalized())
}

func (s *Store) Reset(ctx context.Context) {
	s.replace(ctx, filter.Defaults())
}

func (s *Store) replace(ctx context.Context, c filter.Criteria) {
	s.mu.Lock()
	s.criteria = clone(c)
	s.loaded = true
	listener := s.listener
	s.mu.Unlock()

	persist(ctx, s.kv, c)
	if listener != nil {
		listener(clone(c))
	}
}

func persist(ctx context.Context, kv kvstore.Store, c filter.Criteria) {
	data, err := json.Marshal(c)
	if err != nil {
		slog.Warn("filterstate: failed to encode criteria", "error", err)
		return
	}
	if err := kv.Set(ctx, StorageKey, string(data)); err != nil {
		slog.Warn("filterstate: failed to persist criteria", "error", err)
	}
}

func read(ctx context.Context, kv kvstore.Store) filter.Criteria {
	raw, err := kv.Get(ctx, StorageKey)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			slog.Warn("filterstate: failed to read criteria", "error", err)
		}
		return filter.Defaults()
	}
	c, err := decode([]byte(raw))
	if err != nil {
		slog.Warn("filterstate: discarding persisted criteria", "error", err)
		return filter.Defaults()
	}
	return c
}

// decode accepts only an object carrying every criteria field with the
// expected JSON type.
func decode(data []byte) (filter.Criteria, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return filter.Criteria{}, fmt.Errorf("parse criteria: %w", err)
	}
	if fields == nil {
		return filter.Criteria{}, errors.New("criteria is not an object")
	}

	var c filter.Criteria
	checks := []struct {
		key  string
		into any
	}{
		{"language", &c.Language},
		{"source", &c.Source},
		{"categories", &c.Categories},
		{"durationBands", &c.DurationBands},
		{"years", &c.Years},
		{"titleSearch", &c.TitleSearch},
		{"freeOnly", &c.FreeOnly},
	}
	for _, check := range checks {
		value, ok := fields[check.key]
		if !ok {
			return filter.Criteria{}, fmt.Errorf("missing field %q", check.key)
		}
		if string(value) == "null" {
			return filter.Criteria{}, fmt.Errorf("field %q is null", check.key)
		}
		if err := json.Unmarshal(value, check.into); err != nil {
			return filter.Criteria{}, fmt.Errorf("field %q: %w", check.key, err)
		}
	}
	return c.Normalized(), nil
}

func clone(c filter.Criteria) filter.Criteria {
	c.Categories = append([]string{}, c.Categories...)
	c.DurationBands = append([]string{}, c.DurationBands...)
	c.Years = append([]string{}, c.Years...)
	return c
}
