package interactions

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/sendrec/disha/internal/kvstore"
)

const StorageKey = "disha_clicked_videos"

// FlagClearer retracts the new flag of a cached catalog entry.
type FlagClearer interface {
	ClearNew(id string) bool
}

// Tracker records which videos the user has opened. Tracking is best effort:
// storage failures are logged and never returned.
type Tracker struct {
	store kvstore.Store
	cache FlagClearer

	mu  sync.Mutex
	ids map[string]struct{}
}

// NewTracker reads the persisted set. Missing or malformed data yields an
// empty set.
func NewTracker(ctx context.Context, store kvstore.Store) *Tracker {
	return &Tracker{
		store: store,
		ids:   readIDs(ctx, store),
	}
}

func (t *Tracker) SetCache(cache FlagClearer) {
	t.cache = cache
}

// MarkOpened adds id to the set and clears the new flag of the cached entry.
// Other entries are not reclassified.
func (t *Tracker) MarkOpened(ctx context.Context, id string) {
	if id == "" {
		return
	}
	t.mu.Lock()
	if _, ok := t.ids[id]; !ok {
		t.ids[id] = struct{}{}
		t.persistLocked(ctx)
	}
	t.mu.Unlock()

	if t.cache != nil {
		t.cache.ClearNew(id)
	}
}

// Forget removes id from the set. The new flag is not restored until the
// catalog is classified again.
func (t *Tracker) Forget(ctx context.Context, id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.ids[id]; !ok {
		return
	}
	delete(t.ids, id)
	t.persistLocked(ctx)
}

func (t *Tracker) IsOpened(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.ids[id]
	return ok
}

func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ids)
}

// Interacted returns a copy of the opened set.
func (t *Tracker) Interacted() map[string]struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]struct{}, len(t.ids))
	for id := range t.ids {
		out[id] = struct{}{}
	}
	return out
}

// PruneAndPersist drops ids that are no longer in the catalog and writes the
// remaining set.
func (t *Tracker) PruneAndPersist(ctx context.Context, valid map[string]struct{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	pruned := 0
	for id := range t.ids {
		if _, ok := valid[id]; !ok {
			delete(t.ids, id)
			pruned++
		}
	}
	if pruned > 0 {
		slog.Info("interactions: pruned stale ids", "count", pruned)
	}
	t.persistLocked(ctx)
}

func (t *Tracker) persistLocked(ctx context.Context) {
	ids := make([]string, 0, len(t.ids))
	for id := range t.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	data, err := json.Marshal(ids)
	if err != nil {
		slog.Warn("interactions: encode failed", "error", err)
		return
	}
	if err := t.store.Set(ctx, StorageKey, string(data)); err != nil {
		slog.Warn("interactions: persist failed", "error", err)
	}
}

func readIDs(ctx context.Context, store kvstore.Store) map[string]struct{} {
	ids := make(map[string]struct{})
	raw, err := store.Get(ctx, StorageKey)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			slog.Warn("interactions: read failed", "error", err)
		}
		return ids
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		slog.Warn("interactions: discarding malformed state", "error", err)
		return ids
	}
	for _, id := range list {
		if id != "" {
			ids[id] = struct{}{}
		}
	}
	return ids
}
