package interactions

import (
	"context"
	"errors"
	"testing"

	"github.com/sendrec/disha/internal/kvstore"
)

type failingStore struct {
	sets int
}

func (f *failingStore) Get(ctx context.Context, key string) (string, error) {
	return "", errors.New("storage disabled")
}

func (f *failingStore) Set(ctx context.Context, key, value string) error {
	f.sets++
	return errors.New("quota exceeded")
}

func (f *failingStore) Remove(ctx context.Context, key string) error {
	return errors.New("storage disabled")
}

type recordingCache struct {
	cleared []string
}

func (r *recordingCache) ClearNew(id string) bool {
	r.cleared = append(r.cleared, id)
	return true
}

func TestMarkOpened_PersistsAndClearsFlag(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()
	cache := &recordingCache{}
	tracker := NewTracker(ctx, store)
	tracker.SetCache(cache)

	tracker.MarkOpened(ctx, "b")
	tracker.MarkOpened(ctx, "a")
	tracker.MarkOpened(ctx, "a")

	raw, err := store.Get(ctx, StorageKey)
	if err != nil {
		t.Fatalf("expected persisted set, got %v", err)
	}
	if raw != `["a","b"]` {
		t.Errorf("unexpected persisted value %s", raw)
	}
	if tracker.Count() != 2 {
		t.Errorf("expected 2 ids, got %d", tracker.Count())
	}
	if len(cache.cleared) != 3 || cache.cleared[0] != "b" {
		t.Errorf("expected flag cleared on every open, got %v", cache.cleared)
	}
}

func TestNewTracker_ReadsPersistedSet(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()
	_ = store.Set(ctx, StorageKey, `["x","y"]`)

	tracker := NewTracker(ctx, store)

	if !tracker.IsOpened("x") || !tracker.IsOpened("y") {
		t.Errorf("expected persisted ids to load, got %v", tracker.Interacted())
	}
}

func TestNewTracker_MalformedStateYieldsEmptySet(t *testing.T) {
	ctx := context.Background()
	for _, raw := range []string{"not json", `{"a":1}`, `[1,2]`} {
		store := kvstore.NewMemory()
		_ = store.Set(ctx, StorageKey, raw)
		if n := NewTracker(ctx, store).Count(); n != 0 {
			t.Errorf("state %q: expected empty set, got %d", raw, n)
		}
	}
}

func TestTracker_StorageFailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{}
	cache := &recordingCache{}
	tracker := NewTracker(ctx, store)
	tracker.SetCache(cache)

	tracker.MarkOpened(ctx, "a")
	tracker.PruneAndPersist(ctx, map[string]struct{}{"a": {}})

	if !tracker.IsOpened("a") {
		t.Error("expected in-memory state to stay authoritative")
	}
	if len(cache.cleared) != 1 {
		t.Error("expected flag to be cleared despite storage failure")
	}
	if store.sets != 2 {
		t.Errorf("expected 2 write attempts, got %d", store.sets)
	}
}

func TestPruneAndPersist_DropsStaleIDs(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()
	_ = store.Set(ctx, StorageKey, `["keep","stale"]`)
	tracker := NewTracker(ctx, store)

	tracker.PruneAndPersist(ctx, map[string]struct{}{"keep": {}, "other": {}})

	if tracker.IsOpened("stale") {
		t.Error("expected stale id to be pruned")
	}
	raw, _ := store.Get(ctx, StorageKey)
	if raw != `["keep"]` {
		t.Errorf("unexpected persisted value %s", raw)
	}
}

func TestForget(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()
	tracker := NewTracker(ctx, store)
	tracker.MarkOpened(ctx, "a")

	tracker.Forget(ctx, "a")
	tracker.Forget(ctx, "never-opened")

	if tracker.IsOpened("a") {
		t.Error("expected id to be forgotten")
	}
	raw, _ := store.Get(ctx, StorageKey)
	if raw != `[]` {
		t.Errorf("unexpected persisted value %s", raw)
	}
}

func TestInteracted_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(ctx, kvstore.NewMemory())
	tracker.MarkOpened(ctx, "a")

	set := tracker.Interacted()
	delete(set, "a")

	if !tracker.IsOpened("a") {
		t.Error("mutating the returned set must not affect the tracker")
	}
}

func TestMarkOpened_IgnoresEmptyID(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(ctx, kvstore.NewMemory())
	tracker.MarkOpened(ctx, "")
	if tracker.Count() != 0 {
		t.Error("expected empty id to be ignored")
	}
}
