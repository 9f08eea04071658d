package kvstore

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLite(t *testing.T) {
	store, err := OpenSQLite(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	exerciseStore(t, store)
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	first, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := first.Set(ctx, "videoSearchFilters", `{"source":"youtube"}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen sqlite: %v", err)
	}
	t.Cleanup(func() { _ = second.Close() })
	got, err := second.Get(ctx, "videoSearchFilters")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != `{"source":"youtube"}` {
		t.Errorf("unexpected value %q", got)
	}
}

func TestSQLite_ClosedDatabaseFails(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLite(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	_ = store.Close()
	if err := store.Set(ctx, "k", "v"); err == nil {
		t.Error("expected an error writing to a closed database")
	}
}
