package geoip

import (
	"testing"
)

func TestNew_EmptyPath(t *testing.T) {
	r, err := New("")
	if err != nil {
		t.Fatalf("expected no error for empty path, got %v", err)
	}
	if loc := r.Lookup("8.8.8.8"); loc != (Location{}) {
		t.Errorf("expected empty location for nil resolver, got %+v", loc)
	}
}

func TestNew_InvalidPath(t *testing.T) {
	r, err := New("/nonexistent/path.mmdb")
	if err != nil {
		t.Fatalf("expected no error for missing file (graceful fallback), got %v", err)
	}
	if loc := r.Lookup("8.8.8.8"); loc != (Location{}) {
		t.Errorf("expected empty location, got %+v", loc)
	}
}

func TestLookup_EmptyIP(t *testing.T) {
	r, _ := New("")
	if loc := r.Lookup(""); loc != (Location{}) {
		t.Errorf("expected empty location for empty IP, got %+v", loc)
	}
}

func TestLookup_NilResolver(t *testing.T) {
	var r *Resolver
	if loc := r.Lookup("8.8.8.8"); loc != (Location{}) {
		t.Errorf("expected empty location, got %+v", loc)
	}
}

func TestClose_NilDB(t *testing.T) {
	r, _ := New("")
	if err := r.Close(); err != nil {
		t.Errorf("expected no error closing nil resolver, got %v", err)
	}
}
