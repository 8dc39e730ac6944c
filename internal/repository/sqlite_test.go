package repository

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "storefront.db")
	s, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if _, err := s.Get(ctx, AuthKey(3)); err != ErrNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := s.Put(ctx, AuthKey(3), []byte("v1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, AuthKey(3), []byte("v2")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	v, err := s.Get(ctx, AuthKey(3))
	if err != nil || string(v) != "v2" {
		t.Fatalf("get: %q %v", v, err)
	}

	// survives reopen
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	s2, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	v, err = s2.Get(ctx, AuthKey(3))
	if err != nil || string(v) != "v2" {
		t.Fatalf("after reopen: %q %v", v, err)
	}
	if err := s2.Delete(ctx, AuthKey(3)); err != nil {
		t.Fatal(err)
	}
	if _, err := s2.Get(ctx, AuthKey(3)); err != ErrNotFound {
		t.Fatalf("expected not found after delete")
	}
}
