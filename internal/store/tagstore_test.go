package store

import (
	"context"
	"path/filepath"
	"testing"
)

func TestFileTagStoreRoundtrip(t *testing.T) {
	ctx := context.Background()
	s := NewFileTagStore(filepath.Join(t.TempDir(), "logs", "last_battle_tag.txt"))

	// Nothing stored yet: empty, not an error.
	tag, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if tag != "" {
		t.Errorf("fresh store returned %q", tag)
	}

	if err := s.Save(ctx, "battle-gen9randombattle-12345"); err != nil {
		t.Fatal(err)
	}
	tag, err = s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if tag != "battle-gen9randombattle-12345" {
		t.Errorf("loaded %q", tag)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	tag, err = s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if tag != "" {
		t.Errorf("tag survived clear: %q", tag)
	}
	// Clearing an already-clean store is fine.
	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestFileTagStoreIgnoresEmptySave(t *testing.T) {
	ctx := context.Background()
	s := NewFileTagStore(filepath.Join(t.TempDir(), "tag.txt"))
	if err := s.Save(ctx, ""); err != nil {
		t.Fatal(err)
	}
	tag, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if tag != "" {
		t.Errorf("empty save persisted %q", tag)
	}
}
