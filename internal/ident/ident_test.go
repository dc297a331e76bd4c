package ident

import (
	"strings"
	"testing"
)

func TestNewIDShape(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := NewID()
		if len(id) != idLength {
			t.Fatalf("expected %d-char id, got %q", idLength, id)
		}
		for _, r := range id {
			if !strings.ContainsRune("0123456789abcdefghijklmnopqrstuvwxyz", r) {
				t.Fatalf("non-base36 character %q in id %q", r, id)
			}
		}
		seen[id] = struct{}{}
	}
	if len(seen) < 99 {
		t.Fatalf("ids collide too often: %d unique of 100", len(seen))
	}
}

func TestNewNameShape(t *testing.T) {
	name := NewName()
	if name == "" {
		t.Fatal("expected non-empty name")
	}
	if parts := strings.Split(name, "-"); len(parts) < 2 {
		t.Fatalf("expected two-word name, got %q", name)
	}
}
