package datastore

import (
	"context"
	"strings"
	"testing"
)

func TestNew_RequiresCacheID(t *testing.T) {
	if _, err := New(context.Background(), ""); err == nil {
		t.Fatal("New with empty cacheID succeeded")
	}
}

func TestLocation(t *testing.T) {
	s := &Store{kind: datastoreKind, ext: ".z"}
	if got := s.Location("12345"); got != "ShelfRecord/12345.z" {
		t.Errorf("Location = %q; want ShelfRecord/12345.z", got)
	}
}

func TestValidateKey(t *testing.T) {
	if err := validateKey(""); err == nil {
		t.Error("empty key accepted")
	}
	if err := validateKey(strings.Repeat("k", maxKeyLength+1)); err == nil {
		t.Error("oversized key accepted")
	}
	if err := validateKey("12345"); err != nil {
		t.Errorf("valid key rejected: %v", err)
	}
}
