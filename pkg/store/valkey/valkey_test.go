package valkey

import (
	"context"
	"strings"
	"testing"
)

// Connection-dependent behavior is covered by integration environments;
// these tests cover the parts that never dial.

func TestNew_RequiresCacheID(t *testing.T) {
	if _, err := New(context.Background(), "", "localhost:6379"); err == nil {
		t.Fatal("New with empty cacheID succeeded")
	}
}

func TestKeyNamespacing(t *testing.T) {
	s := &Store{prefix: "boxes:", ext: ".s"}

	full := s.makeKey("12345")
	if full != "boxes:12345.s" {
		t.Errorf("makeKey = %q; want boxes:12345.s", full)
	}

	key, ok := s.storeKey(full)
	if !ok || key != "12345" {
		t.Errorf("storeKey(%q) = (%q, %v); want (12345, true)", full, key, ok)
	}

	if _, ok := s.storeKey("other:12345.s"); ok {
		t.Error("storeKey accepted a key outside the namespace")
	}
	if _, ok := s.storeKey("boxes:12345.z"); ok {
		t.Error("storeKey accepted a key with a foreign extension")
	}
}

func TestLenCountsOnlyOwnRecords(t *testing.T) {
	s := &Store{prefix: "boxes:", ext: ".s"}

	// Len must apply the same namespace filter as All: a same-prefix store
	// using a different compressor extension shares the server but not the
	// records.
	elems := []string{"boxes:1.s", "boxes:2.z", "other:3.s", "boxes:4.s", "boxes:5"}
	if n := s.records(elems); n != 2 {
		t.Errorf("records = %d; want 2", n)
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
