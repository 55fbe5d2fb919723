package shelfcache

import "testing"

func TestNotifyingCache_ExplicitDelete(t *testing.T) {
	var removed []string
	n := NewNotifying(NewS3FIFO[string, int](8), func(key string) {
		removed = append(removed, key)
	})

	n.Set("a", 1)
	if !n.Delete("a") {
		t.Fatal("Delete reported a as absent")
	}
	if len(removed) != 1 || removed[0] != "a" {
		t.Errorf("removed = %v; want [a]", removed)
	}

	// A miss is not a removal.
	if n.Delete("a") {
		t.Error("Delete reported success for an absent key")
	}
	if len(removed) != 1 {
		t.Errorf("removed = %v; want exactly one notification", removed)
	}
}

func TestNotifyingCache_EvictionFiresHook(t *testing.T) {
	var removed []string
	n := NewNotifying(NewS3FIFO[string, int](1), func(key string) {
		removed = append(removed, key)
	})

	n.Set("a", 1)
	n.Set("b", 2) // displaces a

	if len(removed) != 1 || removed[0] != "a" {
		t.Fatalf("removed = %v; want [a]", removed)
	}
	if _, ok := n.Get("b"); !ok {
		t.Error("b missing after insert")
	}
}

func TestNotifyingCache_OverwriteIsNotRemoval(t *testing.T) {
	var removed int
	n := NewNotifying(NewS3FIFO[string, int](8), func(string) {
		removed++
	})

	n.Set("a", 1)
	n.Set("a", 2)
	if removed != 0 {
		t.Errorf("overwrite fired %d removal notifications; want 0", removed)
	}
	if v, _ := n.Get("a"); v != 2 {
		t.Errorf("Get a = %d; want 2", v)
	}
}

func TestNotifyingCache_PassThrough(t *testing.T) {
	n := NewNotifying(NewS3FIFO[string, int](4), nil)

	n.Set("a", 1)
	if v, ok := n.Get("a"); !ok || v != 1 {
		t.Errorf("Get a = (%d, %v); want (1, true)", v, ok)
	}
	if !n.Contains("a") {
		t.Error("Contains a = false")
	}
	if n.Len() != 1 {
		t.Errorf("Len = %d; want 1", n.Len())
	}
	if n.Cap() != 4 {
		t.Errorf("Cap = %d; want 4", n.Cap())
	}

	// nil callback: removals must still work.
	n.Delete("a")
	if n.Contains("a") {
		t.Error("a still present after delete")
	}
}
