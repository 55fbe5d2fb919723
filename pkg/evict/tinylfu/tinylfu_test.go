package tinylfu

import (
	"testing"
	"time"
)

func TestTinyLFU_BasicOperations(t *testing.T) {
	c := Factory[string, int](64, 0)(nil)

	c.Set("a", 1)
	c.Set("b", 2)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get a = (%d, %v); want (1, true)", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("missing key should not be found")
	}
	if !c.Contains("b") {
		t.Error("Contains b = false")
	}
	if c.Cap() != 64 {
		t.Errorf("Cap = %d; want 64", c.Cap())
	}

	if !c.Delete("a") {
		t.Fatal("Delete a reported absent")
	}
	if c.Delete("a") {
		t.Error("second Delete a reported success")
	}
}

func TestTinyLFU_ExplicitDeleteFiresHook(t *testing.T) {
	// The hook appends to an unsynchronized slice: delivery must happen on
	// the calling goroutine or the race detector flags this test.
	var removed []string
	c := Factory[string, int](64, 0)(func(key string) {
		removed = append(removed, key)
	})

	c.Set("a", 1)
	c.Delete("a")

	if len(removed) != 1 || removed[0] != "a" {
		t.Errorf("removed = %v; want [a]", removed)
	}
}

func TestTinyLFU_OverwriteIsNotRemoval(t *testing.T) {
	var removed []string
	c := Factory[string, int](64, 0)(func(key string) {
		removed = append(removed, key)
	})

	c.Set("a", 1)
	c.Set("a", 2)

	if len(removed) != 0 {
		t.Errorf("overwrite reported %v as removed; want none", removed)
	}
	if v, _ := c.Get("a"); v != 2 {
		t.Errorf("Get a = %d; want 2", v)
	}
}

func TestTinyLFU_EvictionFiresHookBeforeSetReturns(t *testing.T) {
	const capacity = 4
	var removed []int
	c := Factory[int, int](capacity, 0)(func(key int) {
		removed = append(removed, key)
	})

	// Overfill well past capacity. Every displaced key must be reported
	// before the Set that displaced it returns, on the same goroutine.
	const n = 64
	for i := range n {
		c.Set(i, i)
	}

	if len(removed) == 0 {
		t.Fatal("no eviction notifications for an overfilled cache")
	}
	seen := make(map[int]bool)
	for _, key := range removed {
		if seen[key] {
			t.Errorf("key %d reported removed more than once", key)
		}
		seen[key] = true
		if c.Contains(key) {
			t.Errorf("evicted key %d still present", key)
		}
	}
	if got := c.Len() + len(removed); got != n {
		t.Errorf("retained + removed = %d; want %d", got, n)
	}
}

func TestTinyLFU_TTLExpiry(t *testing.T) {
	c := Factory[string, int](64, 40*time.Millisecond)(nil)

	c.Set("temp", 1)
	if _, ok := c.Get("temp"); !ok {
		t.Fatal("temp missing immediately after set")
	}

	time.Sleep(80 * time.Millisecond)
	if _, ok := c.Get("temp"); ok {
		t.Error("temp should have expired")
	}
}
