package metrics

import (
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	c := NewCache("test", nil, time.Minute, 10)

	c.Set("key", "value")

	got, ok := c.Get("key")
	if !ok {
		t.Fatal("Get() ok = false, want true")
	}
	if got != "value" {
		t.Errorf("Get() = %v, want %q", got, "value")
	}
}

func TestCache_Get_Miss(t *testing.T) {
	c := NewCache("test", nil, time.Minute, 10)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get() ok = true for missing key, want false")
	}
}

func TestCache_Get_ExpiredEntry(t *testing.T) {
	c := NewCache("test", nil, time.Millisecond, 10)

	c.Set("key", "value")
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get("key"); ok {
		t.Error("Get() ok = true for expired key, want false")
	}
}

func TestCache_EvictsOldestOnCapacity(t *testing.T) {
	c := NewCache("test", nil, time.Minute, 2)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("expected key b to be evicted as least recently accessed")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("expected key a to survive eviction")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("expected key c to survive eviction")
	}
}

func TestCache_Len(t *testing.T) {
	c := NewCache("test", nil, time.Minute, 10)

	c.Set("a", 1)
	c.Set("b", 2)

	if got := c.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

func TestCache_WiredToCollector(t *testing.T) {
	reg := NewRegistry(nil)
	coll := NewCollector(reg)
	c := NewCache("repo_info", coll, time.Minute, 10)

	c.Get("missing")
	c.Set("key", "value")
	c.Get("key")

	if got := counterValue(t, reg.CacheHits); got != 1 {
		t.Errorf("CacheHits = %v, want 1", got)
	}
	if got := counterValue(t, reg.CacheMisses); got != 1 {
		t.Errorf("CacheMisses = %v, want 1", got)
	}
}
