package service

import (
	"fmt"
	"testing"
	"time"
)

func TestCompletionCacheExpiry(t *testing.T) {
	cache := newCompletionCache(4, 10*time.Millisecond)
	cache.put("k", "v")

	if got, ok := cache.get("k"); !ok || got != "v" {
		t.Fatalf("get before expiry = %q, %v", got, ok)
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := cache.get("k"); ok {
		t.Error("entry served after expiry")
	}
}

func TestCompletionCacheEvictsOldest(t *testing.T) {
	cache := newCompletionCache(2, time.Minute)
	cache.put("a", "1")
	cache.put("b", "2")

	// Touch "a" so "b" becomes the eviction candidate.
	cache.get("a")
	cache.put("c", "3")

	if _, ok := cache.get("b"); ok {
		t.Error("least recently used entry survived eviction")
	}
	for _, key := range []string{"a", "c"} {
		if _, ok := cache.get(key); !ok {
			t.Errorf("entry %q evicted unexpectedly", key)
		}
	}
}

func TestCompletionCacheBounded(t *testing.T) {
	cache := newCompletionCache(8, time.Minute)
	for i := 0; i < 100; i++ {
		cache.put(fmt.Sprintf("k%d", i), "v")
	}
	if n := cache.order.Len(); n > 8 {
		t.Errorf("cache holds %d entries, want at most 8", n)
	}
	if n := len(cache.entries); n > 8 {
		t.Errorf("index holds %d entries, want at most 8", n)
	}
}
