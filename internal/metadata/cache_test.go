package metadata

import (
	"testing"
	"time"
)

func TestKVCache_SetGetDelete(t *testing.T) {
	cache := NewKVCache(time.Minute)
	defer cache.Stop()

	cache.Set("/climatix/devices/a", []byte(`{"id":"a"}`))
	value, ok := cache.Get("/climatix/devices/a")
	if !ok || string(value) != `{"id":"a"}` {
		t.Fatalf("Expected cached value, got %q (ok=%v)", value, ok)
	}

	cache.Delete("/climatix/devices/a")
	if _, ok := cache.Get("/climatix/devices/a"); ok {
		t.Error("Expected miss after Delete")
	}
}

func TestKVCache_Expiry(t *testing.T) {
	cache := NewKVCache(20 * time.Millisecond)
	defer cache.Stop()

	cache.Set("k", []byte("v"))
	time.Sleep(40 * time.Millisecond)

	if _, ok := cache.Get("k"); ok {
		t.Error("Expected expired entry to miss")
	}

	cache.evictExpired(time.Now())
	if cache.Len() != 0 {
		t.Errorf("Expected expired entry to be evicted, len=%d", cache.Len())
	}
}

func TestKVCache_DeletePrefix(t *testing.T) {
	cache := NewKVCache(time.Minute)
	defer cache.Stop()

	cache.Set("/a/1", []byte("1"))
	cache.Set("/a/2", []byte("2"))
	cache.Set("/b/1", []byte("3"))

	cache.DeletePrefix("/a/")
	if cache.Len() != 1 {
		t.Errorf("Expected 1 entry left, got %d", cache.Len())
	}
	if _, ok := cache.Get("/b/1"); !ok {
		t.Error("Expected /b/1 to survive")
	}
}

func TestKVCache_StopTwice(t *testing.T) {
	cache := NewKVCache(time.Minute)
	cache.Stop()
	cache.Stop()
}
