package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	c := New(Config{DefaultTTL: time.Minute})
	defer c.Close()

	c.Set("a", 1)
	v, ok := c.Get("a")
	if !ok || v.(int) != 1 {
		t.Errorf("expected 1, got %v (ok=%v)", v, ok)
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestCache_Expiry(t *testing.T) {
	c := New(Config{DefaultTTL: time.Minute})
	defer c.Close()

	c.SetWithTTL("a", 1, 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestCache_Delete(t *testing.T) {
	c := New(Config{DefaultTTL: time.Minute})
	defer c.Close()

	c.Set("a", 1)
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("expected deleted entry to miss")
	}
}

func TestCache_EvictsWhenFull(t *testing.T) {
	evicted := make(map[string]bool)
	c := New(Config{
		DefaultTTL: time.Minute,
		MaxItems:   3,
		OnEviction: func(key string, value any) {
			evicted[key] = true
		},
	})
	defer c.Close()

	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("key-%d", i), i)
	}

	if len(evicted) != 2 {
		t.Errorf("expected 2 evictions, got %d", len(evicted))
	}
}
