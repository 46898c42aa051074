package safesql_test

import (
	"sync"
	"testing"
	"time"

	"github.com/pthm/safesql"
)

func TestCache(t *testing.T) {
	rows := []safesql.Row{{"id": int64(1)}}

	t.Run("miss then hit", func(t *testing.T) {
		c := safesql.NewCache()
		if _, ok := c.Get("SELECT 1"); ok {
			t.Fatal("empty cache should miss")
		}
		c.Set("SELECT 1", rows)
		got, ok := c.Get("SELECT 1")
		if !ok {
			t.Fatal("expected hit after Set")
		}
		if len(got) != 1 || got[0]["id"] != int64(1) {
			t.Errorf("Get() = %v, want %v", got, rows)
		}
	})

	t.Run("expired entries are dropped", func(t *testing.T) {
		c := safesql.NewCache(safesql.WithTTL(time.Millisecond))
		c.Set("SELECT 1", rows)
		time.Sleep(5 * time.Millisecond)
		if _, ok := c.Get("SELECT 1"); ok {
			t.Error("expected miss after TTL")
		}
		if c.Size() != 0 {
			t.Errorf("Size() = %d, want 0 after expiry", c.Size())
		}
	})

	t.Run("clear", func(t *testing.T) {
		c := safesql.NewCache()
		c.Set("a", rows)
		c.Set("b", rows)
		if c.Size() != 2 {
			t.Fatalf("Size() = %d, want 2", c.Size())
		}
		c.Clear()
		if c.Size() != 0 {
			t.Errorf("Size() = %d, want 0 after Clear", c.Size())
		}
	})

	t.Run("rows are copied", func(t *testing.T) {
		c := safesql.NewCache()
		in := []safesql.Row{{"id": int64(1)}}
		c.Set("q", in)
		in[0]["id"] = int64(99)

		got, _ := c.Get("q")
		got[0]["id"] = int64(42)

		again, _ := c.Get("q")
		if len(again) != 1 || again[0]["id"] != int64(1) {
			t.Errorf("Get() = %v, want the rows as originally stored", again)
		}
	})

	t.Run("concurrent use", func(t *testing.T) {
		c := safesql.NewCache()
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					c.Set("SELECT 1", rows)
					c.Get("SELECT 1")
				}
			}()
		}
		wg.Wait()
		if c.Size() != 1 {
			t.Errorf("Size() = %d, want 1", c.Size())
		}
	})
}
