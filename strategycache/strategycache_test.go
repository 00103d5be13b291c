package strategycache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestStrategyCache_GetOrCreate_Miss(t *testing.T) {
	c := New[string, int]()

	v, err := c.GetOrCreate("a", func() (int, error) { return 42, nil })
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if v != 42 {
		t.Errorf("v = %d, want 42", v)
	}
}

func TestStrategyCache_GetOrCreate_Hit(t *testing.T) {
	c := New[string, int]()
	c.GetOrCreate("a", func() (int, error) { return 1, nil })

	calls := 0
	v, err := c.GetOrCreate("a", func() (int, error) {
		calls++
		return 2, nil
	})
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if v != 1 {
		t.Errorf("v = %d, want 1 (cached)", v)
	}
	if calls != 0 {
		t.Errorf("create was called %d times on a hit, want 0", calls)
	}
}

func TestStrategyCache_GetOrCreate_CreatesOnce(t *testing.T) {
	c := New[string, int]()
	var creates int32

	var wg sync.WaitGroup
	results := make([]int, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			v, _ := c.GetOrCreate("shared", func() (int, error) {
				atomic.AddInt32(&creates, 1)
				return 7, nil
			})
			results[idx] = v
		}(i)
	}
	wg.Wait()

	if atomic.LoadInt32(&creates) != 1 {
		t.Errorf("create called %d times, want 1", creates)
	}
	for i, v := range results {
		if v != 7 {
			t.Errorf("results[%d] = %d, want 7", i, v)
		}
	}
}

func TestStrategyCache_GetOrCreate_ErrorNotCached(t *testing.T) {
	c := New[string, int]()
	testErr := errors.New("boom")

	_, err := c.GetOrCreate("a", func() (int, error) { return 0, testErr })
	if !errors.Is(err, testErr) {
		t.Fatalf("err = %v, want testErr", err)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0 (failed create must not populate the cache)", c.Len())
	}

	v, err := c.GetOrCreate("a", func() (int, error) { return 9, nil })
	if err != nil {
		t.Fatalf("retry GetOrCreate() error = %v", err)
	}
	if v != 9 {
		t.Errorf("v = %d, want 9", v)
	}
}

func TestStrategyCache_Get(t *testing.T) {
	c := New[string, int]()
	if _, ok := c.Get("missing"); ok {
		t.Error("Get on empty cache should return ok=false")
	}

	c.GetOrCreate("k", func() (int, error) { return 5, nil })
	v, ok := c.Get("k")
	if !ok || v != 5 {
		t.Errorf("Get() = (%d, %v), want (5, true)", v, ok)
	}
}

func TestStrategyCache_Delete(t *testing.T) {
	c := New[string, int]()
	c.GetOrCreate("k", func() (int, error) { return 5, nil })

	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("Get after Delete should return ok=false")
	}

	// Delete is idempotent.
	c.Delete("k")
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestStrategyCache_Len(t *testing.T) {
	c := New[string, int]()
	c.GetOrCreate("a", func() (int, error) { return 1, nil })
	c.GetOrCreate("b", func() (int, error) { return 2, nil })
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}
