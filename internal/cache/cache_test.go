package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestStoreGetOrCreate(t *testing.T) {
	s := New[string, int]()

	calls := 0
	create := func() (int, error) {
		calls++
		return 42, nil
	}

	v1, err := s.GetOrCreate("a", create)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	v2, err := s.GetOrCreate("a", create)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	if v1 != 42 || v2 != 42 {
		t.Errorf("values = %d, %d, want 42, 42", v1, v2)
	}
	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}

	stats := s.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Size != 1 {
		t.Errorf("Stats() = %+v, want 1 hit, 1 miss, size 1", stats)
	}
	if got := stats.HitRate(); got != 0.5 {
		t.Errorf("HitRate() = %v, want 0.5", got)
	}
}

func TestStoreErrorNotCached(t *testing.T) {
	s := New[string, int]()
	errBoom := errors.New("boom")

	if _, err := s.GetOrCreate("a", func() (int, error) { return 0, errBoom }); !errors.Is(err, errBoom) {
		t.Fatalf("GetOrCreate error = %v, want %v", err, errBoom)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d after failed create, want 0", s.Len())
	}

	v, err := s.GetOrCreate("a", func() (int, error) { return 7, nil })
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if v != 7 {
		t.Errorf("retry value = %d, want 7", v)
	}
}

func TestStoreGet(t *testing.T) {
	s := New[int, string]()

	if _, ok := s.Get(1); ok {
		t.Error("Get on empty store returned ok")
	}
	_, _ = s.GetOrCreate(1, func() (string, error) { return "one", nil })

	v, ok := s.Get(1)
	if !ok || v != "one" {
		t.Errorf("Get(1) = %q, %v, want one, true", v, ok)
	}
	if st := s.Stats(); st.Hits != 0 {
		t.Errorf("Get should not count as a hit, got %d", st.Hits)
	}
}

func TestStoreDrainOrder(t *testing.T) {
	s := New[string, int]()
	for i, k := range []string{"a", "b", "c"} {
		_, _ = s.GetOrCreate(k, func() (int, error) { return i, nil })
	}

	var got []string
	s.Drain(func(k string, _ int) {
		got = append(got, k)
	})

	want := []string{"c", "b", "a"}
	if len(got) != len(want) {
		t.Fatalf("Drain visited %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Drain[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if s.Len() != 0 {
		t.Errorf("Len() after Drain = %d, want 0", s.Len())
	}

	// Store stays usable.
	calls := 0
	_, _ = s.GetOrCreate("a", func() (int, error) { calls++; return 1, nil })
	if calls != 1 {
		t.Errorf("create after Drain called %d times, want 1", calls)
	}
}

func TestStoreDrainNilRelease(t *testing.T) {
	s := New[string, int]()
	_, _ = s.GetOrCreate("a", func() (int, error) { return 1, nil })
	s.Drain(nil)
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestStoreConcurrentCreateOnce(t *testing.T) {
	s := New[string, int]()

	var calls atomic.Int32
	var wg sync.WaitGroup
	const workers = 32

	results := make([]int, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := s.GetOrCreate("shared", func() (int, error) {
				calls.Add(1)
				return 99, nil
			})
			if err != nil {
				t.Errorf("worker %d: %v", i, err)
			}
			results[i] = v
		}(i)
	}
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("create called %d times, want 1", got)
	}
	for i, v := range results {
		if v != 99 {
			t.Errorf("worker %d got %d, want 99", i, v)
		}
	}
}
