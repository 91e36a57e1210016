package cache

import (
	"strconv"
	"testing"
)

func BenchmarkStoreGetOrCreateHit(b *testing.B) {
	s := New[string, int]()
	for i := 0; i < 100; i++ {
		_, _ = s.GetOrCreate(strconv.Itoa(i), func() (int, error) { return i, nil })
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.GetOrCreate("50", func() (int, error) { return 0, nil })
	}
}

func BenchmarkStoreGetOrCreateParallel(b *testing.B) {
	s := New[string, int]()
	keys := make([]string, 100)
	for i := range keys {
		keys[i] = strconv.Itoa(i)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			k := keys[i%len(keys)]
			_, _ = s.GetOrCreate(k, func() (int, error) { return i, nil })
			i++
		}
	})
}

func BenchmarkStoreGet(b *testing.B) {
	s := New[string, int]()
	_, _ = s.GetOrCreate("key", func() (int, error) { return 1, nil })

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Get("key")
	}
}
