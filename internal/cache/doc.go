// Package cache provides the generic get-or-create store behind the
// compute object caches.
//
// # Store[K, V]
//
// A thread-safe map with double-checked locking. Lookups that hit take
// only a read lock; a miss upgrades to the write lock and re-checks
// before creating, so each key is created exactly once even under
// concurrent access.
//
//	layouts := cache.New[string, gpucore.BindGroupLayoutID]()
//	id, err := layouts.GetOrCreate(sig.Key(), func() (gpucore.BindGroupLayoutID, error) {
//		return device.CreateBindGroupLayout(desc)
//	})
//
// Entries are never evicted. Drain hands them back newest first for
// destruction when a cache is purged or torn down.
//
// # Thread Safety
//
// Store is safe for concurrent use and must not be copied after creation.
package cache
