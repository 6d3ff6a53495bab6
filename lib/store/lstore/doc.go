// Package lstore implements a local, in-memory, single-node key-value store based on the
// store.IStore interface. Data is stored entirely in memory and is not persisted
// between process restarts.
//
// Implementation Details:
//
//   - One sync.Mutex guards the whole map. Each operation (one read, one
//     read-modify-write or one delete) is a single critical section and the lock
//     is released before the method returns, so it is never held across I/O.
//
//   - Insert and Remove report the value that was present immediately before the
//     call. Because every call is applied under the same lock, the sequence of
//     reported previous values is always consistent with one linear order.
//
// Usage Example:
//
//	s := lstore.NewLocalStore()
//
//	_, _, _ = s.Insert("foo", "bar")
//	value, ok, _ := s.Get("foo") // "bar", true
//	_, ok, _ = s.Remove("foo")   // ok == true
//	_, ok, _ = s.Get("foo")      // ok == false
package lstore
