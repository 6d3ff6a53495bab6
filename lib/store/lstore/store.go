package lstore

import (
	"github.com/ValentinKolb/dht/lib/store"
	"sync"
)

// LocalStore is an in-memory store.IStore backed by a single map.
// All access to the map happens while holding mu.
type LocalStore struct {
	mu   sync.Mutex
	data map[string]string
}

// NewLocalStore creates a new, empty local store instance.
// This store implementation is not distributed and only works on a single node.
func NewLocalStore() *LocalStore {
	return &LocalStore{
		data: make(map[string]string),
	}
}

// compile time check
var _ store.IStore = (*LocalStore)(nil)

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *LocalStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	val, ok := s.data[key]
	s.mu.Unlock()
	return val, ok, nil
}

func (s *LocalStore) Insert(key, value string) (string, bool, error) {
	s.mu.Lock()
	prev, ok := s.data[key]
	s.data[key] = value
	s.mu.Unlock()
	return prev, ok, nil
}

func (s *LocalStore) Remove(key string) (string, bool, error) {
	s.mu.Lock()
	removed, ok := s.data[key]
	if ok {
		delete(s.data, key)
	}
	s.mu.Unlock()
	return removed, ok, nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// Len returns the number of keys currently stored
func (s *LocalStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}
