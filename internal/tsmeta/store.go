// Package tsmeta caches, locates and presents TS metadata against logical
// keys.
//
// A key is a model identifier, typically a file basename or the handle of a
// loaded model. The package owns the process-lifetime metadata cache, the
// search-directory discovery of TS companions, the trimmed rendering of
// records and the layered configuration behind both. The Service type ties
// these together into the operations the CLI exposes.
package tsmeta

import (
	"sort"
	"sync"

	"github.com/Shaima-Alhaddad/pymol-ts-info/internal/tsfile"
)

// Store is the process-lifetime metadata cache. A stored nil record is a
// cached absence: the key was looked up before and is known to have no
// metadata. That state is distinct from a key that was never stored, and
// Lookup exposes both.
//
// There is no eviction; entries live until the process exits or are
// overwritten by a re-parse.
type Store struct {
	mu      sync.RWMutex
	records map[string]*tsfile.Record
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{records: make(map[string]*tsfile.Record)}
}

// Put stores rec under key, overwriting any previous entry. A nil rec
// records that no metadata exists for key.
func (s *Store) Put(key string, rec *tsfile.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[key] = rec
}

// Lookup returns the entry stored under key. The second return is false
// when the key was never stored; a (nil, true) return is a cached absence.
func (s *Store) Lookup(key string) (*tsfile.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[key]

	return rec, ok
}

// Keys returns every stored key in sorted order, cached absences included.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.records))
	for key := range s.records {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
