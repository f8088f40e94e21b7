package library

import (
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/qrscan/core"
)

// InMemoryStore keeps assets in a map guarded by an RWMutex. Data is copied
// on save and retrieval so callers cannot mutate stored bytes.
type InMemoryStore struct {
	mu     sync.RWMutex
	assets map[string]entry
	now    func() time.Time
}

type entry struct {
	asset core.Asset
	data  []byte
}

var _ core.PhotoLibrary = (*InMemoryStore)(nil)

// NewInMemoryStore returns an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{assets: make(map[string]entry), now: func() time.Time { return time.Now().UTC() }}
}

// Save stores a copy of data under a fresh id.
func (s *InMemoryStore) Save(name string, data []byte) (core.Asset, error) {
	if name == "" {
		return core.Asset{}, ErrInvalidName
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	a := core.Asset{ID: core.NewID(), Name: name, Size: int64(len(cp)), Created: s.now()}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[a.ID] = entry{asset: a, data: cp}
	return a, nil
}

// Get returns a copy of the asset bytes or ErrNotFound.
func (s *InMemoryStore) Get(id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.assets[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(e.data))
	copy(cp, e.data)
	return cp, nil
}

// List returns every asset, most recent first. Ties are broken by name.
func (s *InMemoryStore) List() ([]core.Asset, error) {
	s.mu.RLock()
	out := make([]core.Asset, 0, len(s.assets))
	for _, e := range s.assets {
		out = append(out, e.asset)
	}
	s.mu.RUnlock()
	sortRecentFirst(out)
	return out, nil
}

// Delete removes the asset or returns ErrNotFound.
func (s *InMemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assets[id]; !ok {
		return ErrNotFound
	}
	delete(s.assets, id)
	return nil
}

func sortRecentFirst(assets []core.Asset) {
	sort.SliceStable(assets, func(i, j int) bool {
		if !assets[i].Created.Equal(assets[j].Created) {
			return assets[i].Created.After(assets[j].Created)
		}
		return assets[i].Name < assets[j].Name
	})
}
