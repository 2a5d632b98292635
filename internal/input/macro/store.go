package macro

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
)

// Store persists macro slots by name.
type Store interface {
	// Get returns the slot and whether it exists.
	Get(name string) (Slot, bool, error)
	// Put creates or replaces a slot.
	Put(slot Slot) error
	// Delete removes a slot. Deleting a missing slot is not an error.
	Delete(name string) error
	// List returns all slots sorted by name.
	List() ([]Slot, error)
	Close() error
}

// Open returns a store of the given kind: "memory", "file" or "sqlite".
func Open(kind, path string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "file", "json":
		return NewFileStore(path)
	case "sqlite":
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown macro store %q", kind)
	}
}

// MemoryStore keeps slots in memory.
type MemoryStore struct {
	mu    sync.RWMutex
	slots map[string]Slot
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[string]Slot)}
}

func (s *MemoryStore) Get(name string) (Slot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slot, ok := s.slots[name]
	return slot, ok, nil
}

func (s *MemoryStore) Put(slot Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[slot.Name] = slot
	return nil
}

func (s *MemoryStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, name)
	return nil
}

func (s *MemoryStore) List() ([]Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Slot, 0, len(s.slots))
	for _, slot := range s.slots {
		out = append(out, slot)
	}
	sortSlots(out)
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

func sortSlots(slots []Slot) {
	slices.SortFunc(slots, func(a, b Slot) int { return cmp.Compare(a.Name, b.Name) })
}
