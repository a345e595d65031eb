package save

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

type slotKey struct {
	target string
	slot   int
}

type memorySave struct {
	meta    Metadata
	payload []byte
}

// MemoryManager is a map-backed save store for tests and ephemeral sessions.
type MemoryManager struct {
	lock  sync.RWMutex
	saves map[slotKey]*memorySave
}

func NewMemoryManager() *MemoryManager {
	return &MemoryManager{
		saves: make(map[slotKey]*memorySave),
	}
}

func (m *MemoryManager) Save(ctx context.Context, target string, slot int, description string, payload []byte) error {
	if slot < 0 {
		return fmt.Errorf("invalid slot %d", slot)
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	stored := make([]byte, len(payload))
	copy(stored, payload)
	m.saves[slotKey{target, slot}] = &memorySave{
		meta: Metadata{
			Target:      target,
			Slot:        slot,
			Description: description,
			SavedAt:     time.Now(),
			Size:        len(payload),
		},
		payload: stored,
	}
	return nil
}

func (m *MemoryManager) Load(ctx context.Context, target string, slot int) ([]byte, *Metadata, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	s, ok := m.saves[slotKey{target, slot}]
	if !ok {
		return nil, nil, &ErrNotFound{}
	}

	payload := make([]byte, len(s.payload))
	copy(payload, s.payload)
	meta := s.meta
	return payload, &meta, nil
}

func (m *MemoryManager) List(ctx context.Context, target string) ([]*Metadata, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	var saves []*Metadata
	for key, s := range m.saves {
		if key.target != target {
			continue
		}
		meta := s.meta
		saves = append(saves, &meta)
	}
	sort.Slice(saves, func(i, j int) bool { return saves[i].Slot < saves[j].Slot })

	return saves, nil
}

func (m *MemoryManager) Delete(ctx context.Context, target string, slot int) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	key := slotKey{target, slot}
	if _, ok := m.saves[key]; !ok {
		return &ErrNotFound{}
	}
	delete(m.saves, key)
	return nil
}

func (m *MemoryManager) Close(ctx context.Context) error {
	return nil
}
