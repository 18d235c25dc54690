package channels

import (
	"context"
	"sync"
)

// MemoryStore adalah implementasi ListStore di memori, untuk test dan
// development tanpa redis. Operasinya atomic satu per satu, seperti list
// redis; urutan drain-lalu-trim tetap tidak transaksional.
type MemoryStore struct {
	mu    sync.Mutex
	lists map[string][]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{lists: make(map[string][]string)}
}

func (m *MemoryStore) Push(ctx context.Context, key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists[key] = append(m.lists[key], value)
	return nil
}

func (m *MemoryStore) Range(ctx context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.lists[key]
	out := make([]string, len(list))
	copy(out, list)
	return out, nil
}

func (m *MemoryStore) Trim(ctx context.Context, key string, n int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.lists[key]
	if n <= 0 {
		return nil
	}
	if n >= int64(len(list)) {
		delete(m.lists, key)
		return nil
	}
	m.lists[key] = list[n:]
	return nil
}

// Len mengembalikan panjang list saat ini
func (m *MemoryStore) Len(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lists[key])
}
