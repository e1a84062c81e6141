package kvstore

import (
	"context"
	"encoding/json"
	"sync"
)

// Store durable key-value хранилище: значение читается и пишется целиком как JSON
type Store interface {
	// Get десериализует значение в v; возвращает false, если ключа нет
	Get(ctx context.Context, key string, v any) (bool, error)
	Set(ctx context.Context, key string, v any) error
}

// Memory реализация Store в памяти; используется в тестах и как дефолт без Redis
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

var _ Store = (*Memory)(nil)

func (m *Memory) Get(ctx context.Context, key string, v any) (bool, error) {
	m.mu.RLock()
	raw, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Memory) Set(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[key] = raw
	m.mu.Unlock()
	return nil
}
