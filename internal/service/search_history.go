package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"mediqa/internal/kvstore"
)

// historyStorageKey фиксированный ключ истории поиска в kv-хранилище
const historyStorageKey = "mediqa:recent_searches"

// searchHistory список последних запросов: без дублей, новые в начале,
// размер ограничен. Каждое изменение целиком сохраняется в kv-хранилище.
type searchHistory struct {
	mu    sync.Mutex
	store kvstore.Store
	limit int
	items []string
}

func newSearchHistory(ctx context.Context, store kvstore.Store, limit int) *searchHistory {
	h := &searchHistory{store: store, limit: limit}
	var items []string
	ok, err := store.Get(ctx, historyStorageKey, &items)
	if err != nil {
		// битые данные или недоступное хранилище — начинаем с пустой истории
		log.Debug().Err(err).Msg("search history load failed, starting empty")
		return h
	}
	if ok {
		if len(items) > limit {
			items = items[:limit]
		}
		h.items = items
	}
	return h
}

// add вставляет запрос в начало, убирая прежнее вхождение
func (h *searchHistory) add(ctx context.Context, query string) {
	if query == "" {
		return
	}
	h.mu.Lock()
	next := make([]string, 0, len(h.items)+1)
	next = append(next, query)
	for _, q := range h.items {
		if q == query {
			continue
		}
		next = append(next, q)
	}
	if len(next) > h.limit {
		next = next[:h.limit]
	}
	h.items = next
	snapshot := make([]string, len(next))
	copy(snapshot, next)
	h.mu.Unlock()

	if err := h.store.Set(ctx, historyStorageKey, snapshot); err != nil {
		log.Debug().Err(err).Msg("search history persist failed")
	}
}

// recent до n последних запросов, новые первыми
func (h *searchHistory) recent(n int) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n > len(h.items) {
		n = len(h.items)
	}
	out := make([]string, n)
	copy(out, h.items[:n])
	return out
}
