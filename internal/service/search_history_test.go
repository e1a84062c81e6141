package service

import (
	"context"
	"fmt"
	"testing"

	"mediqa/internal/kvstore"
)

func TestSearchHistory_CapMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	h := newSearchHistory(ctx, kvstore.NewMemory(), 20)

	for i := 1; i <= 21; i++ {
		h.add(ctx, fmt.Sprintf("query %d", i))
	}

	recent := h.recent(20)
	if len(recent) != 20 {
		t.Fatalf("expected 20 entries, got %d", len(recent))
	}
	if recent[0] != "query 21" {
		t.Fatalf("most recent first, got %q", recent[0])
	}
	for _, q := range recent {
		if q == "query 1" {
			t.Fatalf("oldest query must be dropped")
		}
	}
}

func TestSearchHistory_Dedupe(t *testing.T) {
	ctx := context.Background()
	h := newSearchHistory(ctx, kvstore.NewMemory(), 20)

	h.add(ctx, "aspirin")
	h.add(ctx, "vitamin")
	h.add(ctx, "aspirin")

	recent := h.recent(10)
	if len(recent) != 2 {
		t.Fatalf("expected 2 unique entries, got %v", recent)
	}
	if recent[0] != "aspirin" || recent[1] != "vitamin" {
		t.Fatalf("dedupe must move query to front: %v", recent)
	}
}

func TestSearchHistory_PersistsAcrossRestart(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()

	h := newSearchHistory(ctx, store, 20)
	h.add(ctx, "aspirin")
	h.add(ctx, "vitamin")

	// новый экземпляр читает сохранённую историю
	h2 := newSearchHistory(ctx, store, 20)
	recent := h2.recent(10)
	if len(recent) != 2 || recent[0] != "vitamin" {
		t.Fatalf("history not persisted: %v", recent)
	}
}

func TestSearchHistory_CorruptDataStartsEmpty(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()
	// значение не того типа: загрузка должна тихо дать пустую историю
	if err := store.Set(ctx, historyStorageKey, map[string]int{"broken": 1}); err != nil {
		t.Fatal(err)
	}

	h := newSearchHistory(ctx, store, 20)
	if got := h.recent(10); len(got) != 0 {
		t.Fatalf("expected empty history, got %v", got)
	}

	// и дальше работает как обычно
	h.add(ctx, "aspirin")
	if got := h.recent(10); len(got) != 1 {
		t.Fatalf("history broken after corrupt load: %v", got)
	}
}
