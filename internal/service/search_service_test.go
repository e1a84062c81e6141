package service

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"mediqa/internal/domain"
	"mediqa/internal/kvstore"
	"mediqa/internal/repository"
)

func setupSearch(t *testing.T) (*SearchService, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	ss := NewSearchService(store, kvstore.NewMemory(), SearchOptions{})
	return ss, store
}

func addProduct(t *testing.T, store *repository.MemoryStore, p domain.Product) domain.Product {
	t.Helper()
	if p.PharmacyID == "" {
		p.PharmacyID = "ph-1"
	}
	if p.PharmacyName == "" {
		p.PharmacyName = "Central"
	}
	if p.Category == "" {
		p.Category = "pain-relief"
	}
	if err := store.Create(context.Background(), &p); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestSearch_EmptyQueryReturnsPopular(t *testing.T) {
	ctx := context.Background()
	ss, _ := setupSearch(t)

	results, err := ss.Search(ctx, "   ", domain.SearchFilters{}, nil, "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) == 0 {
		t.Fatalf("expected popular defaults")
	}
	for _, r := range results {
		if r.Type != domain.ResultTypeCategory && r.Type != domain.ResultTypeTerm {
			t.Fatalf("unexpected type %v", r.Type)
		}
	}
	// пустой запрос не попадает в историю
	if got := ss.RecentSearches(5); len(got) != 0 {
		t.Fatalf("history should stay empty, got %v", got)
	}
}

func TestSearch_ParacetamolRanksFirst(t *testing.T) {
	ctx := context.Background()
	ss, store := setupSearch(t)

	addProduct(t, store, domain.Product{
		Name:        "Paracetamol 500mg",
		Description: "Paracetamol tablets for pain and fever",
		Tags:        []string{"paracetamol", "fever"},
		Price:       50,
		Stock:       10,
		Rating:      4.5,
	})
	addProduct(t, store, domain.Product{Name: "Ibuprofen 200mg", Price: 80, Stock: 5, Rating: 4.8})
	addProduct(t, store, domain.Product{Name: "Paracetamol syrup", Price: 120, Stock: 3, Rating: 4.0})

	results, err := ss.Search(ctx, "paracetamol", domain.SearchFilters{}, nil, "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(results))
	}
	if results[0].Title != "Paracetamol 500mg" {
		t.Fatalf("expected exact product first, got %q", results[0].Title)
	}
	// name 80 + tag 60 + description 40 + in stock 10 + rating 9
	if results[0].RelevanceScore < 180 {
		t.Fatalf("score expected >= 180, got %v", results[0].RelevanceScore)
	}
}

func TestSearch_ResultCap(t *testing.T) {
	ctx := context.Background()
	ss, store := setupSearch(t)
	for i := 0; i < 25; i++ {
		addProduct(t, store, domain.Product{Name: fmt.Sprintf("Vitamin %d", i), Price: 10, Stock: 1})
	}

	results, err := ss.Search(ctx, "vitamin", domain.SearchFilters{}, nil, "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != maxSearchResults {
		t.Fatalf("expected %d results, got %d", maxSearchResults, len(results))
	}
}

func TestSearch_InvertedPriceRangeYieldsEmpty(t *testing.T) {
	ctx := context.Background()
	ss, store := setupSearch(t)
	addProduct(t, store, domain.Product{Name: "Aspirin", Price: 50, Stock: 1})

	f := domain.SearchFilters{PriceRange: domain.PriceRange{Min: 100, Max: 10}}
	results, err := ss.Search(ctx, "aspirin", f, nil, "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("inverted range must give empty set, got %d", len(results))
	}
}

func TestSearch_SortByPriceLow(t *testing.T) {
	ctx := context.Background()
	ss, store := setupSearch(t)
	addProduct(t, store, domain.Product{Name: "Bandage large", Price: 50, Stock: 1, Rating: 5})
	addProduct(t, store, domain.Product{Name: "Bandage small", Price: 10, Stock: 1, Rating: 1})
	addProduct(t, store, domain.Product{Name: "Bandage medium", Price: 30, Stock: 1, Rating: 3})

	results, err := ss.Search(ctx, "bandage", domain.SearchFilters{SortBy: domain.SortByPriceLow}, nil, "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	prices := []float64{}
	for _, r := range results {
		prices = append(prices, r.Metadata.Price)
	}
	if !reflect.DeepEqual(prices, []float64{10, 30, 50}) {
		t.Fatalf("expected [10 30 50], got %v", prices)
	}
}

// Срез топ-20 по релевантности происходит до пересортировки: менее
// релевантный дешёвый товар в выдачу по цене не попадает.
func TestSearch_CapAppliedBeforePriceSort(t *testing.T) {
	ctx := context.Background()
	ss, store := setupSearch(t)
	for i := 0; i < 20; i++ {
		addProduct(t, store, domain.Product{
			Name:  fmt.Sprintf("Vitamin complex %d", i),
			Tags:  []string{"vitamin"},
			Price: 100,
			Stock: 1,
		})
	}
	// only a name substring match: lowest relevance, cheapest price
	addProduct(t, store, domain.Product{Name: "Vitamin water", Price: 1, Stock: 1})

	results, err := ss.Search(ctx, "vitamin", domain.SearchFilters{SortBy: domain.SortByPriceLow}, nil, "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != maxSearchResults {
		t.Fatalf("expected %d results, got %d", maxSearchResults, len(results))
	}
	for _, r := range results {
		if r.Metadata.Price == 1 {
			t.Fatalf("low-relevance product must be cut before price sort")
		}
	}
}

func TestSearch_CachedResultReturnedWithinTTL(t *testing.T) {
	ctx := context.Background()
	ss, store := setupSearch(t)
	addProduct(t, store, domain.Product{Name: "Thermometer", Price: 300, Stock: 2})

	first, err := ss.Search(ctx, "thermometer", domain.SearchFilters{}, nil, "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	// новый товар в каталоге не влияет на закэшированную выдачу
	addProduct(t, store, domain.Product{Name: "Thermometer digital", Price: 500, Stock: 2})

	second, err := ss.Search(ctx, "thermometer", domain.SearchFilters{}, nil, "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected cached result, got recomputed")
	}

	// другой набор городов — другой ключ кэша
	third, err := ss.Search(ctx, "thermometer", domain.SearchFilters{}, []string{"msk"}, "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if reflect.DeepEqual(first, third) {
		t.Fatalf("city scope must change the cache key")
	}
}

func TestSearch_CityRestriction(t *testing.T) {
	ctx := context.Background()
	ss, store := setupSearch(t)
	addProduct(t, store, domain.Product{Name: "Aspirin msk", CityID: "msk", Price: 50, Stock: 1})
	addProduct(t, store, domain.Product{Name: "Aspirin spb", CityID: "spb", Price: 50, Stock: 1})

	results, err := ss.Search(ctx, "aspirin", domain.SearchFilters{}, []string{"spb"}, "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Title != "Aspirin spb" {
		t.Fatalf("city restriction failed: %v", results)
	}
}

func TestSearch_LocalizedTitle(t *testing.T) {
	ctx := context.Background()
	ss, store := setupSearch(t)
	addProduct(t, store, domain.Product{Name: "Paracetamol", NameLocalized: "Парацетамол", Price: 50, Stock: 1})

	results, err := ss.Search(ctx, "paracetamol", domain.SearchFilters{}, nil, "ru")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Title != "Парацетамол" {
		t.Fatalf("expected localized title, got %v", results)
	}
}

func TestSuggestions(t *testing.T) {
	ctx := context.Background()
	ss, store := setupSearch(t)
	for i := 0; i < 10; i++ {
		addProduct(t, store, domain.Product{Name: fmt.Sprintf("Vitamin %d", i), Price: 10, Stock: 1})
	}

	// non-empty: product name matches, capped
	suggestions, err := ss.Suggestions(ctx, "vita", nil)
	if err != nil {
		t.Fatalf("suggestions: %v", err)
	}
	if len(suggestions) != maxSuggestions {
		t.Fatalf("expected %d suggestions, got %d", maxSuggestions, len(suggestions))
	}
	for _, sg := range suggestions {
		if sg.Type != domain.SuggestionProduct {
			t.Fatalf("expected product suggestions, got %v", sg.Type)
		}
	}

	// empty input: recents first, then populars
	if _, err := ss.Search(ctx, "ibuprofen", domain.SearchFilters{}, nil, ""); err != nil {
		t.Fatal(err)
	}
	suggestions, err = ss.Suggestions(ctx, "", nil)
	if err != nil {
		t.Fatalf("suggestions: %v", err)
	}
	if len(suggestions) == 0 || suggestions[0].Type != domain.SuggestionRecent || suggestions[0].Text != "ibuprofen" {
		t.Fatalf("expected recent first, got %v", suggestions)
	}
	popularSeen := false
	for _, sg := range suggestions {
		if sg.Type == domain.SuggestionPopular {
			popularSeen = true
		}
	}
	if !popularSeen {
		t.Fatalf("expected popular terms in %v", suggestions)
	}
}
