package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"mediqa/internal/domain"
	"mediqa/internal/kvstore"
	"mediqa/internal/repository"
)

// Веса релевантности — фиксированные константы подбора выдачи
const (
	scoreExactName     = 100.0
	scoreNameMatch     = 80.0
	scoreTagMatch      = 60.0
	scoreDescMatch     = 40.0
	scoreCategoryMatch = 30.0
	scorePharmacyMatch = 20.0
	scoreInStockBonus  = 10.0
	scoreRatingWeight  = 2.0
)

const (
	// maxSearchResults жёсткий потолок выдачи. Срез до 20 делается по
	// релевантности ДО пересортировки по sort_by: сортировка по цене
	// работает внутри топ-20, а не по всему множеству совпадений.
	maxSearchResults = 20
	maxSuggestions   = 8

	defaultCacheSize    = 100
	defaultCacheTTL     = 5 * time.Minute
	defaultHistoryLimit = 20
)

// SearchOptions настройки поискового сервиса; нулевые поля получают дефолты
type SearchOptions struct {
	CacheSize    int
	CacheTTL     time.Duration
	HistoryLimit int
}

func (o SearchOptions) withDefaults() SearchOptions {
	if o.CacheSize <= 0 {
		o.CacheSize = defaultCacheSize
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = defaultCacheTTL
	}
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = defaultHistoryLimit
	}
	return o
}

// SearchService поиск по каталогу: фильтрация, ранжирование, кэш и история.
// Создаётся один раз в точке сборки приложения и передаётся по ссылке.
type SearchService struct {
	products repository.ProductRepository
	cache    *resultCache
	history  *searchHistory
	now      func() time.Time
}

func NewSearchService(products repository.ProductRepository, store kvstore.Store, opts SearchOptions) *SearchService {
	opts = opts.withDefaults()
	return &SearchService{
		products: products,
		cache:    newResultCache(opts.CacheSize, opts.CacheTTL),
		history:  newSearchHistory(context.Background(), store, opts.HistoryLimit),
		now:      time.Now,
	}
}

// популярные рубрики и запросы для пустого поискового запроса
var popularCategories = []string{"pain-relief", "vitamins", "cold-flu", "first-aid"}

var popularTerms = []string{"paracetamol", "ibuprofen", "vitamin c", "thermometer", "bandage"}

// Search выполняет поиск по каталогу. Пустой запрос отдаёт подборку
// популярных рубрик и запросов, минуя кэш и историю. cityIDs ограничивает
// города выдачи; пустой список — без ограничения.
func (s *SearchService) Search(ctx context.Context, query string, f domain.SearchFilters, cityIDs []string, locale string) ([]domain.SearchResult, error) {
	normalized := strings.ToLower(strings.TrimSpace(query))
	if normalized == "" {
		return popularResults(), nil
	}

	key := cacheKey(normalized, f, cityIDs, locale)
	if cached, ok := s.cache.get(key, s.now()); ok {
		return cached, nil
	}

	candidates, err := s.products.List(ctx, repository.ProductFilter{CityIDs: cityIDs})
	if err != nil {
		return nil, err
	}

	type scored struct {
		product domain.Product
		score   float64
	}
	matched := make([]scored, 0)
	for _, p := range candidates {
		if !matchesFilters(p, f) {
			continue
		}
		sc := scoreProduct(p, normalized)
		if sc <= 0 {
			continue
		}
		matched = append(matched, scored{product: p, score: sc})
	}

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].score > matched[j].score })
	if len(matched) > maxSearchResults {
		matched = matched[:maxSearchResults]
	}

	results := make([]domain.SearchResult, 0, len(matched))
	for _, m := range matched {
		results = append(results, toResult(m.product, m.score, locale))
	}
	sortResults(results, f.SortBy)

	s.cache.put(key, results, s.now())
	s.history.add(ctx, normalized)

	log.Debug().Str("query", normalized).Int("results", len(results)).Msg("search executed")
	return results, nil
}

// Suggestions подсказки автодополнения. Пустой ввод — последние запросы
// плюс популярные; иначе подбор по названиям товаров.
func (s *SearchService) Suggestions(ctx context.Context, partial string, cityIDs []string) ([]domain.SearchSuggestion, error) {
	normalized := strings.ToLower(strings.TrimSpace(partial))
	if normalized == "" {
		out := make([]domain.SearchSuggestion, 0, 10)
		for _, q := range s.history.recent(5) {
			out = append(out, domain.SearchSuggestion{Text: q, Type: domain.SuggestionRecent})
		}
		for i, term := range popularTerms {
			if i >= 5 {
				break
			}
			out = append(out, domain.SearchSuggestion{Text: term, Type: domain.SuggestionPopular})
		}
		return out, nil
	}

	candidates, err := s.products.List(ctx, repository.ProductFilter{CityIDs: cityIDs})
	if err != nil {
		return nil, err
	}
	out := make([]domain.SearchSuggestion, 0, maxSuggestions)
	for _, p := range candidates {
		if !strings.Contains(strings.ToLower(p.Name), normalized) {
			continue
		}
		out = append(out, domain.SearchSuggestion{Text: p.Name, Type: domain.SuggestionProduct})
		if len(out) >= maxSuggestions {
			break
		}
	}
	return out, nil
}

// RecentSearches последние запросы пользователя, новые первыми
func (s *SearchService) RecentSearches(n int) []string {
	return s.history.recent(n)
}

// matchesFilters применяет фильтры каталога к кандидату. Границы цены
// включительные; Min > Max даёт пустое пересечение, это не ошибка.
func matchesFilters(p domain.Product, f domain.SearchFilters) bool {
	if len(f.Categories) > 0 {
		found := false
		for _, c := range f.Categories {
			if c == p.Category {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.PriceRange.Min > 0 && p.Price < f.PriceRange.Min {
		return false
	}
	if f.PriceRange.Max > 0 && p.Price > f.PriceRange.Max {
		return false
	}
	if f.InStockOnly && !p.InStock() {
		return false
	}
	if f.PrescriptionOnly && !p.Prescription {
		return false
	}
	if f.MinRating > 0 && p.Rating < f.MinRating {
		return false
	}
	return true
}

// scoreProduct аддитивная оценка релевантности кандидата.
// Без единого текстового совпадения кандидат не считается найденным:
// бонусы за наличие и рейтинг сами по себе в выдачу не приводят.
func scoreProduct(p domain.Product, query string) float64 {
	name := strings.ToLower(p.Name)
	localized := strings.ToLower(p.NameLocalized)

	score := 0.0
	switch {
	case name == query || (localized != "" && localized == query):
		score += scoreExactName
	case strings.Contains(name, query) || (localized != "" && strings.Contains(localized, query)):
		score += scoreNameMatch
	}
	if p.Description != "" && strings.Contains(strings.ToLower(p.Description), query) {
		score += scoreDescMatch
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			score += scoreTagMatch
			break
		}
	}
	if strings.Contains(strings.ToLower(p.Category), query) {
		score += scoreCategoryMatch
	}
	if strings.Contains(strings.ToLower(p.PharmacyName), query) {
		score += scorePharmacyMatch
	}
	if score == 0 {
		return 0
	}
	if p.InStock() {
		score += scoreInStockBonus
	}
	score += p.Rating * scoreRatingWeight
	return score
}

func toResult(p domain.Product, score float64, locale string) domain.SearchResult {
	title := p.Name
	if locale == "ru" && p.NameLocalized != "" {
		title = p.NameLocalized
	}
	return domain.SearchResult{
		ID:             fmt.Sprintf("%d", p.ID),
		Type:           domain.ResultTypeProduct,
		Title:          title,
		Subtitle:       p.PharmacyName,
		Description:    p.Description,
		URL:            fmt.Sprintf("/products/%d", p.ID),
		RelevanceScore: score,
		Metadata: domain.ResultMetadata{
			Price:        p.Price,
			Rating:       p.Rating,
			InStock:      p.InStock(),
			Prescription: p.Prescription,
			Category:     p.Category,
		},
	}
}

// sortResults пересортировка уже усечённой выдачи по выбранному порядку
func sortResults(results []domain.SearchResult, by domain.SortBy) {
	switch by {
	case domain.SortByPriceLow:
		sort.SliceStable(results, func(i, j int) bool { return results[i].Metadata.Price < results[j].Metadata.Price })
	case domain.SortByPriceHigh:
		sort.SliceStable(results, func(i, j int) bool { return results[i].Metadata.Price > results[j].Metadata.Price })
	case domain.SortByRating:
		sort.SliceStable(results, func(i, j int) bool { return results[i].Metadata.Rating > results[j].Metadata.Rating })
	case domain.SortByName:
		sort.SliceStable(results, func(i, j int) bool { return results[i].Title < results[j].Title })
	default:
		// relevance и distance: по убыванию релевантности
		sort.SliceStable(results, func(i, j int) bool { return results[i].RelevanceScore > results[j].RelevanceScore })
	}
}

func popularResults() []domain.SearchResult {
	out := make([]domain.SearchResult, 0, len(popularCategories)+len(popularTerms))
	for i, c := range popularCategories {
		out = append(out, domain.SearchResult{
			ID:             "category-" + c,
			Type:           domain.ResultTypeCategory,
			Title:          c,
			URL:            "/catalog/" + c,
			RelevanceScore: float64(50 - i),
		})
	}
	for i, term := range popularTerms {
		out = append(out, domain.SearchResult{
			ID:             "term-" + term,
			Type:           domain.ResultTypeTerm,
			Title:          term,
			URL:            "/search?q=" + term,
			RelevanceScore: float64(40 - i),
		})
	}
	return out
}

// cacheKey детерминированный ключ: запрос, каноничные фильтры,
// отсортированные города и локаль
func cacheKey(query string, f domain.SearchFilters, cityIDs []string, locale string) string {
	cities := make([]string, len(cityIDs))
	copy(cities, cityIDs)
	sort.Strings(cities)

	categories := make([]string, len(f.Categories))
	copy(categories, f.Categories)
	sort.Strings(categories)

	return fmt.Sprintf("%s|%s|%g:%g|%t|%t|%g|%s|%s|%s",
		query,
		strings.Join(categories, ","),
		f.PriceRange.Min, f.PriceRange.Max,
		f.InStockOnly, f.PrescriptionOnly,
		f.MinRating,
		f.SortBy,
		strings.Join(cities, ","),
		locale,
	)
}
