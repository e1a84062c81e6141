package domain

// SortBy порядок выдачи результатов поиска
type SortBy string

const (
	SortByRelevance SortBy = "relevance"
	SortByPriceLow  SortBy = "price-low"
	SortByPriceHigh SortBy = "price-high"
	SortByRating    SortBy = "rating"
	SortByDistance  SortBy = "distance"
	SortByName      SortBy = "name"
)

// PriceRange границы цены включительно; нулевые значения — без ограничения.
// Min > Max — допустимое состояние: пустое пересечение, а не ошибка.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// SearchFilters параметры фильтрации поиска, передаются по значению
type SearchFilters struct {
	Categories       []string   `json:"categories,omitempty"`
	PriceRange       PriceRange `json:"price_range"`
	InStockOnly      bool       `json:"in_stock_only"`
	PrescriptionOnly bool       `json:"prescription_only"`
	MinRating        float64    `json:"min_rating"`
	SortBy           SortBy     `json:"sort_by"`
}

// ResultType тип результата поиска
type ResultType string

const (
	ResultTypeProduct  ResultType = "product"
	ResultTypeCategory ResultType = "category"
	ResultTypeTerm     ResultType = "term"
)

// ResultMetadata дополнительные атрибуты результата для карточки товара
type ResultMetadata struct {
	Price        float64 `json:"price"`
	Rating       float64 `json:"rating"`
	InStock      bool    `json:"in_stock"`
	Prescription bool    `json:"prescription"`
	Category     string  `json:"category"`
}

// SearchResult элемент выдачи; живёт от запроса до ответа (и в кэше)
type SearchResult struct {
	ID             string         `json:"id"`
	Type           ResultType     `json:"type"`
	Title          string         `json:"title"`
	Subtitle       string         `json:"subtitle,omitempty"`
	Description    string         `json:"description,omitempty"`
	URL            string         `json:"url"`
	RelevanceScore float64        `json:"relevance_score"`
	Metadata       ResultMetadata `json:"metadata"`
}

// SuggestionType тип подсказки
type SuggestionType string

const (
	SuggestionRecent  SuggestionType = "recent"
	SuggestionPopular SuggestionType = "popular"
	SuggestionProduct SuggestionType = "product"
)

// SearchSuggestion подсказка автодополнения
type SearchSuggestion struct {
	Text string         `json:"text"`
	Type SuggestionType `json:"type"`
}
