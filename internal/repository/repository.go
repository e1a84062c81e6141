package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"mediqa/internal/domain"
)

// ErrNotFound возвращается, когда сущность не найдена
var ErrNotFound = errors.New("not found")

// ProductFilter параметры фильтрации каталога.
// Пустой CityIDs — без ограничения по городам.
type ProductFilter struct {
	NameSubstring    string
	CityIDs          []string
	Categories       []string
	MinPrice         *float64
	MaxPrice         *float64
	InStockOnly      bool
	PrescriptionOnly bool
	MinRating        float64
}

// ProductRepository интерфейс репозитория товаров
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f ProductFilter) ([]domain.Product, error)
}

// PharmacyRepository интерфейс репозитория аптек
type PharmacyRepository interface {
	Create(ctx context.Context, ph *domain.Pharmacy) error
	GetByID(ctx context.Context, id string) (*domain.Pharmacy, error)
	List(ctx context.Context) ([]domain.Pharmacy, error)
}

// OrderRepository интерфейс репозитория заказов
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	Update(ctx context.Context, o *domain.Order) error
	ListSince(ctx context.Context, from time.Time) ([]domain.Order, error)
}

// TxManager абстракция транзакции. Для in-memory — глобальная блокировка записи.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// helper: case-insensitive contains
func containsIgnoreCase(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func inSet(v string, set []string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
