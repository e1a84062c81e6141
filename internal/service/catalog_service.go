package service

import (
	"context"
	"errors"

	"mediqa/internal/domain"
	"mediqa/internal/repository"
)

// CatalogService инкапсулирует бизнес-логику вокруг товаров и аптек
type CatalogService struct {
	products   repository.ProductRepository
	pharmacies repository.PharmacyRepository
}

func NewCatalogService(products repository.ProductRepository, pharmacies repository.PharmacyRepository) *CatalogService {
	return &CatalogService{products: products, pharmacies: pharmacies}
}

var ErrInvalidInput = errors.New("invalid input")

func validProduct(p domain.Product) bool {
	return p.Name != "" && p.Category != "" && p.Price >= 0 && p.Stock >= 0 &&
		p.Rating >= 0 && p.Rating <= 5
}

// CreateProduct проверяет атрибуты и дополняет товар данными аптеки
func (s *CatalogService) CreateProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if !validProduct(p) || p.PharmacyID == "" {
		return nil, ErrInvalidInput
	}
	ph, err := s.pharmacies.GetByID(ctx, p.PharmacyID)
	if err != nil {
		return nil, err
	}
	cp := p
	cp.PharmacyName = ph.Name
	cp.CityID = ph.CityID
	if err := s.products.Create(ctx, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	return s.products.GetByID(ctx, id)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if p.ID <= 0 || !validProduct(p) {
		return nil, ErrInvalidInput
	}
	current, err := s.products.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	cp := p
	// привязка к аптеке не меняется при обновлении
	cp.PharmacyID = current.PharmacyID
	cp.PharmacyName = current.PharmacyName
	cp.CityID = current.CityID
	if err := s.products.Update(ctx, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	return s.products.Delete(ctx, id)
}

func (s *CatalogService) ListProducts(ctx context.Context, f repository.ProductFilter) ([]domain.Product, error) {
	return s.products.List(ctx, f)
}

// CreatePharmacy регистрирует аптеку со ставкой комиссии в [0,100]
func (s *CatalogService) CreatePharmacy(ctx context.Context, ph domain.Pharmacy) (*domain.Pharmacy, error) {
	if ph.ID == "" || ph.Name == "" || ph.CommissionRate < 0 || ph.CommissionRate > 100 {
		return nil, ErrInvalidInput
	}
	cp := ph
	if err := s.pharmacies.Create(ctx, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *CatalogService) ListPharmacies(ctx context.Context) ([]domain.Pharmacy, error) {
	return s.pharmacies.List(ctx)
}
