package service

import (
	"context"
	"errors"

	"mediqa/internal/domain"
	"mediqa/internal/repository"
)

// OrderService реализует логику заказов: создание, доставка, отмена, возврат
type OrderService struct {
	products repository.ProductRepository
	orders   repository.OrderRepository
	revenue  *RevenueService
	tx       repository.TxManager
}

func NewOrderService(products repository.ProductRepository, orders repository.OrderRepository, revenue *RevenueService, tx repository.TxManager) *OrderService {
	return &OrderService{products: products, orders: orders, revenue: revenue, tx: tx}
}

var (
	ErrNotEnoughStock = errors.New("not enough stock")
	ErrInvalidState   = errors.New("invalid state")
)

// OrderItemInput позиция нового заказа
type OrderItemInput struct {
	ProductID int64
	Quantity  int64
}

// OrderInput параметры нового заказа
type OrderInput struct {
	CustomerName string
	DoctorID     string
	CityID       string
	DeliveryFee  float64
	Discount     float64
	Items        []OrderItemInput
}

// CreateOrder проверяет наличие товара, атомарно списывает запас,
// считает итоги и фиксирует комиссию аптеки по каждой позиции
func (s *OrderService) CreateOrder(ctx context.Context, in OrderInput) (*domain.Order, error) {
	if in.CustomerName == "" || len(in.Items) == 0 || in.DeliveryFee < 0 || in.Discount < 0 {
		return nil, ErrInvalidInput
	}
	for _, it := range in.Items {
		if it.ProductID <= 0 || it.Quantity <= 0 {
			return nil, ErrInvalidInput
		}
	}

	var created *domain.Order
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		// load and check stock
		// accumulate updates to avoid partial state
		productCopies := make(map[int64]*domain.Product)
		items := make([]domain.OrderItem, 0, len(in.Items))
		subtotal := 0.0
		for _, it := range in.Items {
			p, err := s.products.GetByID(ctx, it.ProductID)
			if err != nil {
				return err
			}
			if p.Stock < it.Quantity {
				return ErrNotEnoughStock
			}
			// reserve
			p.Stock -= it.Quantity
			productCopies[p.ID] = p

			itemTotal := p.Price * float64(it.Quantity)
			commission, _ := s.revenue.ComputeCommission(ctx, p.PharmacyID, itemTotal)
			items = append(items, domain.OrderItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				Category:    p.Category,
				PharmacyID:  p.PharmacyID,
				Quantity:    it.Quantity,
				UnitPrice:   p.Price,
				Commission:  commission,
			})
			subtotal += itemTotal
		}
		// persist product stock updates
		for _, p := range productCopies {
			if err := s.products.Update(ctx, p); err != nil {
				return err
			}
		}

		// create order
		o := domain.Order{
			CustomerName: in.CustomerName,
			Items:        items,
			Subtotal:     subtotal,
			DeliveryFee:  in.DeliveryFee,
			Discount:     in.Discount,
			Total:        subtotal + in.DeliveryFee - in.Discount,
			Status:       domain.OrderStatusConfirmed,
			DoctorID:     in.DoctorID,
			CityID:       in.CityID,
		}
		if err := s.orders.Create(ctx, &o); err != nil {
			return err
		}
		created = &o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetOrder возвращает заказ по id
func (s *OrderService) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	return s.orders.GetByID(ctx, id)
}

// CancelOrder если Confirmed — возвращаем товары на склад и ставим Cancelled
func (s *OrderService) CancelOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return s.transition(ctx, id, domain.OrderStatusCancelled, true, domain.OrderStatusConfirmed)
}

// MarkDelivered переводит подтверждённый заказ в Delivered
func (s *OrderService) MarkDelivered(ctx context.Context, id int64) (*domain.Order, error) {
	return s.transition(ctx, id, domain.OrderStatusDelivered, false, domain.OrderStatusConfirmed)
}

// ReturnOrder полный возврат заказа: товары на склад, статус Returned.
// Сумма возвращённого заказа попадает в возвраты аналитики.
func (s *OrderService) ReturnOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return s.transition(ctx, id, domain.OrderStatusReturned, true, domain.OrderStatusConfirmed, domain.OrderStatusDelivered)
}

func (s *OrderService) transition(ctx context.Context, id int64, to domain.OrderStatus, restock bool, from ...domain.OrderStatus) (*domain.Order, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	var updated *domain.Order
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		allowed := false
		for _, st := range from {
			if o.Status == st {
				allowed = true
				break
			}
		}
		if !allowed {
			return ErrInvalidState
		}
		if restock {
			// return stock; deleted products are skipped silently
			for _, it := range o.Items {
				p, err := s.products.GetByID(ctx, it.ProductID)
				if err != nil {
					if errors.Is(err, repository.ErrNotFound) {
						continue
					}
					return err
				}
				p.Stock += it.Quantity
				if err := s.products.Update(ctx, p); err != nil {
					return err
				}
			}
		}
		o.Status = to
		if err := s.orders.Update(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
