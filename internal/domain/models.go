package domain

import "time"

// Product представляет товар в каталоге аптек
type Product struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	NameLocalized string   `json:"name_localized,omitempty"`
	Description   string   `json:"description,omitempty"`
	Category      string   `json:"category"`
	Tags          []string `json:"tags,omitempty"`
	PharmacyID    string   `json:"pharmacy_id"`
	PharmacyName  string   `json:"pharmacy_name"`
	CityID        string   `json:"city_id"`
	Price         float64  `json:"price"`
	Stock         int64    `json:"stock"`
	Prescription  bool     `json:"prescription"`
	Rating        float64  `json:"rating"`
}

// InStock товар доступен к заказу
func (p Product) InStock() bool { return p.Stock > 0 }

// Pharmacy аптека-продавец; ставка комиссии в процентах от суммы продажи
type Pharmacy struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	CityID         string  `json:"city_id"`
	CommissionRate float64 `json:"commission_rate"`
}

// OrderStatus тип статуса заказа
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusConfirmed OrderStatus = "Confirmed"
	OrderStatusDelivered OrderStatus = "Delivered"
	OrderStatusCancelled OrderStatus = "Cancelled"
	OrderStatusReturned  OrderStatus = "Returned"
)

// OrderItem позиция в заказе; комиссия аптеки фиксируется при создании
type OrderItem struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Category    string  `json:"category"`
	PharmacyID  string  `json:"pharmacy_id"`
	Quantity    int64   `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Commission  float64 `json:"commission"`
}

// Total стоимость позиции
func (it OrderItem) Total() float64 { return it.UnitPrice * float64(it.Quantity) }

// Order сущность заказа
type Order struct {
	ID           int64       `json:"id"`
	CustomerName string      `json:"customer_name"`
	Items        []OrderItem `json:"items"`
	Subtotal     float64     `json:"subtotal"`
	DeliveryFee  float64     `json:"delivery_fee"`
	Discount     float64     `json:"discount"`
	Total        float64     `json:"total"`
	Status       OrderStatus `json:"status"`
	DoctorID     string      `json:"doctor_id,omitempty"`
	CityID       string      `json:"city_id"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
