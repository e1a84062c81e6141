package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"mediqa/internal/domain"
	"mediqa/internal/repository"
	"mediqa/internal/service"
)

type Server struct {
	engine  *gin.Engine
	catalog *service.CatalogService
	orders  *service.OrderService
	search  *service.SearchService
	revenue *service.RevenueService
}

func NewServer(catalog *service.CatalogService, orders *service.OrderService, search *service.SearchService, revenue *service.RevenueService) *Server {
	r := gin.New()
	r.Use(RequestLogger(), gin.Recovery())
	s := &Server{engine: r, catalog: catalog, orders: orders, search: search, revenue: revenue}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	// Swagger UI
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	s.engine.GET("/healthz", s.health)

	v1 := s.engine.Group("/api/v1")
	{
		products := v1.Group("/products")
		products.POST("", s.createProduct)
		products.GET(":id", s.getProduct)
		products.PUT(":id", s.updateProduct)
		products.DELETE(":id", s.deleteProduct)
		products.GET("", s.listProducts)

		pharmacies := v1.Group("/pharmacies")
		pharmacies.POST("", s.createPharmacy)
		pharmacies.GET("", s.listPharmacies)

		orders := v1.Group("/orders")
		orders.POST("", s.createOrder)
		orders.GET(":id", s.getOrder)
		orders.POST(":id/cancel", s.cancelOrder)
		orders.POST(":id/deliver", s.deliverOrder)
		orders.POST(":id/return", s.returnOrder)

		search := v1.Group("/search")
		search.GET("", s.searchProducts)
		search.GET("/suggestions", s.searchSuggestions)

		v1.GET("/analytics/revenue", s.revenueAnalytics)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Product handlers
type createProductReq struct {
	Name          string   `json:"name"`
	NameLocalized string   `json:"name_localized"`
	Description   string   `json:"description"`
	Category      string   `json:"category"`
	Tags          []string `json:"tags"`
	PharmacyID    string   `json:"pharmacy_id"`
	Price         float64  `json:"price"`
	Stock         int64    `json:"stock"`
	Prescription  bool     `json:"prescription"`
	Rating        float64  `json:"rating"`
}

// @Summary Create product
// @Tags products
// @Accept json
// @Produce json
// @Param input body createProductReq true "Product"
// @Success 201 {object} domain.Product
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /products [post]
func (s *Server) createProduct(c *gin.Context) {
	var req createProductReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p, err := s.catalog.CreateProduct(c, domain.Product{
		Name:          req.Name,
		NameLocalized: req.NameLocalized,
		Description:   req.Description,
		Category:      req.Category,
		Tags:          req.Tags,
		PharmacyID:    req.PharmacyID,
		Price:         req.Price,
		Stock:         req.Stock,
		Prescription:  req.Prescription,
		Rating:        req.Rating,
	})
	if err != nil {
		status := mapErrorToStatus(err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, p)
}

// @Summary Get product by id
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} domain.Product
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /products/{id} [get]
func (s *Server) getProduct(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	p, err := s.catalog.GetProduct(c, id)
	if err != nil {
		status := mapErrorToStatus(err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

type updateProductReq struct {
	Name          string   `json:"name"`
	NameLocalized string   `json:"name_localized"`
	Description   string   `json:"description"`
	Category      string   `json:"category"`
	Tags          []string `json:"tags"`
	Price         float64  `json:"price"`
	Stock         int64    `json:"stock"`
	Prescription  bool     `json:"prescription"`
	Rating        float64  `json:"rating"`
}

// @Summary Update product
// @Tags products
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param input body updateProductReq true "Update"
// @Success 200 {object} domain.Product
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /products/{id} [put]
func (s *Server) updateProduct(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req updateProductReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p, err := s.catalog.UpdateProduct(c, domain.Product{
		ID:            id,
		Name:          req.Name,
		NameLocalized: req.NameLocalized,
		Description:   req.Description,
		Category:      req.Category,
		Tags:          req.Tags,
		Price:         req.Price,
		Stock:         req.Stock,
		Prescription:  req.Prescription,
		Rating:        req.Rating,
	})
	if err != nil {
		status := mapErrorToStatus(err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary Delete product
// @Tags products
// @Param id path int true "Product ID"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /products/{id} [delete]
func (s *Server) deleteProduct(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := s.catalog.DeleteProduct(c, id); err != nil {
		status := mapErrorToStatus(err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary List products
// @Tags products
// @Produce json
// @Param q query string false "Name contains"
// @Param city query string false "City IDs, comma-separated"
// @Param category query string false "Categories, comma-separated"
// @Param min_price query number false "Min price"
// @Param max_price query number false "Max price"
// @Success 200 {array} domain.Product
// @Router /products [get]
func (s *Server) listProducts(c *gin.Context) {
	var f repository.ProductFilter
	if q := c.Query("q"); q != "" {
		f.NameSubstring = q
	}
	f.CityIDs = splitList(c.Query("city"))
	f.Categories = splitList(c.Query("category"))
	if v := c.Query("min_price"); v != "" {
		if x, err := strconv.ParseFloat(v, 64); err == nil {
			f.MinPrice = &x
		}
	}
	if v := c.Query("max_price"); v != "" {
		if x, err := strconv.ParseFloat(v, 64); err == nil {
			f.MaxPrice = &x
		}
	}
	list, err := s.catalog.ListProducts(c, f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

// Pharmacy handlers
type createPharmacyReq struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	CityID         string  `json:"city_id"`
	CommissionRate float64 `json:"commission_rate"`
}

// @Summary Register pharmacy
// @Tags pharmacies
// @Accept json
// @Produce json
// @Param input body createPharmacyReq true "Pharmacy"
// @Success 201 {object} domain.Pharmacy
// @Failure 400 {object} map[string]string
// @Router /pharmacies [post]
func (s *Server) createPharmacy(c *gin.Context) {
	var req createPharmacyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	ph, err := s.catalog.CreatePharmacy(c, domain.Pharmacy{
		ID:             req.ID,
		Name:           req.Name,
		CityID:         req.CityID,
		CommissionRate: req.CommissionRate,
	})
	if err != nil {
		status := mapErrorToStatus(err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, ph)
}

// @Summary List pharmacies
// @Tags pharmacies
// @Produce json
// @Success 200 {array} domain.Pharmacy
// @Router /pharmacies [get]
func (s *Server) listPharmacies(c *gin.Context) {
	list, err := s.catalog.ListPharmacies(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

// Order handlers
type orderItemReq struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type createOrderReq struct {
	CustomerName string         `json:"customer_name"`
	DoctorID     string         `json:"doctor_id"`
	CityID       string         `json:"city_id"`
	DeliveryFee  float64        `json:"delivery_fee"`
	Discount     float64        `json:"discount"`
	Items        []orderItemReq `json:"items"`
}

// @Summary Create order
// @Tags orders
// @Accept json
// @Produce json
// @Param input body createOrderReq true "Order"
// @Success 201 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /orders [post]
func (s *Server) createOrder(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	items := make([]service.OrderItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, service.OrderItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	o, err := s.orders.CreateOrder(c, service.OrderInput{
		CustomerName: req.CustomerName,
		DoctorID:     req.DoctorID,
		CityID:       req.CityID,
		DeliveryFee:  req.DeliveryFee,
		Discount:     req.Discount,
		Items:        items,
	})
	if err != nil {
		status := mapErrorToStatus(err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, o)
}

// @Summary Get order by id
// @Tags orders
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /orders/{id} [get]
func (s *Server) getOrder(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	o, err := s.orders.GetOrder(c, id)
	if err != nil {
		status := mapErrorToStatus(err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary Cancel order
// @Tags orders
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /orders/{id}/cancel [post]
func (s *Server) cancelOrder(c *gin.Context) {
	s.transitionOrder(c, s.orders.CancelOrder)
}

// @Summary Mark order delivered
// @Tags orders
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /orders/{id}/deliver [post]
func (s *Server) deliverOrder(c *gin.Context) {
	s.transitionOrder(c, s.orders.MarkDelivered)
}

// @Summary Return order
// @Tags orders
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /orders/{id}/return [post]
func (s *Server) returnOrder(c *gin.Context) {
	s.transitionOrder(c, s.orders.ReturnOrder)
}

func (s *Server) transitionOrder(c *gin.Context, fn func(ctx context.Context, id int64) (*domain.Order, error)) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	o, err := fn(c, id)
	if err != nil {
		status := mapErrorToStatus(err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, o)
}

// Search handlers

// @Summary Search catalog
// @Tags search
// @Produce json
// @Param q query string false "Query"
// @Param sort query string false "relevance | price-low | price-high | rating | name"
// @Param category query string false "Categories, comma-separated"
// @Param min_price query number false "Min price"
// @Param max_price query number false "Max price"
// @Param in_stock query bool false "In stock only"
// @Param prescription query bool false "Prescription only"
// @Param min_rating query number false "Min rating"
// @Param cities query string false "Enabled city IDs, comma-separated"
// @Param locale query string false "Locale"
// @Success 200 {array} domain.SearchResult
// @Router /search [get]
func (s *Server) searchProducts(c *gin.Context) {
	f := domain.SearchFilters{
		Categories: splitList(c.Query("category")),
		SortBy:     domain.SortBy(c.DefaultQuery("sort", string(domain.SortByRelevance))),
	}
	if v := c.Query("min_price"); v != "" {
		if x, err := strconv.ParseFloat(v, 64); err == nil {
			f.PriceRange.Min = x
		}
	}
	if v := c.Query("max_price"); v != "" {
		if x, err := strconv.ParseFloat(v, 64); err == nil {
			f.PriceRange.Max = x
		}
	}
	f.InStockOnly = c.Query("in_stock") == "true"
	f.PrescriptionOnly = c.Query("prescription") == "true"
	if v := c.Query("min_rating"); v != "" {
		if x, err := strconv.ParseFloat(v, 64); err == nil {
			f.MinRating = x
		}
	}

	results, err := s.search.Search(c, c.Query("q"), f, splitList(c.Query("cities")), c.Query("locale"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, results)
}

// @Summary Search suggestions
// @Tags search
// @Produce json
// @Param q query string false "Partial query"
// @Param cities query string false "Enabled city IDs, comma-separated"
// @Success 200 {array} domain.SearchSuggestion
// @Router /search/suggestions [get]
func (s *Server) searchSuggestions(c *gin.Context) {
	suggestions, err := s.search.Suggestions(c, c.Query("q"), splitList(c.Query("cities")))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, suggestions)
}

// Analytics handlers

// @Summary Revenue analytics for a period
// @Tags analytics
// @Produce json
// @Param days query int false "Timeframe in days" default(30)
// @Param prior_sales query number false "Prior period total sales"
// @Param prior_orders query int false "Prior period order count"
// @Success 200 {object} domain.RevenueAnalytics
// @Router /analytics/revenue [get]
func (s *Server) revenueAnalytics(c *gin.Context) {
	days := 30
	if v := c.Query("days"); v != "" {
		if x, err := strconv.Atoi(v); err == nil && x > 0 {
			days = x
		}
	}
	var prior domain.PriorPeriod
	if v := c.Query("prior_sales"); v != "" {
		if x, err := strconv.ParseFloat(v, 64); err == nil {
			prior.TotalSales = x
		}
	}
	if v := c.Query("prior_orders"); v != "" {
		if x, err := strconv.Atoi(v); err == nil {
			prior.Orders = x
		}
	}
	analytics, err := s.revenue.Aggregate(c, days, prior)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, analytics)
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func mapErrorToStatus(err error) int {
	switch err {
	case service.ErrInvalidInput:
		return http.StatusBadRequest
	case service.ErrNotEnoughStock:
		return http.StatusBadRequest
	case repository.ErrNotFound:
		return http.StatusNotFound
	case service.ErrInvalidState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
