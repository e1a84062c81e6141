package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"mediqa/internal/domain"
	"mediqa/internal/kvstore"
	"mediqa/internal/repository"
	"mediqa/internal/service"
)

func setupServer(t *testing.T) *Server {
	t.Helper()
	store := repository.NewMemoryStore()
	pharmacies := repository.NewMemoryPharmacies(store)
	ordersRepo := repository.NewMemoryOrders(store)
	tx := repository.NewMemoryTx(store)
	revenueSvc := service.NewRevenueService(ordersRepo, pharmacies)
	catalogSvc := service.NewCatalogService(store, pharmacies)
	ordersSvc := service.NewOrderService(store, ordersRepo, revenueSvc, tx)
	searchSvc := service.NewSearchService(store, kvstore.NewMemory(), service.SearchOptions{})
	return NewServer(catalogSvc, ordersSvc, searchSvc, revenueSvc)
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func seedPharmacy(t *testing.T, s *Server) {
	t.Helper()
	w := doJSON(t, s, http.MethodPost, "/api/v1/pharmacies", map[string]any{
		"id": "ph-1", "name": "Central", "city_id": "msk", "commission_rate": 10,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create pharmacy %v", w.Code)
	}
}

func TestProductFlow(t *testing.T) {
	s := setupServer(t)
	seedPharmacy(t, s)
	// create
	w := doJSON(t, s, http.MethodPost, "/api/v1/products", map[string]any{
		"name": "Aspirin", "category": "pain-relief", "pharmacy_id": "ph-1", "price": 10, "stock": 5,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create code %v", w.Code)
	}
	// get
	w = doJSON(t, s, http.MethodGet, "/api/v1/products/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get code %v", w.Code)
	}
	// update
	w = doJSON(t, s, http.MethodPut, "/api/v1/products/1", map[string]any{
		"name": "A+", "category": "pain-relief", "price": 12, "stock": 7,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update code %v", w.Code)
	}
	// list
	w = doJSON(t, s, http.MethodGet, "/api/v1/products?q=a%2B", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list code %v", w.Code)
	}
	// delete
	w = doJSON(t, s, http.MethodDelete, "/api/v1/products/1", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete code %v", w.Code)
	}
}

func TestOrderFlow(t *testing.T) {
	s := setupServer(t)
	seedPharmacy(t, s)
	// prepare product
	w := doJSON(t, s, http.MethodPost, "/api/v1/products", map[string]any{
		"name": "Aspirin", "category": "pain-relief", "pharmacy_id": "ph-1", "price": 10, "stock": 5,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create product %v", w.Code)
	}

	// create order
	w = doJSON(t, s, http.MethodPost, "/api/v1/orders", map[string]any{
		"customer_name": "John",
		"city_id":       "msk",
		"items":         []map[string]any{{"product_id": 1, "quantity": 3}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create order %v", w.Code)
	}
	var o domain.Order
	if err := json.Unmarshal(w.Body.Bytes(), &o); err != nil {
		t.Fatal(err)
	}
	if o.Total != 30 || o.Items[0].Commission != 3 {
		t.Fatalf("order totals wrong: %+v", o)
	}

	// get order
	w = doJSON(t, s, http.MethodGet, "/api/v1/orders/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get order %v", w.Code)
	}

	// deliver then return
	w = doJSON(t, s, http.MethodPost, "/api/v1/orders/1/deliver", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("deliver %v", w.Code)
	}
	w = doJSON(t, s, http.MethodPost, "/api/v1/orders/1/return", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("return %v", w.Code)
	}

	// cancel of returned order conflicts
	w = doJSON(t, s, http.MethodPost, "/api/v1/orders/1/cancel", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %v", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	s := setupServer(t)
	seedPharmacy(t, s)
	for _, p := range []map[string]any{
		{"name": "Paracetamol 500mg", "category": "pain-relief", "pharmacy_id": "ph-1", "price": 50, "stock": 10, "rating": 4.5, "tags": []string{"paracetamol"}},
		{"name": "Vitamin C", "category": "vitamins", "pharmacy_id": "ph-1", "price": 80, "stock": 3, "rating": 4.8},
	} {
		if w := doJSON(t, s, http.MethodPost, "/api/v1/products", p); w.Code != http.StatusCreated {
			t.Fatalf("seed product %v", w.Code)
		}
	}

	w := doJSON(t, s, http.MethodGet, "/api/v1/search?q=paracetamol", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search %v", w.Code)
	}
	var results []domain.SearchResult
	if err := json.Unmarshal(w.Body.Bytes(), &results); err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Title != "Paracetamol 500mg" {
		t.Fatalf("unexpected results: %v", results)
	}

	// suggestions
	w = doJSON(t, s, http.MethodGet, "/api/v1/search/suggestions?q=vita", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("suggestions %v", w.Code)
	}
	var suggestions []domain.SearchSuggestion
	if err := json.Unmarshal(w.Body.Bytes(), &suggestions); err != nil {
		t.Fatal(err)
	}
	if len(suggestions) != 1 || suggestions[0].Text != "Vitamin C" {
		t.Fatalf("unexpected suggestions: %v", suggestions)
	}
}

func TestRevenueAnalyticsEndpoint(t *testing.T) {
	s := setupServer(t)
	seedPharmacy(t, s)
	w := doJSON(t, s, http.MethodPost, "/api/v1/products", map[string]any{
		"name": "Aspirin", "category": "pain-relief", "pharmacy_id": "ph-1", "price": 100, "stock": 10,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("seed product %v", w.Code)
	}
	w = doJSON(t, s, http.MethodPost, "/api/v1/orders", map[string]any{
		"customer_name": "John", "city_id": "msk",
		"items": []map[string]any{{"product_id": 1, "quantity": 2}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("seed order %v", w.Code)
	}

	w = doJSON(t, s, http.MethodGet, "/api/v1/analytics/revenue?days=7", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("analytics %v", w.Code)
	}
	var a domain.RevenueAnalytics
	if err := json.Unmarshal(w.Body.Bytes(), &a); err != nil {
		t.Fatal(err)
	}
	if a.Overview.TotalRevenue != 200 {
		t.Fatalf("total revenue expected 200, got %v", a.Overview.TotalRevenue)
	}
	if len(a.TimeSeries) != 7 {
		t.Fatalf("series expected 7 days, got %d", len(a.TimeSeries))
	}
	if a.Overview.TotalCommission != 20 {
		t.Fatalf("commission expected 20, got %v", a.Overview.TotalCommission)
	}
}

func TestHTTP_BadRequests(t *testing.T) {
	s := setupServer(t)
	seedPharmacy(t, s)
	// invalid product body
	w := doJSON(t, s, http.MethodPost, "/api/v1/products", map[string]any{"name": ""})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", w.Code)
	}

	// invalid id
	w = doJSON(t, s, http.MethodGet, "/api/v1/products/abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", w.Code)
	}

	// invalid pharmacy rate
	w = doJSON(t, s, http.MethodPost, "/api/v1/pharmacies", map[string]any{"id": "x", "name": "X", "commission_rate": 150})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", w.Code)
	}
}

func TestHTTP_NotFound_Conflict(t *testing.T) {
	s := setupServer(t)
	seedPharmacy(t, s)
	// not found
	w := doJSON(t, s, http.MethodGet, "/api/v1/products/999", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", w.Code)
	}

	// create product and order, then cancel twice -> conflict
	_ = doJSON(t, s, http.MethodPost, "/api/v1/products", map[string]any{"name": "A", "category": "c", "pharmacy_id": "ph-1", "price": 1, "stock": 1})
	_ = doJSON(t, s, http.MethodPost, "/api/v1/orders", map[string]any{"customer_name": "C", "items": []map[string]any{{"product_id": 1, "quantity": 1}}})
	_ = doJSON(t, s, http.MethodPost, "/api/v1/orders/1/cancel", nil)
	w = doJSON(t, s, http.MethodPost, "/api/v1/orders/1/cancel", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %v", w.Code)
	}
}
