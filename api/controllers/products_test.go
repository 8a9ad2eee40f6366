package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/oculent/storefront-backend/internal/catalog"
)

func newProductsRouter() http.Handler {
	r := chi.NewRouter()
	cat := catalog.New()
	r.Get("/products", ListProducts(cat, nil))
	r.Get("/products/{productID}", GetProduct(cat, nil))
	return r
}

func TestListProducts(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	resp := httptest.NewRecorder()
	newProductsRouter().ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data []productResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 3 {
		t.Fatalf("expected 3 products, got %d", len(envelope.Data))
	}
	if envelope.Data[0].ID != "premium-ppf" || envelope.Data[0].UnitPrice != 899.99 {
		t.Fatalf("unexpected first product %+v", envelope.Data[0])
	}
}

func TestGetProductFound(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/products/matte-ppf", nil)
	resp := httptest.NewRecorder()
	newProductsRouter().ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data productResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Name != "Matte PPF" {
		t.Fatalf("unexpected product %+v", envelope.Data)
	}
}

func TestGetProductNotFound(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/products/ceramic-coating", nil)
	resp := httptest.NewRecorder()
	newProductsRouter().ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
