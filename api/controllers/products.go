package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oculent/storefront-backend/api/responses"
	"github.com/oculent/storefront-backend/internal/catalog"
	pkgerrors "github.com/oculent/storefront-backend/pkg/errors"
	"github.com/oculent/storefront-backend/pkg/logger"
)

type productResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	UnitPrice   float64  `json:"unitPrice"`
	Colors      []string `json:"colors"`
}

func toProductResponse(p catalog.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		UnitPrice:   p.UnitPrice.InexactFloat64(),
		Colors:      p.Colors,
	}
}

// ListProducts returns the full catalog in display order.
func ListProducts(cat *catalog.Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cat == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		products := cat.List()
		out := make([]productResponse, 0, len(products))
		for _, p := range products {
			out = append(out, toProductResponse(p))
		}
		responses.WriteSuccess(w, out)
	}
}

// GetProduct returns a single product by identifier.
func GetProduct(cat *catalog.Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cat == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		id := chi.URLParam(r, "productID")
		product, ok := cat.Lookup(id)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
			return
		}
		responses.WriteSuccess(w, toProductResponse(product))
	}
}
