package controllers

import (
	"net/http"

	"github.com/oculent/storefront-backend/api/responses"
	"github.com/oculent/storefront-backend/api/validators"
	"github.com/oculent/storefront-backend/internal/cart"
	pkgerrors "github.com/oculent/storefront-backend/pkg/errors"
	"github.com/oculent/storefront-backend/pkg/logger"
)

type cartItemResponse struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Color     string  `json:"color"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
}

type cartResponse struct {
	Items     []cartItemResponse `json:"items"`
	Subtotal  float64            `json:"subtotal"`
	ItemCount int                `json:"itemCount"`
}

func toCartResponse(svc cart.Service) cartResponse {
	items := svc.Items()
	out := cartResponse{
		Items:     make([]cartItemResponse, 0, len(items)),
		Subtotal:  svc.Subtotal().InexactFloat64(),
		ItemCount: svc.ItemCount(),
	}
	for _, li := range items {
		out.Items = append(out.Items, cartItemResponse{
			ProductID: li.ProductID,
			Name:      li.Name,
			Color:     li.Color,
			UnitPrice: li.UnitPrice.InexactFloat64(),
			Quantity:  li.Quantity,
		})
	}
	return out
}

type addCartItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Color     string `json:"color" validate:"required"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// GetCart returns the current cart with its derived totals.
func GetCart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		responses.WriteSuccess(w, toCartResponse(svc))
	}
}

// AddCartItem adds one unit of a product/color pair.
func AddCartItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		var body addCartItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		added, err := svc.AddItem(r.Context(), body.ProductID, body.Color)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !added {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product or color not available"))
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toCartResponse(svc))
	}
}

// UpdateCartItem sets the quantity of one line; zero or less removes it.
func UpdateCartItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		index, err := validators.ParsePathIndex(r, "index")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.UpdateQuantity(r.Context(), index, body.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartResponse(svc))
	}
}

// RemoveCartItem deletes one line.
func RemoveCartItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		index, err := validators.ParsePathIndex(r, "index")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.RemoveItem(r.Context(), index); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartResponse(svc))
	}
}

// ClearCart empties the cart.
func ClearCart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		if err := svc.Clear(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartResponse(svc))
	}
}
