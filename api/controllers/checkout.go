package controllers

import (
	"net/http"
	"time"

	"github.com/oculent/storefront-backend/api/responses"
	"github.com/oculent/storefront-backend/api/validators"
	"github.com/oculent/storefront-backend/internal/orders"
	pkgerrors "github.com/oculent/storefront-backend/pkg/errors"
	"github.com/oculent/storefront-backend/pkg/logger"
)

type orderResponse struct {
	OrderNumber string              `json:"orderNumber"`
	CreatedAt   string              `json:"createdAt"`
	Customer    orders.CustomerInfo `json:"customer"`
	Items       []cartItemResponse  `json:"items"`
	Subtotal    float64             `json:"subtotal"`
	Tax         float64             `json:"tax"`
	Total       float64             `json:"total"`
}

func toOrderResponse(o orders.Order) orderResponse {
	out := orderResponse{
		OrderNumber: o.OrderNumber,
		CreatedAt:   o.CreatedAt.UTC().Format(time.RFC3339Nano),
		Customer:    o.Customer,
		Items:       make([]cartItemResponse, 0, len(o.Items)),
		Subtotal:    o.Subtotal.InexactFloat64(),
		Tax:         o.Tax.InexactFloat64(),
		Total:       o.Total.InexactFloat64(),
	}
	for _, li := range o.Items {
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

// Checkout converts the current cart into a recorded order.
func Checkout(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		var info orders.CustomerInfo
		if err := validators.DecodeJSONBody(r, &info); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Checkout(r.Context(), info)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderNumber(ctx, order.OrderNumber)
			logg.Info(ctx, "checkout.completed")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toOrderResponse(*order))
	}
}

// ListOrders returns every recorded order in append order.
func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		recorded, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]orderResponse, 0, len(recorded))
		for _, o := range recorded {
			out = append(out, toOrderResponse(o))
		}
		responses.WriteSuccess(w, out)
	}
}
