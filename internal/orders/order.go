package orders

import (
	"encoding/json"
	"time"

	"github.com/oculent/storefront-backend/internal/cart"
	"github.com/shopspring/decimal"
)

// CustomerInfo is the checkout form snapshot recorded on an order. The
// payment token is opaque here; charging it is someone else's problem.
type CustomerInfo struct {
	FirstName    string `json:"firstName" validate:"required"`
	LastName     string `json:"lastName" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone"`
	Address      string `json:"address" validate:"required"`
	Address2     string `json:"address2"`
	City         string `json:"city" validate:"required"`
	State        string `json:"state" validate:"required"`
	Zip          string `json:"zip" validate:"required"`
	PaymentToken string `json:"paymentToken" validate:"required"`
}

// Order is an immutable checkout record. Items and totals are frozen at
// creation; later cart or tax-rate changes never touch a recorded order.
type Order struct {
	OrderNumber string
	CreatedAt   time.Time
	Customer    CustomerInfo
	Items       []cart.LineItem
	Subtotal    decimal.Decimal
	Tax         decimal.Decimal
	Total       decimal.Decimal
}

// storedOrder is the persisted wire shape: money as JSON numbers,
// createdAt as an ISO-8601 string.
type storedOrder struct {
	OrderNumber string          `json:"orderNumber"`
	CreatedAt   string          `json:"createdAt"`
	Customer    CustomerInfo    `json:"customer"`
	Items       []cart.LineItem `json:"items"`
	Subtotal    float64         `json:"subtotal"`
	Tax         float64         `json:"tax"`
	Total       float64         `json:"total"`
}

func (o Order) MarshalJSON() ([]byte, error) {
	return json.Marshal(storedOrder{
		OrderNumber: o.OrderNumber,
		CreatedAt:   o.CreatedAt.UTC().Format(time.RFC3339Nano),
		Customer:    o.Customer,
		Items:       o.Items,
		Subtotal:    o.Subtotal.InexactFloat64(),
		Tax:         o.Tax.InexactFloat64(),
		Total:       o.Total.InexactFloat64(),
	})
}

func (o *Order) UnmarshalJSON(data []byte) error {
	var stored storedOrder
	if err := json.Unmarshal(data, &stored); err != nil {
		return err
	}
	createdAt, err := time.Parse(time.RFC3339Nano, stored.CreatedAt)
	if err != nil {
		return err
	}
	o.OrderNumber = stored.OrderNumber
	o.CreatedAt = createdAt
	o.Customer = stored.Customer
	o.Items = stored.Items
	o.Subtotal = decimal.NewFromFloat(stored.Subtotal)
	o.Tax = decimal.NewFromFloat(stored.Tax)
	o.Total = decimal.NewFromFloat(stored.Total)
	return nil
}

func decodeOrders(data []byte) []Order {
	if len(data) == 0 {
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	orders := make([]Order, 0, len(raw))
	for _, entry := range raw {
		var o Order
		if err := json.Unmarshal(entry, &o); err != nil {
			continue
		}
		if o.OrderNumber == "" {
			continue
		}
		orders = append(orders, o)
	}
	return orders
}
