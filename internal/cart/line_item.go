package cart

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// LineItem is one cart row for a product/color combination. Name and
// UnitPrice are denormalized from the catalog at add time so later catalog
// changes never move an existing cart's totals.
type LineItem struct {
	ProductID string
	Name      string
	Color     string
	UnitPrice decimal.Decimal
	Quantity  int
}

// storedLineItem is the persisted wire shape: money as a plain JSON number.
type storedLineItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Color     string  `json:"color"`
	Quantity  int     `json:"quantity"`
}

func (li LineItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(storedLineItem{
		ProductID: li.ProductID,
		Name:      li.Name,
		UnitPrice: li.UnitPrice.InexactFloat64(),
		Color:     li.Color,
		Quantity:  li.Quantity,
	})
}

func (li *LineItem) UnmarshalJSON(data []byte) error {
	var stored storedLineItem
	if err := json.Unmarshal(data, &stored); err != nil {
		return err
	}
	li.ProductID = stored.ProductID
	li.Name = stored.Name
	li.UnitPrice = decimal.NewFromFloat(stored.UnitPrice)
	li.Color = stored.Color
	li.Quantity = stored.Quantity
	return nil
}

// valid reports whether a decoded line satisfies the cart invariants.
// Entries failing this check are dropped at load time instead of trusted.
func (li LineItem) valid() bool {
	if li.ProductID == "" || li.Color == "" {
		return false
	}
	if li.Quantity < 1 {
		return false
	}
	if li.UnitPrice.IsNegative() {
		return false
	}
	return true
}

// lineTotal returns unit price times quantity.
func (li LineItem) lineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// DecodeItems parses a persisted line-item array, dropping malformed
// entries. Data that does not parse as an array at all yields an empty
// slice; persisted corruption is recovered from, never fatal.
func DecodeItems(data []byte) []LineItem {
	if len(data) == 0 {
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	items := make([]LineItem, 0, len(raw))
	for _, entry := range raw {
		var li LineItem
		if err := json.Unmarshal(entry, &li); err != nil {
			continue
		}
		if !li.valid() {
			continue
		}
		items = append(items, li)
	}
	return items
}

// EncodeItems renders line items in the persisted wire shape.
func EncodeItems(items []LineItem) ([]byte, error) {
	if items == nil {
		items = []LineItem{}
	}
	return json.Marshal(items)
}
