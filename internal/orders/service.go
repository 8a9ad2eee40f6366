// Package orders implements the append-only order ledger fed by checkout.
package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oculent/storefront-backend/internal/cart"
	pkgerrors "github.com/oculent/storefront-backend/pkg/errors"
	"github.com/oculent/storefront-backend/pkg/kv"
	"github.com/shopspring/decimal"
)

type cartStore interface {
	Consume(ctx context.Context, fn func(items []cart.LineItem) error) error
}

// Service converts carts into recorded orders.
type Service interface {
	// Checkout snapshots the current cart into a new order, appends it to
	// the ledger, then empties the cart. An empty cart is refused with a
	// validation error and no writes. The cart stays locked from the
	// snapshot through the clear, so a concurrent mutation lands either
	// before the whole checkout or in the emptied cart afterwards. The
	// cart is only cleared after the order is durably recorded.
	Checkout(ctx context.Context, info CustomerInfo) (*Order, error)
	// List returns every recorded order in append order.
	List(ctx context.Context) ([]Order, error)
}

type service struct {
	mu       sync.Mutex
	store    kv.Store
	storeKey string
	cart     cartStore
	taxRate  decimal.Decimal
	now      func() time.Time
}

// NewService wires the order ledger over the provided store and cart.
func NewService(store kv.Store, cartSvc cartStore, storeKey string, taxRate decimal.Decimal) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("kv store required")
	}
	if cartSvc == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if storeKey == "" {
		return nil, fmt.Errorf("store key required")
	}
	if taxRate.IsNegative() {
		return nil, fmt.Errorf("tax rate must be non-negative")
	}
	return &service{
		store:    store,
		storeKey: storeKey,
		cart:     cartSvc,
		taxRate:  taxRate,
		now:      time.Now,
	}, nil
}

func (s *service) Checkout(ctx context.Context, info CustomerInfo) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var order Order
	recorded := false

	// Consume holds the cart lock around the snapshot, the ledger write,
	// and the clear, so no add can slip in between and be destroyed.
	err := s.cart.Consume(ctx, func(items []cart.LineItem) error {
		if len(items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		subtotal := cart.Subtotal(items)
		tax := subtotal.Mul(s.taxRate).Round(2)

		existing, err := s.load(ctx)
		if err != nil {
			return err
		}

		order = Order{
			OrderNumber: s.uniqueOrderNumber(existing),
			CreatedAt:   s.now().UTC(),
			Customer:    info,
			Items:       items,
			Subtotal:    subtotal,
			Tax:         tax,
			Total:       subtotal.Add(tax),
		}

		appended := append(existing, order)
		data, err := json.Marshal(appended)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode orders")
		}
		if err := s.store.Set(ctx, s.storeKey, data); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "persist order")
		}
		recorded = true
		return nil
	})
	if err != nil {
		// A failed clear after the ledger write leaves the order durable
		// and the cart populated, which checkout must surface rather than
		// report success.
		if recorded {
			return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "order recorded but clearing cart failed")
		}
		return nil, err
	}
	return &order, nil
}

func (s *service) List(ctx context.Context) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *service) load(ctx context.Context) ([]Order, error) {
	data, found, err := s.store.Get(ctx, s.storeKey)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load orders")
	}
	if !found {
		return nil, nil
	}
	return decodeOrders(data), nil
}

// uniqueOrderNumber combines a millisecond timestamp with UUID-derived
// entropy, retrying against the existing ledger so a number is never
// reused.
func (s *service) uniqueOrderNumber(existing []Order) string {
	used := make(map[string]struct{}, len(existing))
	for _, o := range existing {
		used[o.OrderNumber] = struct{}{}
	}
	for {
		candidate := newOrderNumber(s.now())
		if _, taken := used[candidate]; !taken {
			return candidate
		}
	}
}

func newOrderNumber(now time.Time) string {
	entropy := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("OC%d%s", now.UnixMilli(), strings.ToUpper(entropy))
}
