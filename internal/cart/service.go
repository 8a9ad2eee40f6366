// Package cart implements the durable shopping cart. Every mutation is
// write-through: the in-memory view is only updated after the backing
// store has accepted the new state, so a reload never observes a cart
// that diverges from storage.
package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/oculent/storefront-backend/internal/catalog"
	pkgerrors "github.com/oculent/storefront-backend/pkg/errors"
	"github.com/oculent/storefront-backend/pkg/kv"
	"github.com/shopspring/decimal"
)

// Event notifies subscribers about a completed cart mutation. Message is
// display text for the UI toast; ItemCount feeds the cart badge.
type Event struct {
	Message   string
	ItemCount int
}

type catalogLookup interface {
	Lookup(id string) (catalog.Product, bool)
}

// Service exposes the cart commands invoked by the adapter layer.
type Service interface {
	// AddItem puts one unit of the product/color pair in the cart,
	// incrementing the existing line when the pair is already present.
	// It reports false, without error or side effect, when the catalog
	// does not know the product or the product lacks the color.
	AddItem(ctx context.Context, productID, color string) (bool, error)
	// UpdateQuantity sets the quantity of the line at index. A quantity
	// of zero or less removes the line.
	UpdateQuantity(ctx context.Context, index, quantity int) error
	// RemoveItem deletes the line at index, keeping the order of the rest.
	RemoveItem(ctx context.Context, index int) error
	// Clear empties the cart.
	Clear(ctx context.Context) error
	// Consume passes a snapshot of the cart to fn while holding the cart
	// lock and, when fn returns nil, empties the cart before releasing it.
	// A concurrent mutation lands either before the snapshot or after the
	// cart is emptied, never in between. fn must not call back into the
	// service.
	Consume(ctx context.Context, fn func(items []LineItem) error) error
	Items() []LineItem
	Subtotal() decimal.Decimal
	ItemCount() int
	// Subscribe registers a listener invoked after every successful
	// mutation. Listeners must not call back into the service.
	Subscribe(fn func(Event))
}

type service struct {
	mu        sync.Mutex
	store     kv.Store
	storeKey  string
	catalog   catalogLookup
	items     []LineItem
	listeners []func(Event)
}

// NewService loads the persisted cart and returns a service over it.
// Absent or corrupt stored data yields an empty cart.
func NewService(ctx context.Context, store kv.Store, cat catalogLookup, storeKey string) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("kv store required")
	}
	if cat == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if storeKey == "" {
		return nil, fmt.Errorf("store key required")
	}

	s := &service{store: store, storeKey: storeKey, catalog: cat}

	data, found, err := store.Get(ctx, storeKey)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load cart")
	}
	if found {
		s.items = DecodeItems(data)
	}
	return s, nil
}

func (s *service) AddItem(ctx context.Context, productID, color string) (bool, error) {
	product, ok := s.catalog.Lookup(productID)
	if !ok {
		return false, nil
	}
	if !product.HasColor(color) {
		return false, nil
	}

	s.mu.Lock()
	next := s.copyItems()
	merged := false
	for i := range next {
		if next[i].ProductID == productID && next[i].Color == color {
			next[i].Quantity++
			merged = true
			break
		}
	}
	if !merged {
		next = append(next, LineItem{
			ProductID: productID,
			Name:      product.Name,
			Color:     color,
			UnitPrice: product.UnitPrice,
			Quantity:  1,
		})
	}

	event, err := s.commit(ctx, next, fmt.Sprintf("%s (%s) added to cart!", product.Name, color))
	s.mu.Unlock()
	if err != nil {
		return false, err
	}
	s.notify(event)
	return true, nil
}

func (s *service) UpdateQuantity(ctx context.Context, index, quantity int) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.items) {
		s.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeValidation, "line item index out of range")
	}
	if quantity <= 0 {
		event, err := s.removeLocked(ctx, index)
		s.mu.Unlock()
		if err != nil {
			return err
		}
		s.notify(event)
		return nil
	}

	next := s.copyItems()
	next[index].Quantity = quantity
	event, err := s.commit(ctx, next, "Cart updated")
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify(event)
	return nil
}

func (s *service) RemoveItem(ctx context.Context, index int) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.items) {
		s.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeValidation, "line item index out of range")
	}
	event, err := s.removeLocked(ctx, index)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify(event)
	return nil
}

func (s *service) removeLocked(ctx context.Context, index int) (Event, error) {
	removed := s.items[index]
	next := make([]LineItem, 0, len(s.items)-1)
	next = append(next, s.items[:index]...)
	next = append(next, s.items[index+1:]...)
	return s.commit(ctx, next, fmt.Sprintf("%s removed from cart", removed.Name))
}

func (s *service) Clear(ctx context.Context) error {
	s.mu.Lock()
	event, err := s.commit(ctx, nil, "Cart cleared")
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify(event)
	return nil
}

func (s *service) Consume(ctx context.Context, fn func(items []LineItem) error) error {
	if fn == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "nil consume func")
	}
	s.mu.Lock()
	if err := fn(s.copyItems()); err != nil {
		s.mu.Unlock()
		return err
	}
	event, err := s.commit(ctx, nil, "Cart cleared")
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify(event)
	return nil
}

// commit persists the candidate state and swaps it in. The caller holds
// the mutex. On a failed write the in-memory cart keeps its prior state.
func (s *service) commit(ctx context.Context, next []LineItem, message string) (Event, error) {
	data, err := EncodeItems(next)
	if err != nil {
		return Event{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
	}
	if err := s.store.Set(ctx, s.storeKey, data); err != nil {
		return Event{}, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "persist cart")
	}
	s.items = next
	return Event{Message: message, ItemCount: countItems(next)}, nil
}

func (s *service) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyItems()
}

func (s *service) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Subtotal(s.items)
}

func (s *service) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return countItems(s.items)
}

func (s *service) Subscribe(fn func(Event)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *service) notify(event Event) {
	s.mu.Lock()
	listeners := make([]func(Event), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(event)
	}
}

func (s *service) copyItems() []LineItem {
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// Subtotal sums unit price times quantity over the given lines.
func Subtotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, li := range items {
		total = total.Add(li.lineTotal())
	}
	return total
}

func countItems(items []LineItem) int {
	count := 0
	for _, li := range items {
		count += li.Quantity
	}
	return count
}
