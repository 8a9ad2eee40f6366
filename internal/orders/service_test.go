package orders

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/oculent/storefront-backend/internal/cart"
	"github.com/oculent/storefront-backend/internal/catalog"
	pkgerrors "github.com/oculent/storefront-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

type stubStore struct {
	values map[string][]byte
	setErr error
	calls  *[]string
}

func newStubStore(calls *[]string) *stubStore {
	return &stubStore{values: map[string][]byte{}, calls: calls}
}

func (s *stubStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, ok := s.values[key]
	return value, ok, nil
}

func (s *stubStore) Set(_ context.Context, key string, value []byte) error {
	if s.setErr != nil {
		return s.setErr
	}
	if s.calls != nil {
		*s.calls = append(*s.calls, "store.set")
	}
	s.values[key] = value
	return nil
}

func (s *stubStore) Delete(_ context.Context, key string) error {
	delete(s.values, key)
	return nil
}

func (s *stubStore) Close() error { return nil }

type stubCart struct {
	items    []cart.LineItem
	clearErr error
	cleared  bool
	calls    *[]string
}

func (c *stubCart) Consume(_ context.Context, fn func([]cart.LineItem) error) error {
	snapshot := make([]cart.LineItem, len(c.items))
	copy(snapshot, c.items)
	if err := fn(snapshot); err != nil {
		return err
	}
	if c.clearErr != nil {
		return c.clearErr
	}
	if c.calls != nil {
		*c.calls = append(*c.calls, "cart.clear")
	}
	c.cleared = true
	c.items = nil
	return nil
}

func lineItem(productID, color string, price string, qty int) cart.LineItem {
	return cart.LineItem{
		ProductID: productID,
		Name:      productID,
		Color:     color,
		UnitPrice: decimal.RequireFromString(price),
		Quantity:  qty,
	}
}

func customer() CustomerInfo {
	return CustomerInfo{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        "ada@example.com",
		Address:      "1 Analytical Way",
		City:         "London",
		State:        "LN",
		Zip:          "00001",
		PaymentToken: "tok_visa",
	}
}

func newTestService(t *testing.T, store *stubStore, cartSvc *stubCart) Service {
	t.Helper()
	svc, err := NewService(store, cartSvc, "oculentOrders", decimal.RequireFromString("0.08"))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestCheckoutEmptyCartRefused(t *testing.T) {
	ctx := context.Background()
	store := newStubStore(nil)
	svc := newTestService(t, store, &stubCart{})

	order, err := svc.Checkout(ctx, customer())
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if order != nil {
		t.Fatalf("no order expected, got %+v", order)
	}
	if len(store.values) != 0 {
		t.Fatalf("empty-cart checkout must not write storage")
	}
}

func TestCheckoutComputesTaxAndTotal(t *testing.T) {
	ctx := context.Background()
	store := newStubStore(nil)
	cartSvc := &stubCart{items: []cart.LineItem{lineItem("premium-ppf", "blue", "100.00", 1)}}
	svc := newTestService(t, store, cartSvc)

	order, err := svc.Checkout(ctx, customer())
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	if !order.Subtotal.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("unexpected subtotal %s", order.Subtotal)
	}
	if !order.Tax.Equal(decimal.RequireFromString("8.00")) {
		t.Fatalf("unexpected tax %s", order.Tax)
	}
	if !order.Total.Equal(decimal.RequireFromString("108.00")) {
		t.Fatalf("unexpected total %s", order.Total)
	}
	if order.OrderNumber == "" || !strings.HasPrefix(order.OrderNumber, "OC") {
		t.Fatalf("unexpected order number %q", order.OrderNumber)
	}
	if !cartSvc.cleared {
		t.Fatalf("expected cart to be cleared after checkout")
	}
}

func TestCheckoutRoundsTaxToCurrency(t *testing.T) {
	ctx := context.Background()
	cartSvc := &stubCart{items: []cart.LineItem{lineItem("premium-ppf", "blue", "899.99", 1)}}
	svc := newTestService(t, newStubStore(nil), cartSvc)

	order, err := svc.Checkout(ctx, customer())
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	// 899.99 * 0.08 = 71.9992
	if !order.Tax.Equal(decimal.RequireFromString("72.00")) {
		t.Fatalf("unexpected tax %s", order.Tax)
	}
	if !order.Total.Equal(decimal.RequireFromString("971.99")) {
		t.Fatalf("unexpected total %s", order.Total)
	}
}

func TestCheckoutAppendsToLedgerInOrder(t *testing.T) {
	ctx := context.Background()
	store := newStubStore(nil)
	cartSvc := &stubCart{items: []cart.LineItem{lineItem("premium-ppf", "blue", "899.99", 1)}}
	svc := newTestService(t, store, cartSvc)

	first, err := svc.Checkout(ctx, customer())
	if err != nil {
		t.Fatalf("first checkout: %v", err)
	}

	cartSvc.items = []cart.LineItem{lineItem("matte-ppf", "red", "849.99", 2)}
	second, err := svc.Checkout(ctx, customer())
	if err != nil {
		t.Fatalf("second checkout: %v", err)
	}

	if first.OrderNumber == second.OrderNumber {
		t.Fatalf("order numbers must be unique, both %q", first.OrderNumber)
	}

	recorded, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recorded) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(recorded))
	}
	if recorded[0].OrderNumber != first.OrderNumber || recorded[1].OrderNumber != second.OrderNumber {
		t.Fatalf("ledger out of append order")
	}
}

func TestRecordedOrderImmuneToLaterCartMutation(t *testing.T) {
	ctx := context.Background()
	store := newStubStore(nil)
	cartSvc := &stubCart{items: []cart.LineItem{lineItem("premium-ppf", "blue", "899.99", 1)}}
	svc := newTestService(t, store, cartSvc)

	order, err := svc.Checkout(ctx, customer())
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	// Mutate the snapshot the caller holds and refill the cart.
	order.Items[0].Quantity = 99
	cartSvc.items = []cart.LineItem{lineItem("color-ppf", "yellow", "949.99", 5)}

	recorded, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := recorded[0].Items[0].Quantity; got != 1 {
		t.Fatalf("recorded order mutated, quantity now %d", got)
	}
	if !recorded[0].Subtotal.Equal(decimal.RequireFromString("899.99")) {
		t.Fatalf("recorded subtotal changed to %s", recorded[0].Subtotal)
	}
}

func TestOrderWrittenBeforeCartCleared(t *testing.T) {
	ctx := context.Background()
	var calls []string
	store := newStubStore(&calls)
	cartSvc := &stubCart{
		items: []cart.LineItem{lineItem("premium-ppf", "blue", "899.99", 1)},
		calls: &calls,
	}
	svc := newTestService(t, store, cartSvc)

	if _, err := svc.Checkout(ctx, customer()); err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if len(calls) != 2 || calls[0] != "store.set" || calls[1] != "cart.clear" {
		t.Fatalf("expected order write before cart clear, got %v", calls)
	}
}

func TestLedgerWriteFailureKeepsCart(t *testing.T) {
	ctx := context.Background()
	store := newStubStore(nil)
	store.setErr = errors.New("quota exceeded")
	cartSvc := &stubCart{items: []cart.LineItem{lineItem("premium-ppf", "blue", "899.99", 1)}}
	svc := newTestService(t, store, cartSvc)

	if _, err := svc.Checkout(ctx, customer()); !pkgerrors.IsCode(err, pkgerrors.CodeStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if cartSvc.cleared {
		t.Fatalf("cart must not be cleared when the order was not recorded")
	}
	if len(store.values) != 0 {
		t.Fatalf("no partial order may be stored")
	}
}

func TestClearFailureAfterDurableWriteSurfacesError(t *testing.T) {
	ctx := context.Background()
	store := newStubStore(nil)
	cartSvc := &stubCart{
		items:    []cart.LineItem{lineItem("premium-ppf", "blue", "899.99", 1)},
		clearErr: errors.New("storage disabled"),
	}
	svc := newTestService(t, store, cartSvc)

	if _, err := svc.Checkout(ctx, customer()); !pkgerrors.IsCode(err, pkgerrors.CodeStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}

	recorded, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recorded) != 1 {
		t.Fatalf("order must remain durably recorded, got %d", len(recorded))
	}
}

func TestListCorruptLedgerYieldsEmpty(t *testing.T) {
	ctx := context.Background()
	store := newStubStore(nil)
	store.values["oculentOrders"] = []byte(`{not json`)
	svc := newTestService(t, store, &stubCart{})

	recorded, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recorded) != 0 {
		t.Fatalf("expected empty ledger from corrupt data, got %d", len(recorded))
	}
}

// gatedStore blocks the first write to gateKey until release is closed,
// holding checkout open mid-ledger-write.
type gatedStore struct {
	mu      sync.Mutex
	values  map[string][]byte
	gateKey string
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedStore(gateKey string) *gatedStore {
	return &gatedStore{
		values:  map[string][]byte{},
		gateKey: gateKey,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gatedStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	value, ok := g.values[key]
	return value, ok, nil
}

func (g *gatedStore) Set(_ context.Context, key string, value []byte) error {
	if key == g.gateKey {
		g.once.Do(func() { close(g.entered) })
		<-g.release
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	g.values[key] = stored
	return nil
}

func (g *gatedStore) Delete(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.values, key)
	return nil
}

func (g *gatedStore) Close() error { return nil }

func TestAddDuringCheckoutIsNotLost(t *testing.T) {
	ctx := context.Background()
	store := newGatedStore("oculentOrders")
	cartSvc, err := cart.NewService(ctx, store, catalog.New(), "oculentCart")
	if err != nil {
		t.Fatalf("cart.NewService: %v", err)
	}
	if _, err := cartSvc.AddItem(ctx, "premium-ppf", "blue"); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	svc, err := NewService(store, cartSvc, "oculentOrders", decimal.RequireFromString("0.08"))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	checkoutErr := make(chan error, 1)
	go func() {
		_, err := svc.Checkout(ctx, customer())
		checkoutErr <- err
	}()
	<-store.entered

	type addResult struct {
		added bool
		err   error
	}
	addDone := make(chan addResult, 1)
	go func() {
		added, err := cartSvc.AddItem(ctx, "matte-ppf", "red")
		addDone <- addResult{added: added, err: err}
	}()

	// Checkout holds the cart while the ledger write is in flight, so the
	// add must wait rather than slip into the doomed snapshot.
	select {
	case <-addDone:
		t.Fatalf("add completed while checkout held the cart")
	case <-time.After(50 * time.Millisecond):
	}

	close(store.release)
	if err := <-checkoutErr; err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	result := <-addDone
	if result.err != nil || !result.added {
		t.Fatalf("add after checkout failed: added=%v err=%v", result.added, result.err)
	}

	items := cartSvc.Items()
	if len(items) != 1 || items[0].ProductID != "matte-ppf" {
		t.Fatalf("late add must survive checkout, cart %+v", items)
	}
	recorded, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recorded) != 1 || len(recorded[0].Items) != 1 || recorded[0].Items[0].ProductID != "premium-ppf" {
		t.Fatalf("order must bill only the snapshot, got %+v", recorded[0].Items)
	}
}

func TestPersistedOrderWireShape(t *testing.T) {
	ctx := context.Background()
	store := newStubStore(nil)
	cartSvc := &stubCart{items: []cart.LineItem{lineItem("premium-ppf", "blue", "899.99", 2)}}
	svc := newTestService(t, store, cartSvc)

	if _, err := svc.Checkout(ctx, customer()); err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	var raw []map[string]any
	if err := json.Unmarshal(store.values["oculentOrders"], &raw); err != nil {
		t.Fatalf("persisted ledger is not a JSON array: %v", err)
	}
	entry := raw[0]

	if _, ok := entry["subtotal"].(float64); !ok {
		t.Fatalf("subtotal must be a JSON number, got %T", entry["subtotal"])
	}
	if _, ok := entry["tax"].(float64); !ok {
		t.Fatalf("tax must be a JSON number, got %T", entry["tax"])
	}
	if _, ok := entry["total"].(float64); !ok {
		t.Fatalf("total must be a JSON number, got %T", entry["total"])
	}
	createdAt, _ := entry["createdAt"].(string)
	if _, err := time.Parse(time.RFC3339Nano, createdAt); err != nil {
		t.Fatalf("createdAt is not ISO-8601: %v", err)
	}
	items, _ := entry["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected 1 persisted item, got %d", len(items))
	}
	item := items[0].(map[string]any)
	if _, ok := item["unitPrice"].(float64); !ok {
		t.Fatalf("item unitPrice must be a JSON number, got %T", item["unitPrice"])
	}
	if item["productId"] != "premium-ppf" {
		t.Fatalf("unexpected productId %v", item["productId"])
	}
}
