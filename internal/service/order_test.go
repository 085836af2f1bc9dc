package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bobabar/api/internal/database"
	"github.com/bobabar/api/internal/enum"
	"github.com/bobabar/api/internal/notify"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// --- Mock implementations ---

// mockTx implements pgx.Tx with only the methods we need.
// The unused methods panic so we catch accidental calls.
type mockTx struct {
	commitErr  error
	committed  bool
	rolledBack bool
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *mockTx) Commit(ctx context.Context) error {
	if m.commitErr != nil {
		return m.commitErr
	}
	m.committed = true
	return nil
}
func (m *mockTx) Rollback(ctx context.Context) error {
	if m.committed {
		return pgx.ErrTxClosed
	}
	m.rolledBack = true
	return nil
}
func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *mockTx) Conn() *pgx.Conn { panic("not implemented") }

// mockTxBeginner implements TxBeginner.
type mockTxBeginner struct {
	tx     pgx.Tx
	err    error
	begins int
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	m.begins++
	return m.tx, m.err
}

// mockOrderStore implements OrderStore with configurable behavior.
type mockOrderStore struct {
	createOrderFn           func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	setOrderNumberFn        func(ctx context.Context, arg database.SetOrderNumberParams) (database.Order, error)
	createOrderItemFn       func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	createOrderItemOptionFn func(ctx context.Context, arg database.CreateOrderItemOptionParams) (database.OrderItemOption, error)

	orders      []database.CreateOrderParams
	items       []database.CreateOrderItemParams
	itemOptions []database.CreateOrderItemOptionParams
}

func (m *mockOrderStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	m.orders = append(m.orders, arg)
	return m.createOrderFn(ctx, arg)
}
func (m *mockOrderStore) SetOrderNumber(ctx context.Context, arg database.SetOrderNumberParams) (database.Order, error) {
	return m.setOrderNumberFn(ctx, arg)
}
func (m *mockOrderStore) CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
	m.items = append(m.items, arg)
	return m.createOrderItemFn(ctx, arg)
}
func (m *mockOrderStore) CreateOrderItemOption(ctx context.Context, arg database.CreateOrderItemOptionParams) (database.OrderItemOption, error) {
	m.itemOptions = append(m.itemOptions, arg)
	return m.createOrderItemOptionFn(ctx, arg)
}

// mockReader implements OrderReader.
type mockReader struct {
	listOrderCatalogFn            func(ctx context.Context, ids []int64) ([]database.ListOrderCatalogRow, error)
	getOrderByNumberFn            func(ctx context.Context, orderNumber string) (database.Order, error)
	getOrderByIDFn                func(ctx context.Context, id int64) (database.Order, error)
	listOrderItemsByOrderFn       func(ctx context.Context, orderID int64) ([]database.OrderItem, error)
	listOrderItemOptionsByOrderFn func(ctx context.Context, orderID int64) ([]database.OrderItemOption, error)

	catalogLoads int
}

func (m *mockReader) ListOrderCatalog(ctx context.Context, ids []int64) ([]database.ListOrderCatalogRow, error) {
	m.catalogLoads++
	return m.listOrderCatalogFn(ctx, ids)
}
func (m *mockReader) GetOrderByNumber(ctx context.Context, orderNumber string) (database.Order, error) {
	return m.getOrderByNumberFn(ctx, orderNumber)
}
func (m *mockReader) GetOrderByID(ctx context.Context, id int64) (database.Order, error) {
	return m.getOrderByIDFn(ctx, id)
}
func (m *mockReader) ListOrderItemsByOrder(ctx context.Context, orderID int64) ([]database.OrderItem, error) {
	return m.listOrderItemsByOrderFn(ctx, orderID)
}
func (m *mockReader) ListOrderItemOptionsByOrder(ctx context.Context, orderID int64) ([]database.OrderItemOption, error) {
	return m.listOrderItemOptionsByOrderFn(ctx, orderID)
}

// --- Test helpers ---

var fixedNow = time.Date(2026, 5, 17, 10, 0, 0, 0, time.UTC)

func makeNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}

func numericEquals(n pgtype.Numeric, expected string) bool {
	d := database.ToDecimal(n)
	exp, _ := decimal.NewFromString(expected)
	return d.Equal(exp)
}

func catalogRow(itemID int64, itemName, base string, groupID int64, groupName, sel string, required bool, optID int64, label, delta string) database.ListOrderCatalogRow {
	row := database.ListOrderCatalogRow{
		MenuItemID:   itemID,
		MenuItemName: itemName,
		BasePrice:    makeNumeric(base),
	}
	if groupID != 0 {
		row.GroupID = pgtype.Int8{Int64: groupID, Valid: true}
		row.GroupName = pgtype.Text{String: groupName, Valid: true}
		row.SelectionType = pgtype.Text{String: sel, Valid: true}
		row.IsRequired = pgtype.Bool{Bool: required, Valid: true}
	}
	if optID != 0 {
		row.OptionID = pgtype.Int8{Int64: optID, Valid: true}
		row.OptionLabel = pgtype.Text{String: label, Valid: true}
		row.PriceDelta = makeNumeric(delta)
	}
	return row
}

// fixtureCatalog:
//
//	1 Classic Milk Tea 100.00: Size (single, required) Small +0 / Large +30,
//	                           Toppings (multi) Pearls +15.50 / Pudding +20.25
//	2 Mango Slush 120.00:      Sugar (single, required) 50% / 100%
//	3 Hot Water 0.00:          no groups
func fixtureCatalog() []database.ListOrderCatalogRow {
	return []database.ListOrderCatalogRow{
		catalogRow(1, "Classic Milk Tea", "100.00", 10, "Size", "single", true, 101, "Small", "0.00"),
		catalogRow(1, "Classic Milk Tea", "100.00", 10, "Size", "single", true, 102, "Large", "30.00"),
		catalogRow(1, "Classic Milk Tea", "100.00", 20, "Toppings", "multi", false, 201, "Pearls", "15.50"),
		catalogRow(1, "Classic Milk Tea", "100.00", 20, "Toppings", "multi", false, 202, "Pudding", "20.25"),
		catalogRow(2, "Mango Slush", "120.00", 30, "Sugar", "single", true, 301, "50%", "0.00"),
		catalogRow(2, "Mango Slush", "120.00", 30, "Sugar", "single", true, 302, "100%", "0.00"),
		catalogRow(3, "Hot Water", "0.00", 0, "", "", false, 0, "", ""),
	}
}

func defaultReader() *mockReader {
	return &mockReader{
		listOrderCatalogFn: func(ctx context.Context, ids []int64) ([]database.ListOrderCatalogRow, error) {
			want := make(map[int64]bool, len(ids))
			for _, id := range ids {
				want[id] = true
			}
			var rows []database.ListOrderCatalogRow
			for _, r := range fixtureCatalog() {
				if want[r.MenuItemID] {
					rows = append(rows, r)
				}
			}
			return rows, nil
		},
		getOrderByNumberFn: func(ctx context.Context, orderNumber string) (database.Order, error) {
			return database.Order{}, pgx.ErrNoRows
		},
		getOrderByIDFn: func(ctx context.Context, id int64) (database.Order, error) {
			return database.Order{}, pgx.ErrNoRows
		},
		listOrderItemsByOrderFn: func(ctx context.Context, orderID int64) ([]database.OrderItem, error) {
			return nil, nil
		},
		listOrderItemOptionsByOrderFn: func(ctx context.Context, orderID int64) ([]database.OrderItemOption, error) {
			return nil, nil
		},
	}
}

// defaultStore returns a mockOrderStore that echoes its params back as rows.
// Individual tests override the functions they care about.
func defaultStore() *mockOrderStore {
	var header database.Order
	var itemSeq, optSeq int64
	return &mockOrderStore{
		createOrderFn: func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
			header = database.Order{
				ID:                  42,
				OrderNumber:         arg.OrderNumber,
				Status:              arg.Status,
				CustomerName:        arg.CustomerName,
				CustomerPhone:       arg.CustomerPhone,
				FulfillmentType:     arg.FulfillmentType,
				DeliveryAddress:     arg.DeliveryAddress,
				CustomerNote:        arg.CustomerNote,
				Subtotal:            arg.Subtotal,
				PaymentMethod:       arg.PaymentMethod,
				PaymentAmount:       arg.PaymentAmount,
				PaidAt:              arg.PaidAt,
				TransactionID:       arg.TransactionID,
				CbeReference:        arg.CbeReference,
				PaymentProofUrl:     arg.PaymentProofUrl,
				WhatsappMessageText: arg.WhatsappMessageText,
				WhatsappDeeplink:    arg.WhatsappDeeplink,
				CreatedAt:           arg.CreatedAt,
				UpdatedAt:           arg.CreatedAt,
			}
			return header, nil
		},
		setOrderNumberFn: func(ctx context.Context, arg database.SetOrderNumberParams) (database.Order, error) {
			if arg.ID != header.ID || !strings.HasPrefix(header.OrderNumber, "PENDING-") {
				return database.Order{}, pgx.ErrNoRows
			}
			header.OrderNumber = arg.OrderNumber
			return header, nil
		},
		createOrderItemFn: func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
			itemSeq++
			return database.OrderItem{
				ID:                itemSeq,
				OrderID:           arg.OrderID,
				MenuItemID:        arg.MenuItemID,
				ItemNameSnapshot:  arg.ItemNameSnapshot,
				UnitPriceSnapshot: arg.UnitPriceSnapshot,
				Quantity:          arg.Quantity,
				LineTotal:         arg.LineTotal,
			}, nil
		},
		createOrderItemOptionFn: func(ctx context.Context, arg database.CreateOrderItemOptionParams) (database.OrderItemOption, error) {
			optSeq++
			return database.OrderItemOption{
				ID:                       optSeq,
				OrderItemID:              arg.OrderItemID,
				OptionID:                 arg.OptionID,
				OptionGroupNameSnapshot:  arg.OptionGroupNameSnapshot,
				OptionLabelSnapshot:      arg.OptionLabelSnapshot,
				OptionPriceDeltaSnapshot: arg.OptionPriceDeltaSnapshot,
			}, nil
		},
	}
}

type testEnv struct {
	svc       *OrderService
	tx        *mockTx
	pool      *mockTxBeginner
	reader    *mockReader
	store     *mockOrderStore
	published []notify.Event
}

// newTestService creates an OrderService with mocked dependencies.
func newTestService(policy Policy) *testEnv {
	env := &testEnv{
		tx:     &mockTx{},
		reader: defaultReader(),
		store:  defaultStore(),
	}
	env.pool = &mockTxBeginner{tx: env.tx}
	pub := notify.PublisherFunc(func(ctx context.Context, e notify.Event) error {
		env.published = append(env.published, e)
		return nil
	})
	newStore := func(db database.DBTX) OrderStore { return env.store }
	env.svc = NewOrderService(env.pool, env.reader, newStore, policy, pub)
	env.svc.now = func() time.Time { return fixedNow }
	return env
}

func basicReq(lines ...LineRequest) CreateOrderRequest {
	return CreateOrderRequest{
		CustomerName:    "Abebe Kebede",
		CustomerPhone:   "+251911223344",
		FulfillmentType: "pickup",
		Items:           lines,
	}
}

func (env *testEnv) assertNoWrites(t *testing.T) {
	t.Helper()
	if env.pool.begins != 0 {
		t.Errorf("expected no transaction, got %d begins", env.pool.begins)
	}
	if len(env.store.orders)+len(env.store.items)+len(env.store.itemOptions) != 0 {
		t.Errorf("expected no writes, got %d orders, %d items, %d options",
			len(env.store.orders), len(env.store.items), len(env.store.itemOptions))
	}
	if len(env.published) != 0 {
		t.Errorf("expected no events, got %d", len(env.published))
	}
}

// =====================
// Happy path
// =====================

func TestCreateOrder_LargeTimesTwo(t *testing.T) {
	env := newTestService(Policy{OrderNumberPrefix: "BB", WhatsAppNumber: "251900000000"})

	result, err := env.svc.CreateOrder(context.Background(), basicReq(
		LineRequest{MenuItemID: 1, Quantity: 2, SelectedOptionIDs: []int64{102}},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Order.OrderNumber != "BB-2026-000042" {
		t.Errorf("order number: got %q, want %q", result.Order.OrderNumber, "BB-2026-000042")
	}
	if result.Order.Status != enum.OrderStatusNew {
		t.Errorf("status: got %q, want %q", result.Order.Status, enum.OrderStatusNew)
	}
	if !numericEquals(result.Order.Subtotal, "260.00") {
		t.Errorf("subtotal: got %s, want 260.00", database.Money(result.Order.Subtotal))
	}

	if len(result.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(result.Items))
	}
	item := result.Items[0]
	if item.Item.ItemNameSnapshot != "Classic Milk Tea" {
		t.Errorf("name snapshot: got %q", item.Item.ItemNameSnapshot)
	}
	if !numericEquals(item.Item.UnitPriceSnapshot, "130.00") {
		t.Errorf("unit price: got %s, want 130.00", database.Money(item.Item.UnitPriceSnapshot))
	}
	if !numericEquals(item.Item.LineTotal, "260.00") {
		t.Errorf("line total: got %s, want 260.00", database.Money(item.Item.LineTotal))
	}
	if item.Item.OrderID != 42 {
		t.Errorf("item order id: got %d, want 42", item.Item.OrderID)
	}

	if len(item.Options) != 1 {
		t.Fatalf("expected 1 option, got %d", len(item.Options))
	}
	opt := item.Options[0]
	if opt.OptionGroupNameSnapshot != "Size" || opt.OptionLabelSnapshot != "Large" {
		t.Errorf("option snapshot: got %s/%s", opt.OptionGroupNameSnapshot, opt.OptionLabelSnapshot)
	}
	if !numericEquals(opt.OptionPriceDeltaSnapshot, "30.00") {
		t.Errorf("option delta: got %s", database.Money(opt.OptionPriceDeltaSnapshot))
	}

	if !env.tx.committed {
		t.Error("expected transaction to be committed")
	}
	if !strings.Contains(result.Order.WhatsappMessageText, "- 2 x Classic Milk Tea @ 130.00 = 260.00") {
		t.Errorf("whatsapp text missing line: %q", result.Order.WhatsappMessageText)
	}
	if !strings.HasPrefix(result.Order.WhatsappDeeplink, "https://wa.me/251900000000?text=") {
		t.Errorf("deeplink: got %q", result.Order.WhatsappDeeplink)
	}
}

func TestCreateOrder_InsertsPlaceholderThenNumber(t *testing.T) {
	env := newTestService(Policy{OrderNumberPrefix: "BOBA"})

	result, err := env.svc.CreateOrder(context.Background(), basicReq(
		LineRequest{MenuItemID: 3, Quantity: 1},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(env.store.orders) != 1 {
		t.Fatalf("expected 1 header insert, got %d", len(env.store.orders))
	}
	if !strings.HasPrefix(env.store.orders[0].OrderNumber, "PENDING-") {
		t.Errorf("header inserted with %q, want placeholder", env.store.orders[0].OrderNumber)
	}
	if !env.store.orders[0].CreatedAt.Equal(fixedNow) {
		t.Errorf("created at: got %v, want %v", env.store.orders[0].CreatedAt, fixedNow)
	}
	if result.Order.OrderNumber != "BOBA-2026-000042" {
		t.Errorf("order number: got %q", result.Order.OrderNumber)
	}
}

func TestCreateOrder_MultipleLinesAndMultiGroup(t *testing.T) {
	env := newTestService(Policy{})

	result, err := env.svc.CreateOrder(context.Background(), basicReq(
		LineRequest{MenuItemID: 1, Quantity: 3, SelectedOptionIDs: []int64{202, 102, 201}},
		LineRequest{MenuItemID: 2, Quantity: 1, SelectedOptionIDs: []int64{301}},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 100 + 20.25 + 30 + 15.50 = 165.75; x3 = 497.25; + 120 = 617.25
	if !numericEquals(result.Items[0].Item.UnitPriceSnapshot, "165.75") {
		t.Errorf("unit price: got %s", database.Money(result.Items[0].Item.UnitPriceSnapshot))
	}
	if !numericEquals(result.Items[0].Item.LineTotal, "497.25") {
		t.Errorf("line total: got %s", database.Money(result.Items[0].Item.LineTotal))
	}
	if !numericEquals(result.Order.Subtotal, "617.25") {
		t.Errorf("subtotal: got %s", database.Money(result.Order.Subtotal))
	}

	// options keep selection order
	labels := []string{}
	for _, o := range result.Items[0].Options {
		labels = append(labels, o.OptionLabelSnapshot)
	}
	if strings.Join(labels, ",") != "Pudding,Large,Pearls" {
		t.Errorf("option order: got %v", labels)
	}
	if result.Items[1].Item.ItemNameSnapshot != "Mango Slush" {
		t.Errorf("line order: got %q second", result.Items[1].Item.ItemNameSnapshot)
	}
}

func TestCreateOrder_DuplicateOptionCountsOnce(t *testing.T) {
	env := newTestService(Policy{})

	result, err := env.svc.CreateOrder(context.Background(), basicReq(
		LineRequest{MenuItemID: 1, Quantity: 1, SelectedOptionIDs: []int64{102, 102}},
	))
	if err != nil {
		t.Fatalf("duplicate of a single-group option should not fail: %v", err)
	}
	if !numericEquals(result.Order.Subtotal, "130.00") {
		t.Errorf("subtotal: got %s, want 130.00", database.Money(result.Order.Subtotal))
	}
	if len(env.store.itemOptions) != 1 {
		t.Errorf("expected 1 option row, got %d", len(env.store.itemOptions))
	}
}

func TestCreateOrder_SameItemOnTwoLinesLoadsOnce(t *testing.T) {
	env := newTestService(Policy{})
	var gotIDs []int64
	env.reader.listOrderCatalogFn = func(ctx context.Context, ids []int64) ([]database.ListOrderCatalogRow, error) {
		gotIDs = ids
		return fixtureCatalog(), nil
	}

	_, err := env.svc.CreateOrder(context.Background(), basicReq(
		LineRequest{MenuItemID: 1, Quantity: 1, SelectedOptionIDs: []int64{101}},
		LineRequest{MenuItemID: 1, Quantity: 2, SelectedOptionIDs: []int64{102}},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gotIDs) != 1 || gotIDs[0] != 1 {
		t.Errorf("catalog ids: got %v, want [1]", gotIDs)
	}
	if len(env.store.items) != 2 {
		t.Errorf("expected 2 line rows, got %d", len(env.store.items))
	}
}

func TestCreateOrder_PublishesCreatedEvent(t *testing.T) {
	env := newTestService(Policy{})

	result, err := env.svc.CreateOrder(context.Background(), basicReq(
		LineRequest{MenuItemID: 3, Quantity: 1},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(env.published) != 1 {
		t.Fatalf("expected 1 event, got %d", len(env.published))
	}
	ev := env.published[0]
	if ev.Type != enum.EventOrderCreated || ev.OrderNumber != result.Order.OrderNumber {
		t.Errorf("event: got %s %s", ev.Type, ev.OrderNumber)
	}
}

func TestCreateOrder_PublishFailureDoesNotFail(t *testing.T) {
	env := newTestService(Policy{})
	env.svc.publisher = notify.PublisherFunc(func(context.Context, notify.Event) error {
		return errors.New("broker down")
	})

	if _, err := env.svc.CreateOrder(context.Background(), basicReq(
		LineRequest{MenuItemID: 3, Quantity: 1},
	)); err != nil {
		t.Fatalf("publish failure must not fail the order: %v", err)
	}
	if !env.tx.committed {
		t.Error("expected commit")
	}
}

// =====================
// Selection rules
// =====================

func TestCreateOrder_MissingRequiredGroup(t *testing.T) {
	env := newTestService(Policy{})

	_, err := env.svc.CreateOrder(context.Background(), basicReq(
		LineRequest{MenuItemID: 1, Quantity: 1, SelectedOptionIDs: []int64{201}},
	))
	if !errors.Is(err, ErrMissingRequiredGroup) {
		t.Fatalf("expected ErrMissingRequiredGroup, got: %v", err)
	}
	if !strings.Contains(err.Error(), `"Size"`) {
		t.Errorf("error should name the group: %v", err)
	}
	env.assertNoWrites(t)
}

func TestCreateOrder_TooManySelections(t *testing.T) {
	env := newTestService(Policy{})

	_, err := env.svc.CreateOrder(context.Background(), basicReq(
		LineRequest{MenuItemID: 1, Quantity: 1, SelectedOptionIDs: []int64{101, 102}},
	))
	if !errors.Is(err, ErrTooManySelections) {
		t.Fatalf("expected ErrTooManySelections, got: %v", err)
	}
	if !strings.Contains(err.Error(), `"Size"`) {
		t.Errorf("error should name the group: %v", err)
	}
	env.assertNoWrites(t)
}

func TestCreateOrder_OptionFromOtherItem(t *testing.T) {
	env := newTestService(Policy{})

	_, err := env.svc.CreateOrder(context.Background(), basicReq(
		LineRequest{MenuItemID: 2, Quantity: 1, SelectedOptionIDs: []int64{301}},
		LineRequest{MenuItemID: 1, Quantity: 1, SelectedOptionIDs: []int64{101, 301}},
	))
	if !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("expected ErrInvalidOption, got: %v", err)
	}
	if !strings.HasPrefix(err.Error(), "items[1]:") {
		t.Errorf("error should identify the line: %v", err)
	}
	env.assertNoWrites(t)
}

func TestCreateOrder_AmountOverflowIsValidation(t *testing.T) {
	env := newTestService(Policy{})

	_, err := env.svc.CreateOrder(context.Background(), basicReq(
		LineRequest{MenuItemID: 1, Quantity: 2000000000, SelectedOptionIDs: []int64{102}},
	))
	if !errors.Is(err, ErrAmountTooLarge) {
		t.Fatalf("expected ErrAmountTooLarge, got: %v", err)
	}
	if !IsValidationError(err) || ErrorCode(err) != "AMOUNT_TOO_LARGE" {
		t.Errorf("overflow must be a client error, got code %q", ErrorCode(err))
	}
	if !strings.HasPrefix(err.Error(), "items[0]:") {
		t.Errorf("error should identify the line: %v", err)
	}
	env.assertNoWrites(t)
}

func TestCreateOrder_InactiveOrMissingItem(t *testing.T) {
	env := newTestService(Policy{})

	_, err := env.svc.CreateOrder(context.Background(), basicReq(
		LineRequest{MenuItemID: 99, Quantity: 1},
	))
	if !errors.Is(err, ErrInvalidMenuItem) {
		t.Fatalf("expected ErrInvalidMenuItem, got: %v", err)
	}
	env.assertNoWrites(t)
}

// =====================
// Request validation
// =====================

func TestCreateOrder_RequestValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *CreateOrderRequest)
		want   error
	}{
		{"no items", func(r *CreateOrderRequest) { r.Items = nil }, ErrEmptyItems},
		{"zero quantity", func(r *CreateOrderRequest) { r.Items[0].Quantity = 0 }, ErrInvalidQuantity},
		{"bad menu item id", func(r *CreateOrderRequest) { r.Items[0].MenuItemID = 0 }, ErrInvalidMenuItem},
		{"bad option id", func(r *CreateOrderRequest) { r.Items[0].SelectedOptionIDs = []int64{-1} }, ErrInvalidOption},
		{"blank name", func(r *CreateOrderRequest) { r.CustomerName = "   " }, ErrCustomerNameRequired},
		{"short phone", func(r *CreateOrderRequest) { r.CustomerPhone = "12345" }, ErrCustomerPhoneInvalid},
		{"unknown fulfillment", func(r *CreateOrderRequest) { r.FulfillmentType = "drone" }, ErrInvalidFulfillment},
		{"delivery without address", func(r *CreateOrderRequest) {
			r.FulfillmentType = "delivery"
			r.DeliveryAddress = "  "
		}, ErrDeliveryAddressRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestService(Policy{})
			req := basicReq(LineRequest{MenuItemID: 1, Quantity: 1, SelectedOptionIDs: []int64{101}})
			tt.mutate(&req)

			_, err := env.svc.CreateOrder(context.Background(), req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got: %v", tt.want, err)
			}
			if env.reader.catalogLoads != 0 {
				t.Errorf("catalog should not be loaded for a malformed request")
			}
			env.assertNoWrites(t)
		})
	}
}

func TestCreateOrder_DeliveryKeepsAddress(t *testing.T) {
	env := newTestService(Policy{})
	req := basicReq(LineRequest{MenuItemID: 3, Quantity: 1})
	req.FulfillmentType = " Delivery "
	req.DeliveryAddress = " Bole, Addis Ababa "

	result, err := env.svc.CreateOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Order.FulfillmentType != enum.FulfillmentDelivery {
		t.Errorf("fulfillment: got %q", result.Order.FulfillmentType)
	}
	if result.Order.DeliveryAddress.String != "Bole, Addis Ababa" {
		t.Errorf("address: got %q", result.Order.DeliveryAddress.String)
	}
	if !strings.Contains(result.Order.WhatsappMessageText, "Address: Bole, Addis Ababa") {
		t.Errorf("whatsapp text missing address: %q", result.Order.WhatsappMessageText)
	}
}

func TestCreateOrder_PickupDropsAddress(t *testing.T) {
	env := newTestService(Policy{})
	req := basicReq(LineRequest{MenuItemID: 3, Quantity: 1})
	req.DeliveryAddress = "ignored"

	result, err := env.svc.CreateOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Order.DeliveryAddress.Valid {
		t.Errorf("pickup order must not store an address, got %q", result.Order.DeliveryAddress.String)
	}
}

// =====================
// Payment policy
// =====================

func TestCreateOrder_PaymentRequiredButMissing(t *testing.T) {
	env := newTestService(Policy{RequirePaymentClaim: true})

	_, err := env.svc.CreateOrder(context.Background(), basicReq(
		LineRequest{MenuItemID: 3, Quantity: 1},
	))
	if !errors.Is(err, ErrInvalidPaymentClaim) {
		t.Fatalf("expected ErrInvalidPaymentClaim, got: %v", err)
	}
	env.assertNoWrites(t)
}

func TestCreateOrder_PaymentClaimRecorded(t *testing.T) {
	env := newTestService(Policy{RequirePaymentClaim: true})
	req := basicReq(LineRequest{MenuItemID: 1, Quantity: 1, SelectedOptionIDs: []int64{102}})
	req.Payment = PaymentClaim{Method: "telebirr", TransactionID: "TX-99", ProofURL: "https://cdn.example.com/p.jpg"}

	result, err := env.svc.CreateOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	o := result.Order
	if o.Status != enum.OrderStatusPendingVerification {
		t.Errorf("status: got %q, want %q", o.Status, enum.OrderStatusPendingVerification)
	}
	if o.PaymentMethod.String != enum.PaymentMethodTelebirr {
		t.Errorf("payment method: got %q", o.PaymentMethod.String)
	}
	if !numericEquals(o.PaymentAmount, "130.00") {
		t.Errorf("payment amount: got %s", database.Money(o.PaymentAmount))
	}
	if !o.PaidAt.Valid || !o.PaidAt.Time.Equal(fixedNow) {
		t.Errorf("paid at: got %+v", o.PaidAt)
	}
	if o.TransactionID.String != "TX-99" || o.PaymentProofUrl.String != "https://cdn.example.com/p.jpg" {
		t.Errorf("payment refs: got %q %q", o.TransactionID.String, o.PaymentProofUrl.String)
	}
}

func TestCreateOrder_OptionalPaymentStaysNew(t *testing.T) {
	env := newTestService(Policy{})

	result, err := env.svc.CreateOrder(context.Background(), basicReq(
		LineRequest{MenuItemID: 3, Quantity: 1},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Order.Status != enum.OrderStatusNew {
		t.Errorf("status: got %q", result.Order.Status)
	}
	if result.Order.PaymentMethod.Valid || result.Order.PaidAt.Valid {
		t.Error("no claim should leave payment fields empty")
	}
}

func TestCreateOrder_InvalidPaymentClaims(t *testing.T) {
	tests := []struct {
		name  string
		claim PaymentClaim
	}{
		{"unknown method", PaymentClaim{Method: "PAYPAL"}},
		{"cbe without reference", PaymentClaim{Method: "CBE"}},
		{"details without method", PaymentClaim{TransactionID: "TX-1"}},
		{"proof not a url", PaymentClaim{Method: "E_BIRR", ProofURL: "not a url"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestService(Policy{})
			req := basicReq(LineRequest{MenuItemID: 3, Quantity: 1})
			req.Payment = tt.claim

			_, err := env.svc.CreateOrder(context.Background(), req)
			if !errors.Is(err, ErrInvalidPaymentClaim) {
				t.Fatalf("expected ErrInvalidPaymentClaim, got: %v", err)
			}
			env.assertNoWrites(t)
		})
	}
}

func TestCreateOrder_CBEWithReference(t *testing.T) {
	env := newTestService(Policy{})
	req := basicReq(LineRequest{MenuItemID: 3, Quantity: 1})
	req.Payment = PaymentClaim{Method: "CBE", CbeReference: "FT2612345"}

	result, err := env.svc.CreateOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Order.CbeReference.String != "FT2612345" {
		t.Errorf("cbe reference: got %q", result.Order.CbeReference.String)
	}
}

// =====================
// Storage failures
// =====================

func TestCreateOrder_ItemInsertFailureRollsBack(t *testing.T) {
	env := newTestService(Policy{})
	env.store.createOrderItemFn = func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
		return database.OrderItem{}, &pgconn.PgError{Code: "23514", ConstraintName: "order_items_quantity_check"}
	}

	_, err := env.svc.CreateOrder(context.Background(), basicReq(
		LineRequest{MenuItemID: 1, Quantity: 1, SelectedOptionIDs: []int64{101}},
	))
	if !errors.Is(err, ErrStorageFailure) {
		t.Fatalf("expected ErrStorageFailure, got: %v", err)
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		t.Errorf("cause should be preserved: %v", err)
	}
	if IsValidationError(err) {
		t.Error("storage failure must not be a validation error")
	}
	if env.tx.committed {
		t.Error("transaction must not be committed")
	}
	if !env.tx.rolledBack {
		t.Error("transaction must be rolled back")
	}
	if len(env.store.itemOptions) != 0 {
		t.Errorf("no option rows expected, got %d", len(env.store.itemOptions))
	}
	if len(env.published) != 0 {
		t.Error("no event expected for a failed order")
	}
}

func TestCreateOrder_OptionInsertFailureRollsBack(t *testing.T) {
	env := newTestService(Policy{})
	env.store.createOrderItemOptionFn = func(ctx context.Context, arg database.CreateOrderItemOptionParams) (database.OrderItemOption, error) {
		return database.OrderItemOption{}, errors.New("connection reset")
	}

	_, err := env.svc.CreateOrder(context.Background(), basicReq(
		LineRequest{MenuItemID: 1, Quantity: 1, SelectedOptionIDs: []int64{101}},
	))
	if !errors.Is(err, ErrStorageFailure) {
		t.Fatalf("expected ErrStorageFailure, got: %v", err)
	}
	if env.tx.committed || !env.tx.rolledBack {
		t.Errorf("committed=%v rolledBack=%v, want rollback only", env.tx.committed, env.tx.rolledBack)
	}
}

func TestCreateOrder_CommitFailure(t *testing.T) {
	env := newTestService(Policy{})
	env.tx.commitErr = errors.New("commit failed")

	_, err := env.svc.CreateOrder(context.Background(), basicReq(
		LineRequest{MenuItemID: 3, Quantity: 1},
	))
	if !errors.Is(err, ErrStorageFailure) {
		t.Fatalf("expected ErrStorageFailure, got: %v", err)
	}
	if !env.tx.rolledBack {
		t.Error("expected deferred rollback")
	}
	if len(env.published) != 0 {
		t.Error("no event expected when commit fails")
	}
}

func TestCreateOrder_BeginFailure(t *testing.T) {
	env := newTestService(Policy{})
	env.pool.err = errors.New("pool exhausted")

	_, err := env.svc.CreateOrder(context.Background(), basicReq(
		LineRequest{MenuItemID: 3, Quantity: 1},
	))
	if !errors.Is(err, ErrStorageFailure) {
		t.Fatalf("expected ErrStorageFailure, got: %v", err)
	}
}

func TestCreateOrder_CatalogLoadFailure(t *testing.T) {
	env := newTestService(Policy{})
	env.reader.listOrderCatalogFn = func(ctx context.Context, ids []int64) ([]database.ListOrderCatalogRow, error) {
		return nil, errors.New("db down")
	}

	_, err := env.svc.CreateOrder(context.Background(), basicReq(
		LineRequest{MenuItemID: 3, Quantity: 1},
	))
	if !errors.Is(err, ErrStorageFailure) {
		t.Fatalf("expected ErrStorageFailure, got: %v", err)
	}
	env.assertNoWrites(t)
}

func TestCreateOrder_SetOrderNumberFailure(t *testing.T) {
	env := newTestService(Policy{})
	env.store.setOrderNumberFn = func(ctx context.Context, arg database.SetOrderNumberParams) (database.Order, error) {
		return database.Order{}, pgx.ErrNoRows
	}

	_, err := env.svc.CreateOrder(context.Background(), basicReq(
		LineRequest{MenuItemID: 3, Quantity: 1},
	))
	if !errors.Is(err, ErrStorageFailure) {
		t.Fatalf("expected ErrStorageFailure, got: %v", err)
	}
	if len(env.store.items) != 0 {
		t.Error("lines must not be written without an order number")
	}
	if !env.tx.rolledBack {
		t.Error("expected rollback")
	}
}

// =====================
// Lookup
// =====================

func TestGetOrderByNumber_ReturnsSnapshots(t *testing.T) {
	env := newTestService(Policy{})
	env.reader.getOrderByNumberFn = func(ctx context.Context, orderNumber string) (database.Order, error) {
		if orderNumber != "BB-2026-000042" {
			return database.Order{}, pgx.ErrNoRows
		}
		return database.Order{ID: 42, OrderNumber: orderNumber, Subtotal: makeNumeric("275.50")}, nil
	}
	env.reader.listOrderItemsByOrderFn = func(ctx context.Context, orderID int64) ([]database.OrderItem, error) {
		return []database.OrderItem{
			{ID: 1, OrderID: orderID, ItemNameSnapshot: "Classic Milk Tea", UnitPriceSnapshot: makeNumeric("145.50"), Quantity: 1, LineTotal: makeNumeric("145.50")},
			{ID: 2, OrderID: orderID, ItemNameSnapshot: "Hot Water", UnitPriceSnapshot: makeNumeric("130.00"), Quantity: 1, LineTotal: makeNumeric("130.00")},
		}, nil
	}
	env.reader.listOrderItemOptionsByOrderFn = func(ctx context.Context, orderID int64) ([]database.OrderItemOption, error) {
		return []database.OrderItemOption{
			{ID: 1, OrderItemID: 1, OptionGroupNameSnapshot: "Size", OptionLabelSnapshot: "Large", OptionPriceDeltaSnapshot: makeNumeric("30.00")},
			{ID: 2, OrderItemID: 1, OptionGroupNameSnapshot: "Toppings", OptionLabelSnapshot: "Pearls", OptionPriceDeltaSnapshot: makeNumeric("15.50")},
		}, nil
	}

	result, err := env.svc.GetOrderByNumber(context.Background(), " BB-2026-000042 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(result.Items))
	}
	if len(result.Items[0].Options) != 2 || result.Items[0].Options[1].OptionLabelSnapshot != "Pearls" {
		t.Errorf("first item options: %+v", result.Items[0].Options)
	}
	if result.Items[1].Options == nil || len(result.Items[1].Options) != 0 {
		t.Errorf("second item should have an empty option list, got %+v", result.Items[1].Options)
	}
	if !numericEquals(result.Order.Subtotal, "275.50") {
		t.Errorf("subtotal: got %s", database.Money(result.Order.Subtotal))
	}
}

func TestGetOrderByNumber_NotFound(t *testing.T) {
	env := newTestService(Policy{})

	for _, number := range []string{"BB-2026-999999", "", "   "} {
		if _, err := env.svc.GetOrderByNumber(context.Background(), number); !errors.Is(err, ErrOrderNotFound) {
			t.Errorf("%q: expected ErrOrderNotFound, got: %v", number, err)
		}
	}
}

func TestGetOrderByID_StorageFailure(t *testing.T) {
	env := newTestService(Policy{})
	env.reader.getOrderByIDFn = func(ctx context.Context, id int64) (database.Order, error) {
		return database.Order{}, errors.New("timeout")
	}

	_, err := env.svc.GetOrderByID(context.Background(), 1)
	if !errors.Is(err, ErrStorageFailure) {
		t.Fatalf("expected ErrStorageFailure, got: %v", err)
	}
}
