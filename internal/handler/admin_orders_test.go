package handler_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/bobabar/api/internal/database"
	"github.com/bobabar/api/internal/enum"
	"github.com/bobabar/api/internal/handler"
	"github.com/bobabar/api/internal/notify"
	"github.com/bobabar/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
)

// --- Mock store ---

type mockAdminOrderStore struct {
	orders   map[int64]database.Order
	filters  []database.OrderFilter
	total    int64
	updateFn func(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	updates  []database.UpdateOrderStatusParams
	listErr  error
}

func newMockAdminOrderStore(orders ...database.Order) *mockAdminOrderStore {
	m := &mockAdminOrderStore{orders: make(map[int64]database.Order)}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	m.total = int64(len(orders))
	return m
}

func (m *mockAdminOrderStore) ListOrdersFiltered(_ context.Context, f database.OrderFilter) ([]database.Order, error) {
	m.filters = append(m.filters, f)
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := []database.Order{}
	for _, o := range m.orders {
		out = append(out, o)
	}
	return out, nil
}

func (m *mockAdminOrderStore) CountOrdersFiltered(_ context.Context, _ database.OrderFilter) (int64, error) {
	return m.total, nil
}

func (m *mockAdminOrderStore) GetOrderByID(_ context.Context, id int64) (database.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (m *mockAdminOrderStore) UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
	m.updates = append(m.updates, arg)
	if m.updateFn != nil {
		return m.updateFn(ctx, arg)
	}
	o, ok := m.orders[arg.ID]
	if !ok || o.Status != arg.CurrentStatus {
		return database.Order{}, pgx.ErrNoRows
	}
	o.Status = arg.Status
	m.orders[arg.ID] = o
	return o, nil
}

// --- Helpers ---

func orderWithStatus(id int64, status string) database.Order {
	return database.Order{
		ID:              id,
		OrderNumber:     "BB-2026-000042",
		Status:          status,
		CustomerName:    "Abebe",
		CustomerPhone:   "+251911000000",
		FulfillmentType: enum.FulfillmentPickup,
		Subtotal:        money("130"),
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}
}

type recordingPublisher struct {
	events []notify.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e notify.Event) error {
	p.events = append(p.events, e)
	return nil
}

func setupAdminOrderRouter(store *mockAdminOrderStore, svc *mockOrderService, pub notify.Publisher) *chi.Mux {
	h := handler.NewAdminOrderHandler(store, svc, pub)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// --- List tests ---

func TestAdminListOrders_DefaultPaging(t *testing.T) {
	store := newMockAdminOrderStore(orderWithStatus(42, enum.OrderStatusNew))
	router := setupAdminOrderRouter(store, &mockOrderService{}, nil)

	rr := doRequest(t, router, "GET", "/orders", nil, "")
	expectStatus(t, rr, http.StatusOK)

	resp := decodeResponse(t, rr)
	if resp["page"] != float64(1) || resp["limit"] != float64(20) || resp["total"] != float64(1) {
		t.Errorf("unexpected paging: %v", resp)
	}
	orders := resp["orders"].([]interface{})
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}
	o := orders[0].(map[string]interface{})
	if o["subtotal"] != "130.00" || o["paymentMethod"] != nil || o["createdAt"] != "2026-05-17T09:30:00Z" {
		t.Errorf("unexpected order row: %v", o)
	}

	f := store.filters[0]
	if f.Limit != 20 || f.Offset != 0 || f.Status != "" || !f.From.IsZero() || !f.To.IsZero() {
		t.Errorf("unexpected filter: %+v", f)
	}
}

func TestAdminListOrders_FiltersAndPage(t *testing.T) {
	store := newMockAdminOrderStore()
	router := setupAdminOrderRouter(store, &mockOrderService{}, nil)

	rr := doRequest(t, router, "GET", "/orders?status=pending%20verification&from=2026-05-01&to=2026-05-17&page=3&limit=10", nil, "")
	expectStatus(t, rr, http.StatusOK)

	f := store.filters[0]
	if f.Status != enum.OrderStatusPendingVerification {
		t.Errorf("expected normalized status, got %q", f.Status)
	}
	if f.Limit != 10 || f.Offset != 20 {
		t.Errorf("expected limit 10 offset 20, got %d/%d", f.Limit, f.Offset)
	}
	if !f.From.Equal(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected from: %v", f.From)
	}
	if !f.To.Equal(time.Date(2026, 5, 18, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("to must be exclusive end of day, got %v", f.To)
	}
}

func TestAdminListOrders_LimitClamped(t *testing.T) {
	store := newMockAdminOrderStore()
	router := setupAdminOrderRouter(store, &mockOrderService{}, nil)

	rr := doRequest(t, router, "GET", "/orders?limit=1000&page=-1", nil, "")
	expectStatus(t, rr, http.StatusOK)

	f := store.filters[0]
	if f.Limit != 100 || f.Offset != 0 {
		t.Errorf("expected limit 100 offset 0, got %d/%d", f.Limit, f.Offset)
	}
}

func TestAdminListOrders_InvalidFilters(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"unknown status", "?status=shipped"},
		{"bad from", "?from=17-05-2026"},
		{"bad to", "?to=tomorrow"},
		{"reversed range", "?from=2026-05-17&to=2026-05-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockAdminOrderStore()
			router := setupAdminOrderRouter(store, &mockOrderService{}, nil)

			rr := doRequest(t, router, "GET", "/orders"+tt.query, nil, "")
			expectStatus(t, rr, http.StatusBadRequest)
			if len(store.filters) != 0 {
				t.Error("store must not be queried for an invalid filter")
			}
		})
	}
}

func TestAdminListOrders_StoreError(t *testing.T) {
	store := newMockAdminOrderStore()
	store.listErr = errors.New("db down")
	router := setupAdminOrderRouter(store, &mockOrderService{}, nil)

	rr := doRequest(t, router, "GET", "/orders", nil, "")
	expectStatus(t, rr, http.StatusInternalServerError)
}

// --- Detail tests ---

func TestAdminGetOrder_Detail(t *testing.T) {
	svc := &mockOrderService{
		byIDFn: func(_ context.Context, id int64) (*service.OrderResult, error) {
			if id != 42 {
				return nil, service.ErrOrderNotFound
			}
			return sampleOrderResult(), nil
		},
	}
	router := setupAdminOrderRouter(newMockAdminOrderStore(), svc, nil)

	rr := doRequest(t, router, "GET", "/orders/42", nil, "")
	expectStatus(t, rr, http.StatusOK)

	resp := decodeResponse(t, rr)
	if resp["whatsappMessageText"] != "New order" || resp["paymentAmount"] != "260.00" {
		t.Errorf("unexpected detail: %v", resp)
	}
	items := resp["items"].([]interface{})
	item := items[0].(map[string]interface{})
	if item["itemNameSnapshot"] != "Classic Milk Tea" || item["unitPriceSnapshot"] != "130.00" {
		t.Errorf("unexpected line: %v", item)
	}
	opt := item["options"].([]interface{})[0].(map[string]interface{})
	if opt["optionId"] != float64(102) || opt["optionPriceDeltaSnapshot"] != "30.00" {
		t.Errorf("unexpected option: %v", opt)
	}
}

func TestAdminGetOrder_NotFound(t *testing.T) {
	svc := &mockOrderService{
		byIDFn: func(context.Context, int64) (*service.OrderResult, error) {
			return nil, service.ErrOrderNotFound
		},
	}
	router := setupAdminOrderRouter(newMockAdminOrderStore(), svc, nil)

	rr := doRequest(t, router, "GET", "/orders/7", nil, "")
	expectStatus(t, rr, http.StatusNotFound)
}

func TestAdminGetOrder_InvalidID(t *testing.T) {
	router := setupAdminOrderRouter(newMockAdminOrderStore(), &mockOrderService{}, nil)

	rr := doRequest(t, router, "GET", "/orders/abc", nil, "")
	expectStatus(t, rr, http.StatusBadRequest)
}

// --- Status tests ---

func TestAdminUpdateStatus_AllowedTransitions(t *testing.T) {
	tests := []struct {
		from, to string
	}{
		{enum.OrderStatusPendingVerification, enum.OrderStatusNew},
		{enum.OrderStatusPendingVerification, enum.OrderStatusPreparing},
		{enum.OrderStatusPendingVerification, enum.OrderStatusCancelled},
		{enum.OrderStatusNew, enum.OrderStatusPreparing},
		{enum.OrderStatusNew, enum.OrderStatusCancelled},
		{enum.OrderStatusPreparing, enum.OrderStatusDone},
		{enum.OrderStatusPreparing, enum.OrderStatusCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			store := newMockAdminOrderStore(orderWithStatus(42, tt.from))
			pub := &recordingPublisher{}
			router := setupAdminOrderRouter(store, &mockOrderService{}, pub)

			rr := doRequest(t, router, "PATCH", "/orders/42/status", map[string]string{"status": tt.to}, "")
			expectStatus(t, rr, http.StatusOK)

			if resp := decodeResponse(t, rr); resp["status"] != tt.to {
				t.Errorf("expected status %s, got %v", tt.to, resp["status"])
			}
			if store.updates[0].CurrentStatus != tt.from {
				t.Errorf("update must be conditional on %s, got %q", tt.from, store.updates[0].CurrentStatus)
			}
			if len(pub.events) != 1 {
				t.Fatalf("expected 1 event, got %d", len(pub.events))
			}
			ev := pub.events[0]
			if ev.Type != enum.EventOrderStatusChanged || ev.Status != tt.to || ev.PreviousStatus != tt.from {
				t.Errorf("unexpected event: %+v", ev)
			}
		})
	}
}

func TestAdminUpdateStatus_IllegalTransition(t *testing.T) {
	tests := []struct {
		from, to string
	}{
		{enum.OrderStatusNew, enum.OrderStatusDone},
		{enum.OrderStatusNew, enum.OrderStatusPendingVerification},
		{enum.OrderStatusDone, enum.OrderStatusPreparing},
		{enum.OrderStatusCancelled, enum.OrderStatusNew},
		{enum.OrderStatusPreparing, enum.OrderStatusPreparing},
	}
	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			store := newMockAdminOrderStore(orderWithStatus(42, tt.from))
			pub := &recordingPublisher{}
			router := setupAdminOrderRouter(store, &mockOrderService{}, pub)

			rr := doRequest(t, router, "PATCH", "/orders/42/status", map[string]string{"status": tt.to}, "")
			expectStatus(t, rr, http.StatusConflict)

			if len(store.updates) != 0 || len(pub.events) != 0 {
				t.Error("illegal transition must not write or publish")
			}
		})
	}
}

func TestAdminUpdateStatus_NormalizesInput(t *testing.T) {
	store := newMockAdminOrderStore(orderWithStatus(42, enum.OrderStatusNew))
	router := setupAdminOrderRouter(store, &mockOrderService{}, nil)

	rr := doRequest(t, router, "PATCH", "/orders/42/status", map[string]string{"status": " preparing "}, "")
	expectStatus(t, rr, http.StatusOK)
}

func TestAdminUpdateStatus_ConcurrentChange(t *testing.T) {
	store := newMockAdminOrderStore(orderWithStatus(42, enum.OrderStatusNew))
	store.updateFn = func(context.Context, database.UpdateOrderStatusParams) (database.Order, error) {
		return database.Order{}, pgx.ErrNoRows
	}
	pub := &recordingPublisher{}
	router := setupAdminOrderRouter(store, &mockOrderService{}, pub)

	rr := doRequest(t, router, "PATCH", "/orders/42/status", map[string]string{"status": enum.OrderStatusPreparing}, "")
	expectStatus(t, rr, http.StatusConflict)

	if resp := decodeResponse(t, rr); resp["error"] != "order status changed, please retry" {
		t.Errorf("unexpected error: %v", resp["error"])
	}
	if len(pub.events) != 0 {
		t.Error("lost update must not publish")
	}
}

func TestAdminUpdateStatus_PublishFailureStillSucceeds(t *testing.T) {
	store := newMockAdminOrderStore(orderWithStatus(42, enum.OrderStatusNew))
	pub := notify.PublisherFunc(func(context.Context, notify.Event) error {
		return errors.New("broker unreachable")
	})
	router := setupAdminOrderRouter(store, &mockOrderService{}, pub)

	rr := doRequest(t, router, "PATCH", "/orders/42/status", map[string]string{"status": enum.OrderStatusPreparing}, "")
	expectStatus(t, rr, http.StatusOK)
}

func TestAdminUpdateStatus_NotFound(t *testing.T) {
	router := setupAdminOrderRouter(newMockAdminOrderStore(), &mockOrderService{}, nil)

	rr := doRequest(t, router, "PATCH", "/orders/9/status", map[string]string{"status": enum.OrderStatusDone}, "")
	expectStatus(t, rr, http.StatusNotFound)
}

func TestAdminUpdateStatus_UnknownStatus(t *testing.T) {
	store := newMockAdminOrderStore(orderWithStatus(42, enum.OrderStatusNew))
	router := setupAdminOrderRouter(store, &mockOrderService{}, nil)

	rr := doRequest(t, router, "PATCH", "/orders/42/status", map[string]string{"status": "SHIPPED"}, "")
	expectStatus(t, rr, http.StatusBadRequest)
}
