package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bobabar/api/internal/database"
	"github.com/bobabar/api/internal/enum"
	"github.com/bobabar/api/internal/notify"
	"github.com/bobabar/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	dateLayout       = "2006-01-02"
	publishTimeout   = 5 * time.Second
)

// AdminOrderStore defines the database methods needed by admin order handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type AdminOrderStore interface {
	ListOrdersFiltered(ctx context.Context, f database.OrderFilter) ([]database.Order, error)
	CountOrdersFiltered(ctx context.Context, f database.OrderFilter) (int64, error)
	GetOrderByID(ctx context.Context, id int64) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
}

// OrderDetailer loads an order with its snapshot lines.
// Satisfied by *service.OrderService.
type OrderDetailer interface {
	GetOrderByID(ctx context.Context, id int64) (*service.OrderResult, error)
}

// AdminOrderHandler handles the admin order queue.
type AdminOrderHandler struct {
	store     AdminOrderStore
	svc       OrderDetailer
	publisher notify.Publisher
}

// NewAdminOrderHandler creates a new AdminOrderHandler. A nil publisher
// disables status events.
func NewAdminOrderHandler(store AdminOrderStore, svc OrderDetailer, publisher notify.Publisher) *AdminOrderHandler {
	if publisher == nil {
		publisher = notify.Nop
	}
	return &AdminOrderHandler{store: store, svc: svc, publisher: publisher}
}

// RegisterRoutes registers admin order endpoints on the given Chi router.
func (h *AdminOrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/orders", h.List)
	r.Get("/orders/{id}", h.Get)
	r.Patch("/orders/{id}/status", h.UpdateStatus)
}

// --- Request / Response types ---

type updateStatusRequest struct {
	Status string `json:"status"`
}

type adminOrderSummary struct {
	ID              int64   `json:"id"`
	OrderNumber     string  `json:"orderNumber"`
	CreatedAt       string  `json:"createdAt"`
	CustomerName    string  `json:"customerName"`
	CustomerPhone   string  `json:"customerPhone"`
	FulfillmentType string  `json:"fulfillmentType"`
	Status          string  `json:"status"`
	Subtotal        string  `json:"subtotal"`
	PaymentMethod   *string `json:"paymentMethod"`
	PaidAt          *string `json:"paidAt"`
	CbeReference    *string `json:"cbeReference"`
	TransactionID   *string `json:"transactionId"`
}

type orderListResponse struct {
	Page   int                 `json:"page"`
	Limit  int                 `json:"limit"`
	Total  int64               `json:"total"`
	Orders []adminOrderSummary `json:"orders"`
}

type adminOrderDetail struct {
	ID                  int64            `json:"id"`
	OrderNumber         string           `json:"orderNumber"`
	Status              string           `json:"status"`
	CreatedAt           string           `json:"createdAt"`
	CustomerName        string           `json:"customerName"`
	CustomerPhone       string           `json:"customerPhone"`
	FulfillmentType     string           `json:"fulfillmentType"`
	DeliveryAddress     *string          `json:"deliveryAddress"`
	CustomerNote        *string          `json:"customerNote"`
	Subtotal            string           `json:"subtotal"`
	WhatsappMessageText string           `json:"whatsappMessageText"`
	WhatsappDeeplink    string           `json:"whatsappDeeplink"`
	PaymentMethod       *string          `json:"paymentMethod"`
	PaymentAmount       *string          `json:"paymentAmount"`
	PaidAt              *string          `json:"paidAt"`
	TransactionID       *string          `json:"transactionId"`
	CbeReference        *string          `json:"cbeReference"`
	PaymentProofURL     *string          `json:"paymentProofUrl"`
	Items               []adminOrderLine `json:"items"`
}

type adminOrderLine struct {
	ID                int64                  `json:"id"`
	MenuItemID        int64                  `json:"menuItemId"`
	ItemNameSnapshot  string                 `json:"itemNameSnapshot"`
	UnitPriceSnapshot string                 `json:"unitPriceSnapshot"`
	Quantity          int32                  `json:"quantity"`
	LineTotal         string                 `json:"lineTotal"`
	Options           []adminOrderLineOption `json:"options"`
}

type adminOrderLineOption struct {
	OptionID                 int64  `json:"optionId"`
	OptionGroupNameSnapshot  string `json:"optionGroupNameSnapshot"`
	OptionLabelSnapshot      string `json:"optionLabelSnapshot"`
	OptionPriceDeltaSnapshot string `json:"optionPriceDeltaSnapshot"`
}

func toAdminOrderSummary(o database.Order) adminOrderSummary {
	return adminOrderSummary{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		CreatedAt:       o.CreatedAt.UTC().Format(time.RFC3339),
		CustomerName:    o.CustomerName,
		CustomerPhone:   o.CustomerPhone,
		FulfillmentType: o.FulfillmentType,
		Status:          o.Status,
		Subtotal:        database.Money(o.Subtotal),
		PaymentMethod:   textPtr(o.PaymentMethod),
		PaidAt:          timePtr(o.PaidAt),
		CbeReference:    textPtr(o.CbeReference),
		TransactionID:   textPtr(o.TransactionID),
	}
}

func toAdminOrderDetail(res *service.OrderResult) adminOrderDetail {
	o := res.Order
	items := make([]adminOrderLine, len(res.Items))
	for i, it := range res.Items {
		opts := make([]adminOrderLineOption, len(it.Options))
		for j, opt := range it.Options {
			opts[j] = adminOrderLineOption{
				OptionID:                 opt.OptionID,
				OptionGroupNameSnapshot:  opt.OptionGroupNameSnapshot,
				OptionLabelSnapshot:      opt.OptionLabelSnapshot,
				OptionPriceDeltaSnapshot: database.Money(opt.OptionPriceDeltaSnapshot),
			}
		}
		items[i] = adminOrderLine{
			ID:                it.Item.ID,
			MenuItemID:        it.Item.MenuItemID,
			ItemNameSnapshot:  it.Item.ItemNameSnapshot,
			UnitPriceSnapshot: database.Money(it.Item.UnitPriceSnapshot),
			Quantity:          it.Item.Quantity,
			LineTotal:         database.Money(it.Item.LineTotal),
			Options:           opts,
		}
	}

	var amount *string
	if o.PaymentAmount.Valid {
		s := database.Money(o.PaymentAmount)
		amount = &s
	}

	return adminOrderDetail{
		ID:                  o.ID,
		OrderNumber:         o.OrderNumber,
		Status:              o.Status,
		CreatedAt:           o.CreatedAt.UTC().Format(time.RFC3339),
		CustomerName:        o.CustomerName,
		CustomerPhone:       o.CustomerPhone,
		FulfillmentType:     o.FulfillmentType,
		DeliveryAddress:     textPtr(o.DeliveryAddress),
		CustomerNote:        textPtr(o.CustomerNote),
		Subtotal:            database.Money(o.Subtotal),
		WhatsappMessageText: o.WhatsappMessageText,
		WhatsappDeeplink:    o.WhatsappDeeplink,
		PaymentMethod:       textPtr(o.PaymentMethod),
		PaymentAmount:       amount,
		PaidAt:              timePtr(o.PaidAt),
		TransactionID:       textPtr(o.TransactionID),
		CbeReference:        textPtr(o.CbeReference),
		PaymentProofURL:     textPtr(o.PaymentProofUrl),
		Items:               items,
	}
}

// --- Handlers ---

// List returns one page of orders, newest first, with optional status and
// created-at day filters.
func (h *AdminOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := positiveInt(q.Get("page"), 1)
	limit := positiveInt(q.Get("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	status := normalizeStatus(q.Get("status"))
	if status != "" && !enum.IsOrderStatus(status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status filter"})
		return
	}

	from, to, err := parseDayRange(q.Get("from"), q.Get("to"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	filter := database.OrderFilter{
		Status: status,
		From:   from,
		To:     to,
		Limit:  uint64(limit),
		Offset: uint64((page - 1) * limit),
	}

	total, err := h.store.CountOrdersFiltered(r.Context(), filter)
	if err != nil {
		writeInternalError(w, "count orders", err)
		return
	}

	orders, err := h.store.ListOrdersFiltered(r.Context(), filter)
	if err != nil {
		writeInternalError(w, "list orders", err)
		return
	}

	resp := orderListResponse{Page: page, Limit: limit, Total: total, Orders: make([]adminOrderSummary, len(orders))}
	for i, o := range orders {
		resp.Orders[i] = toAdminOrderSummary(o)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns the full order detail including payment fields and lines.
func (h *AdminOrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "order")
	if !ok {
		return
	}

	res, err := h.svc.GetOrderByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, "get order", err)
		return
	}

	writeJSON(w, http.StatusOK, toAdminOrderDetail(res))
}

// UpdateStatus moves an order along the workflow.
func (h *AdminOrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "order")
	if !ok {
		return
	}

	var req updateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	next := normalizeStatus(req.Status)
	if !enum.IsOrderStatus(next) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	current, err := h.store.GetOrderByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		writeInternalError(w, "get order", err)
		return
	}

	if err := validateStatusTransition(current.Status, next); err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}

	updated, err := h.store.UpdateOrderStatus(r.Context(), database.UpdateOrderStatusParams{
		ID:            id,
		Status:        next,
		CurrentStatus: current.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "order status changed, please retry"})
			return
		}
		writeInternalError(w, "update order status", err)
		return
	}

	event := notify.NewOrderEvent(enum.EventOrderStatusChanged, updated)
	event.PreviousStatus = current.Status
	h.publish(r.Context(), event)

	writeJSON(w, http.StatusOK, toAdminOrderSummary(updated))
}

// --- Helpers ---

// allowedTransitions defines valid status transitions.
// Key is current status, value is the set of statuses it can transition to.
var allowedTransitions = map[string][]string{
	enum.OrderStatusPendingVerification: {enum.OrderStatusNew, enum.OrderStatusPreparing, enum.OrderStatusCancelled},
	enum.OrderStatusNew:                 {enum.OrderStatusPreparing, enum.OrderStatusCancelled},
	enum.OrderStatusPreparing:           {enum.OrderStatusDone, enum.OrderStatusCancelled},
}

// validateStatusTransition checks if the transition from current to next is allowed.
func validateStatusTransition(current, next string) error {
	allowed, ok := allowedTransitions[current]
	if !ok {
		return fmt.Errorf("cannot transition from %s", current)
	}
	for _, s := range allowed {
		if s == next {
			return nil
		}
	}
	return fmt.Errorf("cannot transition from %s to %s", current, next)
}

// publish runs after the status is committed; a lost event never fails the
// request.
func (h *AdminOrderHandler) publish(ctx context.Context, event notify.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := h.publisher.Publish(ctx, event); err != nil {
		log.WithError(err).
			WithField("order_number", event.OrderNumber).
			WithField("event", event.Type).
			Warn("publish order event")
	}
}

// normalizeStatus accepts "pending verification", " new " and friends.
func normalizeStatus(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	return strings.Join(strings.Fields(s), "_")
}

func positiveInt(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// parseDayRange turns inclusive YYYY-MM-DD bounds into a half-open UTC range.
func parseDayRange(fromStr, toStr string) (from, to time.Time, err error) {
	from, to, err = parseDays(fromStr, toStr)
	if err != nil || to.IsZero() {
		return from, to, err
	}
	return from, to.AddDate(0, 0, 1), nil
}

// parseDays parses optional YYYY-MM-DD bounds, both inclusive.
func parseDays(fromStr, toStr string) (from, to time.Time, err error) {
	if fromStr != "" {
		from, err = time.Parse(dateLayout, fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid from date, expected YYYY-MM-DD")
		}
	}
	if toStr != "" {
		to, err = time.Parse(dateLayout, toStr)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid to date, expected YYYY-MM-DD")
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return time.Time{}, time.Time{}, errors.New("from must not be after to")
	}
	return from, to, nil
}
