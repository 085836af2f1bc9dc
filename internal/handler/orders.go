package handler

import (
	"context"
	"net/http"

	"github.com/bobabar/api/internal/database"
	"github.com/bobabar/api/internal/service"
	"github.com/go-chi/chi/v5"
)

// OrderServicer defines the service methods needed by the public order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.OrderResult, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*service.OrderResult, error)
}

// OrderHandler handles customer-facing order endpoints.
type OrderHandler struct {
	svc OrderServicer
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// RegisterRoutes registers order endpoints on the given Chi router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/orders", h.Create)
	r.Get("/orders/{orderNumber}", h.GetByNumber)
}

// --- Request / Response types ---

type createOrderRequest struct {
	CustomerName    string                   `json:"customerName"`
	CustomerPhone   string                   `json:"customerPhone"`
	FulfillmentType string                   `json:"fulfillmentType"`
	DeliveryAddress *string                  `json:"deliveryAddress"`
	CustomerNote    *string                  `json:"customerNote"`
	Items           []createOrderItemRequest `json:"items"`
	PaymentMethod   *string                  `json:"paymentMethod"`
	TransactionID   *string                  `json:"transactionId"`
	CbeReference    *string                  `json:"cbeReference"`
	PaymentProofURL *string                  `json:"paymentProofUrl"`
}

type createOrderItemRequest struct {
	MenuItemID        int64   `json:"menuItemId"`
	Quantity          int32   `json:"quantity"`
	SelectedOptionIDs []int64 `json:"selectedOptionIds"`
}

type orderResponse struct {
	OrderNumber          string               `json:"orderNumber"`
	Status               string               `json:"status"`
	Subtotal             string               `json:"subtotal"`
	PaymentMethod        *string              `json:"paymentMethod"`
	PaidAt               *string              `json:"paidAt"`
	TransactionID        *string              `json:"transactionId"`
	PaymentReference     *string              `json:"paymentReference"`
	PaymentProofURL      *string              `json:"paymentProofUrl"`
	NotificationDeeplink string               `json:"notificationDeeplink"`
	Summary              orderSummaryResponse `json:"summary"`
}

type orderSummaryResponse struct {
	FulfillmentType string                `json:"fulfillmentType"`
	DeliveryAddress *string               `json:"deliveryAddress"`
	Items           []summaryItemResponse `json:"items"`
}

type summaryItemResponse struct {
	MenuItemID int64                   `json:"menuItemId"`
	Name       string                  `json:"name"`
	Quantity   int32                   `json:"quantity"`
	UnitPrice  string                  `json:"unitPrice"`
	Options    []summaryOptionResponse `json:"options"`
	LineTotal  string                  `json:"lineTotal"`
}

type summaryOptionResponse struct {
	Group      string `json:"group"`
	Label      string `json:"label"`
	PriceDelta string `json:"priceDelta"`
}

func (req createOrderRequest) toService() service.CreateOrderRequest {
	items := make([]service.LineRequest, len(req.Items))
	for i, it := range req.Items {
		items[i] = service.LineRequest{
			MenuItemID:        it.MenuItemID,
			Quantity:          it.Quantity,
			SelectedOptionIDs: it.SelectedOptionIDs,
		}
	}
	return service.CreateOrderRequest{
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		FulfillmentType: req.FulfillmentType,
		DeliveryAddress: deref(req.DeliveryAddress),
		CustomerNote:    deref(req.CustomerNote),
		Items:           items,
		Payment: service.PaymentClaim{
			Method:        deref(req.PaymentMethod),
			TransactionID: deref(req.TransactionID),
			CbeReference:  deref(req.CbeReference),
			ProofURL:      deref(req.PaymentProofURL),
		},
	}
}

// toOrderResponse builds the public shape from persisted snapshots only, so
// creation and later lookups render identically.
func toOrderResponse(res *service.OrderResult) orderResponse {
	o := res.Order
	items := make([]summaryItemResponse, len(res.Items))
	for i, it := range res.Items {
		opts := make([]summaryOptionResponse, len(it.Options))
		for j, opt := range it.Options {
			opts[j] = summaryOptionResponse{
				Group:      opt.OptionGroupNameSnapshot,
				Label:      opt.OptionLabelSnapshot,
				PriceDelta: database.Money(opt.OptionPriceDeltaSnapshot),
			}
		}
		items[i] = summaryItemResponse{
			MenuItemID: it.Item.MenuItemID,
			Name:       it.Item.ItemNameSnapshot,
			Quantity:   it.Item.Quantity,
			UnitPrice:  database.Money(it.Item.UnitPriceSnapshot),
			Options:    opts,
			LineTotal:  database.Money(it.Item.LineTotal),
		}
	}

	return orderResponse{
		OrderNumber:          o.OrderNumber,
		Status:               o.Status,
		Subtotal:             database.Money(o.Subtotal),
		PaymentMethod:        textPtr(o.PaymentMethod),
		PaidAt:               timePtr(o.PaidAt),
		TransactionID:        textPtr(o.TransactionID),
		PaymentReference:     textPtr(o.CbeReference),
		PaymentProofURL:      textPtr(o.PaymentProofUrl),
		NotificationDeeplink: o.WhatsappDeeplink,
		Summary: orderSummaryResponse{
			FulfillmentType: o.FulfillmentType,
			DeliveryAddress: textPtr(o.DeliveryAddress),
			Items:           items,
		},
	}
}

// --- Handlers ---

// Create validates, prices and persists a customer order.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.svc.CreateOrder(r.Context(), req.toService())
	if err != nil {
		writeServiceError(w, "create order", err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(res))
}

// GetByNumber returns the public view of an order for the status page.
func (h *OrderHandler) GetByNumber(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.GetOrderByNumber(r.Context(), chi.URLParam(r, "orderNumber"))
	if err != nil {
		writeServiceError(w, "get order by number", err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(res))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
