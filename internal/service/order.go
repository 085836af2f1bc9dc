package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bobabar/api/internal/database"
	"github.com/bobabar/api/internal/enum"
	"github.com/bobabar/api/internal/notify"
	"github.com/bobabar/api/internal/whatsapp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	minPhoneLength = 6
	publishTimeout = 5 * time.Second
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed to write an order graph.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	SetOrderNumber(ctx context.Context, arg database.SetOrderNumberParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	CreateOrderItemOption(ctx context.Context, arg database.CreateOrderItemOptionParams) (database.OrderItemOption, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// OrderReader defines the read-only DB methods used outside transactions.
// Satisfied by *database.Queries.
type OrderReader interface {
	CatalogReader
	GetOrderByNumber(ctx context.Context, orderNumber string) (database.Order, error)
	GetOrderByID(ctx context.Context, id int64) (database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID int64) ([]database.OrderItem, error)
	ListOrderItemOptionsByOrder(ctx context.Context, orderID int64) ([]database.OrderItemOption, error)
}

// Policy holds the deployment switches that shape order creation.
type Policy struct {
	// RequirePaymentClaim makes paymentMethod mandatory and starts orders in
	// PENDING_VERIFICATION instead of NEW.
	RequirePaymentClaim bool
	OrderNumberPrefix   string
	// WhatsAppNumber is the deep-link destination. Empty sends the link to
	// the customer's own phone.
	WhatsAppNumber string
}

// InitialStatus is the status every new order starts in under this policy.
func (p Policy) InitialStatus() string {
	if p.RequirePaymentClaim {
		return enum.OrderStatusPendingVerification
	}
	return enum.OrderStatusNew
}

// PaymentClaim is what the customer says they paid with. It is recorded,
// never verified.
type PaymentClaim struct {
	Method        string
	TransactionID string
	CbeReference  string
	ProofURL      string
}

func (c PaymentClaim) empty() bool {
	return c.Method == "" && c.TransactionID == "" && c.CbeReference == "" && c.ProofURL == ""
}

// CreateOrderRequest is the input for creating an order.
type CreateOrderRequest struct {
	CustomerName    string
	CustomerPhone   string
	FulfillmentType string
	DeliveryAddress string
	CustomerNote    string
	Items           []LineRequest
	Payment         PaymentClaim
}

// OrderResult is a persisted order with its snapshot lines.
type OrderResult struct {
	Order database.Order
	Items []OrderItemResult
}

// OrderItemResult is a line with its selected options, in selection order.
type OrderItemResult struct {
	Item    database.OrderItem
	Options []database.OrderItemOption
}

// OrderService handles order business logic.
type OrderService struct {
	pool      TxBeginner
	reader    OrderReader
	newStore  NewOrderStore
	policy    Policy
	publisher notify.Publisher
	now       func() time.Time
}

// NewOrderService creates a new OrderService. A nil publisher disables events.
func NewOrderService(pool TxBeginner, reader OrderReader, newStore NewOrderStore, policy Policy, publisher notify.Publisher) *OrderService {
	if publisher == nil {
		publisher = notify.Nop
	}
	return &OrderService{
		pool:      pool,
		reader:    reader,
		newStore:  newStore,
		policy:    policy,
		publisher: publisher,
		now:       time.Now,
	}
}

// Policy returns the policy the service was built with.
func (s *OrderService) Policy() Policy { return s.policy }

// CreateOrder validates the cart against the live catalog, prices it, renders
// the WhatsApp summary and persists the whole order graph atomically.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error) {
	req, err := normalizeRequest(req)
	if err != nil {
		return nil, err
	}

	claim, err := validatePaymentClaim(s.policy, req.Payment)
	if err != nil {
		return nil, err
	}

	cat, err := LoadCatalog(ctx, s.reader, distinctMenuItemIDs(req.Items))
	if err != nil {
		return nil, fmt.Errorf("%w: load catalog: %w", ErrStorageFailure, err)
	}

	lines, err := ValidateSelections(cat, req.Items)
	if err != nil {
		return nil, err
	}

	priced, subtotal := PriceLines(lines)
	if err := CheckAmounts(priced, subtotal); err != nil {
		return nil, err
	}
	text, link := whatsapp.Build(buildMessage(req, priced, subtotal), s.policy.WhatsAppNumber)

	result, err := s.createOrderTx(ctx, req, claim, priced, subtotal, text, link)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, notify.NewOrderEvent(enum.EventOrderCreated, result.Order))
	return result, nil
}

// createOrderTx writes header, number, lines and options in one transaction.
func (s *OrderService) createOrderTx(ctx context.Context, req CreateOrderRequest, claim PaymentClaim,
	lines []PricedLine, subtotal decimal.Decimal, text, link string) (*OrderResult, error) {

	createdAt := s.now()

	// --- Begin transaction ---
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx: %w", ErrStorageFailure, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// --- Insert header with a placeholder number ---
	params := database.CreateOrderParams{
		OrderNumber:         placeholderOrderNumber(),
		Status:              s.policy.InitialStatus(),
		CustomerName:        req.CustomerName,
		CustomerPhone:       req.CustomerPhone,
		FulfillmentType:     req.FulfillmentType,
		DeliveryAddress:     database.Text(req.DeliveryAddress),
		CustomerNote:        database.Text(req.CustomerNote),
		Subtotal:            database.ToNumeric(subtotal),
		WhatsappMessageText: text,
		WhatsappDeeplink:    link,
		CreatedAt:           createdAt,
	}
	if claim.Method != "" {
		params.PaymentMethod = database.Text(claim.Method)
		params.PaymentAmount = database.ToNumeric(subtotal)
		params.PaidAt = pgtype.Timestamptz{Time: createdAt, Valid: true}
		params.TransactionID = database.Text(claim.TransactionID)
		params.CbeReference = database.Text(claim.CbeReference)
		params.PaymentProofUrl = database.Text(claim.ProofURL)
	}

	header, err := store.CreateOrder(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: create order: %w", ErrStorageFailure, err)
	}

	// --- Assign the real order number now that the id is known ---
	order, err := store.SetOrderNumber(ctx, database.SetOrderNumberParams{
		ID:          header.ID,
		OrderNumber: FormatOrderNumber(s.policy.OrderNumberPrefix, createdAt, header.ID),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: set order number: %w", ErrStorageFailure, err)
	}

	// --- Insert lines and their options ---
	items := make([]OrderItemResult, 0, len(lines))
	for i, l := range lines {
		item, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:           order.ID,
			MenuItemID:        l.Item.ID,
			ItemNameSnapshot:  l.Item.Name,
			UnitPriceSnapshot: database.ToNumeric(l.UnitPrice),
			Quantity:          l.Quantity,
			LineTotal:         database.ToNumeric(l.LineTotal),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: create order item[%d]: %w", ErrStorageFailure, i, err)
		}

		opts := make([]database.OrderItemOption, 0, len(l.Options))
		for _, o := range l.Options {
			oio, err := store.CreateOrderItemOption(ctx, database.CreateOrderItemOptionParams{
				OrderItemID:              item.ID,
				OptionID:                 o.OptionID,
				OptionGroupNameSnapshot:  o.GroupName,
				OptionLabelSnapshot:      o.Label,
				OptionPriceDeltaSnapshot: database.ToNumeric(o.PriceDelta),
			})
			if err != nil {
				return nil, fmt.Errorf("%w: create order item option: %w", ErrStorageFailure, err)
			}
			opts = append(opts, oio)
		}
		items = append(items, OrderItemResult{Item: item, Options: opts})
	}

	// --- Commit ---
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: commit tx: %w", ErrStorageFailure, err)
	}

	return &OrderResult{Order: order, Items: items}, nil
}

// GetOrderByNumber rebuilds an order from its persisted snapshot rows.
func (s *OrderService) GetOrderByNumber(ctx context.Context, orderNumber string) (*OrderResult, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return nil, ErrOrderNotFound
	}
	order, err := s.reader.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		return nil, lookupError(err)
	}
	return s.loadLines(ctx, order)
}

// GetOrderByID is the admin lookup by surrogate id.
func (s *OrderService) GetOrderByID(ctx context.Context, id int64) (*OrderResult, error) {
	order, err := s.reader.GetOrderByID(ctx, id)
	if err != nil {
		return nil, lookupError(err)
	}
	return s.loadLines(ctx, order)
}

func lookupError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrOrderNotFound
	}
	return fmt.Errorf("%w: get order: %w", ErrStorageFailure, err)
}

func (s *OrderService) loadLines(ctx context.Context, order database.Order) (*OrderResult, error) {
	items, err := s.reader.ListOrderItemsByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: list order items: %w", ErrStorageFailure, err)
	}
	opts, err := s.reader.ListOrderItemOptionsByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: list order item options: %w", ErrStorageFailure, err)
	}

	byItem := make(map[int64][]database.OrderItemOption, len(items))
	for _, o := range opts {
		byItem[o.OrderItemID] = append(byItem[o.OrderItemID], o)
	}

	result := &OrderResult{Order: order, Items: make([]OrderItemResult, len(items))}
	for i, it := range items {
		o := byItem[it.ID]
		if o == nil {
			o = []database.OrderItemOption{}
		}
		result.Items[i] = OrderItemResult{Item: it, Options: o}
	}
	return result, nil
}

// publish is best effort: the order is already committed.
func (s *OrderService) publish(ctx context.Context, event notify.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, event); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"event":        event.Type,
			"order_number": event.OrderNumber,
		}).Warn("publish order event")
	}
}

// --- Helpers ---

func normalizeRequest(req CreateOrderRequest) (CreateOrderRequest, error) {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerPhone = strings.TrimSpace(req.CustomerPhone)
	req.FulfillmentType = strings.ToLower(strings.TrimSpace(req.FulfillmentType))
	req.DeliveryAddress = strings.TrimSpace(req.DeliveryAddress)
	req.CustomerNote = strings.TrimSpace(req.CustomerNote)

	if len(req.Items) == 0 {
		return req, ErrEmptyItems
	}
	for i, item := range req.Items {
		if item.MenuItemID <= 0 {
			return req, fmt.Errorf("items[%d]: %w: menuItemId %d", i, ErrInvalidMenuItem, item.MenuItemID)
		}
		if item.Quantity < 1 {
			return req, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
		for _, id := range item.SelectedOptionIDs {
			if id <= 0 {
				return req, fmt.Errorf("items[%d]: %w: optionId %d", i, ErrInvalidOption, id)
			}
		}
	}

	if req.CustomerName == "" {
		return req, ErrCustomerNameRequired
	}
	if len([]rune(req.CustomerPhone)) < minPhoneLength {
		return req, ErrCustomerPhoneInvalid
	}

	switch req.FulfillmentType {
	case enum.FulfillmentDelivery:
		if req.DeliveryAddress == "" {
			return req, ErrDeliveryAddressRequired
		}
	case enum.FulfillmentPickup:
		req.DeliveryAddress = ""
	default:
		return req, ErrInvalidFulfillment
	}
	return req, nil
}

func validatePaymentClaim(policy Policy, c PaymentClaim) (PaymentClaim, error) {
	c.Method = strings.ToUpper(strings.TrimSpace(c.Method))
	c.TransactionID = strings.TrimSpace(c.TransactionID)
	c.CbeReference = strings.TrimSpace(c.CbeReference)
	c.ProofURL = strings.TrimSpace(c.ProofURL)

	if c.empty() {
		if policy.RequirePaymentClaim {
			return c, fmt.Errorf("%w: paymentMethod is required", ErrInvalidPaymentClaim)
		}
		return c, nil
	}
	if c.Method == "" {
		return c, fmt.Errorf("%w: paymentMethod is required with payment details", ErrInvalidPaymentClaim)
	}
	if !enum.IsPaymentMethod(c.Method) {
		return c, fmt.Errorf("%w: unknown paymentMethod %q", ErrInvalidPaymentClaim, c.Method)
	}
	if c.Method == enum.PaymentMethodCBE && c.CbeReference == "" {
		return c, fmt.Errorf("%w: cbeReference is required for CBE", ErrInvalidPaymentClaim)
	}
	if c.ProofURL != "" {
		u, err := url.Parse(c.ProofURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return c, fmt.Errorf("%w: paymentProofUrl must be an http(s) URL", ErrInvalidPaymentClaim)
		}
	}
	return c, nil
}

func buildMessage(req CreateOrderRequest, lines []PricedLine, subtotal decimal.Decimal) whatsapp.Message {
	m := whatsapp.Message{
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		FulfillmentType: req.FulfillmentType,
		DeliveryAddress: req.DeliveryAddress,
		CustomerNote:    req.CustomerNote,
		Subtotal:        subtotal,
		Items:           make([]whatsapp.Line, len(lines)),
	}
	for i, l := range lines {
		opts := make([]whatsapp.LineOption, len(l.Options))
		for j, o := range l.Options {
			opts[j] = whatsapp.LineOption{Group: o.GroupName, Label: o.Label, PriceDelta: o.PriceDelta}
		}
		m.Items[i] = whatsapp.Line{
			Name:      l.Item.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			LineTotal: l.LineTotal,
			Options:   opts,
		}
	}
	return m
}
