package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, order_number, status, customer_name, customer_phone, fulfillment_type,
    delivery_address, customer_note, subtotal, payment_method, payment_amount, paid_at,
    transaction_id, cbe_reference, payment_proof_url, whatsapp_message_text, whatsapp_deeplink,
    created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var i Order
	err := row.Scan(
		&i.ID,
		&i.OrderNumber,
		&i.Status,
		&i.CustomerName,
		&i.CustomerPhone,
		&i.FulfillmentType,
		&i.DeliveryAddress,
		&i.CustomerNote,
		&i.Subtotal,
		&i.PaymentMethod,
		&i.PaymentAmount,
		&i.PaidAt,
		&i.TransactionID,
		&i.CbeReference,
		&i.PaymentProofUrl,
		&i.WhatsappMessageText,
		&i.WhatsappDeeplink,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createOrder = `-- name: CreateOrder :one
INSERT INTO orders (
    order_number, status, customer_name, customer_phone, fulfillment_type,
    delivery_address, customer_note, subtotal, payment_method, payment_amount, paid_at,
    transaction_id, cbe_reference, payment_proof_url, whatsapp_message_text, whatsapp_deeplink,
    created_at, updated_at
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $17
)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	OrderNumber         string             `json:"order_number"`
	Status              string             `json:"status"`
	CustomerName        string             `json:"customer_name"`
	CustomerPhone       string             `json:"customer_phone"`
	FulfillmentType     string             `json:"fulfillment_type"`
	DeliveryAddress     pgtype.Text        `json:"delivery_address"`
	CustomerNote        pgtype.Text        `json:"customer_note"`
	Subtotal            pgtype.Numeric     `json:"subtotal"`
	PaymentMethod       pgtype.Text        `json:"payment_method"`
	PaymentAmount       pgtype.Numeric     `json:"payment_amount"`
	PaidAt              pgtype.Timestamptz `json:"paid_at"`
	TransactionID       pgtype.Text        `json:"transaction_id"`
	CbeReference        pgtype.Text        `json:"cbe_reference"`
	PaymentProofUrl     pgtype.Text        `json:"payment_proof_url"`
	WhatsappMessageText string             `json:"whatsapp_message_text"`
	WhatsappDeeplink    string             `json:"whatsapp_deeplink"`
	CreatedAt           time.Time          `json:"created_at"`
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.OrderNumber,
		arg.Status,
		arg.CustomerName,
		arg.CustomerPhone,
		arg.FulfillmentType,
		arg.DeliveryAddress,
		arg.CustomerNote,
		arg.Subtotal,
		arg.PaymentMethod,
		arg.PaymentAmount,
		arg.PaidAt,
		arg.TransactionID,
		arg.CbeReference,
		arg.PaymentProofUrl,
		arg.WhatsappMessageText,
		arg.WhatsappDeeplink,
		arg.CreatedAt,
	)
	return scanOrder(row)
}

// The placeholder guard makes the assignment one-shot: a row whose number
// was already set is never matched again.
const setOrderNumber = `-- name: SetOrderNumber :one
UPDATE orders
SET order_number = $2, updated_at = now()
WHERE id = $1 AND order_number LIKE 'PENDING-%'
RETURNING ` + orderColumns

type SetOrderNumberParams struct {
	ID          int64  `json:"id"`
	OrderNumber string `json:"order_number"`
}

func (q *Queries) SetOrderNumber(ctx context.Context, arg SetOrderNumberParams) (Order, error) {
	row := q.db.QueryRow(ctx, setOrderNumber, arg.ID, arg.OrderNumber)
	return scanOrder(row)
}

const getOrderByNumber = `-- name: GetOrderByNumber :one
SELECT ` + orderColumns + `
FROM orders
WHERE order_number = $1`

func (q *Queries) GetOrderByNumber(ctx context.Context, orderNumber string) (Order, error) {
	row := q.db.QueryRow(ctx, getOrderByNumber, orderNumber)
	return scanOrder(row)
}

const getOrderByID = `-- name: GetOrderByID :one
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1`

func (q *Queries) GetOrderByID(ctx context.Context, id int64) (Order, error) {
	row := q.db.QueryRow(ctx, getOrderByID, id)
	return scanOrder(row)
}

const updateOrderStatus = `-- name: UpdateOrderStatus :one
UPDATE orders
SET status = $2, updated_at = now()
WHERE id = $1 AND status = $3
RETURNING ` + orderColumns

type UpdateOrderStatusParams struct {
	ID            int64  `json:"id"`
	Status        string `json:"status"`
	CurrentStatus string `json:"current_status"`
}

// UpdateOrderStatus only applies when the row still carries CurrentStatus;
// pgx.ErrNoRows signals a concurrent change.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.Status, arg.CurrentStatus)
	return scanOrder(row)
}

const createOrderItem = `-- name: CreateOrderItem :one
INSERT INTO order_items (
    order_id, menu_item_id, item_name_snapshot, unit_price_snapshot, quantity, line_total
) VALUES (
    $1, $2, $3, $4, $5, $6
)
RETURNING id, order_id, menu_item_id, item_name_snapshot, unit_price_snapshot, quantity, line_total`

type CreateOrderItemParams struct {
	OrderID           int64          `json:"order_id"`
	MenuItemID        int64          `json:"menu_item_id"`
	ItemNameSnapshot  string         `json:"item_name_snapshot"`
	UnitPriceSnapshot pgtype.Numeric `json:"unit_price_snapshot"`
	Quantity          int32          `json:"quantity"`
	LineTotal         pgtype.Numeric `json:"line_total"`
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID,
		arg.MenuItemID,
		arg.ItemNameSnapshot,
		arg.UnitPriceSnapshot,
		arg.Quantity,
		arg.LineTotal,
	)
	var i OrderItem
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.MenuItemID,
		&i.ItemNameSnapshot,
		&i.UnitPriceSnapshot,
		&i.Quantity,
		&i.LineTotal,
	)
	return i, err
}

const createOrderItemOption = `-- name: CreateOrderItemOption :one
INSERT INTO order_item_options (
    order_item_id, option_id, option_group_name_snapshot, option_label_snapshot, option_price_delta_snapshot
) VALUES (
    $1, $2, $3, $4, $5
)
RETURNING id, order_item_id, option_id, option_group_name_snapshot, option_label_snapshot, option_price_delta_snapshot`

type CreateOrderItemOptionParams struct {
	OrderItemID              int64          `json:"order_item_id"`
	OptionID                 int64          `json:"option_id"`
	OptionGroupNameSnapshot  string         `json:"option_group_name_snapshot"`
	OptionLabelSnapshot      string         `json:"option_label_snapshot"`
	OptionPriceDeltaSnapshot pgtype.Numeric `json:"option_price_delta_snapshot"`
}

func (q *Queries) CreateOrderItemOption(ctx context.Context, arg CreateOrderItemOptionParams) (OrderItemOption, error) {
	row := q.db.QueryRow(ctx, createOrderItemOption,
		arg.OrderItemID,
		arg.OptionID,
		arg.OptionGroupNameSnapshot,
		arg.OptionLabelSnapshot,
		arg.OptionPriceDeltaSnapshot,
	)
	var i OrderItemOption
	err := row.Scan(
		&i.ID,
		&i.OrderItemID,
		&i.OptionID,
		&i.OptionGroupNameSnapshot,
		&i.OptionLabelSnapshot,
		&i.OptionPriceDeltaSnapshot,
	)
	return i, err
}

const listOrderItemsByOrder = `-- name: ListOrderItemsByOrder :many
SELECT id, order_id, menu_item_id, item_name_snapshot, unit_price_snapshot, quantity, line_total
FROM order_items
WHERE order_id = $1
ORDER BY id`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID int64) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []OrderItem{}
	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(
			&i.ID,
			&i.OrderID,
			&i.MenuItemID,
			&i.ItemNameSnapshot,
			&i.UnitPriceSnapshot,
			&i.Quantity,
			&i.LineTotal,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listOrderItemOptionsByOrder = `-- name: ListOrderItemOptionsByOrder :many
SELECT oio.id, oio.order_item_id, oio.option_id, oio.option_group_name_snapshot,
       oio.option_label_snapshot, oio.option_price_delta_snapshot
FROM order_item_options oio
JOIN order_items oi ON oi.id = oio.order_item_id
WHERE oi.order_id = $1
ORDER BY oio.id`

func (q *Queries) ListOrderItemOptionsByOrder(ctx context.Context, orderID int64) ([]OrderItemOption, error) {
	rows, err := q.db.Query(ctx, listOrderItemOptionsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []OrderItemOption{}
	for rows.Next() {
		var i OrderItemOption
		if err := rows.Scan(
			&i.ID,
			&i.OrderItemID,
			&i.OptionID,
			&i.OptionGroupNameSnapshot,
			&i.OptionLabelSnapshot,
			&i.OptionPriceDeltaSnapshot,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
