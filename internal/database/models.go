package database

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

type AdminUser struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	SortOrder int32     `json:"sort_order"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type MenuItem struct {
	ID          int64          `json:"id"`
	CategoryID  int64          `json:"category_id"`
	Name        string         `json:"name"`
	Description pgtype.Text    `json:"description"`
	BasePrice   pgtype.Numeric `json:"base_price"`
	ImageUrl    pgtype.Text    `json:"image_url"`
	IsActive    bool           `json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type OptionGroup struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	SelectionType string    `json:"selection_type"`
	IsRequired    bool      `json:"is_required"`
	SortOrder     int32     `json:"sort_order"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Option struct {
	ID            int64          `json:"id"`
	OptionGroupID int64          `json:"option_group_id"`
	Label         string         `json:"label"`
	PriceDelta    pgtype.Numeric `json:"price_delta"`
	SortOrder     int32          `json:"sort_order"`
	IsActive      bool           `json:"is_active"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type Order struct {
	ID                  int64              `json:"id"`
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
	UpdatedAt           time.Time          `json:"updated_at"`
}

type OrderItem struct {
	ID                int64          `json:"id"`
	OrderID           int64          `json:"order_id"`
	MenuItemID        int64          `json:"menu_item_id"`
	ItemNameSnapshot  string         `json:"item_name_snapshot"`
	UnitPriceSnapshot pgtype.Numeric `json:"unit_price_snapshot"`
	Quantity          int32          `json:"quantity"`
	LineTotal         pgtype.Numeric `json:"line_total"`
}

type OrderItemOption struct {
	ID                       int64          `json:"id"`
	OrderItemID              int64          `json:"order_item_id"`
	OptionID                 int64          `json:"option_id"`
	OptionGroupNameSnapshot  string         `json:"option_group_name_snapshot"`
	OptionLabelSnapshot      string         `json:"option_label_snapshot"`
	OptionPriceDeltaSnapshot pgtype.Numeric `json:"option_price_delta_snapshot"`
}
