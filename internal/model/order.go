package model

import (
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how the customer intends to pay.
type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodEWallet      PaymentMethod = "e_wallet"
	PaymentMethodCreditCard   PaymentMethod = "credit_card"
	PaymentMethodCOD          PaymentMethod = "cod"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodBankTransfer, PaymentMethodEWallet, PaymentMethodCreditCard, PaymentMethodCOD:
		return true
	}
	return false
}

// PaymentStatus tracks the payment side of an order.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
	PaymentStatusExpired PaymentStatus = "expired"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusExpired:
		return true
	}
	return false
}

// OrderStatus tracks fulfilment.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// Terminal reports whether no further transition is expected from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled || s == OrderStatusRefunded
}

// Order represents a customer order.
type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	OrderNumber     string          `json:"order_number" db:"order_number"`
	CustomerName    string          `json:"customer_name" db:"customer_name"`
	CustomerEmail   string          `json:"customer_email" db:"customer_email"`
	CustomerPhone   string          `json:"customer_phone" db:"customer_phone"`
	ShippingAddress string          `json:"shipping_address" db:"shipping_address"`
	City            string          `json:"city" db:"city"`
	Province        string          `json:"province" db:"province"`
	PostalCode      string          `json:"postal_code" db:"postal_code"`
	Subtotal        decimal.Decimal `json:"subtotal" db:"subtotal"`
	ShippingCost    decimal.Decimal `json:"shipping_cost" db:"shipping_cost"`
	Tax             decimal.Decimal `json:"tax" db:"tax"`
	Discount        decimal.Decimal `json:"discount" db:"discount"`
	Total           decimal.Decimal `json:"total" db:"total"`
	PaymentMethod   PaymentMethod   `json:"payment_method" db:"payment_method"`
	PaymentStatus   PaymentStatus   `json:"payment_status" db:"payment_status"`
	Status          OrderStatus     `json:"status" db:"status"`
	PromoCode       *string         `json:"promo_code,omitempty" db:"promo_code"`
	PaymentProof    *string         `json:"payment_proof,omitempty" db:"payment_proof"`
	PaidAt          *time.Time      `json:"paid_at,omitempty" db:"paid_at"`
	ShippingCourier *string         `json:"shipping_courier,omitempty" db:"shipping_courier"`
	TrackingNumber  *string         `json:"tracking_number,omitempty" db:"tracking_number"`
	ShippedAt       *time.Time      `json:"shipped_at,omitempty" db:"shipped_at"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty" db:"delivered_at"`
	CustomerNotes   *string         `json:"customer_notes,omitempty" db:"customer_notes"`
	AdminNotes      *string         `json:"admin_notes,omitempty" db:"admin_notes"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
	Items           []OrderItem     `json:"items"`
}

// CanBeCancelled reports whether the customer may still cancel the order.
func (o *Order) CanBeCancelled() bool {
	return (o.Status == OrderStatusPending || o.Status == OrderStatusProcessing) &&
		o.PaymentStatus != PaymentStatusPaid
}

// CanBePaid reports whether the order still awaits its payment.
func (o *Order) CanBePaid() bool {
	return o.PaymentStatus == PaymentStatusPending && o.Status == OrderStatusPending
}

// OrderItem is an immutable snapshot of a product at the time it was ordered.
// ProductID is a plain reference; the product may change or disappear later.
type OrderItem struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	OrderID            uuid.UUID       `json:"order_id" db:"order_id"`
	ProductID          int64           `json:"product_id" db:"product_id"`
	ProductName        string          `json:"product_name" db:"product_name"`
	ProductSlug        string          `json:"product_slug" db:"product_slug"`
	ProductImage       string          `json:"product_image" db:"product_image"`
	ProductDescription *string         `json:"product_description,omitempty" db:"product_description"`
	Price              decimal.Decimal `json:"price" db:"price"`
	Quantity           int             `json:"quantity" db:"quantity"`
	Subtotal           decimal.Decimal `json:"subtotal" db:"subtotal"`
	ProductDetails     json.RawMessage `json:"product_details" db:"product_details"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
}

// DetailsSnapshot renders the product_details blob stored on an order item:
// the category name plus the category-specific attribute set, if any.
func DetailsSnapshot(p *Product) (json.RawMessage, error) {
	snapshot := map[string]any{
		"category": p.Category.Name,
	}
	if p.Details != nil {
		snapshot[p.Details.SnapshotKey()] = p.Details
	}
	return json.Marshal(snapshot)
}

// PlaceOrderRequest is the payload for placing an order.
type PlaceOrderRequest struct {
	CustomerName    string             `json:"customer_name" validate:"required,notblank,max=255"`
	CustomerEmail   string             `json:"customer_email" validate:"required,notblank,email,max=255"`
	CustomerPhone   string             `json:"customer_phone" validate:"required,notblank,max=20"`
	ShippingAddress string             `json:"shipping_address" validate:"required,notblank"`
	City            string             `json:"city" validate:"required,notblank,max=100"`
	Province        string             `json:"province" validate:"required,notblank,max=100"`
	PostalCode      string             `json:"postal_code" validate:"required,notblank,max=10"`
	PaymentMethod   PaymentMethod      `json:"payment_method" validate:"required,oneof=bank_transfer e_wallet credit_card cod"`
	Items           []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	CustomerNotes   *string            `json:"customer_notes,omitempty"`
	PromoCode       *string            `json:"promo_code,omitempty" validate:"omitempty,max=64"`
}

// MaxLineQuantity caps the units of one product in a single order, both per
// request line and summed across lines.
const MaxLineQuantity = math.MaxInt32

// OrderItemRequest is a single line in a PlaceOrderRequest.
type OrderItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,min=1,max=2147483647"`
}

// UpdateStatusRequest is the admin payload for moving an order through fulfilment.
type UpdateStatusRequest struct {
	Status          OrderStatus `json:"status" validate:"required,oneof=pending processing shipped delivered cancelled refunded"`
	AdminNotes      *string     `json:"admin_notes,omitempty"`
	TrackingNumber  *string     `json:"tracking_number,omitempty" validate:"required_if=Status shipped"`
	ShippingCourier *string     `json:"shipping_courier,omitempty" validate:"required_if=Status shipped"`
}

// UpdatePaymentStatusRequest is the admin payload for recording payment outcomes.
type UpdatePaymentStatusRequest struct {
	PaymentStatus PaymentStatus `json:"payment_status" validate:"required,oneof=pending paid failed expired"`
	PaymentProof  *string       `json:"payment_proof,omitempty" validate:"omitempty,max=255"`
}

// OrderFilter narrows the admin order listing.
type OrderFilter struct {
	Status        OrderStatus   `json:"status" validate:"omitempty,oneof=pending processing shipped delivered cancelled refunded"`
	PaymentStatus PaymentStatus `json:"payment_status" validate:"omitempty,oneof=pending paid failed expired"`
	Search        string        `json:"search" validate:"max=255"`
	Page          int           `json:"page" validate:"min=0"`
	PerPage       int           `json:"per_page" validate:"min=0,max=100"`
}

// Offset returns the row offset of the filter's page.
func (f OrderFilter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.PerPage
}

// OrderPage is one page of an order listing.
type OrderPage struct {
	Orders      []Order `json:"data"`
	CurrentPage int     `json:"current_page"`
	PerPage     int     `json:"per_page"`
	Total       int     `json:"total"`
	LastPage    int     `json:"last_page"`
}

// NewOrderPage assembles page metadata around a slice of orders.
func NewOrderPage(orders []Order, page, perPage, total int) *OrderPage {
	if orders == nil {
		orders = []Order{}
	}
	return &OrderPage{
		Orders:      orders,
		CurrentPage: page,
		PerPage:     perPage,
		Total:       total,
		LastPage:    lastPage(total, perPage),
	}
}

func lastPage(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}
