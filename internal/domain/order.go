package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusRefunded   OrderStatus = "REFUNDED"
)

var validNext = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusPending:    {OrderStatusConfirmed: true, OrderStatusCancelled: true},
	OrderStatusConfirmed:  {OrderStatusProcessing: true, OrderStatusCancelled: true, OrderStatusRefunded: true},
	OrderStatusProcessing: {OrderStatusShipped: true, OrderStatusCancelled: true, OrderStatusRefunded: true},
	OrderStatusShipped:    {OrderStatusDelivered: true, OrderStatusRefunded: true},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
	OrderStatusRefunded:   {},
}

func (s OrderStatus) Valid() bool {
	_, ok := validNext[s]
	return ok
}

// Terminal statuses freeze the order.
func (s OrderStatus) Terminal() bool {
	return s.Valid() && len(validNext[s]) == 0
}

func (s OrderStatus) Cancellable() bool {
	return validNext[s][OrderStatusCancelled]
}

func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

// OrderType is derived from the product types in an order
type OrderType string

const (
	OrderTypePhysical     OrderType = "PHYSICAL"
	OrderTypeService      OrderType = "SERVICE"
	OrderTypeSubscription OrderType = "SUBSCRIPTION"
	OrderTypeMixed        OrderType = "MIXED"
)

// DeriveOrderType returns the single product type present or MIXED.
func DeriveOrderType(items []CartItem) OrderType {
	seen := make(map[ProductType]struct{})
	for _, it := range items {
		seen[it.Product.ProductType] = struct{}{}
	}
	if len(seen) != 1 {
		return OrderTypeMixed
	}
	for t := range seen {
		return OrderType(t)
	}
	return OrderTypeMixed
}

type OrderItemStatus string

const (
	OrderItemPending   OrderItemStatus = "PENDING"
	OrderItemConfirmed OrderItemStatus = "CONFIRMED"
	OrderItemCancelled OrderItemStatus = "CANCELLED"
)

// OrderItem is a purchase-time snapshot, decoupled from the live product
type OrderItem struct {
	ID                int64           `json:"id"`
	ProductID         int64           `json:"product_id"`
	SKU               string          `json:"sku"`
	Name              string          `json:"name"`
	ProductType       ProductType     `json:"product_type"`
	ProviderType      ProviderType    `json:"provider_type"`
	Quantity          int64           `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	TotalPrice        decimal.Decimal `json:"total_price"`
	Status            OrderItemStatus `json:"status"`
	ReservationDate   string          `json:"reservation_date,omitempty"`
	ReservationTime   string          `json:"reservation_time,omitempty"`
	ReservationCode   string          `json:"reservation_code,omitempty"`
	SubscriptionStart *time.Time      `json:"subscription_start,omitempty"`
	SubscriptionEnd   *time.Time      `json:"subscription_end,omitempty"`
}

// StatusEntry is one line of the order history
type StatusEntry struct {
	Status    OrderStatus `json:"status"`
	Comment   string      `json:"comment,omitempty"`
	CreatedBy string      `json:"created_by,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// Order is the durable record of a completed purchase
type Order struct {
	ID              int64           `json:"id"`
	OrderNumber     string          `json:"order_number"`
	CustomerID      int64           `json:"customer_id"`
	Status          OrderStatus     `json:"status"`
	OrderType       OrderType       `json:"order_type"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Tax             decimal.Decimal `json:"tax"`
	ShippingCost    decimal.Decimal `json:"shipping_cost"`
	Discount        decimal.Decimal `json:"discount"`
	Total           decimal.Decimal `json:"total"`
	Currency        string          `json:"currency"`
	ShippingAddress *Address        `json:"shipping_address,omitempty"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	Items           []OrderItem     `json:"items"`
	StatusHistory   []StatusEntry   `json:"status_history"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

var ErrInvalidTransition = errors.New("invalid status transition")

// Transition moves the order to the given status and records it in the history.
func (o *Order) Transition(to OrderStatus, comment, by string, at time.Time) error {
	if !CanTransition(o.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, to)
	}
	o.Status = to
	o.StatusHistory = append(o.StatusHistory, StatusEntry{Status: to, Comment: comment, CreatedBy: by, CreatedAt: at})
	o.UpdatedAt = at
	if to == OrderStatusCancelled {
		for i := range o.Items {
			o.Items[i].Status = OrderItemCancelled
		}
	}
	return nil
}

// HasProductType reports whether the order is of type t or contains an item of type t.
func (o Order) HasProductType(t ProductType) bool {
	if o.OrderType == OrderType(t) {
		return true
	}
	for _, it := range o.Items {
		if it.ProductType == t {
			return true
		}
	}
	return false
}

// FormatOrderNumber renders the sequential human-facing number.
func FormatOrderNumber(year int, seq int64) string {
	return fmt.Sprintf("ORD-%d-%04d", year, seq)
}

// Tracking is the customer-facing shipment summary
type Tracking struct {
	Status            OrderStatus `json:"status"`
	Location          string      `json:"location,omitempty"`
	EstimatedDelivery string      `json:"estimated_delivery,omitempty"`
}

var trackingByStatus = map[OrderStatus]Tracking{
	OrderStatusConfirmed:  {Location: "Preparando en almacén", EstimatedDelivery: "3-5 días hábiles"},
	OrderStatusProcessing: {Location: "En centro de distribución", EstimatedDelivery: "2-4 días hábiles"},
	OrderStatusShipped:    {Location: "En tránsito - San José", EstimatedDelivery: "1-2 días hábiles"},
	OrderStatusDelivered:  {Location: "Entregado", EstimatedDelivery: "Entregado"},
}

func TrackingFor(o Order) Tracking {
	t := trackingByStatus[o.Status]
	t.Status = o.Status
	return t
}

// OrderRequest is what checkout hands to order submission
type OrderRequest struct {
	CustomerID      int64
	Items           []CartItem
	ShippingAddress *Address
	PaymentMethod   PaymentMethod
	Discount        decimal.Decimal
}
