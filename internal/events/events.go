package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"allconnect/internal/domain"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderCancelled     = "OrderCancelled"
	EventOrderStatusChanged = "OrderStatusChanged"
)

const Producer = "storefront-bff"

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order number
	Payload       json.RawMessage `json:"payload"`
}

type OrderItemPayload struct {
	ProductID   int64              `json:"product_id"`
	SKU         string             `json:"sku"`
	ProductType domain.ProductType `json:"product_type"`
	Quantity    int64              `json:"quantity"`
	UnitPrice   decimal.Decimal    `json:"unit_price"`
}

type OrderPayload struct {
	OrderID     int64              `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	CustomerID  int64              `json:"customer_id"`
	OrderType   domain.OrderType   `json:"order_type"`
	Status      domain.OrderStatus `json:"status"`
	Total       decimal.Decimal    `json:"total"`
	Currency    string             `json:"currency"`
	Items       []OrderItemPayload `json:"items,omitempty"`
}

// Publisher delivers order events; implementations must not block on the broker
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
	Close() error
}

// NewOrderEvent wraps the order state into an envelope of the given type.
func NewOrderEvent(eventType string, o domain.Order) (Envelope, error) {
	p := OrderPayload{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		CustomerID:  o.CustomerID,
		OrderType:   o.OrderType,
		Status:      o.Status,
		Total:       o.Total,
		Currency:    o.Currency,
	}
	for _, it := range o.Items {
		p.Items = append(p.Items, OrderItemPayload{
			ProductID:   it.ProductID,
			SKU:         it.SKU,
			ProductType: it.ProductType,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		})
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      Producer,
		CorrelationID: o.OrderNumber,
		Payload:       raw,
	}, nil
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Envelope) error { return nil }
func (NopPublisher) Close() error                            { return nil }
