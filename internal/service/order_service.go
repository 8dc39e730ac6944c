package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"allconnect/internal/domain"
	"allconnect/internal/events"
	"allconnect/internal/repository"
)

var (
	ErrInvalidState = errors.New("invalid state")
	ErrEmptyOrder   = errors.New("order has no items")
)

// subscription period granted at purchase
const subscriptionPeriod = 30 * 24 * time.Hour

// OrderService builds orders from carts and drives their lifecycle
type OrderService struct {
	orders    repository.OrderRepository
	tx        repository.TxManager
	publisher events.Publisher
	log       zerolog.Logger
	now       func() time.Time
}

func NewOrderService(orders repository.OrderRepository, tx repository.TxManager, publisher events.Publisher, log zerolog.Logger) *OrderService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &OrderService{
		orders:    orders,
		tx:        tx,
		publisher: publisher,
		log:       log.With().Str("component", "orders").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Submit turns the checkout request into a confirmed order.
func (s *OrderService) Submit(ctx context.Context, req domain.OrderRequest) (*domain.Order, error) {
	if req.CustomerID <= 0 {
		return nil, ErrInvalidInput
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = domain.PaymentCreditCard
	}
	for _, it := range req.Items {
		if it.Quantity <= 0 || it.ProductID <= 0 {
			return nil, ErrInvalidInput
		}
	}

	now := s.now()
	discount := req.Discount
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	pricing := domain.PriceItems(req.Items, discount)
	o := domain.Order{
		CustomerID:      req.CustomerID,
		Status:          domain.OrderStatusConfirmed,
		OrderType:       domain.DeriveOrderType(req.Items),
		Subtotal:        pricing.Subtotal,
		Tax:             pricing.Tax,
		ShippingCost:    pricing.ShippingCost,
		Discount:        pricing.Discount,
		Total:           pricing.Total,
		Currency:        domain.Currency,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		Items:           make([]domain.OrderItem, 0, len(req.Items)),
		StatusHistory: []domain.StatusEntry{
			{Status: domain.OrderStatusPending, Comment: "Orden creada", CreatedBy: "system", CreatedAt: now},
			{Status: domain.OrderStatusConfirmed, Comment: "Pago confirmado", CreatedBy: "system", CreatedAt: now},
		},
		CreatedAt: now,
	}
	for _, it := range req.Items {
		o.Items = append(o.Items, snapshotItem(it, now))
	}

	if err := s.orders.Create(ctx, &o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	s.log.Info().Str("order", o.OrderNumber).Int64("customer", o.CustomerID).
		Str("type", string(o.OrderType)).Str("total", o.Total.StringFixed(2)).Msg("order created")
	s.publish(ctx, events.EventOrderCreated, o)
	return &o, nil
}

func snapshotItem(it domain.CartItem, now time.Time) domain.OrderItem {
	oi := domain.OrderItem{
		ProductID:       it.ProductID,
		SKU:             it.Product.SKU,
		Name:            it.Product.Name,
		ProductType:     it.Product.ProductType,
		ProviderType:    it.Product.ProviderType,
		Quantity:        it.Quantity,
		UnitPrice:       it.Product.Price,
		TotalPrice:      it.LineTotal(),
		Status:          domain.OrderItemConfirmed,
		ReservationDate: it.ReservationDate,
		ReservationTime: it.ReservationTime,
	}
	switch it.Product.ProductType {
	case domain.ProductTypeService:
		oi.ReservationCode = reservationCode()
	case domain.ProductTypeSubscription:
		start, end := now, now.Add(subscriptionPeriod)
		oi.SubscriptionStart, oi.SubscriptionEnd = &start, &end
	}
	return oi
}

func reservationCode() string {
	return "RES-" + strings.ToUpper(uuid.NewString()[:8])
}

// GetOrder returns the order if it belongs to customerID.
func (s *OrderService) GetOrder(ctx context.Context, customerID, id int64) (*domain.Order, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != customerID {
		return nil, repository.ErrNotFound
	}
	return o, nil
}

func (s *OrderService) GetByNumber(ctx context.Context, customerID int64, number string) (*domain.Order, error) {
	if number == "" {
		return nil, ErrInvalidInput
	}
	o, err := s.orders.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != customerID {
		return nil, repository.ErrNotFound
	}
	return o, nil
}

// ListOrders returns the customer's orders, optionally narrowed to one product type.
func (s *OrderService) ListOrders(ctx context.Context, customerID int64, filter domain.ProductType) ([]domain.Order, error) {
	if filter != "" && !filter.Valid() {
		return nil, ErrInvalidInput
	}
	list, err := s.orders.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if filter == "" {
		return list, nil
	}
	out := make([]domain.Order, 0, len(list))
	for _, o := range list {
		if o.HasProductType(filter) {
			out = append(out, o)
		}
	}
	return out, nil
}

// CancelOrder is allowed while the order is PENDING, CONFIRMED or PROCESSING.
func (s *OrderService) CancelOrder(ctx context.Context, customerID, id int64) (*domain.Order, error) {
	var updated *domain.Order
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.GetOrder(ctx, customerID, id)
		if err != nil {
			return err
		}
		if !o.Status.Cancellable() {
			return ErrInvalidState
		}
		if err := o.Transition(domain.OrderStatusCancelled, "Cancelado por el cliente", "customer", s.now()); err != nil {
			return ErrInvalidState
		}
		if err := s.orders.Update(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventOrderCancelled, *updated)
	return updated, nil
}

// UpdateStatus is the operations-side transition, validated against the status table.
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus, comment, by string) (*domain.Order, error) {
	if id <= 0 || !status.Valid() {
		return nil, ErrInvalidInput
	}
	var updated *domain.Order
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := o.Transition(status, comment, by, s.now()); err != nil {
			return ErrInvalidState
		}
		if err := s.orders.Update(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventOrderStatusChanged, *updated)
	return updated, nil
}

func (s *OrderService) Tracking(ctx context.Context, customerID, id int64) (domain.Tracking, error) {
	o, err := s.GetOrder(ctx, customerID, id)
	if err != nil {
		return domain.Tracking{}, err
	}
	return domain.TrackingFor(*o), nil
}

// OrderStats is the admin overview over all orders
type OrderStats struct {
	TotalOrders       int                        `json:"total_orders"`
	ByStatus          map[domain.OrderStatus]int `json:"by_status"`
	ByType            map[domain.OrderType]int   `json:"by_type"`
	Revenue           decimal.Decimal            `json:"revenue"`
	AverageOrderValue decimal.Decimal            `json:"average_order_value"`
}

// Stats aggregates every order; cancelled and refunded orders count but add no revenue.
func (s *OrderService) Stats(ctx context.Context) (OrderStats, error) {
	list, err := s.orders.ListAll(ctx)
	if err != nil {
		return OrderStats{}, err
	}
	st := OrderStats{
		TotalOrders: len(list),
		ByStatus:    make(map[domain.OrderStatus]int),
		ByType:      make(map[domain.OrderType]int),
		Revenue:     decimal.Zero,
	}
	paid := 0
	for _, o := range list {
		st.ByStatus[o.Status]++
		st.ByType[o.OrderType]++
		if o.Status == domain.OrderStatusCancelled || o.Status == domain.OrderStatusRefunded {
			continue
		}
		st.Revenue = st.Revenue.Add(o.Total)
		paid++
	}
	st.AverageOrderValue = decimal.Zero
	if paid > 0 {
		st.AverageOrderValue = st.Revenue.Div(decimal.NewFromInt(int64(paid))).Round(2)
	}
	return st, nil
}

// publish failures never fail the order
func (s *OrderService) publish(ctx context.Context, eventType string, o domain.Order) {
	env, err := events.NewOrderEvent(eventType, o)
	if err == nil {
		err = s.publisher.Publish(ctx, env)
	}
	if err != nil {
		s.log.Warn().Err(err).Str("event", eventType).Str("order", o.OrderNumber).Msg("event not published")
	}
}
