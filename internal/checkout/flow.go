// Package checkout implements the multi-step checkout over a customer's cart.
//
// The flow is linear: shipping, payment, review, complete. The shipping step
// only exists while the cart holds a physical product; it is skipped whenever
// the cart is evaluated without one. Placing an order submits it first, then
// marks the flow complete, and only then clears the cart.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"allconnect/internal/cart"
	"allconnect/internal/domain"
)

type Step string

const (
	StepShipping Step = "shipping"
	StepPayment  Step = "payment"
	StepReview   Step = "review"
	StepComplete Step = "complete"
)

var (
	ErrNotStarted        = errors.New("checkout not started")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrWrongStep         = errors.New("action not allowed at this checkout step")
	ErrInvalidAddress    = errors.New("invalid shipping address")
	ErrInvalidPayment    = errors.New("invalid payment details")
	ErrAlreadyProcessing = errors.New("order is already being processed")
	ErrOrderFailed       = errors.New("order could not be created")
	ErrCartNotCleared    = errors.New("order created but cart could not be cleared")
)

//go:generate mockgen -destination=mocks_test.go -package=checkout . OrderPlacer,AddressBook

// OrderPlacer submits the order built from the cart
type OrderPlacer interface {
	Submit(ctx context.Context, req domain.OrderRequest) (*domain.Order, error)
}

// AddressBook resolves a customer's saved addresses
type AddressBook interface {
	Address(ctx context.Context, customerID, id int64) (*domain.Address, error)
}

// Flow is the checkout state of one customer. Like cart.Store it is owned by
// a single session goroutine and is not safe for concurrent use.
type Flow struct {
	cart       *cart.Store
	placer     OrderPlacer
	addresses  AddressBook
	validate   *validator.Validate
	customerID int64

	started    bool
	step       Step
	shipping   *domain.Address
	payment    *PaymentDetails
	processing bool
	lastErr    error
	order      *domain.Order
}

func NewFlow(customerID int64, c *cart.Store, placer OrderPlacer, addresses AddressBook) *Flow {
	return &Flow{
		cart:       c,
		placer:     placer,
		addresses:  addresses,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		customerID: customerID,
	}
}

// Start (re)initialises the flow from the cart contents.
func (f *Flow) Start(ctx context.Context) (Snapshot, error) {
	if f.processing {
		return f.Snapshot(), ErrAlreadyProcessing
	}
	if f.cart.IsEmpty() {
		return f.Snapshot(), ErrEmptyCart
	}
	*f = Flow{cart: f.cart, placer: f.placer, addresses: f.addresses, validate: f.validate, customerID: f.customerID}
	f.started = true
	f.step = f.firstStep()
	return f.Snapshot(), nil
}

// Reset abandons the flow without touching the cart.
func (f *Flow) Reset() {
	if f.processing {
		return
	}
	*f = Flow{cart: f.cart, placer: f.placer, addresses: f.addresses, validate: f.validate, customerID: f.customerID}
}

func (f *Flow) firstStep() Step {
	if f.cart.HasPhysical() {
		return StepShipping
	}
	return StepPayment
}

// sync re-evaluates the cart before every action
func (f *Flow) sync() error {
	if !f.started {
		return ErrNotStarted
	}
	if f.step == StepComplete {
		return nil
	}
	if f.cart.IsEmpty() {
		return ErrEmptyCart
	}
	physical := f.cart.HasPhysical()
	switch {
	case f.step == StepShipping && !physical:
		f.step = StepPayment
		f.shipping = nil
	case f.step != StepShipping && physical && f.shipping == nil:
		f.step = StepShipping
	case !physical:
		f.shipping = nil
	}
	return nil
}

// ShippingInput selects a saved address or supplies a new one
type ShippingInput struct {
	SavedAddressID int64        `json:"saved_address_id"`
	NewAddress     *AddressForm `json:"new_address"`
}

type AddressForm struct {
	Label      string `json:"label" validate:"required"`
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

func (a *AddressForm) trim() {
	a.Label = strings.TrimSpace(a.Label)
	a.Street = strings.TrimSpace(a.Street)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Country = strings.TrimSpace(a.Country)
}

func (f *Flow) SubmitShipping(ctx context.Context, in ShippingInput) (Snapshot, error) {
	if err := f.sync(); err != nil {
		return f.Snapshot(), err
	}
	if f.step != StepShipping {
		return f.Snapshot(), ErrWrongStep
	}
	addr, err := f.resolveAddress(ctx, in)
	if err != nil {
		return f.Snapshot(), err
	}
	f.shipping = addr
	f.step = StepPayment
	return f.Snapshot(), nil
}

func (f *Flow) resolveAddress(ctx context.Context, in ShippingInput) (*domain.Address, error) {
	if in.SavedAddressID > 0 {
		if f.addresses == nil {
			return nil, ErrInvalidAddress
		}
		a, err := f.addresses.Address(ctx, f.customerID, in.SavedAddressID)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
		}
		return a, nil
	}
	if in.NewAddress == nil {
		return nil, ErrInvalidAddress
	}
	form := *in.NewAddress
	form.trim()
	if err := f.validate.Struct(form); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	return &domain.Address{
		CustomerID: f.customerID,
		Label:      form.Label,
		Street:     form.Street,
		City:       form.City,
		State:      form.State,
		PostalCode: form.PostalCode,
		Country:    form.Country,
	}, nil
}

// PaymentInput carries the payment form; card fields are only checked for presence
type PaymentInput struct {
	Method domain.PaymentMethod `json:"method"`
	Card   CardForm             `json:"card"`
}

type CardForm struct {
	Number string `json:"number" validate:"required"`
	Name   string `json:"name" validate:"required"`
	Expiry string `json:"expiry" validate:"required"`
	CVV    string `json:"cvv" validate:"required"`
}

// PaymentDetails is what the flow keeps after validation; the full card is never retained
type PaymentDetails struct {
	Method     domain.PaymentMethod `json:"method"`
	MaskedCard string               `json:"masked_card,omitempty"`
	CardHolder string               `json:"card_holder,omitempty"`
}

func (f *Flow) SubmitPayment(_ context.Context, in PaymentInput) (Snapshot, error) {
	if err := f.sync(); err != nil {
		return f.Snapshot(), err
	}
	if f.step != StepPayment {
		return f.Snapshot(), ErrWrongStep
	}
	if in.Method == "" {
		in.Method = domain.PaymentCreditCard
	}
	if !in.Method.Valid() {
		return f.Snapshot(), ErrInvalidPayment
	}
	details := &PaymentDetails{Method: in.Method}
	if in.Method == domain.PaymentCreditCard || in.Method == domain.PaymentDebitCard {
		card := CardForm{
			Number: strings.ReplaceAll(strings.TrimSpace(in.Card.Number), " ", ""),
			Name:   strings.TrimSpace(in.Card.Name),
			Expiry: strings.TrimSpace(in.Card.Expiry),
			CVV:    strings.TrimSpace(in.Card.CVV),
		}
		if err := f.validate.Struct(card); err != nil {
			return f.Snapshot(), fmt.Errorf("%w: %w", ErrInvalidPayment, err)
		}
		details.MaskedCard = maskCard(card.Number)
		details.CardHolder = card.Name
	}
	f.payment = details
	f.step = StepReview
	return f.Snapshot(), nil
}

func maskCard(number string) string {
	if len(number) <= 4 {
		return strings.Repeat("*", len(number))
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}

// Back moves one step backwards.
func (f *Flow) Back() (Snapshot, error) {
	if err := f.sync(); err != nil {
		return f.Snapshot(), err
	}
	if f.processing {
		return f.Snapshot(), ErrAlreadyProcessing
	}
	switch {
	case f.step == StepReview:
		f.step = StepPayment
	case f.step == StepPayment && f.cart.HasPhysical():
		f.step = StepShipping
	default:
		return f.Snapshot(), ErrWrongStep
	}
	return f.Snapshot(), nil
}

// PlaceOrder submits the order. On failure the cart is untouched and the
// flow returns to the payment step with the error recorded.
func (f *Flow) PlaceOrder(ctx context.Context) (*domain.Order, error) {
	if f.processing {
		return nil, ErrAlreadyProcessing
	}
	if err := f.sync(); err != nil {
		return nil, err
	}
	if f.step != StepReview {
		return nil, ErrWrongStep
	}

	f.processing = true
	f.lastErr = nil
	req := domain.OrderRequest{
		CustomerID:      f.customerID,
		Items:           f.cart.Items(),
		ShippingAddress: f.shipping,
		PaymentMethod:   f.payment.Method,
	}
	order, err := f.placer.Submit(ctx, req)
	if err != nil {
		f.processing = false
		f.lastErr = err
		f.step = StepPayment
		return nil, fmt.Errorf("%w: %w", ErrOrderFailed, err)
	}

	f.order = order
	f.step = StepComplete
	f.processing = false
	// the order exists now; a caller deadline must not leave the cart behind
	if err := f.cart.ClearCart(context.WithoutCancel(ctx)); err != nil {
		f.lastErr = err
		return order, fmt.Errorf("%w: %w", ErrCartNotCleared, err)
	}
	return order, nil
}

func (f *Flow) Step() Step { return f.step }

// Steps lists the visible steps for the current cart.
func (f *Flow) Steps() []Step {
	if f.step == StepComplete {
		if f.shipping != nil {
			return []Step{StepShipping, StepPayment, StepReview}
		}
		return []Step{StepPayment, StepReview}
	}
	if f.cart.HasPhysical() {
		return []Step{StepShipping, StepPayment, StepReview}
	}
	return []Step{StepPayment, StepReview}
}

// Snapshot is the serialisable view of the flow
type Snapshot struct {
	Started    bool            `json:"started"`
	Step       Step            `json:"step,omitempty"`
	Steps      []Step          `json:"steps"`
	Processing bool            `json:"processing"`
	Error      string          `json:"error,omitempty"`
	Shipping   *domain.Address `json:"shipping_address,omitempty"`
	Payment    *PaymentDetails `json:"payment,omitempty"`
	Cart       cart.Summary    `json:"cart"`
	Order      *domain.Order   `json:"order,omitempty"`
}

func (f *Flow) Snapshot() Snapshot {
	s := Snapshot{
		Started:    f.started,
		Step:       f.step,
		Steps:      f.Steps(),
		Processing: f.processing,
		Shipping:   f.shipping,
		Payment:    f.payment,
		Cart:       f.cart.Summary(),
		Order:      f.order,
	}
	if f.lastErr != nil {
		s.Error = f.lastErr.Error()
	}
	return s
}

// LastError is the error recorded by the latest failed order placement.
func (f *Flow) LastError() error { return f.lastErr }
