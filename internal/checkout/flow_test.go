package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"allconnect/internal/cart"
	"allconnect/internal/domain"
	"allconnect/internal/repository"
)

type fixture struct {
	flow      *Flow
	cart      *cart.Store
	placer    *MockOrderPlacer
	addresses *MockAddressBook
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	storage := repository.NewMemoryStorage(repository.NewMemoryStore())
	c, err := cart.Load(context.Background(), storage, repository.CartKey(1))
	if err != nil {
		t.Fatalf("load cart: %v", err)
	}
	placer := NewMockOrderPlacer(ctrl)
	addresses := NewMockAddressBook(ctrl)
	return fixture{flow: NewFlow(1, c, placer, addresses), cart: c, placer: placer, addresses: addresses}
}

var (
	laptop = domain.Product{ID: 1, Name: "Laptop", SKU: "LAP-1", Price: decimal.RequireFromString("1299.99"), ProductType: domain.ProductTypePhysical}
	yoga   = domain.Product{ID: 2, Name: "Clase de yoga", SKU: "SRV-1", Price: decimal.RequireFromString("50"), ProductType: domain.ProductTypeService,
		Reservation: &domain.Reservation{SlotMinutes: 60}}
)

func fullAddress() *AddressForm {
	return &AddressForm{Label: "Casa", Street: "Av. Central 1", City: "San José", State: "SJ", PostalCode: "10101", Country: "CR"}
}

func validCard() PaymentInput {
	return PaymentInput{Card: CardForm{Number: "4111 1111 1111 1111", Name: "Ana Mora", Expiry: "12/30", CVV: "123"}}
}

func add(t *testing.T, f fixture, p domain.Product) {
	t.Helper()
	if _, err := f.cart.AddItem(context.Background(), p, 1, "", ""); err != nil {
		t.Fatalf("add: %v", err)
	}
}

func TestStart_EmptyCart(t *testing.T) {
	f := setup(t)
	if _, err := f.flow.Start(context.Background()); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected empty cart, got %v", err)
	}
}

func TestStart_InitialStep(t *testing.T) {
	cases := []struct {
		name     string
		products []domain.Product
		want     Step
	}{
		{"physical only", []domain.Product{laptop}, StepShipping},
		{"service only", []domain.Product{yoga}, StepPayment},
		{"mixed", []domain.Product{yoga, laptop}, StepShipping},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := setup(t)
			for _, p := range tc.products {
				add(t, f, p)
			}
			snap, err := f.flow.Start(context.Background())
			if err != nil {
				t.Fatalf("start: %v", err)
			}
			if snap.Step != tc.want {
				t.Fatalf("step %s want %s", snap.Step, tc.want)
			}
		})
	}
}

func TestShippingNeverVisitedWithoutPhysical(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	add(t, f, yoga)
	snap, _ := f.flow.Start(ctx)
	for _, s := range snap.Steps {
		if s == StepShipping {
			t.Fatalf("shipping listed for service-only cart")
		}
	}
	if _, err := f.flow.SubmitShipping(ctx, ShippingInput{NewAddress: fullAddress()}); !errors.Is(err, ErrWrongStep) {
		t.Fatalf("expected wrong step, got %v", err)
	}
	if _, err := f.flow.SubmitPayment(ctx, validCard()); err != nil {
		t.Fatalf("payment: %v", err)
	}
	if _, err := f.flow.Back(); err != nil {
		t.Fatalf("back: %v", err)
	}
	if _, err := f.flow.Back(); !errors.Is(err, ErrWrongStep) {
		t.Fatalf("back from payment must not reach shipping, got %v", err)
	}
}

func TestShippingSkippedWhenPhysicalRemoved(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	add(t, f, laptop)
	add(t, f, yoga)
	snap, _ := f.flow.Start(ctx)
	if snap.Step != StepShipping {
		t.Fatalf("expected shipping")
	}
	if err := f.cart.RemoveItem(ctx, laptop.ID); err != nil {
		t.Fatal(err)
	}
	snap, err := f.flow.SubmitPayment(ctx, validCard())
	if err != nil {
		t.Fatalf("payment after skip: %v", err)
	}
	if snap.Step != StepReview {
		t.Fatalf("step %s", snap.Step)
	}
}

func TestSubmitShipping_Validation(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	add(t, f, laptop)
	f.flow.Start(ctx)

	missing := fullAddress()
	missing.PostalCode = "  "
	if _, err := f.flow.SubmitShipping(ctx, ShippingInput{NewAddress: missing}); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("expected invalid address, got %v", err)
	}
	if _, err := f.flow.SubmitShipping(ctx, ShippingInput{}); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("expected invalid address for empty input, got %v", err)
	}

	f.addresses.EXPECT().Address(gomock.Any(), int64(1), int64(99)).Return(nil, repository.ErrNotFound)
	if _, err := f.flow.SubmitShipping(ctx, ShippingInput{SavedAddressID: 99}); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("expected invalid saved address, got %v", err)
	}

	saved := &domain.Address{ID: 5, CustomerID: 1, Label: "Casa"}
	f.addresses.EXPECT().Address(gomock.Any(), int64(1), int64(5)).Return(saved, nil)
	snap, err := f.flow.SubmitShipping(ctx, ShippingInput{SavedAddressID: 5})
	if err != nil {
		t.Fatalf("saved address: %v", err)
	}
	if snap.Step != StepPayment || snap.Shipping.ID != 5 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestSubmitPayment_Validation(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	add(t, f, yoga)
	f.flow.Start(ctx)

	bad := validCard()
	bad.Card.CVV = ""
	if _, err := f.flow.SubmitPayment(ctx, bad); !errors.Is(err, ErrInvalidPayment) {
		t.Fatalf("expected invalid payment, got %v", err)
	}
	// no Luhn check
	odd := validCard()
	odd.Card.Number = "1234"
	snap, err := f.flow.SubmitPayment(ctx, odd)
	if err != nil {
		t.Fatalf("payment: %v", err)
	}
	if snap.Payment.MaskedCard != "****" || snap.Payment.Method != domain.PaymentCreditCard {
		t.Fatalf("payment details %+v", snap.Payment)
	}
}

func TestPlaceOrder_Success(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	add(t, f, laptop)
	add(t, f, yoga)
	f.flow.Start(ctx)
	if _, err := f.flow.SubmitShipping(ctx, ShippingInput{NewAddress: fullAddress()}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.flow.SubmitPayment(ctx, validCard()); err != nil {
		t.Fatal(err)
	}

	f.placer.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req domain.OrderRequest) (*domain.Order, error) {
			// the cart must still be intact while the order is submitted
			if f.cart.IsEmpty() {
				t.Fatalf("cart cleared before submission")
			}
			if !f.flow.Snapshot().Processing {
				t.Fatalf("processing flag not set during submission")
			}
			if len(req.Items) != 2 || req.ShippingAddress == nil || req.CustomerID != 1 {
				t.Fatalf("bad request %+v", req)
			}
			return &domain.Order{ID: 1, OrderNumber: "ORD-2024-0001", Status: domain.OrderStatusConfirmed}, nil
		})

	o, err := f.flow.PlaceOrder(ctx)
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if o.OrderNumber != "ORD-2024-0001" {
		t.Fatalf("order %+v", o)
	}
	if f.flow.Step() != StepComplete || !f.cart.IsEmpty() {
		t.Fatalf("flow not completed: step=%s items=%d", f.flow.Step(), len(f.cart.Items()))
	}
	if _, err := f.flow.PlaceOrder(ctx); !errors.Is(err, ErrWrongStep) {
		t.Fatalf("second placement must be rejected, got %v", err)
	}
}

func TestPlaceOrder_FailureKeepsCart(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	add(t, f, yoga)
	f.flow.Start(ctx)
	if _, err := f.flow.SubmitPayment(ctx, validCard()); err != nil {
		t.Fatal(err)
	}
	f.placer.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(nil, errors.New("backend down"))

	if _, err := f.flow.PlaceOrder(ctx); !errors.Is(err, ErrOrderFailed) {
		t.Fatalf("expected order failed, got %v", err)
	}
	snap := f.flow.Snapshot()
	if snap.Processing {
		t.Fatalf("processing flag not reset")
	}
	if snap.Step != StepPayment || snap.Error == "" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if f.cart.ItemCount() != 1 {
		t.Fatalf("cart touched on failure")
	}
}

// failingPuts rejects writes while fail is set
type failingPuts struct {
	repository.Storage
	fail bool
}

func (s *failingPuts) Put(ctx context.Context, key string, value []byte) error {
	if s.fail {
		return errors.New("disk full")
	}
	return s.Storage.Put(ctx, key, value)
}

func TestPlaceOrder_CartNotCleared(t *testing.T) {
	ctx := context.Background()
	storage := &failingPuts{Storage: repository.NewMemoryStorage(repository.NewMemoryStore())}
	c, err := cart.Load(ctx, storage, repository.CartKey(1))
	if err != nil {
		t.Fatal(err)
	}
	placer := NewMockOrderPlacer(gomock.NewController(t))
	flow := NewFlow(1, c, placer, nil)
	if _, err := c.AddItem(ctx, yoga, 1, "2025-05-01", "10:00"); err != nil {
		t.Fatal(err)
	}
	flow.Start(ctx)
	if _, err := flow.SubmitPayment(ctx, validCard()); err != nil {
		t.Fatal(err)
	}

	placed := &domain.Order{ID: 3, OrderNumber: "ORD-2024-0003", Status: domain.OrderStatusConfirmed}
	placer.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, domain.OrderRequest) (*domain.Order, error) {
			storage.fail = true
			return placed, nil
		})

	o, err := flow.PlaceOrder(ctx)
	if !errors.Is(err, ErrCartNotCleared) {
		t.Fatalf("expected cart not cleared, got %v", err)
	}
	if o != placed {
		t.Fatalf("order must be returned with the error, got %+v", o)
	}
	snap := flow.Snapshot()
	if snap.Step != StepComplete || snap.Order != placed || snap.Processing || snap.Error == "" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if c.ItemCount() != 1 {
		t.Fatalf("failed clear must keep the in-memory cart consistent with storage")
	}
	if _, err := flow.PlaceOrder(ctx); !errors.Is(err, ErrWrongStep) {
		t.Fatalf("completed flow must not place again, got %v", err)
	}
}

func TestPlaceOrder_WrongStep(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	if _, err := f.flow.PlaceOrder(ctx); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("expected not started, got %v", err)
	}
	add(t, f, laptop)
	f.flow.Start(ctx)
	if _, err := f.flow.PlaceOrder(ctx); !errors.Is(err, ErrWrongStep) {
		t.Fatalf("expected wrong step, got %v", err)
	}
}

func TestPlaceOrder_RejectsReentry(t *testing.T) {
	f := setup(t)
	add(t, f, yoga)
	f.flow.Start(context.Background())
	f.flow.processing = true
	if _, err := f.flow.PlaceOrder(context.Background()); !errors.Is(err, ErrAlreadyProcessing) {
		t.Fatalf("expected already processing, got %v", err)
	}
}
