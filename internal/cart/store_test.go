package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"allconnect/internal/domain"
	"allconnect/internal/repository"
)

func setup(t *testing.T) (*Store, repository.Storage) {
	t.Helper()
	storage := repository.NewMemoryStorage(repository.NewMemoryStore())
	s, err := Load(context.Background(), storage, repository.CartKey(1))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return s, storage
}

func laptop() domain.Product {
	return domain.Product{ID: 1, Name: "Laptop", SKU: "LAP-1", Price: decimal.RequireFromString("1299.99"), ProductType: domain.ProductTypePhysical}
}

func consult() domain.Product {
	return domain.Product{ID: 2, Name: "Consulta", SKU: "SRV-1", Price: decimal.RequireFromString("50"), ProductType: domain.ProductTypeService,
		Reservation: &domain.Reservation{SlotMinutes: 60}}
}

func TestAddItem_PhysicalMerges(t *testing.T) {
	ctx := context.Background()
	s, _ := setup(t)
	if _, err := s.AddItem(ctx, laptop(), 1, "", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddItem(ctx, laptop(), 2, "", ""); err != nil {
		t.Fatal(err)
	}
	if len(s.Items()) != 1 {
		t.Fatalf("expected one line, got %d", len(s.Items()))
	}
	if s.ItemCount() != 3 {
		t.Fatalf("count %d", s.ItemCount())
	}
}

func TestAddItem_ServiceSlotsStaySeparate(t *testing.T) {
	ctx := context.Background()
	s, _ := setup(t)
	if _, err := s.AddItem(ctx, consult(), 1, "2024-06-01", "10:00"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddItem(ctx, consult(), 1, "2024-06-02", "11:00"); err != nil {
		t.Fatal(err)
	}
	items := s.Items()
	if len(items) != 2 {
		t.Fatalf("expected two lines, got %d", len(items))
	}
	if items[0].ID == items[1].ID {
		t.Fatalf("line ids must differ")
	}
}

func TestAddItem_InvalidQuantity(t *testing.T) {
	s, _ := setup(t)
	if _, err := s.AddItem(context.Background(), laptop(), 0, "", ""); err != ErrInvalidQuantity {
		t.Fatalf("expected invalid quantity, got %v", err)
	}
}

func TestTotals(t *testing.T) {
	ctx := context.Background()
	s, _ := setup(t)
	p := domain.Product{ID: 9, Name: "Item", SKU: "I", Price: decimal.RequireFromString("50.00"), ProductType: domain.ProductTypePhysical}
	if _, err := s.AddItem(ctx, p, 1, "", ""); err != nil {
		t.Fatal(err)
	}
	if !s.Subtotal().Equal(decimal.RequireFromString("50.00")) {
		t.Fatalf("subtotal %v", s.Subtotal())
	}
	if !s.Tax().Equal(decimal.RequireFromString("6.50")) {
		t.Fatalf("tax %v", s.Tax())
	}
	if !s.Total().Equal(decimal.RequireFromString("56.50")) {
		t.Fatalf("total %v", s.Total())
	}
	if !s.Total().Equal(s.Subtotal().Add(s.Tax())) {
		t.Fatalf("total != subtotal + tax")
	}
}

func TestUpdateQuantityZeroRemoves(t *testing.T) {
	ctx := context.Background()
	a, _ := setup(t)
	b, _ := setup(t)
	for _, s := range []*Store{a, b} {
		if _, err := s.AddItem(ctx, laptop(), 2, "", ""); err != nil {
			t.Fatal(err)
		}
		if _, err := s.AddItem(ctx, consult(), 1, "2024-06-01", "10:00"); err != nil {
			t.Fatal(err)
		}
	}
	if err := a.UpdateQuantity(ctx, laptop().ID, 0); err != nil {
		t.Fatal(err)
	}
	if err := b.RemoveItem(ctx, laptop().ID); err != nil {
		t.Fatal(err)
	}
	if len(a.Items()) != len(b.Items()) || a.ItemCount() != b.ItemCount() || !a.Subtotal().Equal(b.Subtotal()) {
		t.Fatalf("update to 0 differs from remove: %+v vs %+v", a.Items(), b.Items())
	}
	if a.HasPhysical() {
		t.Fatalf("physical line should be gone")
	}
}

func TestPersistAcrossLoads(t *testing.T) {
	ctx := context.Background()
	s, storage := setup(t)
	if _, err := s.AddItem(ctx, laptop(), 1, "", ""); err != nil {
		t.Fatal(err)
	}
	again, err := Load(ctx, storage, repository.CartKey(1))
	if err != nil {
		t.Fatal(err)
	}
	if again.ItemCount() != 1 || !again.Subtotal().Equal(laptop().Price) {
		t.Fatalf("cart not restored: %+v", again.Items())
	}
	if err := again.ClearCart(ctx); err != nil {
		t.Fatal(err)
	}
	third, _ := Load(ctx, storage, repository.CartKey(1))
	if !third.IsEmpty() {
		t.Fatalf("cleared cart restored items")
	}
}

type failingStorage struct{ repository.Storage }

func (failingStorage) Put(context.Context, string, []byte) error { return errors.New("disk full") }

func TestPersistFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	s, storage := setup(t)
	if _, err := s.AddItem(ctx, laptop(), 1, "", ""); err != nil {
		t.Fatal(err)
	}
	s.storage = failingStorage{storage}
	if _, err := s.AddItem(ctx, laptop(), 1, "", ""); err == nil {
		t.Fatalf("expected persist error")
	}
	if s.ItemCount() != 1 {
		t.Fatalf("in-memory cart not rolled back: %d", s.ItemCount())
	}
	if err := s.ClearCart(ctx); err == nil {
		t.Fatalf("expected persist error")
	}
	if s.IsEmpty() {
		t.Fatalf("clear must roll back on failure")
	}
}
