package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"allconnect/internal/domain"
	"allconnect/internal/events"
	"allconnect/internal/repository"
)

func TestCatalogCreateAndValidate(t *testing.T) {
	ctx := context.Background()
	cs, _, _ := setup(t)

	p, err := cs.Create(ctx, domain.Product{Name: "Mouse", SKU: "M-1", Price: decimal.NewFromInt(20), ProductType: domain.ProductTypePhysical, IsActive: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID == 0 || p.ProviderType != domain.ProviderREST {
		t.Fatalf("created %+v", p)
	}
	if _, err := cs.Create(ctx, domain.Product{Name: "Mouse 2", SKU: "M-1", Price: decimal.NewFromInt(20), ProductType: domain.ProductTypePhysical}); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected sku conflict, got %v", err)
	}
	_, err = cs.Create(ctx, domain.Product{Name: "Spa", SKU: "S-1", Price: decimal.NewFromInt(20), ProductType: domain.ProductTypeService})
	if !errors.Is(err, ErrInvalidInput) || !errors.Is(err, domain.ErrMissingReservation) {
		t.Fatalf("expected missing reservation, got %v", err)
	}
}

func TestCatalogGetActive(t *testing.T) {
	ctx := context.Background()
	cs, _, _ := setup(t)
	p, _ := cs.Create(ctx, domain.Product{Name: "Old", SKU: "O-1", Price: decimal.NewFromInt(1), ProductType: domain.ProductTypePhysical})
	if _, err := cs.GetActive(ctx, p.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("inactive product must not be purchasable, got %v", err)
	}
	if _, err := cs.GetByID(ctx, 0); err != ErrInvalidInput {
		t.Fatalf("expected invalid id, got %v", err)
	}
}

func TestCatalogListRejectsBadRange(t *testing.T) {
	cs, _, _ := setup(t)
	lo, hi := decimal.NewFromInt(10), decimal.NewFromInt(5)
	if _, err := cs.List(context.Background(), repository.ProductFilter{MinPrice: &lo, MaxPrice: &hi}); err != ErrInvalidInput {
		t.Fatalf("expected invalid range, got %v", err)
	}
}

func TestRecommendations(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	store.Seed([]domain.Product{
		{ID: 1, Name: "A", SKU: "A", ProductType: domain.ProductTypePhysical, IsActive: true, RatingAverage: 3},
		{ID: 2, Name: "B", SKU: "B", ProductType: domain.ProductTypePhysical, IsActive: true, RatingAverage: 4.8},
		{ID: 3, Name: "C", SKU: "C", ProductType: domain.ProductTypePhysical, IsActive: true, IsFeatured: true, RatingAverage: 2},
		{ID: 4, Name: "D", SKU: "D", ProductType: domain.ProductTypePhysical, IsActive: false, IsFeatured: true},
	}, nil)
	ordersRepo := repository.NewMemoryOrders(store)
	os := NewOrderService(ordersRepo, repository.NewMemoryTx(store), events.NopPublisher{}, zerolog.Nop())
	cs := NewCatalogService(store, ordersRepo)

	bought, _ := store.GetByID(ctx, 2)
	if _, err := os.Submit(ctx, domain.OrderRequest{CustomerID: 5, Items: []domain.CartItem{line(*bought, 1)}}); err != nil {
		t.Fatal(err)
	}
	recs, err := cs.Recommendations(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[0].ID != 3 || recs[1].ID != 1 {
		t.Fatalf("recommendations %+v", recs)
	}
	all, _ := cs.Recommendations(ctx, 0)
	if len(all) != 3 || all[1].ID != 2 {
		t.Fatalf("anonymous recommendations %+v", all)
	}
}
