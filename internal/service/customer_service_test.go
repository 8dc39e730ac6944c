package service

import (
	"context"
	"errors"
	"testing"

	"allconnect/internal/domain"
	"allconnect/internal/repository"
)

func setupCustomers(t *testing.T) (*CustomerService, *repository.MemoryUsers) {
	t.Helper()
	store := repository.NewMemoryStore()
	users := repository.NewMemoryUsers(store)
	return NewCustomerService(repository.NewMemoryAddresses(store), users, repository.NewMemoryTx(store)), users
}

func TestAddresses_SingleDefault(t *testing.T) {
	ctx := context.Background()
	cs, _ := setupCustomers(t)

	first, err := cs.CreateAddress(ctx, 1, domain.Address{Street: "Av 2", City: "Heredia", Country: "CR"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !first.IsDefault || first.Label != "Principal" {
		t.Fatalf("first address %+v", first)
	}
	second, _ := cs.CreateAddress(ctx, 1, domain.Address{Label: "Oficina", Street: "Calle 5", City: "San José", Country: "CR", IsDefault: true})
	if _, err := cs.SetDefaultAddress(ctx, 1, first.ID); err != nil {
		t.Fatal(err)
	}

	list, _ := cs.Addresses(ctx, 1)
	defaults := 0
	for _, a := range list {
		if a.IsDefault {
			defaults++
			if a.ID != first.ID {
				t.Fatalf("wrong default %d", a.ID)
			}
		}
	}
	if defaults != 1 || len(list) != 2 {
		t.Fatalf("addresses %+v", list)
	}
	if _, err := cs.Address(ctx, 2, second.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("foreign address must be hidden, got %v", err)
	}
}

func TestAddresses_Validation(t *testing.T) {
	cs, _ := setupCustomers(t)
	if _, err := cs.CreateAddress(context.Background(), 1, domain.Address{Street: "  ", City: "X", Country: "CR"}); err != ErrInvalidInput {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if err := cs.DeleteAddress(context.Background(), 1, 42); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestProfile_Update(t *testing.T) {
	ctx := context.Background()
	cs, users := setupCustomers(t)
	u := domain.User{Email: "ana@example.com", FirstName: "Ana", LastName: "Mora", Role: domain.RoleCustomer, PasswordHash: []byte("hash")}
	if err := users.Create(ctx, &u); err != nil {
		t.Fatal(err)
	}

	got, err := cs.Profile(ctx, u.ID)
	if err != nil || got.FirstName != "Ana" || got.PasswordHash != nil {
		t.Fatalf("profile: %+v %v", got, err)
	}

	first, phone := " Ana Lucía ", "8888-1234"
	updated, err := cs.UpdateProfile(ctx, u.ID, domain.ProfileUpdate{FirstName: &first, Phone: &phone})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.FirstName != "Ana Lucía" || updated.LastName != "Mora" || updated.Phone != phone || updated.PasswordHash != nil {
		t.Fatalf("updated %+v", updated)
	}
	stored, _ := users.GetByID(ctx, u.ID)
	if string(stored.PasswordHash) != "hash" || stored.Phone != phone {
		t.Fatalf("stored %+v", stored)
	}

	blank := "  "
	if _, err := cs.UpdateProfile(ctx, u.ID, domain.ProfileUpdate{LastName: &blank}); err != ErrInvalidInput {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := cs.Profile(ctx, 404); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
