package service

import (
	"context"
	"strings"

	"allconnect/internal/domain"
	"allconnect/internal/repository"
)

// CustomerService manages a customer's profile and address book
type CustomerService struct {
	addresses repository.AddressRepository
	profiles  repository.ProfileRepository
	tx        repository.TxManager
}

func NewCustomerService(addresses repository.AddressRepository, profiles repository.ProfileRepository, tx repository.TxManager) *CustomerService {
	return &CustomerService{addresses: addresses, profiles: profiles, tx: tx}
}

func (s *CustomerService) Profile(ctx context.Context, customerID int64) (*domain.User, error) {
	u, err := s.profiles.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = nil
	return u, nil
}

// UpdateProfile applies the set fields of in. Names may not be blanked.
func (s *CustomerService) UpdateProfile(ctx context.Context, customerID int64, in domain.ProfileUpdate) (*domain.User, error) {
	for _, f := range []*string{in.FirstName, in.LastName, in.Phone} {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
	if (in.FirstName != nil && *in.FirstName == "") || (in.LastName != nil && *in.LastName == "") {
		return nil, ErrInvalidInput
	}
	if in.Phone != nil && len(*in.Phone) > 20 {
		return nil, ErrInvalidInput
	}

	var out *domain.User
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		u, err := s.profiles.GetByID(ctx, customerID)
		if err != nil {
			return err
		}
		in.Apply(u)
		if err := s.profiles.Update(ctx, u); err != nil {
			return err
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	out.PasswordHash = nil
	return out, nil
}

func (s *CustomerService) Addresses(ctx context.Context, customerID int64) ([]domain.Address, error) {
	return s.addresses.ListByCustomer(ctx, customerID)
}

// Address resolves one saved address of the customer.
func (s *CustomerService) Address(ctx context.Context, customerID, id int64) (*domain.Address, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	return s.addresses.GetByID(ctx, customerID, id)
}

// CreateAddress saves a. The first address, or one flagged default, becomes the only default.
func (s *CustomerService) CreateAddress(ctx context.Context, customerID int64, a domain.Address) (*domain.Address, error) {
	a.CustomerID = customerID
	if strings.TrimSpace(a.Street) == "" || strings.TrimSpace(a.City) == "" || strings.TrimSpace(a.Country) == "" {
		return nil, ErrInvalidInput
	}
	if a.Label == "" {
		a.Label = "Principal"
	}
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.addresses.ListByCustomer(ctx, customerID)
		if err != nil {
			return err
		}
		if len(existing) == 0 {
			a.IsDefault = true
		}
		if a.IsDefault {
			if err := s.clearDefault(ctx, existing, 0); err != nil {
				return err
			}
		}
		return s.addresses.Create(ctx, &a)
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *CustomerService) DeleteAddress(ctx context.Context, customerID, id int64) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	return s.addresses.Delete(ctx, customerID, id)
}

func (s *CustomerService) SetDefaultAddress(ctx context.Context, customerID, id int64) (*domain.Address, error) {
	var out *domain.Address
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		a, err := s.Address(ctx, customerID, id)
		if err != nil {
			return err
		}
		existing, err := s.addresses.ListByCustomer(ctx, customerID)
		if err != nil {
			return err
		}
		if err := s.clearDefault(ctx, existing, id); err != nil {
			return err
		}
		a.IsDefault = true
		if err := s.addresses.Update(ctx, a); err != nil {
			return err
		}
		out = a
		return nil
	})
	return out, err
}

func (s *CustomerService) clearDefault(ctx context.Context, list []domain.Address, keep int64) error {
	for _, x := range list {
		if x.IsDefault && x.ID != keep {
			x.IsDefault = false
			if err := s.addresses.Update(ctx, &x); err != nil {
				return err
			}
		}
	}
	return nil
}
