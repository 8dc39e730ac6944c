package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"allconnect/internal/domain"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// Storage is the durable key-value store behind carts and auth sessions
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// ProductFilter narrows catalog listings; zero values match everything
type ProductFilter struct {
	NameSubstring string
	Type          domain.ProductType
	CategoryID    int64
	FeaturedOnly  bool
	ActiveOnly    bool
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
}

// Match reports whether p passes every filter criterion.
func (f ProductFilter) Match(p domain.Product) bool {
	if !containsIgnoreCase(p.Name, f.NameSubstring) {
		return false
	}
	if f.Type != "" && p.ProductType != f.Type {
		return false
	}
	if f.CategoryID > 0 && p.CategoryID != f.CategoryID {
		return false
	}
	if f.FeaturedOnly && !p.IsFeatured {
		return false
	}
	if f.ActiveOnly && !p.IsActive {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	return true
}

type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f ProductFilter) ([]domain.Product, error)
	Categories(ctx context.Context) ([]domain.Category, error)
}

type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	GetByNumber(ctx context.Context, number string) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	Update(ctx context.Context, o *domain.Order) error
}

type AddressRepository interface {
	Create(ctx context.Context, a *domain.Address) error
	GetByID(ctx context.Context, customerID, id int64) (*domain.Address, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]domain.Address, error)
	Update(ctx context.Context, a *domain.Address) error
	Delete(ctx context.Context, customerID, id int64) error
}

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
}

// ProfileRepository reads and updates customer profiles
type ProfileRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
}

// TxManager runs fn so that repository calls made with the passed ctx are atomic
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

func containsIgnoreCase(s, sub string) bool {
	if sub == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// NoTx runs fn directly; used where the store has no transactions (remote backend)
type NoTx struct{}

func (NoTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
