// Package cart holds the per-customer shopping cart and keeps it in durable storage.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"allconnect/internal/domain"
	"allconnect/internal/repository"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidProduct  = errors.New("product cannot be added to cart")
)

// Store is the cart of one customer. It is not safe for concurrent use;
// the owning session serialises access.
type Store struct {
	storage repository.Storage
	key     string
	items   []domain.CartItem
	now     func() time.Time
}

// Load restores the cart persisted under key, or starts an empty one.
func Load(ctx context.Context, storage repository.Storage, key string) (*Store, error) {
	s := &Store{storage: storage, key: key, now: time.Now}
	raw, err := storage.Get(ctx, key)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if err := json.Unmarshal(raw, &s.items); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return s, nil
}

// AddItem merges physical products by productId; services and subscriptions
// always get their own line so each reservation slot is kept.
func (s *Store) AddItem(ctx context.Context, p domain.Product, quantity int64, reservationDate, reservationTime string) (domain.CartItem, error) {
	if quantity <= 0 {
		return domain.CartItem{}, ErrInvalidQuantity
	}
	if p.ID <= 0 || !p.ProductType.Valid() {
		return domain.CartItem{}, ErrInvalidProduct
	}
	prev := s.snapshot()

	if p.IsPhysical() {
		for i := range s.items {
			if s.items[i].ProductID == p.ID {
				s.items[i].Quantity += quantity
				if err := s.persist(ctx, prev); err != nil {
					return domain.CartItem{}, err
				}
				return s.items[i], nil
			}
		}
	}

	it := domain.CartItem{
		ID:              s.newID(p.ID),
		ProductID:       p.ID,
		Product:         p,
		Quantity:        quantity,
		ReservationDate: reservationDate,
		ReservationTime: reservationTime,
	}
	s.items = append(s.items, it)
	if err := s.persist(ctx, prev); err != nil {
		return domain.CartItem{}, err
	}
	return it, nil
}

// RemoveItem drops every line for productID.
func (s *Store) RemoveItem(ctx context.Context, productID int64) error {
	prev := s.snapshot()
	kept := s.items[:0:0]
	for _, it := range s.items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	s.items = kept
	return s.persist(ctx, prev)
}

// UpdateQuantity sets the quantity of every line for productID; quantity <= 0 removes them.
func (s *Store) UpdateQuantity(ctx context.Context, productID, quantity int64) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, productID)
	}
	prev := s.snapshot()
	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items[i].Quantity = quantity
		}
	}
	return s.persist(ctx, prev)
}

func (s *Store) ClearCart(ctx context.Context) error {
	prev := s.snapshot()
	s.items = []domain.CartItem{}
	return s.persist(ctx, prev)
}

// Items returns a copy of the cart lines.
func (s *Store) Items() []domain.CartItem { return s.snapshot() }

func (s *Store) IsEmpty() bool { return len(s.items) == 0 }

func (s *Store) ItemCount() int64 {
	var n int64
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

func (s *Store) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range s.items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}

func (s *Store) Tax() decimal.Decimal { return domain.Tax(s.Subtotal()) }

// Total is subtotal plus tax; shipping is only known at order time.
func (s *Store) Total() decimal.Decimal { return s.Subtotal().Add(s.Tax()) }

func (s *Store) HasPhysical() bool {
	for _, it := range s.items {
		if it.Product.IsPhysical() {
			return true
		}
	}
	return false
}

// Summary is the serialisable cart view
type Summary struct {
	Items     []domain.CartItem `json:"items"`
	ItemCount int64             `json:"item_count"`
	Subtotal  decimal.Decimal   `json:"subtotal"`
	Tax       decimal.Decimal   `json:"tax"`
	Total     decimal.Decimal   `json:"total"`
}

func (s *Store) Summary() Summary {
	return Summary{
		Items:     s.snapshot(),
		ItemCount: s.ItemCount(),
		Subtotal:  s.Subtotal(),
		Tax:       s.Tax(),
		Total:     s.Total(),
	}
}

func (s *Store) snapshot() []domain.CartItem {
	return append([]domain.CartItem{}, s.items...)
}

// persist writes the current items and restores prev when the write fails.
func (s *Store) persist(ctx context.Context, prev []domain.CartItem) error {
	raw, err := json.Marshal(s.items)
	if err == nil {
		err = s.storage.Put(ctx, s.key, raw)
	}
	if err != nil {
		s.items = prev
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}

// newID returns "<productId>-<millis>", disambiguated when a line with that id already exists.
func (s *Store) newID(productID int64) string {
	id := domain.CartItemID(productID, s.now().UnixMilli())
	for _, it := range s.items {
		if it.ID == id {
			return id + "-" + uuid.NewString()[:8]
		}
	}
	return id
}
