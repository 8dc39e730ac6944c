package service

import (
	"context"
	"errors"
	"sort"

	"allconnect/internal/domain"
	"allconnect/internal/repository"
)

var ErrInvalidInput = errors.New("invalid input")

const maxRecommendations = 8

// Recommender ranks products for a customer on the backend side
type Recommender interface {
	Recommendations(ctx context.Context, customerID int64) ([]domain.Product, error)
}

// CatalogService wraps product listing and the admin product operations
type CatalogService struct {
	repo        repository.ProductRepository
	orders      repository.OrderRepository
	recommender Recommender
}

func NewCatalogService(repo repository.ProductRepository, orders repository.OrderRepository) *CatalogService {
	return &CatalogService{repo: repo, orders: orders}
}

// WithRecommender replaces the local ranking with r.
func (s *CatalogService) WithRecommender(r Recommender) *CatalogService {
	s.recommender = r
	return s
}

func (s *CatalogService) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if err := p.Validate(); err != nil {
		return nil, errors.Join(ErrInvalidInput, err)
	}
	if p.ProviderType == "" {
		p.ProviderType = domain.ProviderREST
	}
	cp := p
	if err := s.repo.Create(ctx, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *CatalogService) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

// GetActive is what customers may add to a cart.
func (s *CatalogService) GetActive(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (s *CatalogService) Update(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if p.ID <= 0 {
		return nil, ErrInvalidInput
	}
	if err := p.Validate(); err != nil {
		return nil, errors.Join(ErrInvalidInput, err)
	}
	cp := p
	if err := s.repo.Update(ctx, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	return s.repo.Delete(ctx, id)
}

func (s *CatalogService) List(ctx context.Context, f repository.ProductFilter) ([]domain.Product, error) {
	if f.Type != "" && !f.Type.Valid() {
		return nil, ErrInvalidInput
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, ErrInvalidInput
	}
	return s.repo.List(ctx, f)
}

func (s *CatalogService) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.Categories(ctx)
}

// Recommendations ranks active products featured first, then by rating,
// skipping what the customer already bought.
func (s *CatalogService) Recommendations(ctx context.Context, customerID int64) ([]domain.Product, error) {
	if s.recommender != nil {
		return s.recommender.Recommendations(ctx, customerID)
	}
	products, err := s.repo.List(ctx, repository.ProductFilter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	bought := make(map[int64]bool)
	if s.orders != nil && customerID > 0 {
		orders, err := s.orders.ListByCustomer(ctx, customerID)
		if err != nil {
			return nil, err
		}
		for _, o := range orders {
			for _, it := range o.Items {
				bought[it.ProductID] = true
			}
		}
	}
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if !bought[p.ID] {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsFeatured != out[j].IsFeatured {
			return out[i].IsFeatured
		}
		return out[i].RatingAverage > out[j].RatingAverage
	})
	if len(out) > maxRecommendations {
		out = out[:maxRecommendations]
	}
	return out, nil
}
