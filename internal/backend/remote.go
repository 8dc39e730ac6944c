package backend

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"allconnect/internal/domain"
	"allconnect/internal/repository"
)

// RemoteOrders implements repository.OrderRepository over the backend.
type RemoteOrders struct{ c *Client }

func NewRemoteOrders(c *Client) *RemoteOrders { return &RemoteOrders{c: c} }

var _ repository.OrderRepository = (*RemoteOrders)(nil)

// Create posts the order; the backend assigns id and number. Fields the
// backend leaves empty keep the values computed locally.
func (r *RemoteOrders) Create(ctx context.Context, o *domain.Order) error {
	created, err := r.c.CreateOrder(ctx, *o)
	if err != nil {
		return err
	}
	if created.OrderType == "" {
		created.OrderType = o.OrderType
	}
	if created.Currency == "" {
		created.Currency = o.Currency
	}
	if len(created.StatusHistory) == 0 {
		created.StatusHistory = o.StatusHistory
	}
	if o.ShippingAddress != nil {
		created.ShippingAddress = o.ShippingAddress
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = o.CreatedAt
	}
	if len(created.Items) == len(o.Items) {
		for i := range created.Items {
			local := o.Items[i]
			it := &created.Items[i]
			if it.ReservationCode == "" {
				it.ReservationCode = local.ReservationCode
			}
			if it.SubscriptionStart == nil {
				it.SubscriptionStart, it.SubscriptionEnd = local.SubscriptionStart, local.SubscriptionEnd
			}
			if it.Status == "" {
				it.Status = local.Status
			}
		}
	} else {
		created.Items = o.Items
	}
	*o = *created
	return nil
}

func (r *RemoteOrders) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	return r.c.Order(ctx, id)
}

func (r *RemoteOrders) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return r.c.OrderByNumber(ctx, number)
}

func (r *RemoteOrders) ListByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error) {
	return r.c.CustomerOrders(ctx, customerID)
}

func (r *RemoteOrders) ListAll(ctx context.Context) ([]domain.Order, error) {
	return r.c.AllOrders(ctx)
}

// Update forwards the latest status change: cancellation through the
// customer endpoint, everything else through the admin one.
func (r *RemoteOrders) Update(ctx context.Context, o *domain.Order) error {
	var comment string
	if n := len(o.StatusHistory); n > 0 {
		comment = o.StatusHistory[n-1].Comment
	}
	if o.Status == domain.OrderStatusCancelled {
		return r.c.CancelOrder(ctx, o.ID)
	}
	return r.c.UpdateOrderStatus(ctx, o.ID, o.Status, comment)
}

// RemoteCatalog implements repository.ProductRepository over the backend.
// Listing filters are applied locally on the full product list.
type RemoteCatalog struct{ c *Client }

func NewRemoteCatalog(c *Client) *RemoteCatalog { return &RemoteCatalog{c: c} }

var _ repository.ProductRepository = (*RemoteCatalog)(nil)

func (r *RemoteCatalog) Create(ctx context.Context, p *domain.Product) error {
	var out productDTO
	if err := r.c.do(ctx, http.MethodPost, "/catalog/products", productFromDomain(*p), &out); err != nil {
		return err
	}
	*p = out.toDomain()
	return nil
}

func (r *RemoteCatalog) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	return r.c.Product(ctx, id)
}

func (r *RemoteCatalog) Update(ctx context.Context, p *domain.Product) error {
	var out productDTO
	if err := r.c.do(ctx, http.MethodPut, pathProduct(p.ID), productFromDomain(*p), &out); err != nil {
		return err
	}
	*p = out.toDomain()
	return nil
}

func (r *RemoteCatalog) Delete(ctx context.Context, id int64) error {
	return r.c.do(ctx, http.MethodDelete, pathProduct(id), nil, nil)
}

func (r *RemoteCatalog) List(ctx context.Context, f repository.ProductFilter) ([]domain.Product, error) {
	all, err := r.c.Products(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(all))
	for _, p := range all {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *RemoteCatalog) Categories(ctx context.Context) ([]domain.Category, error) {
	return r.c.Categories(ctx)
}

// Recommendations delegates ranking to the backend recommendation service.
func (r *RemoteCatalog) Recommendations(ctx context.Context, customerID int64) ([]domain.Product, error) {
	return r.c.Recommendations(ctx, customerID)
}

func pathProduct(id int64) string {
	return fmt.Sprintf("/catalog/products/%d", id)
}

// RemoteAddresses implements repository.AddressRepository over the backend.
type RemoteAddresses struct{ c *Client }

func NewRemoteAddresses(c *Client) *RemoteAddresses { return &RemoteAddresses{c: c} }

var _ repository.AddressRepository = (*RemoteAddresses)(nil)

func (r *RemoteAddresses) Create(ctx context.Context, a *domain.Address) error {
	created, err := r.c.CreateAddress(ctx, *a)
	if err != nil {
		return err
	}
	*a = *created
	return nil
}

// GetByID has no single-address endpoint; it scans the customer's list.
func (r *RemoteAddresses) GetByID(ctx context.Context, customerID, id int64) (*domain.Address, error) {
	list, err := r.c.Addresses(ctx, customerID)
	if err != nil {
		return nil, err
	}
	for _, a := range list {
		if a.ID == id {
			cp := a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *RemoteAddresses) ListByCustomer(ctx context.Context, customerID int64) ([]domain.Address, error) {
	return r.c.Addresses(ctx, customerID)
}

func (r *RemoteAddresses) Update(ctx context.Context, a *domain.Address) error {
	if err := r.c.UpdateAddress(ctx, *a); err != nil {
		return err
	}
	if a.IsDefault {
		return r.c.SetDefaultAddress(ctx, a.CustomerID, a.ID)
	}
	return nil
}

func (r *RemoteAddresses) Delete(ctx context.Context, customerID, id int64) error {
	return r.c.DeleteAddress(ctx, customerID, id)
}

// RemoteProfiles implements repository.ProfileRepository over the customer service.
type RemoteProfiles struct{ c *Client }

func NewRemoteProfiles(c *Client) *RemoteProfiles { return &RemoteProfiles{c: c} }

var _ repository.ProfileRepository = (*RemoteProfiles)(nil)

func (r *RemoteProfiles) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.c.Customer(ctx, id)
}

func (r *RemoteProfiles) Update(ctx context.Context, u *domain.User) error {
	updated, err := r.c.UpdateCustomer(ctx, *u)
	if err != nil {
		return err
	}
	*u = *updated
	return nil
}
