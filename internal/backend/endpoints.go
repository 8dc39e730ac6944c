package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/sync/errgroup"

	"allconnect/internal/domain"
)

// security

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	in := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/security/login", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/security/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the user behind the token carried by ctx.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var out userDTO
	if err := c.do(ctx, http.MethodGet, "/security/me", nil, &out); err != nil {
		return nil, err
	}
	u := out.toDomain()
	return &u, nil
}

// catalog

func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	var out []productDTO
	if err := c.do(ctx, http.MethodGet, "/catalog/products", nil, &out); err != nil {
		return nil, err
	}
	list := make([]domain.Product, 0, len(out))
	for _, p := range out {
		list = append(list, p.toDomain())
	}
	return list, nil
}

func (c *Client) Product(ctx context.Context, id int64) (*domain.Product, error) {
	var out productDTO
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/catalog/products/%d", id), nil, &out); err != nil {
		return nil, err
	}
	p := out.toDomain()
	return &p, nil
}

func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var out []categoryDTO
	if err := c.do(ctx, http.MethodGet, "/catalog/categories", nil, &out); err != nil {
		return nil, err
	}
	list := make([]domain.Category, 0, len(out))
	for _, cat := range out {
		list = append(list, domain.Category{ID: cat.ID, Name: cat.Name, Slug: cat.Slug, ParentID: cat.ParentID})
	}
	return list, nil
}

func (c *Client) Recommendations(ctx context.Context, userID int64) ([]domain.Product, error) {
	var out []productDTO
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/recommendations/user/%d", userID), nil, &out); err != nil {
		return nil, err
	}
	list := make([]domain.Product, 0, len(out))
	for _, p := range out {
		list = append(list, p.toDomain())
	}
	return list, nil
}

// orders

func (c *Client) CreateOrder(ctx context.Context, o domain.Order) (*domain.Order, error) {
	var out orderDTO
	if err := c.do(ctx, http.MethodPost, "/orders", createOrderFromDomain(o), &out); err != nil {
		return nil, err
	}
	res := out.toDomain()
	return &res, nil
}

func (c *Client) Order(ctx context.Context, id int64) (*domain.Order, error) {
	return c.getOrder(ctx, fmt.Sprintf("/orders/%d", id))
}

func (c *Client) OrderByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return c.getOrder(ctx, "/orders/number/"+url.PathEscape(number))
}

func (c *Client) getOrder(ctx context.Context, path string) (*domain.Order, error) {
	var out orderDTO
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	o := out.toDomain()
	return &o, nil
}

func (c *Client) CustomerOrders(ctx context.Context, customerID int64) ([]domain.Order, error) {
	return c.listOrders(ctx, fmt.Sprintf("/orders/customer/%d", customerID))
}

func (c *Client) AllOrders(ctx context.Context) ([]domain.Order, error) {
	return c.listOrders(ctx, "/admin/orders")
}

func (c *Client) listOrders(ctx context.Context, path string) ([]domain.Order, error) {
	var out []orderDTO
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	list := make([]domain.Order, 0, len(out))
	for _, o := range out {
		list = append(list, o.toDomain())
	}
	return list, nil
}

func (c *Client) CancelOrder(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/orders/%d/cancel", id), nil, nil)
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus, comment string) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/admin/orders/%d/status", id), statusUpdateRequest{Status: status, Comment: comment}, nil)
}

// customers

func (c *Client) Customer(ctx context.Context, id int64) (*domain.User, error) {
	var out customerDTO
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/customers/%d", id), nil, &out); err != nil {
		return nil, err
	}
	u := out.toDomain()
	return &u, nil
}

func (c *Client) UpdateCustomer(ctx context.Context, u domain.User) (*domain.User, error) {
	var out customerDTO
	in := customerUpdateRequest{FirstName: u.FirstName, LastName: u.LastName, Phone: u.Phone}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/customers/%d", u.ID), in, &out); err != nil {
		return nil, err
	}
	updated := out.toDomain()
	return &updated, nil
}

func (c *Client) Addresses(ctx context.Context, customerID int64) ([]domain.Address, error) {
	var out []addressDTO
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/customers/%d/addresses", customerID), nil, &out); err != nil {
		return nil, err
	}
	list := make([]domain.Address, 0, len(out))
	for _, a := range out {
		a.CustomerID = customerID
		list = append(list, a.toDomain())
	}
	return list, nil
}

func (c *Client) CreateAddress(ctx context.Context, a domain.Address) (*domain.Address, error) {
	var out addressDTO
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/customers/%d/addresses", a.CustomerID), addressFromDomain(a), &out); err != nil {
		return nil, err
	}
	out.CustomerID = a.CustomerID
	res := out.toDomain()
	return &res, nil
}

func (c *Client) UpdateAddress(ctx context.Context, a domain.Address) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/customers/%d/addresses/%d", a.CustomerID, a.ID), addressFromDomain(a), nil)
}

func (c *Client) DeleteAddress(ctx context.Context, customerID, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/customers/%d/addresses/%d", customerID, id), nil, nil)
}

func (c *Client) SetDefaultAddress(ctx context.Context, customerID, id int64) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/customers/%d/addresses/%d/default", customerID, id), nil, nil)
}

// admin

func (c *Client) ServicesHealth(ctx context.Context) ([]ServiceHealth, error) {
	var out []serviceHealthDTO
	if err := c.do(ctx, http.MethodGet, "/admin/it/services/health", nil, &out); err != nil {
		return nil, err
	}
	list := make([]ServiceHealth, 0, len(out))
	for _, h := range out {
		list = append(list, ServiceHealth{Name: h.Name, Status: h.Status, ResponseTime: h.ResponseTime, LastCheck: h.LastCheck})
	}
	return list, nil
}

func (c *Client) Metrics(ctx context.Context) (SystemMetrics, error) {
	var out systemMetricsDTO
	if err := c.do(ctx, http.MethodGet, "/admin/it/metrics", nil, &out); err != nil {
		return SystemMetrics{}, err
	}
	return SystemMetrics(out), nil
}

func (c *Client) DashboardStats(ctx context.Context) (DashboardStats, error) {
	var out dashboardStatsDTO
	if err := c.do(ctx, http.MethodGet, "/admin/dashboard/stats", nil, &out); err != nil {
		return DashboardStats{}, err
	}
	return DashboardStats(out), nil
}

// Overview is the admin landing view
type Overview struct {
	Services []ServiceHealth `json:"services"`
	Metrics  SystemMetrics   `json:"metrics"`
	Stats    DashboardStats  `json:"stats"`
}

// Overview fetches health, metrics and stats concurrently; the first failure cancels the rest.
func (c *Client) Overview(ctx context.Context) (Overview, error) {
	var ov Overview
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := c.ServicesHealth(ctx)
		ov.Services = s
		return err
	})
	g.Go(func() error {
		m, err := c.Metrics(ctx)
		ov.Metrics = m
		return err
	})
	g.Go(func() error {
		s, err := c.DashboardStats(ctx)
		ov.Stats = s
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return ov, nil
}
