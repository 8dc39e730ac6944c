package backend

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"allconnect/internal/domain"
)

// The backend speaks camelCase JSON; these types convert at the boundary.

type AuthResponse struct {
	Token     string      `json:"token"`
	TokenType string      `json:"tokenType"`
	UserID    int64       `json:"userId"`
	Email     string      `json:"email"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Role      domain.Role `json:"role"`
	ExpiresIn int64       `json:"expiresIn"`
}

func (a AuthResponse) User() domain.User {
	return domain.User{ID: a.UserID, Email: a.Email, FirstName: a.FirstName, LastName: a.LastName, Role: a.Role}
}

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type userDTO struct {
	ID        int64       `json:"id"`
	Email     string      `json:"email"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Role      domain.Role `json:"role"`
	CreatedAt string      `json:"createdAt"`
}

func (u userDTO) toDomain() domain.User {
	return domain.User{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName, Role: u.Role, CreatedAt: parseTime(u.CreatedAt)}
}

// customerDTO is the customer-service profile; its id equals the user id
type customerDTO struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	CreatedAt string `json:"createdAt"`
}

func (c customerDTO) toDomain() domain.User {
	return domain.User{ID: c.ID, Email: c.Email, FirstName: c.FirstName, LastName: c.LastName, Phone: c.Phone,
		Role: domain.RoleCustomer, CreatedAt: parseTime(c.CreatedAt)}
}

type customerUpdateRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

type productDTO struct {
	ID                int64               `json:"id,omitempty"`
	SKU               string              `json:"sku"`
	Name              string              `json:"name"`
	Description       string              `json:"description,omitempty"`
	Price             decimal.Decimal     `json:"price"`
	CompareAtPrice    decimal.Decimal     `json:"compareAtPrice"`
	Type              domain.ProductType  `json:"type"`
	CategoryID        int64               `json:"categoryId,omitempty"`
	ProviderType      domain.ProviderType `json:"providerType"`
	ProviderProductID string              `json:"providerProductId,omitempty"`
	Stock             int64               `json:"stock"`
	LowStockThreshold int64               `json:"lowStockThreshold"`
	ImageURL          string              `json:"imageUrl,omitempty"`
	Tags              []string            `json:"tags,omitempty"`
	BillingPeriod     string              `json:"billingPeriod,omitempty"`
	TrialDays         int                 `json:"trialDays,omitempty"`
	DurationMinutes   int                 `json:"durationMinutes,omitempty"`
	Location          string              `json:"location,omitempty"`
	Active            bool                `json:"active"`
	Featured          bool                `json:"featured"`
	RatingAverage     float64             `json:"ratingAverage"`
	RatingCount       int64               `json:"ratingCount"`
	CreatedAt         string              `json:"createdAt,omitempty"`
}

func (p productDTO) toDomain() domain.Product {
	out := domain.Product{
		ID:                p.ID,
		SKU:               p.SKU,
		Name:              p.Name,
		Description:       p.Description,
		Price:             p.Price,
		CompareAtPrice:    p.CompareAtPrice,
		ProductType:       p.Type,
		CategoryID:        p.CategoryID,
		ProviderType:      p.ProviderType,
		ProviderProductID: p.ProviderProductID,
		Stock:             p.Stock,
		LowStockThreshold: p.LowStockThreshold,
		ImageURL:          p.ImageURL,
		Tags:              p.Tags,
		IsActive:          p.Active,
		IsFeatured:        p.Featured,
		RatingAverage:     p.RatingAverage,
		RatingCount:       p.RatingCount,
		CreatedAt:         parseTime(p.CreatedAt),
	}
	switch p.Type {
	case domain.ProductTypeService:
		out.Reservation = &domain.Reservation{SlotMinutes: p.DurationMinutes, Location: p.Location}
	case domain.ProductTypeSubscription:
		out.Subscription = &domain.Subscription{BillingCycle: domain.BillingCycle(strings.ToUpper(p.BillingPeriod)), TrialDays: p.TrialDays}
	}
	return out
}

func productFromDomain(p domain.Product) productDTO {
	out := productDTO{
		ID:                p.ID,
		SKU:               p.SKU,
		Name:              p.Name,
		Description:       p.Description,
		Price:             p.Price,
		CompareAtPrice:    p.CompareAtPrice,
		Type:              p.ProductType,
		CategoryID:        p.CategoryID,
		ProviderType:      p.ProviderType,
		ProviderProductID: p.ProviderProductID,
		Stock:             p.Stock,
		LowStockThreshold: p.LowStockThreshold,
		ImageURL:          p.ImageURL,
		Tags:              p.Tags,
		Active:            p.IsActive,
		Featured:          p.IsFeatured,
	}
	if r := p.Reservation; r != nil {
		out.DurationMinutes, out.Location = r.SlotMinutes, r.Location
	}
	if s := p.Subscription; s != nil {
		out.BillingPeriod, out.TrialDays = string(s.BillingCycle), s.TrialDays
	}
	return out
}

type categoryDTO struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	ParentID int64  `json:"parentId"`
}

type addressDTO struct {
	ID         int64  `json:"id,omitempty"`
	CustomerID int64  `json:"customerId,omitempty"`
	Label      string `json:"label"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	ZipCode    string `json:"zipCode"`
	Country    string `json:"country"`
	IsDefault  bool   `json:"isDefault"`
}

func (a addressDTO) toDomain() domain.Address {
	return domain.Address{ID: a.ID, CustomerID: a.CustomerID, Label: a.Label, Street: a.Street, City: a.City,
		State: a.State, PostalCode: a.ZipCode, Country: a.Country, IsDefault: a.IsDefault}
}

func addressFromDomain(a domain.Address) addressDTO {
	return addressDTO{ID: a.ID, CustomerID: a.CustomerID, Label: a.Label, Street: a.Street, City: a.City,
		State: a.State, ZipCode: a.PostalCode, Country: a.Country, IsDefault: a.IsDefault}
}

// formatAddress flattens an address into the single line the order API stores.
func formatAddress(a *domain.Address) string {
	if a == nil {
		return ""
	}
	parts := make([]string, 0, 5)
	for _, p := range []string{a.Street, a.City, a.State, a.PostalCode, a.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type orderItemDTO struct {
	ID                int64                  `json:"id,omitempty"`
	ProductID         int64                  `json:"productId"`
	ProductSKU        string                 `json:"productSku"`
	ProductName       string                 `json:"productName"`
	ProductType       domain.ProductType     `json:"productType"`
	ProviderType      domain.ProviderType    `json:"providerType"`
	Quantity          int64                  `json:"quantity"`
	UnitPrice         decimal.Decimal        `json:"unitPrice"`
	TotalPrice        decimal.Decimal        `json:"totalPrice"`
	Status            domain.OrderItemStatus `json:"status,omitempty"`
	BookingDate       string                 `json:"bookingDate,omitempty"`
	BookingTime       string                 `json:"bookingTime,omitempty"`
	ReservationCode   string                 `json:"reservationCode,omitempty"`
	SubscriptionStart string                 `json:"subscriptionStart,omitempty"`
	SubscriptionEnd   string                 `json:"subscriptionEnd,omitempty"`
}

type statusDTO struct {
	Status    domain.OrderStatus `json:"status"`
	Comment   string             `json:"comment"`
	CreatedBy string             `json:"createdBy"`
	CreatedAt string             `json:"createdAt"`
}

type orderDTO struct {
	ID              int64                `json:"id"`
	OrderNumber     string               `json:"orderNumber"`
	CustomerID      int64                `json:"customerId"`
	Status          domain.OrderStatus   `json:"status"`
	OrderType       domain.OrderType     `json:"orderType"`
	Subtotal        decimal.Decimal      `json:"subtotal"`
	Tax             decimal.Decimal      `json:"tax"`
	ShippingCost    decimal.Decimal      `json:"shippingCost"`
	Discount        decimal.Decimal      `json:"discount"`
	Total           decimal.Decimal      `json:"total"`
	Currency        string               `json:"currency"`
	ShippingAddress string               `json:"shippingAddress"`
	PaymentMethod   domain.PaymentMethod `json:"paymentMethod"`
	Items           []orderItemDTO       `json:"items"`
	StatusHistory   []statusDTO          `json:"statusHistory"`
	CreatedAt       string               `json:"createdAt"`
	UpdatedAt       string               `json:"updatedAt"`
}

func (o orderDTO) toDomain() domain.Order {
	out := domain.Order{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		CustomerID:    o.CustomerID,
		Status:        o.Status,
		OrderType:     o.OrderType,
		Subtotal:      o.Subtotal,
		Tax:           o.Tax,
		ShippingCost:  o.ShippingCost,
		Discount:      o.Discount,
		Total:         o.Total,
		Currency:      o.Currency,
		PaymentMethod: o.PaymentMethod,
		Items:         make([]domain.OrderItem, 0, len(o.Items)),
		CreatedAt:     parseTime(o.CreatedAt),
		UpdatedAt:     parseTime(o.UpdatedAt),
	}
	if o.ShippingAddress != "" {
		out.ShippingAddress = &domain.Address{CustomerID: o.CustomerID, Street: o.ShippingAddress}
	}
	for _, it := range o.Items {
		oi := domain.OrderItem{
			ID:              it.ID,
			ProductID:       it.ProductID,
			SKU:             it.ProductSKU,
			Name:            it.ProductName,
			ProductType:     it.ProductType,
			ProviderType:    it.ProviderType,
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice,
			TotalPrice:      it.TotalPrice,
			Status:          it.Status,
			ReservationDate: it.BookingDate,
			ReservationTime: it.BookingTime,
			ReservationCode: it.ReservationCode,
		}
		if t := parseTime(it.SubscriptionStart); !t.IsZero() {
			oi.SubscriptionStart = &t
		}
		if t := parseTime(it.SubscriptionEnd); !t.IsZero() {
			oi.SubscriptionEnd = &t
		}
		out.Items = append(out.Items, oi)
	}
	for _, h := range o.StatusHistory {
		out.StatusHistory = append(out.StatusHistory, domain.StatusEntry{
			Status: h.Status, Comment: h.Comment, CreatedBy: h.CreatedBy, CreatedAt: parseTime(h.CreatedAt),
		})
	}
	return out
}

type createOrderRequest struct {
	CustomerID      int64                `json:"customerId"`
	Items           []orderItemDTO       `json:"items"`
	ShippingAddress string               `json:"shippingAddress,omitempty"`
	PaymentMethod   domain.PaymentMethod `json:"paymentMethod"`
	Discount        decimal.Decimal      `json:"discount"`
}

func createOrderFromDomain(o domain.Order) createOrderRequest {
	req := createOrderRequest{
		CustomerID:      o.CustomerID,
		ShippingAddress: formatAddress(o.ShippingAddress),
		PaymentMethod:   o.PaymentMethod,
		Discount:        o.Discount,
		Items:           make([]orderItemDTO, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		dto := orderItemDTO{
			ProductID:       it.ProductID,
			ProductSKU:      it.SKU,
			ProductName:     it.Name,
			ProductType:     it.ProductType,
			ProviderType:    it.ProviderType,
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice,
			TotalPrice:      it.TotalPrice,
			BookingDate:     it.ReservationDate,
			BookingTime:     it.ReservationTime,
			ReservationCode: it.ReservationCode,
		}
		if it.SubscriptionStart != nil {
			dto.SubscriptionStart = it.SubscriptionStart.Format(time.RFC3339)
		}
		if it.SubscriptionEnd != nil {
			dto.SubscriptionEnd = it.SubscriptionEnd.Format(time.RFC3339)
		}
		req.Items = append(req.Items, dto)
	}
	return req
}

type statusUpdateRequest struct {
	Status  domain.OrderStatus `json:"status"`
	Comment string             `json:"comment,omitempty"`
}

// ServiceHealth is one row of the backend health check
type ServiceHealth struct {
	Name         string `json:"name"`
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
	LastCheck    string `json:"last_check"`
}

type SystemMetrics struct {
	CPUUsage          float64 `json:"cpu_usage"`
	MemoryUsage       float64 `json:"memory_usage"`
	DiskUsage         float64 `json:"disk_usage"`
	ActiveConnections int     `json:"active_connections"`
	RequestsPerMinute float64 `json:"requests_per_minute"`
}

type DashboardStats struct {
	TotalOrders      int             `json:"total_orders"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	TotalCustomers   int             `json:"total_customers"`
	TotalProducts    int             `json:"total_products"`
	PendingOrders    int             `json:"pending_orders"`
	LowStockProducts int             `json:"low_stock_products"`
}

// wire shapes of the admin endpoints
type serviceHealthDTO struct {
	Name         string `json:"name"`
	Status       string `json:"status"`
	ResponseTime int64  `json:"responseTime"`
	LastCheck    string `json:"lastCheck"`
}

type systemMetricsDTO struct {
	CPUUsage          float64 `json:"cpuUsage"`
	MemoryUsage       float64 `json:"memoryUsage"`
	DiskUsage         float64 `json:"diskUsage"`
	ActiveConnections int     `json:"activeConnections"`
	RequestsPerMinute float64 `json:"requestsPerMinute"`
}

type dashboardStatsDTO struct {
	TotalOrders      int             `json:"totalOrders"`
	TotalRevenue     decimal.Decimal `json:"totalRevenue"`
	TotalCustomers   int             `json:"totalCustomers"`
	TotalProducts    int             `json:"totalProducts"`
	PendingOrders    int             `json:"pendingOrders"`
	LowStockProducts int             `json:"lowStockProducts"`
}

// parseTime accepts RFC 3339 and zone-less ISO timestamps; anything else is zero.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
