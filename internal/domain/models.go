package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ProductType is the discriminator of the product union
type ProductType string

const (
	ProductTypePhysical     ProductType = "PHYSICAL"
	ProductTypeService      ProductType = "SERVICE"
	ProductTypeSubscription ProductType = "SUBSCRIPTION"
)

func (t ProductType) Valid() bool {
	switch t {
	case ProductTypePhysical, ProductTypeService, ProductTypeSubscription:
		return true
	}
	return false
}

// ProviderType is the integration channel a product is sourced from
type ProviderType string

const (
	ProviderREST ProviderType = "REST"
	ProviderSOAP ProviderType = "SOAP"
	ProviderGRPC ProviderType = "GRPC"
)

// BillingCycle of a subscription product
type BillingCycle string

const (
	BillingMonthly BillingCycle = "MONTHLY"
	BillingYearly  BillingCycle = "YEARLY"
)

// Reservation holds the SERVICE-only fields
type Reservation struct {
	SlotMinutes int    `json:"slot_minutes" yaml:"slot_minutes"`
	Location    string `json:"location,omitempty" yaml:"location"`
}

// Subscription holds the SUBSCRIPTION-only fields
type Subscription struct {
	BillingCycle BillingCycle `json:"billing_cycle" yaml:"billing_cycle"`
	TrialDays    int          `json:"trial_days,omitempty" yaml:"trial_days"`
}

var (
	ErrInvalidProduct      = errors.New("invalid product")
	ErrMissingReservation  = errors.New("service product requires reservation details")
	ErrMissingSubscription = errors.New("subscription product requires billing cycle")
)

// Product is a catalog entry; exactly one variant is set according to ProductType
type Product struct {
	ID                int64           `json:"id" yaml:"id"`
	SKU               string          `json:"sku" yaml:"sku"`
	Name              string          `json:"name" yaml:"name"`
	Description       string          `json:"description,omitempty" yaml:"description"`
	Price             decimal.Decimal `json:"price" yaml:"price"`
	CompareAtPrice    decimal.Decimal `json:"compare_at_price" yaml:"compare_at_price"`
	ProductType       ProductType     `json:"product_type" yaml:"product_type"`
	CategoryID        int64           `json:"category_id,omitempty" yaml:"category_id"`
	ProviderType      ProviderType    `json:"provider_type" yaml:"provider_type"`
	ProviderProductID string          `json:"provider_product_id,omitempty" yaml:"provider_product_id"`
	Stock             int64           `json:"stock" yaml:"stock"`
	LowStockThreshold int64           `json:"low_stock_threshold" yaml:"low_stock_threshold"`
	ImageURL          string          `json:"image_url,omitempty" yaml:"image_url"`
	Tags              []string        `json:"tags,omitempty" yaml:"tags"`
	IsActive          bool            `json:"is_active" yaml:"is_active"`
	IsFeatured        bool            `json:"is_featured" yaml:"is_featured"`
	RatingAverage     float64         `json:"rating_average" yaml:"rating_average"`
	RatingCount       int64           `json:"rating_count" yaml:"rating_count"`
	Reservation       *Reservation    `json:"reservation,omitempty" yaml:"reservation"`
	Subscription      *Subscription   `json:"subscription,omitempty" yaml:"subscription"`
	CreatedAt         time.Time       `json:"created_at" yaml:"created_at"`
}

// Validate checks the common fields and the variant required by ProductType
func (p Product) Validate() error {
	if p.Name == "" || p.SKU == "" || p.Price.IsNegative() || p.Stock < 0 || !p.ProductType.Valid() {
		return ErrInvalidProduct
	}
	switch p.ProductType {
	case ProductTypeService:
		if p.Reservation == nil || p.Reservation.SlotMinutes <= 0 {
			return ErrMissingReservation
		}
	case ProductTypeSubscription:
		if p.Subscription == nil {
			return ErrMissingSubscription
		}
		if p.Subscription.BillingCycle != BillingMonthly && p.Subscription.BillingCycle != BillingYearly {
			return ErrMissingSubscription
		}
	}
	return nil
}

func (p Product) IsPhysical() bool { return p.ProductType == ProductTypePhysical }

// LowStock reports whether a physical product reached its threshold
func (p Product) LowStock() bool {
	return p.IsPhysical() && p.Stock <= p.LowStockThreshold
}

// Category groups products
type Category struct {
	ID       int64  `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Slug     string `json:"slug" yaml:"slug"`
	ParentID int64  `json:"parent_id,omitempty" yaml:"parent_id"`
}
