package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func physical(id int64, price string) Product {
	return Product{ID: id, Name: "P", SKU: "SKU-P", Price: decimal.RequireFromString(price), ProductType: ProductTypePhysical}
}

func service(id int64, price string) Product {
	return Product{ID: id, Name: "S", SKU: "SKU-S", Price: decimal.RequireFromString(price), ProductType: ProductTypeService,
		Reservation: &Reservation{SlotMinutes: 60}}
}

func TestTax_RoundsToCents(t *testing.T) {
	if got := Tax(decimal.RequireFromString("50")); !got.Equal(decimal.RequireFromString("6.50")) {
		t.Fatalf("tax %v", got)
	}
	// 1349.99 * 0.13 = 175.4987
	if got := Tax(decimal.RequireFromString("1349.99")); !got.Equal(decimal.RequireFromString("175.50")) {
		t.Fatalf("tax %v", got)
	}
}

func TestPriceItems_Mixed(t *testing.T) {
	items := []CartItem{
		{ProductID: 1, Product: physical(1, "1299.99"), Quantity: 1},
		{ProductID: 2, Product: service(2, "50"), Quantity: 1},
	}
	p := PriceItems(items, decimal.Zero)
	if !p.Subtotal.Equal(decimal.RequireFromString("1349.99")) {
		t.Fatalf("subtotal %v", p.Subtotal)
	}
	if !p.ShippingCost.IsPositive() {
		t.Fatalf("expected shipping")
	}
	want := p.Subtotal.Add(p.Tax).Add(p.ShippingCost)
	if !p.Total.Equal(want) {
		t.Fatalf("total %v want %v", p.Total, want)
	}
	if DeriveOrderType(items) != OrderTypeMixed {
		t.Fatalf("expected MIXED")
	}
}

func TestPriceItems_NoShippingWithoutPhysical(t *testing.T) {
	items := []CartItem{{ProductID: 2, Product: service(2, "50"), Quantity: 2}}
	p := PriceItems(items, decimal.RequireFromString("5"))
	if !p.ShippingCost.IsZero() {
		t.Fatalf("unexpected shipping %v", p.ShippingCost)
	}
	// 100 + 13 - 5
	if !p.Total.Equal(decimal.RequireFromString("108")) {
		t.Fatalf("total %v", p.Total)
	}
	if DeriveOrderType(items) != OrderTypeService {
		t.Fatalf("expected SERVICE")
	}
}

func TestOrderTransition(t *testing.T) {
	now := time.Now()
	o := Order{Status: OrderStatusConfirmed, Items: []OrderItem{{Status: OrderItemConfirmed}}}
	if err := o.Transition(OrderStatusShipped, "", "", now); err == nil {
		t.Fatalf("expected invalid transition")
	}
	if err := o.Transition(OrderStatusCancelled, "Cancelado por el cliente", "customer", now); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if len(o.StatusHistory) != 1 || o.Items[0].Status != OrderItemCancelled {
		t.Fatalf("history/items not updated: %+v", o)
	}
	if err := o.Transition(OrderStatusConfirmed, "", "", now); err == nil {
		t.Fatalf("terminal order must not change")
	}
}

func TestProductValidate(t *testing.T) {
	cases := []struct {
		name string
		p    Product
		ok   bool
	}{
		{"physical", physical(1, "10"), true},
		{"service", service(2, "10"), true},
		{"service without slot", Product{Name: "S", SKU: "S", ProductType: ProductTypeService}, false},
		{"subscription", Product{Name: "N", SKU: "N", ProductType: ProductTypeSubscription, Subscription: &Subscription{BillingCycle: BillingMonthly}}, true},
		{"subscription bad cycle", Product{Name: "N", SKU: "N", ProductType: ProductTypeSubscription, Subscription: &Subscription{BillingCycle: "WEEKLY"}}, false},
		{"unknown type", Product{Name: "X", SKU: "X", ProductType: "DIGITAL"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.p.Validate()
			if tc.ok && err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestTrackingFor(t *testing.T) {
	tr := TrackingFor(Order{Status: OrderStatusShipped})
	if tr.Location == "" || tr.Status != OrderStatusShipped {
		t.Fatalf("tracking %+v", tr)
	}
	tr = TrackingFor(Order{Status: OrderStatusCancelled})
	if tr.Location != "" {
		t.Fatalf("cancelled order has no location")
	}
}
