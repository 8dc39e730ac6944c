package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"allconnect/internal/domain"
	"allconnect/internal/repository"
)

func setup(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 2*time.Second)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_ForwardsBearerToken(t *testing.T) {
	var auth string
	c := setup(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		writeJSON(w, 200, map[string]any{"id": 4, "email": "ana@example.com", "role": "CUSTOMER"})
	})
	u, err := c.Me(WithToken(context.Background(), "abc"))
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if auth != "Bearer abc" || u.ID != 4 || u.Role != domain.RoleCustomer {
		t.Fatalf("auth %q user %+v", auth, u)
	}
}

func TestClient_ErrorMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, repository.ErrNotFound},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusConflict, repository.ErrConflict},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			c := setup(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tc.status, map[string]string{"message": "nope"})
			})
			_, err := c.Order(context.Background(), 1)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v", err)
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.Message != "nope" || apiErr.Status != tc.status {
				t.Fatalf("api error %+v", apiErr)
			}
		})
	}

	c := setup(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	err := c.CancelOrder(context.Background(), 1)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "boom" || errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("server error %v", err)
	}
}

func TestRemoteOrders_CreateKeepsLocalFields(t *testing.T) {
	var got createOrderRequest
	c := setup(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/orders" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusCreated, map[string]any{
			"id": 31, "orderNumber": "ORD-2025-0031", "customerId": 2, "status": "CONFIRMED",
			"subtotal": "50", "tax": "6.5", "shippingCost": "0", "total": "56.5",
			"items": []map[string]any{{"id": 9, "productId": 7, "productName": "Yoga", "productType": "SERVICE", "quantity": 1, "unitPrice": "50", "totalPrice": "50"}},
			"createdAt": "2025-03-01T10:00:00",
		})
	})
	o := &domain.Order{
		CustomerID:      2,
		OrderType:       domain.OrderTypeService,
		Currency:        "USD",
		PaymentMethod:   domain.PaymentPayPal,
		ShippingAddress: &domain.Address{Street: "Calle 1", City: "Cartago", Country: "CR"},
		Items: []domain.OrderItem{{ProductID: 7, Name: "Yoga", ProductType: domain.ProductTypeService, Quantity: 1,
			UnitPrice: decimal.NewFromInt(50), TotalPrice: decimal.NewFromInt(50), ReservationCode: "RES-0a0b0c0d", Status: domain.OrderItemConfirmed}},
		StatusHistory: []domain.StatusEntry{{Status: domain.OrderStatusPending}, {Status: domain.OrderStatusConfirmed}},
	}
	if err := NewRemoteOrders(c).Create(context.Background(), o); err != nil {
		t.Fatalf("create: %v", err)
	}
	if got.ShippingAddress != "Calle 1, Cartago, CR" || got.PaymentMethod != domain.PaymentPayPal || len(got.Items) != 1 {
		t.Fatalf("request %+v", got)
	}
	if o.ID != 31 || o.OrderNumber != "ORD-2025-0031" || o.OrderType != domain.OrderTypeService {
		t.Fatalf("order %+v", o)
	}
	if o.Items[0].ID != 9 || o.Items[0].ReservationCode != "RES-0a0b0c0d" || len(o.StatusHistory) != 2 {
		t.Fatalf("merged items %+v", o.Items)
	}
	if !o.Total.Equal(decimal.RequireFromString("56.50")) || o.CreatedAt.Year() != 2025 {
		t.Fatalf("total %v created %v", o.Total, o.CreatedAt)
	}
}

func TestRemoteOrders_UpdateRoutesByStatus(t *testing.T) {
	var paths []string
	c := setup(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})
	ro := NewRemoteOrders(c)
	ctx := context.Background()
	if err := ro.Update(ctx, &domain.Order{ID: 5, Status: domain.OrderStatusCancelled}); err != nil {
		t.Fatal(err)
	}
	if err := ro.Update(ctx, &domain.Order{ID: 5, Status: domain.OrderStatusShipped}); err != nil {
		t.Fatal(err)
	}
	want := []string{"POST /orders/5/cancel", "PUT /admin/orders/5/status"}
	if strings.Join(paths, ",") != strings.Join(want, ",") {
		t.Fatalf("paths %v", paths)
	}
}

func TestRemoteCatalog_ListFiltersLocally(t *testing.T) {
	c := setup(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, []map[string]any{
			{"id": 2, "sku": "B", "name": "Spa day", "price": "80", "type": "SERVICE", "durationMinutes": 90, "active": true},
			{"id": 1, "sku": "A", "name": "Laptop", "price": "1299.99", "type": "PHYSICAL", "active": true},
			{"id": 3, "sku": "C", "name": "Music", "price": "9.99", "type": "SUBSCRIPTION", "billingPeriod": "monthly", "active": false},
		})
	})
	rc := NewRemoteCatalog(c)
	all, err := rc.List(context.Background(), repository.ProductFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].ID != 1 {
		t.Fatalf("list %+v", all)
	}
	if all[1].Reservation == nil || all[1].Reservation.SlotMinutes != 90 {
		t.Fatalf("service variant %+v", all[1])
	}
	if all[2].Subscription == nil || all[2].Subscription.BillingCycle != domain.BillingMonthly {
		t.Fatalf("subscription variant %+v", all[2])
	}
	active, _ := rc.List(context.Background(), repository.ProductFilter{ActiveOnly: true, Type: domain.ProductTypeService})
	if len(active) != 1 || active[0].ID != 2 {
		t.Fatalf("filtered %+v", active)
	}
}

func TestOverview_FansOut(t *testing.T) {
	var calls atomic.Int32
	c := setup(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Path {
		case "/admin/it/services/health":
			writeJSON(w, 200, []map[string]any{{"name": "order-service", "status": "UP", "responseTime": 12}})
		case "/admin/it/metrics":
			writeJSON(w, 200, map[string]any{"cpuUsage": 41.5, "activeConnections": 7})
		case "/admin/dashboard/stats":
			writeJSON(w, 200, map[string]any{"totalOrders": 12, "totalRevenue": "999.90"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ov, err := c.Overview(context.Background())
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if calls.Load() != 3 || len(ov.Services) != 1 || ov.Metrics.ActiveConnections != 7 || ov.Stats.TotalOrders != 12 {
		t.Fatalf("overview %+v", ov)
	}
}

func TestOverview_FailsWhenOnePartFails(t *testing.T) {
	c := setup(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/admin/it/metrics" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(w, 200, map[string]any{})
	})
	if _, err := c.Overview(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRemoteProfiles_GetAndUpdate(t *testing.T) {
	var got customerUpdateRequest
	c := setup(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/customers/9" {
			t.Errorf("path %s", r.URL.Path)
		}
		profile := map[string]any{"id": 9, "email": "ana@example.com", "firstName": "Ana", "lastName": "Mora", "phone": "8888-0000"}
		if r.Method == http.MethodPut {
			_ = json.NewDecoder(r.Body).Decode(&got)
			profile["firstName"], profile["phone"] = got.FirstName, got.Phone
		}
		writeJSON(w, 200, profile)
	})
	profiles := NewRemoteProfiles(c)
	ctx := context.Background()

	u, err := profiles.GetByID(ctx, 9)
	if err != nil || u.Phone != "8888-0000" || u.FirstName != "Ana" {
		t.Fatalf("get: %+v %v", u, err)
	}
	u.FirstName, u.Phone = "Ana Lucía", "7000-1111"
	if err := profiles.Update(ctx, u); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.FirstName != "Ana Lucía" || got.LastName != "Mora" || u.Phone != "7000-1111" {
		t.Fatalf("sent %+v, user %+v", got, u)
	}
}
