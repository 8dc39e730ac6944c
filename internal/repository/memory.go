package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"allconnect/internal/domain"
)

// MemoryStore is the combined in-memory store and id generator used in mock mode
type MemoryStore struct {
	mu            sync.RWMutex
	nextProdID    int64
	nextOrderID   int64
	nextAddrID    int64
	nextUserID    int64
	productsByID  map[int64]domain.Product
	categories    []domain.Category
	ordersByID    map[int64]domain.Order
	addressesByID map[int64]domain.Address
	usersByID     map[int64]domain.User
	kv            map[string][]byte
	now           func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextProdID:    1,
		nextOrderID:   1,
		nextAddrID:    1,
		nextUserID:    1,
		productsByID:  make(map[int64]domain.Product),
		ordersByID:    make(map[int64]domain.Order),
		addressesByID: make(map[int64]domain.Address),
		usersByID:     make(map[int64]domain.User),
		kv:            make(map[string][]byte),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// transaction-aware locking helpers
type txKey struct{}

func isTx(ctx context.Context) bool {
	b, ok := ctx.Value(txKey{}).(bool)
	return ok && b
}

func (m *MemoryStore) rlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RLock()
	}
}
func (m *MemoryStore) runlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RUnlock()
	}
}
func (m *MemoryStore) wlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Lock()
	}
}
func (m *MemoryStore) wunlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Unlock()
	}
}

var _ ProductRepository = (*MemoryStore)(nil)

// Seed loads catalog fixtures, keeping explicit ids when present.
func (m *MemoryStore) Seed(products []domain.Product, categories []domain.Category) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range products {
		if p.ID == 0 {
			p.ID = m.nextProdID
		}
		if p.ID >= m.nextProdID {
			m.nextProdID = p.ID + 1
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = m.now()
		}
		m.productsByID[p.ID] = cloneProduct(p)
	}
	m.categories = append(m.categories, categories...)
}

func (m *MemoryStore) Create(ctx context.Context, p *domain.Product) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	for _, existing := range m.productsByID {
		if existing.SKU == p.SKU {
			return ErrConflict
		}
	}
	p.ID = m.nextProdID
	m.nextProdID++
	p.CreatedAt = m.now()
	m.productsByID[p.ID] = cloneProduct(*p)
	return nil
}

func (m *MemoryStore) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	p, ok := m.productsByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := cloneProduct(p)
	return &cp, nil
}

func (m *MemoryStore) Update(ctx context.Context, p *domain.Product) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	old, ok := m.productsByID[p.ID]
	if !ok {
		return ErrNotFound
	}
	p.CreatedAt = old.CreatedAt
	m.productsByID[p.ID] = cloneProduct(*p)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id int64) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if _, ok := m.productsByID[id]; !ok {
		return ErrNotFound
	}
	delete(m.productsByID, id)
	return nil
}

func (m *MemoryStore) List(ctx context.Context, f ProductFilter) ([]domain.Product, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	out := make([]domain.Product, 0)
	for _, p := range m.productsByID {
		if f.Match(p) {
			out = append(out, cloneProduct(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) Categories(ctx context.Context) ([]domain.Category, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	out := make([]domain.Category, len(m.categories))
	copy(out, m.categories)
	return out, nil
}

// MemoryOrders implements OrderRepository on top of MemoryStore
type MemoryOrders struct{ store *MemoryStore }

func NewMemoryOrders(store *MemoryStore) *MemoryOrders { return &MemoryOrders{store: store} }

var _ OrderRepository = (*MemoryOrders)(nil)

// Create assigns the next id and, when missing, the sequential order number.
func (mo *MemoryOrders) Create(ctx context.Context, o *domain.Order) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	o.ID = mo.store.nextOrderID
	mo.store.nextOrderID++
	if o.CreatedAt.IsZero() {
		o.CreatedAt = mo.store.now()
	}
	o.UpdatedAt = o.CreatedAt
	if o.OrderNumber == "" {
		o.OrderNumber = domain.FormatOrderNumber(o.CreatedAt.Year(), o.ID)
	}
	for i := range o.Items {
		o.Items[i].ID = o.ID*100 + int64(i)
	}
	mo.store.ordersByID[o.ID] = cloneOrder(*o)
	return nil
}

func (mo *MemoryOrders) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	o, ok := mo.store.ordersByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := cloneOrder(o)
	return &cp, nil
}

func (mo *MemoryOrders) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	for _, o := range mo.store.ordersByID {
		if strings.EqualFold(o.OrderNumber, number) {
			cp := cloneOrder(o)
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (mo *MemoryOrders) ListByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error) {
	return mo.list(ctx, func(o domain.Order) bool { return o.CustomerID == customerID })
}

func (mo *MemoryOrders) ListAll(ctx context.Context) ([]domain.Order, error) {
	return mo.list(ctx, func(domain.Order) bool { return true })
}

// list returns matching orders, newest first
func (mo *MemoryOrders) list(ctx context.Context, keep func(domain.Order) bool) ([]domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	out := make([]domain.Order, 0)
	for _, o := range mo.store.ordersByID {
		if keep(o) {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (mo *MemoryOrders) Update(ctx context.Context, o *domain.Order) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	if _, ok := mo.store.ordersByID[o.ID]; !ok {
		return ErrNotFound
	}
	o.UpdatedAt = mo.store.now()
	mo.store.ordersByID[o.ID] = cloneOrder(*o)
	return nil
}

// cloneProduct copies the tags and variant pointers
func cloneProduct(p domain.Product) domain.Product {
	if p.Tags != nil {
		p.Tags = append([]string(nil), p.Tags...)
	}
	if p.Reservation != nil {
		r := *p.Reservation
		p.Reservation = &r
	}
	if p.Subscription != nil {
		sub := *p.Subscription
		p.Subscription = &sub
	}
	return p
}

// cloneOrder copies the slices so callers never alias stored state
func cloneOrder(o domain.Order) domain.Order {
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	o.StatusHistory = append([]domain.StatusEntry(nil), o.StatusHistory...)
	if o.ShippingAddress != nil {
		a := *o.ShippingAddress
		o.ShippingAddress = &a
	}
	return o
}

// MemoryAddresses implements AddressRepository on top of MemoryStore
type MemoryAddresses struct{ store *MemoryStore }

func NewMemoryAddresses(store *MemoryStore) *MemoryAddresses { return &MemoryAddresses{store: store} }

var _ AddressRepository = (*MemoryAddresses)(nil)

func (ma *MemoryAddresses) Create(ctx context.Context, a *domain.Address) error {
	ma.store.wlock(ctx)
	defer ma.store.wunlock(ctx)
	a.ID = ma.store.nextAddrID
	ma.store.nextAddrID++
	ma.store.addressesByID[a.ID] = *a
	return nil
}

func (ma *MemoryAddresses) GetByID(ctx context.Context, customerID, id int64) (*domain.Address, error) {
	ma.store.rlock(ctx)
	defer ma.store.runlock(ctx)
	a, ok := ma.store.addressesByID[id]
	if !ok || a.CustomerID != customerID {
		return nil, ErrNotFound
	}
	cp := a
	return &cp, nil
}

func (ma *MemoryAddresses) ListByCustomer(ctx context.Context, customerID int64) ([]domain.Address, error) {
	ma.store.rlock(ctx)
	defer ma.store.runlock(ctx)
	out := make([]domain.Address, 0)
	for _, a := range ma.store.addressesByID {
		if a.CustomerID == customerID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (ma *MemoryAddresses) Update(ctx context.Context, a *domain.Address) error {
	ma.store.wlock(ctx)
	defer ma.store.wunlock(ctx)
	old, ok := ma.store.addressesByID[a.ID]
	if !ok || old.CustomerID != a.CustomerID {
		return ErrNotFound
	}
	ma.store.addressesByID[a.ID] = *a
	return nil
}

func (ma *MemoryAddresses) Delete(ctx context.Context, customerID, id int64) error {
	ma.store.wlock(ctx)
	defer ma.store.wunlock(ctx)
	a, ok := ma.store.addressesByID[id]
	if !ok || a.CustomerID != customerID {
		return ErrNotFound
	}
	delete(ma.store.addressesByID, id)
	return nil
}

// MemoryUsers implements UserRepository on top of MemoryStore
type MemoryUsers struct{ store *MemoryStore }

func NewMemoryUsers(store *MemoryStore) *MemoryUsers { return &MemoryUsers{store: store} }

var _ UserRepository = (*MemoryUsers)(nil)

func (us *MemoryUsers) Create(ctx context.Context, u *domain.User) error {
	us.store.wlock(ctx)
	defer us.store.wunlock(ctx)
	for _, existing := range us.store.usersByID {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrConflict
		}
	}
	u.ID = us.store.nextUserID
	us.store.nextUserID++
	u.CreatedAt = us.store.now()
	us.store.usersByID[u.ID] = *u
	return nil
}

func (us *MemoryUsers) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	us.store.rlock(ctx)
	defer us.store.runlock(ctx)
	u, ok := us.store.usersByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := u
	return &cp, nil
}

func (us *MemoryUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	us.store.rlock(ctx)
	defer us.store.runlock(ctx)
	for _, u := range us.store.usersByID {
		if strings.EqualFold(u.Email, email) {
			cp := u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (us *MemoryUsers) Update(ctx context.Context, u *domain.User) error {
	us.store.wlock(ctx)
	defer us.store.wunlock(ctx)
	if _, ok := us.store.usersByID[u.ID]; !ok {
		return ErrNotFound
	}
	us.store.usersByID[u.ID] = *u
	return nil
}

// MemoryStorage implements Storage in process; contents are lost on restart
type MemoryStorage struct{ store *MemoryStore }

func NewMemoryStorage(store *MemoryStore) *MemoryStorage { return &MemoryStorage{store: store} }

var _ Storage = (*MemoryStorage)(nil)

func (ms *MemoryStorage) Get(ctx context.Context, key string) ([]byte, error) {
	ms.store.rlock(ctx)
	defer ms.store.runlock(ctx)
	v, ok := ms.store.kv[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (ms *MemoryStorage) Put(ctx context.Context, key string, value []byte) error {
	ms.store.wlock(ctx)
	defer ms.store.wunlock(ctx)
	ms.store.kv[key] = append([]byte(nil), value...)
	return nil
}

func (ms *MemoryStorage) Delete(ctx context.Context, key string) error {
	ms.store.wlock(ctx)
	defer ms.store.wunlock(ctx)
	delete(ms.store.kv, key)
	return nil
}

func (ms *MemoryStorage) Ping(context.Context) error { return nil }
func (ms *MemoryStorage) Close() error               { return nil }

// MemoryTx uses the write lock to emulate a transaction boundary
type MemoryTx struct{ store *MemoryStore }

func NewMemoryTx(store *MemoryStore) *MemoryTx { return &MemoryTx{store: store} }

func (tx *MemoryTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if isTx(ctx) {
		return fn(ctx)
	}
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, true))
}
