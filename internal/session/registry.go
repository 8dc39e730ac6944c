package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"allconnect/internal/cart"
	"allconnect/internal/checkout"
	"allconnect/internal/repository"
)

// Registry lazily starts one Session per customer
type Registry struct {
	storage   repository.Storage
	placer    checkout.OrderPlacer
	addresses checkout.AddressBook
	idle      time.Duration
	log       zerolog.Logger

	mu       sync.Mutex
	sessions map[int64]*Session
	closed   bool
}

func NewRegistry(storage repository.Storage, placer checkout.OrderPlacer, addresses checkout.AddressBook, idle time.Duration, log zerolog.Logger) *Registry {
	return &Registry{
		storage:   storage,
		placer:    placer,
		addresses: addresses,
		idle:      idle,
		log:       log.With().Str("component", "sessions").Logger(),
		sessions:  make(map[int64]*Session),
	}
}

// Do runs fn on the customer's session, starting it if needed. A session that
// stopped for idleness between lookup and enqueue is replaced once.
func (r *Registry) Do(ctx context.Context, customerID int64, fn Task) error {
	for attempt := 0; attempt < 2; attempt++ {
		s, err := r.get(ctx, customerID)
		if err != nil {
			return err
		}
		err = s.Do(ctx, fn)
		if !errors.Is(err, ErrClosed) {
			return err
		}
	}
	return ErrClosed
}

func (r *Registry) get(ctx context.Context, customerID int64) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	if s, ok := r.sessions[customerID]; ok {
		select {
		case <-s.done:
		default:
			return s, nil
		}
	}

	store, err := cart.Load(ctx, r.storage, repository.CartKey(customerID))
	if err != nil {
		return nil, fmt.Errorf("restore cart: %w", err)
	}
	st := &State{
		CustomerID: customerID,
		Cart:       store,
		Checkout:   checkout.NewFlow(customerID, store, r.placer, r.addresses),
	}
	s := newSession(st, r.idle, r.log.With().Int64("customer", customerID).Logger())
	r.sessions[customerID] = s
	go s.run(func() { r.forget(customerID, s) })
	r.log.Debug().Int64("customer", customerID).Int("items", len(store.Items())).Msg("session started")
	return s, nil
}

func (r *Registry) forget(customerID int64, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[customerID] == s {
		delete(r.sessions, customerID)
	}
}

// Len is the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close stops every session and waits for in-flight tasks to finish or ctx to expire.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	live := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		live = append(live, s)
	}
	r.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, s := range live {
		s := s
		close(s.stop)
		g.Go(func() error {
			select {
			case <-s.done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	return g.Wait()
}
