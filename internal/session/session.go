// Package session confines each customer's cart and checkout flow to one
// goroutine. Requests reach that state only through queued tasks.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"allconnect/internal/cart"
	"allconnect/internal/checkout"
)

var ErrClosed = errors.New("session closed")

// State is what a task may touch; it is only valid inside the task
type State struct {
	CustomerID int64
	Cart       *cart.Store
	Checkout   *checkout.Flow
}

// Task runs on the session goroutine
type Task func(ctx context.Context, st *State) error

type task struct {
	ctx context.Context
	fn  Task
	res chan error
}

type Session struct {
	state *State
	tasks chan task
	stop  chan struct{}
	done  chan struct{}
	idle  time.Duration
	log   zerolog.Logger
}

func newSession(st *State, idle time.Duration, log zerolog.Logger) *Session {
	return &Session{
		state: st,
		tasks: make(chan task),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
		idle:  idle,
		log:   log,
	}
}

// run serves tasks until stopped or idle for longer than s.idle.
func (s *Session) run(onExit func()) {
	defer close(s.done)
	defer onExit()

	var idleC <-chan time.Time
	var timer *time.Timer
	if s.idle > 0 {
		timer = time.NewTimer(s.idle)
		defer timer.Stop()
		idleC = timer.C
	}
	for {
		select {
		case t := <-s.tasks:
			t.res <- s.exec(t)
			if timer != nil {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(s.idle)
			}
		case <-idleC:
			s.log.Debug().Msg("session idle, stopping")
			return
		case <-s.stop:
			return
		}
	}
}

func (s *Session) exec(t task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("session task panicked")
			err = errors.New("internal error")
		}
	}()
	return t.fn(t.ctx, s.state)
}

// Do queues fn and waits for its result. ctx bounds only the wait for the
// queue: an accepted task always reports its own outcome.
func (s *Session) Do(ctx context.Context, fn Task) error {
	t := task{ctx: ctx, fn: fn, res: make(chan error, 1)}
	select {
	case s.tasks <- t:
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-t.res
}
