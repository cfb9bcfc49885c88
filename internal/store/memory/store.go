// Package memory is an in-process store. Transactions run serialized on a
// private copy of the state that replaces the live state only on success.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/resourcebook/backend/internal/models"
	"github.com/resourcebook/backend/internal/store"
)

type state struct {
	seq           int64
	bookings      map[int64]models.Booking
	resources     map[int64]models.Resource
	users         map[int64]models.User
	organizations map[int64]models.Organization
	exports       map[int64]models.BookingExport
}

func newState() *state {
	return &state{
		bookings:      make(map[int64]models.Booking),
		resources:     make(map[int64]models.Resource),
		users:         make(map[int64]models.User),
		organizations: make(map[int64]models.Organization),
		exports:       make(map[int64]models.BookingExport),
	}
}

func (s *state) clone() *state {
	c := &state{
		seq:           s.seq,
		bookings:      make(map[int64]models.Booking, len(s.bookings)),
		resources:     make(map[int64]models.Resource, len(s.resources)),
		users:         make(map[int64]models.User, len(s.users)),
		organizations: make(map[int64]models.Organization, len(s.organizations)),
		exports:       make(map[int64]models.BookingExport, len(s.exports)),
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	for k, v := range s.resources {
		c.resources[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.organizations {
		c.organizations[k] = v
	}
	for k, v := range s.exports {
		c.exports[k] = v
	}
	return c
}

func (s *state) nextID() int64 {
	s.seq++
	return s.seq
}

// view runs the store operations against one state. mu is nil inside a
// transaction, which already holds the store lock.
type view struct {
	mu *sync.Mutex
	st *state
}

func (v *view) lock() func() {
	if v.mu == nil {
		return func() {}
	}
	v.mu.Lock()
	return v.mu.Unlock
}

// Store is the in-memory store.
type Store struct {
	view
	mu sync.Mutex
}

var _ store.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	s := &Store{}
	s.view = view{mu: &s.mu, st: newState()}
	return s
}

// WithinTx runs fn against a copy of the state and publishes the copy if fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.st.clone()
	if err := fn(&view{st: work}); err != nil {
		return err
	}
	*s.st = *work
	return nil
}

// Close is a no-op.
func (s *Store) Close() {}

func now() time.Time {
	return time.Now().UTC()
}
