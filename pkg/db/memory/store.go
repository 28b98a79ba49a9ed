// Package memory is a process-local store for development and tests.
// A transaction holds the store lock for its whole duration, works on a
// copy of the tables and swaps it in on commit.
package memory

import (
	"context"
	"sync"

	"github.com/PaingThuTa/booking-system-intern/pkg/db"
	"github.com/PaingThuTa/booking-system-intern/pkg/model"
)

type Tables struct {
	Users      map[string]*model.User
	TimeBlocks map[string]*model.TimeBlock
	Bookings   map[string]*model.Booking
}

func newTables() *Tables {
	return &Tables{
		Users:      make(map[string]*model.User),
		TimeBlocks: make(map[string]*model.TimeBlock),
		Bookings:   make(map[string]*model.Booking),
	}
}

func (t *Tables) clone() *Tables {
	c := &Tables{
		Users:      make(map[string]*model.User, len(t.Users)),
		TimeBlocks: make(map[string]*model.TimeBlock, len(t.TimeBlocks)),
		Bookings:   make(map[string]*model.Booking, len(t.Bookings)),
	}
	for id, u := range t.Users {
		cp := *u
		c.Users[id] = &cp
	}
	for id, b := range t.TimeBlocks {
		cp := *b
		c.TimeBlocks[id] = &cp
	}
	for id, b := range t.Bookings {
		cp := *b
		c.Bookings[id] = &cp
	}
	return c
}

type txState struct {
	store  *Store
	tables *Tables
}

type txKey struct{}

type Store struct {
	mu     sync.RWMutex
	tables *Tables
}

var _ db.TransactionManager = (*Store)(nil)

func NewStore() *Store {
	return &Store{tables: newTables()}
}

func (s *Store) txFrom(ctx context.Context) (*txState, bool) {
	st, ok := ctx.Value(txKey{}).(*txState)
	if !ok || st.store != s {
		return nil, false
	}
	return st, true
}

// ExecuteTransaction serializes fn against every other transaction and
// write on the store. Nested calls join the outer transaction.
func (s *Store) ExecuteTransaction(ctx context.Context, fn db.TransactionFunc) error {
	if _, ok := s.txFrom(ctx); ok {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.tables.clone()
	if err := fn(context.WithValue(ctx, txKey{}, &txState{store: s, tables: work})); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.tables = work
	return nil
}

// View runs a read against the transaction's tables, or the committed ones.
func (s *Store) View(ctx context.Context, fn func(t *Tables) error) error {
	if st, ok := s.txFrom(ctx); ok {
		return fn(st.tables)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.tables)
}

// Update runs a write. Outside a transaction it is applied atomically.
func (s *Store) Update(ctx context.Context, fn func(t *Tables) error) error {
	if st, ok := s.txFrom(ctx); ok {
		return fn(st.tables)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.tables.clone()
	if err := fn(work); err != nil {
		return err
	}
	s.tables = work
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}
