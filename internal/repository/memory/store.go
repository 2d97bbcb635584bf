// Package memory implements repository.Store in process memory. It backs the
// service tests and the api --dev mode; one mutex serializes transactions the
// way row locks do in Postgres, and a snapshot restores state when a
// transaction function fails.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"restaurant-pos/internal/domain"
	"restaurant-pos/internal/repository"
)

type statusLogEntry struct {
	OrderID   int64
	Status    domain.OrderStatus
	ActorID   int64
	ChangedAt time.Time
}

type state struct {
	orders            map[int64]domain.Order
	items             map[int64]domain.OrderItem
	products          map[int64]domain.Product
	payments          map[int64]domain.Payment
	tables            map[int64]domain.RestaurantTable
	shifts            map[int64]domain.Shift
	shiftSummaries    []domain.ShiftFinancialSummary
	terminalSummaries []domain.TerminalCashSummary
	statusLog         []statusLogEntry
	idem              map[string]repository.IdempotencyRecord
	audit             []repository.AuditEntry
	nextID            int64
}

func newState() *state {
	return &state{
		orders:   map[int64]domain.Order{},
		items:    map[int64]domain.OrderItem{},
		products: map[int64]domain.Product{},
		payments: map[int64]domain.Payment{},
		tables:   map[int64]domain.RestaurantTable{},
		shifts:   map[int64]domain.Shift{},
		idem:     map[string]repository.IdempotencyRecord{},
	}
}

func (s *state) clone() *state {
	cp := &state{
		orders:            make(map[int64]domain.Order, len(s.orders)),
		items:             make(map[int64]domain.OrderItem, len(s.items)),
		products:          make(map[int64]domain.Product, len(s.products)),
		payments:          make(map[int64]domain.Payment, len(s.payments)),
		tables:            make(map[int64]domain.RestaurantTable, len(s.tables)),
		shifts:            make(map[int64]domain.Shift, len(s.shifts)),
		shiftSummaries:    append([]domain.ShiftFinancialSummary(nil), s.shiftSummaries...),
		terminalSummaries: append([]domain.TerminalCashSummary(nil), s.terminalSummaries...),
		statusLog:         append([]statusLogEntry(nil), s.statusLog...),
		idem:              make(map[string]repository.IdempotencyRecord, len(s.idem)),
		audit:             append([]repository.AuditEntry(nil), s.audit...),
		nextID:            s.nextID,
	}
	for k, v := range s.orders {
		cp.orders[k] = v
	}
	for k, v := range s.items {
		cp.items[k] = v
	}
	for k, v := range s.products {
		cp.products[k] = v
	}
	for k, v := range s.payments {
		cp.payments[k] = v
	}
	for k, v := range s.tables {
		cp.tables[k] = v
	}
	for k, v := range s.shifts {
		cp.shifts[k] = v
	}
	for k, v := range s.idem {
		cp.idem[k] = v
	}
	return cp
}

type Store struct {
	mu sync.Mutex
	st *state
}

var _ repository.Store = (*Store)(nil)

func New() *Store { return &Store{st: newState()} }

type txToken struct{}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txToken{}).(bool)
	return ok
}

// Transact holds the store lock for the whole transaction, mirroring the
// serialization the Postgres row locks provide, and rolls back to a snapshot
// when fn fails.
func (s *Store) Transact(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(context.WithValue(ctx, txToken{}, true)); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

// lock acquires the store lock for a standalone call; inside a transaction
// the lock is already held.
func (s *Store) lock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) nextID() int64 {
	s.st.nextID++
	return s.st.nextID
}

// Seed helpers for tests and dev mode.

func (s *Store) SeedProduct(p domain.Product) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.nextID()
	}
	s.st.products[p.ID] = p
	return p
}

func (s *Store) SeedTable(t domain.RestaurantTable) domain.RestaurantTable {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == 0 {
		t.ID = s.nextID()
	}
	if t.Status == "" {
		t.Status = domain.TableAvailable
	}
	s.st.tables[t.ID] = t
	return t
}

func (s *Store) SeedShift(sh domain.Shift) domain.Shift {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sh.ID == 0 {
		sh.ID = s.nextID()
	}
	if sh.StartTime.IsZero() {
		sh.StartTime = time.Now().UTC()
	}
	s.st.shifts[sh.ID] = sh
	return sh
}

// AuditEntries exposes recorded audit rows for assertions.
func (s *Store) AuditEntries() []repository.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]repository.AuditEntry(nil), s.st.audit...)
}

// ShiftSummaries exposes stored close snapshots for assertions.
func (s *Store) ShiftSummaries() []domain.ShiftFinancialSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ShiftFinancialSummary(nil), s.st.shiftSummaries...)
}

// TerminalCashSummaries exposes the per-method close rows for assertions.
func (s *Store) TerminalCashSummaries() []domain.TerminalCashSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.TerminalCashSummary(nil), s.st.terminalSummaries...)
}

// StatusLogLen exposes the number of status-log rows for assertions.
func (s *Store) StatusLogLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.statusLog)
}

var errNoRecord = errors.New("memory: no record")
