// Package memory is the in-memory transaction store: the default backend for
// local runs and the test double for everything that talks to a store port.
package memory

import (
	"context"
	"fmt"
	"sync"

	"tally/internal/core"
	ports "tally/internal/sheets"
)

type partitionKey struct {
	channel core.Channel
	kind    core.Kind
}

// Store keeps per-channel transaction partitions in memory. Row identifiers
// are synthetic, monotonic per partition, and stay stable across deletes.
type Store struct {
	mu       sync.Mutex
	expenses map[core.Channel][]core.Expense
	income   map[core.Channel][]core.Income
	nextRow  map[partitionKey]int
}

// Interface conformance.
var (
	_ ports.ExpenseAppender = (*Store)(nil)
	_ ports.ExpenseLister   = (*Store)(nil)
	_ ports.ExpenseUpdater  = (*Store)(nil)
	_ ports.ExpenseDeleter  = (*Store)(nil)
	_ ports.IncomeAppender  = (*Store)(nil)
	_ ports.IncomeLister    = (*Store)(nil)
	_ ports.IncomeUpdater   = (*Store)(nil)
	_ ports.IncomeDeleter   = (*Store)(nil)
)

func New() *Store {
	return &Store{
		expenses: make(map[core.Channel][]core.Expense),
		income:   make(map[core.Channel][]core.Income),
		nextRow:  make(map[partitionKey]int),
	}
}

func (s *Store) rowID(ch core.Channel, kind core.Kind) string {
	key := partitionKey{channel: ch, kind: kind}
	s.nextRow[key]++
	return fmt.Sprintf("mem:%s:%s:%d", ch, kind, s.nextRow[key])
}

func (s *Store) AppendExpense(_ context.Context, ch core.Channel, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.RowID = s.rowID(ch, core.KindExpenses)
	s.expenses[ch] = append(s.expenses[ch], e)
	return e.RowID, nil
}

func (s *Store) AppendIncome(_ context.Context, ch core.Channel, in core.Income) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	in.RowID = s.rowID(ch, core.KindIncome)
	s.income[ch] = append(s.income[ch], in)
	return in.RowID, nil
}

func (s *Store) ListExpenses(_ context.Context, ch core.Channel) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.expenses[ch]...), nil
}

func (s *Store) ListIncome(_ context.Context, ch core.Channel) ([]core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Income(nil), s.income[ch]...), nil
}

func (s *Store) UpdateExpense(_ context.Context, ch core.Channel, rowID string, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.expenses[ch] {
		if s.expenses[ch][i].RowID == rowID {
			e.RowID = rowID
			s.expenses[ch][i] = e
			return nil
		}
	}
	return ports.ErrRowNotFound
}

func (s *Store) DeleteExpense(_ context.Context, ch core.Channel, rowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.expenses[ch]
	for i := range list {
		if list[i].RowID == rowID {
			s.expenses[ch] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return ports.ErrRowNotFound
}

func (s *Store) UpdateIncome(_ context.Context, ch core.Channel, rowID string, in core.Income) error {
	if err := in.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.income[ch] {
		if s.income[ch][i].RowID == rowID {
			in.RowID = rowID
			s.income[ch][i] = in
			return nil
		}
	}
	return ports.ErrRowNotFound
}

func (s *Store) DeleteIncome(_ context.Context, ch core.Channel, rowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.income[ch]
	for i := range list {
		if list[i].RowID == rowID {
			s.income[ch] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return ports.ErrRowNotFound
}
