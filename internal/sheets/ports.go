// Package sheets defines the outbound ports to the transaction store. The
// store is partitioned by channel and kind; every operation names its channel
// explicitly, and rows are addressed by the stable identifier the store
// assigned on append.
package sheets

import (
	"context"
	"errors"

	"tally/internal/core"
)

// ErrRowNotFound is returned by update and delete operations when the row
// identifier does not resolve to a stored record.
var ErrRowNotFound = errors.New("transaction row not found")

type (
	ExpenseAppender interface {
		AppendExpense(ctx context.Context, ch core.Channel, e core.Expense) (rowID string, err error)
	}

	IncomeAppender interface {
		AppendIncome(ctx context.Context, ch core.Channel, in core.Income) (rowID string, err error)
	}

	ExpenseLister interface {
		// ListExpenses returns the channel's expense partition in store order.
		ListExpenses(ctx context.Context, ch core.Channel) ([]core.Expense, error)
	}

	IncomeLister interface {
		ListIncome(ctx context.Context, ch core.Channel) ([]core.Income, error)
	}

	ExpenseUpdater interface {
		UpdateExpense(ctx context.Context, ch core.Channel, rowID string, e core.Expense) error
	}

	ExpenseDeleter interface {
		DeleteExpense(ctx context.Context, ch core.Channel, rowID string) error
	}

	IncomeUpdater interface {
		UpdateIncome(ctx context.Context, ch core.Channel, rowID string, in core.Income) error
	}

	IncomeDeleter interface {
		DeleteIncome(ctx context.Context, ch core.Channel, rowID string) error
	}
)
