package google

import (
	"fmt"
	"strconv"
	"strings"

	"tally/internal/core"
)

// rowFromRange extracts the row number from an A1 range like
// "expenses_user1!A5:F5" or "income_shared!A12".
func rowFromRange(rng string) (int, error) {
	if i := strings.IndexByte(rng, '!'); i >= 0 {
		rng = rng[i+1:]
	}
	if i := strings.IndexByte(rng, ':'); i >= 0 {
		rng = rng[:i]
	}
	start := 0
	for start < len(rng) && (rng[start] < '0' || rng[start] > '9') {
		start++
	}
	n, err := strconv.Atoi(rng[start:])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("unexpected updated range %q", rng)
	}
	return n, nil
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func cell(cols []string, idx int) string {
	if idx < 0 || idx >= len(cols) {
		return ""
	}
	return cols[idx]
}

// parseExpenseRow reads a worksheet row laid out as
// Date, Amount, Store, Category, PaymentOption, Card.
// Parsing is best-effort: header rows and rows missing a date or amount are
// skipped rather than failing the whole listing.
func parseExpenseRow(cols []string) (core.Expense, bool) {
	if len(cols) < 4 {
		return core.Expense{}, false
	}
	date, err := core.ParseDate(cell(cols, 0))
	if err != nil {
		return core.Expense{}, false
	}
	cents, ok := parseAmountCell(cell(cols, 1))
	if !ok {
		return core.Expense{}, false
	}
	e := core.Expense{
		Date:          date,
		Amount:        core.Money{Cents: cents},
		Store:         cell(cols, 2),
		Category:      cell(cols, 3),
		PaymentOption: cell(cols, 4),
		Card:          cell(cols, 5),
	}
	if e.Store == "" && e.Amount.Cents == 0 {
		return core.Expense{}, false
	}
	return e, true
}

// parseIncomeRow reads a worksheet row laid out as
// Date, Amount, Source, PaymentOption.
func parseIncomeRow(cols []string) (core.Income, bool) {
	if len(cols) < 3 {
		return core.Income{}, false
	}
	date, err := core.ParseDate(cell(cols, 0))
	if err != nil {
		return core.Income{}, false
	}
	cents, ok := parseAmountCell(cell(cols, 1))
	if !ok {
		return core.Income{}, false
	}
	in := core.Income{
		Date:          date,
		Amount:        core.Money{Cents: cents},
		Source:        cell(cols, 2),
		PaymentOption: cell(cols, 3),
	}
	if in.Source == "" && in.Amount.Cents == 0 {
		return core.Income{}, false
	}
	return in, true
}

// parseAmountCell accepts the strict decimal form first, then falls back to
// float parsing for cells Sheets formatted on its own (e.g. "12,5" or "12.5").
func parseAmountCell(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if cents, err := core.ParseDecimalToCents(s); err == nil {
		return cents, true
	}
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int64((f * 100.0) + 0.5), true
}
