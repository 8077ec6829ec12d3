package http

import (
	"fmt"

	"tally/internal/core"
	"tally/internal/services"
)

// Wire representations. Amounts travel both as a display string ("12.34")
// and as cents so clients never re-parse decimals.

type expenseJSON struct {
	ID            string `json:"id"`
	Date          string `json:"date"`
	Amount        string `json:"amount"`
	AmountCents   int64  `json:"amount_cents"`
	Store         string `json:"store"`
	Category      string `json:"category"`
	PaymentOption string `json:"payment_option,omitempty"`
	Card          string `json:"card,omitempty"`
	Provenance    string `json:"provenance,omitempty"`
}

type incomeJSON struct {
	ID            string `json:"id"`
	Date          string `json:"date"`
	Amount        string `json:"amount"`
	AmountCents   int64  `json:"amount_cents"`
	Source        string `json:"source"`
	PaymentOption string `json:"payment_option,omitempty"`
	Provenance    string `json:"provenance,omitempty"`
}

type budgetStatusJSON struct {
	Category     string  `json:"category"`
	PeriodStart  string  `json:"period_start"`
	PeriodEnd    string  `json:"period_end"`
	Budgeted     string  `json:"budgeted"`
	Spent        string  `json:"spent"`
	Remaining    string  `json:"remaining"`
	PercentUsed  float64 `json:"percent_used"`
	Tier         string  `json:"tier"`
	DaysElapsed  int     `json:"days_elapsed"`
	DaysTotal    int     `json:"days_total"`
	ExpectedPace float64 `json:"expected_pace"`
	Projected    string  `json:"projected"`
}

type overviewJSON struct {
	Channel  string             `json:"channel"`
	Date     string             `json:"date"`
	Expenses []expenseJSON      `json:"expenses"`
	Income   []incomeJSON       `json:"income"`
	Budgets  []budgetStatusJSON `json:"budgets"`
	Overall  budgetStatusJSON   `json:"overall"`
}

type budgetJSON struct {
	Category string `json:"category"`
	Amount   string `json:"amount"`
	Period   string `json:"period"`
	Active   bool   `json:"active"`
}

type thresholdsJSON struct {
	Warning int `json:"warning"`
	Alert   int `json:"alert"`
}

func toExpenseJSON(e core.Expense, prov core.Provenance) expenseJSON {
	return expenseJSON{
		ID:            e.RowID,
		Date:          e.Date.String(),
		Amount:        e.Amount.String(),
		AmountCents:   e.Amount.Cents,
		Store:         e.Store,
		Category:      e.Category,
		PaymentOption: e.PaymentOption,
		Card:          e.Card,
		Provenance:    string(prov),
	}
}

func toIncomeJSON(in core.Income, prov core.Provenance) incomeJSON {
	return incomeJSON{
		ID:            in.RowID,
		Date:          in.Date.String(),
		Amount:        in.Amount.String(),
		AmountCents:   in.Amount.Cents,
		Source:        in.Source,
		PaymentOption: in.PaymentOption,
		Provenance:    string(prov),
	}
}

func toBudgetStatusJSON(st core.BudgetStatus) budgetStatusJSON {
	return budgetStatusJSON{
		Category:     st.Category,
		PeriodStart:  st.PeriodStart.String(),
		PeriodEnd:    st.PeriodEnd.String(),
		Budgeted:     st.Budgeted.String(),
		Spent:        st.Spent.String(),
		Remaining:    st.Remaining.String(),
		PercentUsed:  st.PercentUsed,
		Tier:         string(st.Tier),
		DaysElapsed:  st.DaysElapsed,
		DaysTotal:    st.DaysTotal,
		ExpectedPace: st.ExpectedPace,
		Projected:    st.Projected.String(),
	}
}

func toOverviewJSON(ov services.Overview) overviewJSON {
	out := overviewJSON{
		Channel:  string(ov.Channel),
		Date:     ov.Ref.String(),
		Expenses: make([]expenseJSON, 0, len(ov.Expenses)),
		Income:   make([]incomeJSON, 0, len(ov.Income)),
		Budgets:  make([]budgetStatusJSON, 0, len(ov.Budgets)),
		Overall:  toBudgetStatusJSON(ov.Overall),
	}
	for _, t := range ov.Expenses {
		out.Expenses = append(out.Expenses, toExpenseJSON(t.Record, t.Provenance))
	}
	for _, t := range ov.Income {
		out.Income = append(out.Income, toIncomeJSON(t.Record, t.Provenance))
	}
	for _, st := range ov.Budgets {
		out.Budgets = append(out.Budgets, toBudgetStatusJSON(st))
	}
	return out
}

// expenseRequest is the write payload for expenses. Category may be blank,
// in which case the classifier resolves it.
type expenseRequest struct {
	Date          string `json:"date"`
	Amount        string `json:"amount"`
	Store         string `json:"store"`
	Category      string `json:"category"`
	PaymentOption string `json:"payment_option"`
	Card          string `json:"card"`
}

func (req expenseRequest) toExpense() (core.Expense, error) {
	date, amount, err := parseDateAndAmount(req.Date, req.Amount)
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		Date:          date,
		Amount:        amount,
		Store:         req.Store,
		Category:      req.Category,
		PaymentOption: req.PaymentOption,
		Card:          req.Card,
	}, nil
}

type incomeRequest struct {
	Date          string `json:"date"`
	Amount        string `json:"amount"`
	Source        string `json:"source"`
	PaymentOption string `json:"payment_option"`
}

func (req incomeRequest) toIncome() (core.Income, error) {
	date, amount, err := parseDateAndAmount(req.Date, req.Amount)
	if err != nil {
		return core.Income{}, err
	}
	return core.Income{
		Date:          date,
		Amount:        amount,
		Source:        req.Source,
		PaymentOption: req.PaymentOption,
	}, nil
}

// parseDateAndAmount applies the shared request conventions: a missing date
// means today, the amount is a decimal string.
func parseDateAndAmount(dateStr, amountStr string) (core.Date, core.Money, error) {
	date := core.Today()
	if dateStr != "" {
		var err error
		date, err = core.ParseDate(dateStr)
		if err != nil {
			return core.Date{}, core.Money{}, fmt.Errorf("date %q: %w", dateStr, err)
		}
	}
	amount, err := core.ParseAmount(amountStr)
	if err != nil {
		return core.Date{}, core.Money{}, fmt.Errorf("amount %q: %w", amountStr, err)
	}
	return date, amount, nil
}
