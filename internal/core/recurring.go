package core

import (
	"errors"
	"strings"
	"time"
)

// Frequency is how often a recurring template materializes an expense.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

var ErrUnknownFrequency = errors.New("unknown frequency")

func (f Frequency) Validate() error {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return nil
	}
	return ErrUnknownFrequency
}

// RecurringTemplate describes an expense created automatically on a schedule.
// StartDate anchors the target day (and month, for yearly templates);
// LastExecution is zero until the first materialization. A zero EndDate means
// the template never expires.
type RecurringTemplate struct {
	ID            int64
	Channel       Channel
	Amount        Money
	Store         string
	Category      string
	PaymentOption string
	Card          string
	Frequency     Frequency
	StartDate     Date
	EndDate       Date
	LastExecution time.Time
	Active        bool
}

var ErrEndBeforeStart = errors.New("end date before start date")

func (t RecurringTemplate) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Store) == "" {
		return ErrEmptyStore
	}
	if err := t.Frequency.Validate(); err != nil {
		return err
	}
	if err := t.StartDate.Validate(); err != nil {
		return err
	}
	if !t.EndDate.IsZero() && !t.EndDate.OnOrAfter(t.StartDate) {
		return ErrEndBeforeStart
	}
	return nil
}

// Expired reports whether the template's schedule has ended as of the given
// day. Open-ended templates never expire.
func (t RecurringTemplate) Expired(asOf Date) bool {
	return !t.EndDate.IsZero() && !asOf.OnOrBefore(t.EndDate)
}

// Expense materializes the template for the given day.
func (t RecurringTemplate) Expense(date Date) Expense {
	return Expense{
		Date:          date,
		Amount:        t.Amount,
		Store:         t.Store,
		Category:      t.Category,
		PaymentOption: t.PaymentOption,
		Card:          t.Card,
	}
}
