package core

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the calendar-day format used by the transaction store ("31-12-2025").
const DateLayout = "02-01-2006"

type (
	// Date is a naive calendar day. There is no time-of-day and no timezone
	// concept: all dates are normalized to UTC midnight and compared by day.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Channel is a named partition of transaction data: an individual user's
	// private data or the shared pool.
	Channel string

	// Provenance tags a combined-view record with the partition it came from.
	Provenance string

	// Kind selects a transaction worksheet within a channel.
	Kind string

	Expense struct {
		RowID         string // stable row identifier assigned by the store
		Date          Date
		Amount        Money
		Store         string
		Category      string
		PaymentOption string
		Card          string
	}

	Income struct {
		RowID         string
		Date          Date
		Amount        Money
		Source        string
		PaymentOption string
	}
)

const (
	// SharedChannel is the common pool visible from every channel.
	SharedChannel Channel = "shared"

	ProvenancePersonal Provenance = "personal"
	ProvenanceShared   Provenance = "shared"

	KindExpenses Kind = "expenses"
	KindIncome   Kind = "income"
)

var (
	ErrInvalidDate    = errors.New("invalid date")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrEmptyStore     = errors.New("empty store name")
	ErrEmptySource    = errors.New("empty income source")
	ErrEmptyCategory  = errors.New("empty category")
	ErrUnknownChannel = errors.New("unknown channel")
)

// NewDate creates a Date from year, month, day. Components are taken as-is;
// use ParseDate when the input needs calendar validation.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar day.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// ParseDate parses a store-format date string and rejects dates that are not
// real calendar days (e.g. "31-02-2025").
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String formats the date in the store layout.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

// OnOrAfter reports whether d falls on the same calendar day as o or later.
func (d Date) OnOrAfter(o Date) bool {
	return !d.Time.Before(o.Time)
}

// OnOrBefore reports whether d falls on the same calendar day as o or earlier.
func (d Date) OnOrBefore(o Date) bool {
	return !d.Time.After(o.Time)
}

// DaysUntil returns the number of days from d to o inclusive of both ends.
// Returns 0 when o is before d.
func (d Date) DaysUntil(o Date) int {
	if o.Time.Before(d.Time) {
		return 0
	}
	return int(o.Time.Sub(d.Time).Hours()/24) + 1
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (c Channel) IsShared() bool {
	return c == SharedChannel
}

// Validate checks the channel against the configured channel set.
func (c Channel) Validate(known []Channel) error {
	for _, k := range known {
		if c == k {
			return nil
		}
	}
	return ErrUnknownChannel
}

func (k Kind) Validate() error {
	switch k {
	case KindExpenses, KindIncome:
		return nil
	}
	return errors.New("invalid transaction kind")
}

// Validate checks an expense that is about to be committed to the store.
// Category must already be resolved at this point; classification of raw
// entries happens before validation.
func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Store) == "" {
		return ErrEmptyStore
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (i Income) Validate() error {
	if err := i.Date.Validate(); err != nil {
		return err
	}
	if err := i.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(i.Source) == "" {
		return ErrEmptySource
	}
	return nil
}
