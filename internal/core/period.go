package core

import (
	"fmt"
	"time"
)

// PeriodKind selects the calendar window a budget renews on.
type PeriodKind string

const (
	Monthly PeriodKind = "monthly"
	Weekly  PeriodKind = "weekly"
)

func (k PeriodKind) Validate() error {
	switch k {
	case Monthly, Weekly:
		return nil
	}
	return fmt.Errorf("invalid period kind: %q", string(k))
}

// Period is an inclusive calendar window.
type Period struct {
	Start Date
	End   Date
}

// Contains reports whether d falls inside the window, bounds included.
func (p Period) Contains(d Date) bool {
	return d.OnOrAfter(p.Start) && d.OnOrBefore(p.End)
}

// Days returns the window length in days, bounds included.
func (p Period) Days() int {
	return p.Start.DaysUntil(p.End)
}

// CurrentPeriod returns the window containing the reference date. Monthly
// windows run from the first to the last day of the reference month; weekly
// windows run Monday through Sunday of the ISO week containing the date.
func CurrentPeriod(kind PeriodKind, ref Date) (Period, error) {
	if err := ref.Validate(); err != nil {
		return Period{}, err
	}
	switch kind {
	case Monthly:
		start := NewDate(ref.Year(), ref.Month(), 1)
		// Day 0 of the next month is the last day of this one.
		end := NewDate(ref.Year(), ref.Month()+1, 0)
		return Period{Start: start, End: end}, nil
	case Weekly:
		offset := int(ref.Weekday()-time.Monday+7) % 7
		start := NewDate(ref.Year(), ref.Month(), ref.Day()-offset)
		end := NewDate(start.Year(), start.Month(), start.Day()+6)
		return Period{Start: start, End: end}, nil
	}
	return Period{}, fmt.Errorf("invalid period kind: %q", string(kind))
}
