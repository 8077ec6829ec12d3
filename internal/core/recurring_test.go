package core

import (
	"errors"
	"testing"
)

func validTemplate() RecurringTemplate {
	return RecurringTemplate{
		Channel:   "user1",
		Amount:    Money{Cents: 4500},
		Store:     "Gym",
		Category:  "Sport",
		Frequency: FrequencyMonthly,
		StartDate: NewDate(2025, 1, 5),
		Active:    true,
	}
}

func TestRecurringTemplateValidate(t *testing.T) {
	if err := validTemplate().Validate(); err != nil {
		t.Fatalf("valid template rejected: %v", err)
	}

	tpl := validTemplate()
	tpl.EndDate = NewDate(2025, 12, 5)
	if err := tpl.Validate(); err != nil {
		t.Fatalf("template with end date rejected: %v", err)
	}

	tpl.EndDate = NewDate(2024, 12, 5)
	if err := tpl.Validate(); !errors.Is(err, ErrEndBeforeStart) {
		t.Fatalf("expected end-before-start error, got %v", err)
	}

	tpl = validTemplate()
	tpl.Frequency = "fortnightly"
	if err := tpl.Validate(); !errors.Is(err, ErrUnknownFrequency) {
		t.Fatalf("expected unknown frequency error, got %v", err)
	}

	tpl = validTemplate()
	tpl.Store = "  "
	if err := tpl.Validate(); !errors.Is(err, ErrEmptyStore) {
		t.Fatalf("expected empty store error, got %v", err)
	}
}

func TestRecurringTemplateExpired(t *testing.T) {
	tpl := validTemplate()
	if tpl.Expired(NewDate(2099, 1, 1)) {
		t.Fatalf("open-ended template must never expire")
	}

	tpl.EndDate = NewDate(2025, 6, 15)
	if tpl.Expired(NewDate(2025, 6, 15)) {
		t.Fatalf("end date itself is still inside the schedule")
	}
	if !tpl.Expired(NewDate(2025, 6, 16)) {
		t.Fatalf("day after the end date must be expired")
	}
}
