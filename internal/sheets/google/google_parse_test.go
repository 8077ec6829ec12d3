package google

import "testing"

func TestRowFromRange(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"expenses_user1!A5:F5", 5, false},
		{"income_shared!A12", 12, false},
		{"A2:D2", 2, false},
		{"expenses_user1!A:F", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := rowFromRange(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("rowFromRange(%q): expected error, got %d", tt.in, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("rowFromRange(%q) = %d, %v; want %d", tt.in, got, err, tt.want)
		}
	}
}

func TestParseExpenseRow(t *testing.T) {
	e, ok := parseExpenseRow([]string{"15-06-2025", "12,50", "Supermarket", "Food", "Debit Card", "Visa"})
	if !ok {
		t.Fatalf("expected row to parse")
	}
	if e.Amount.Cents != 1250 || e.Store != "Supermarket" || e.Category != "Food" || e.Card != "Visa" {
		t.Fatalf("unexpected expense: %+v", e)
	}
	if e.Date.Day() != 15 || e.Date.Month() != 6 || e.Date.Year() != 2025 {
		t.Fatalf("unexpected date: %v", e.Date)
	}
}

func TestParseExpenseRowSkipsHeaderAndShortRows(t *testing.T) {
	if _, ok := parseExpenseRow([]string{"Date", "Amount", "Store", "Category"}); ok {
		t.Fatalf("header row must not parse")
	}
	if _, ok := parseExpenseRow([]string{"15-06-2025", "12.50"}); ok {
		t.Fatalf("short row must not parse")
	}
	if _, ok := parseExpenseRow([]string{"15-06-2025", "nope", "Supermarket", "Food"}); ok {
		t.Fatalf("unparseable amount must not parse")
	}
}

func TestParseIncomeRow(t *testing.T) {
	in, ok := parseIncomeRow([]string{"01-06-2025", "1500", "Salary", "Bank Transfer"})
	if !ok {
		t.Fatalf("expected row to parse")
	}
	if in.Amount.Cents != 150000 || in.Source != "Salary" || in.PaymentOption != "Bank Transfer" {
		t.Fatalf("unexpected income: %+v", in)
	}
}

func TestParseAmountCell(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"12.34", 1234, true},
		{"12,34", 1234, true},
		{"450", 45000, true},
		{"12.5", 1250, true},
		{"", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseAmountCell(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseAmountCell(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
