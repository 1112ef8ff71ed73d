package catalog

import (
	"testing"
	"time"
)

func TestParseFuturesSymbol(t *testing.T) {
	cases := []struct {
		symbol string
		root   string
		month  time.Month
		year   int
	}{
		{"ESH5", "ES", time.March, 2025},
		{"ESM5", "ES", time.June, 2025},
		{"SR3H25", "SR3", time.March, 2025},
		{"ZNH25", "ZN", time.March, 2025},
		{"CLZ6", "CL", time.December, 2026},
		{"esh5", "ES", time.March, 2025},
		{"GEZ99", "GE", time.December, 1999},
	}

	for _, tc := range cases {
		parsed, err := ParseFuturesSymbol(tc.symbol)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.symbol, err)
		}
		if parsed.Root != tc.root || parsed.Month != tc.month || parsed.Year != tc.year {
			t.Fatalf("parse %q: got %+v", tc.symbol, parsed)
		}
	}
}

func TestParseFuturesSymbolRejectsGarbage(t *testing.T) {
	for _, symbol := range []string{"", "ES", "E5", "ESXX", "123"} {
		if _, err := ParseFuturesSymbol(symbol); err == nil {
			t.Fatalf("expected error for %q", symbol)
		}
	}
}

func TestIMMDate(t *testing.T) {
	cases := []struct {
		year  int
		month time.Month
		want  time.Time
	}{
		{2025, time.March, d(2025, time.March, 19)},
		{2025, time.June, d(2025, time.June, 18)},
		{2025, time.September, d(2025, time.September, 17)},
		{2025, time.December, d(2025, time.December, 17)},
		{2026, time.March, d(2026, time.March, 18)},
	}
	for _, tc := range cases {
		got := IMMDate(tc.year, tc.month)
		if !got.Equal(tc.want) {
			t.Fatalf("IMM %d-%s: expected %s, got %s", tc.year, tc.month, tc.want, got)
		}
		if got.Weekday() != time.Wednesday {
			t.Fatalf("IMM date must be a Wednesday, got %s", got.Weekday())
		}
	}
}

func TestExpiryFromSymbol(t *testing.T) {
	expiry, err := ExpiryFromSymbol("ESH5")
	if err != nil {
		t.Fatalf("expiry for ESH5: %v", err)
	}
	if !expiry.Equal(d(2025, time.March, 19)) {
		t.Fatalf("expected 2025-03-19, got %s", expiry)
	}
}
