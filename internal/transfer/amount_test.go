package transfer

import (
	"errors"
	"testing"
)

func TestParseAmountShorthand(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"5000", 5000},
		{"2.5k", 2500},
		{"75k", 75000},
		{"1m", 1000000},
		{"2.5m", 2500000},
		{"10,000", 10000},
		{"5 thousand", 5000},
		{"1 million", 1000000},
		{"₦5000", 5000},
		{"NGN 2000", 2000},
		{"  50k  ", 50000},
	}

	for _, tc := range cases {
		got, err := ParseAmount(tc.in, 100)
		if err != nil {
			t.Fatalf("ParseAmount(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseAmount(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseAmountInvalid(t *testing.T) {
	for _, in := range []string{"", "abc", "5k naira now", "k", "-500", "0"} {
		if _, err := ParseAmount(in, 100); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("ParseAmount(%q): expected ErrInvalidAmount, got %v", in, err)
		}
	}
}

func TestParseAmountBelowMinimum(t *testing.T) {
	_, err := ParseAmount("50", 100)
	var below *BelowMinimumError
	if !errors.As(err, &below) {
		t.Fatalf("expected BelowMinimumError, got %v", err)
	}
	if below.Amount != 50 || below.Minimum != 100 {
		t.Fatalf("unexpected error detail %+v", below)
	}
}

func TestFormatAmount(t *testing.T) {
	cases := map[int64]string{
		100:     "100",
		5000:    "5,000",
		75000:   "75,000",
		1000000: "1,000,000",
	}
	for in, want := range cases {
		if got := formatAmount(in); got != want {
			t.Fatalf("formatAmount(%d) = %q, want %q", in, got, want)
		}
	}
}
