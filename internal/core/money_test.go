package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPriceToCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"0", 0},
		{"109.95", 10995},
		{"12.344", 1234},
		{"12.345", 1235},
		{"100", 10000},
		{"0.005", 1},
	}
	for _, tc := range cases {
		if got := PriceToCents(decimal.RequireFromString(tc.in)); got != tc.want {
			t.Fatalf("PriceToCents(%s) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestPriceFromCents(t *testing.T) {
	if got := PriceFromCents(10995); !got.Equal(decimal.RequireFromString("109.95")) {
		t.Fatalf("got %s", got)
	}
}

func TestCentsCeil(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"101", 10100},
		{"100.001", 10001},
		{"-0.001", 0},
	}
	for _, tc := range cases {
		if got := CentsCeil(decimal.RequireFromString(tc.in)); got != tc.want {
			t.Fatalf("CentsCeil(%s) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
