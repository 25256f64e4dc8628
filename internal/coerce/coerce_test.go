package coerce

import (
	"math"
	"testing"
	"time"
)

func TestCurrency(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want float64
	}{
		{"$1,234.56", 1234.56},
		{"1234.56", 1234.56},
		{"", 0},
		{"N/A", 0},
		{"USD 50", 50},
		{"-12.5", -12.5},
		{"$ -3", -3},
		{"...", 0},
		{"--", 0},
		{"1.2.3", 0},
	}
	for _, tt := range tests {
		got := Currency(tt.in)
		if got != tt.want {
			t.Fatalf("Currency(%q): got %v want %v", tt.in, got, tt.want)
		}
		if math.IsNaN(got) {
			t.Fatalf("Currency(%q): NaN escaped", tt.in)
		}
	}
}

func TestDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		wantOK bool
		want   time.Time
	}{
		{"1/15/2024", true, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"01/02/2024", true, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"2024-01-15", true, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"Jan 15, 2024", true, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{" 12/30/1899 ", true, time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)},
		{"", false, time.Time{}},
		{"soon", false, time.Time{}},
		{"99/99/9999", false, time.Time{}},
	}
	for _, tt := range tests {
		got, ok := Date(tt.in)
		if ok != tt.wantOK {
			t.Fatalf("Date(%q): ok=%v want %v", tt.in, ok, tt.wantOK)
		}
		if ok && !got.Equal(tt.want) {
			t.Fatalf("Date(%q): got %v want %v", tt.in, got, tt.want)
		}
		if !ok && !got.IsZero() {
			t.Fatalf("Date(%q): failure must return the zero time, got %v", tt.in, got)
		}
	}
}
