package engine

import (
	"reflect"
	"testing"

	"sheetfeed/internal/decode"
)

func TestSummarize(t *testing.T) {
	t.Parallel()

	leads := []decode.Record{{"Name": "a"}, {"Name": "b"}, {"Name": "c"}}
	checkout := []decode.Record{
		{"Name": "a", "Amount": 50.0},
		{"Name": "b", "Amount": 25.5},
		{"Name": "x"}, // no Amount: contributes 0
	}

	got := Summarize(leads, checkout)
	want := Stats{Leads: 3, Purchases: 3, Revenue: 75.5, ConversionRate: 100}
	if got != want {
		t.Fatalf("stats: got %#v want %#v", got, want)
	}
}

func TestSummarize_NoLeads(t *testing.T) {
	t.Parallel()

	got := Summarize(nil, nil)
	if got.ConversionRate != 0 {
		t.Fatalf("conversion with zero leads: %#v", got)
	}
}

func TestSummarize_Rounding(t *testing.T) {
	t.Parallel()

	leads := make([]decode.Record, 3)
	checkout := make([]decode.Record, 1)
	got := Summarize(leads, checkout)
	if got.ConversionRate != 33.3 {
		t.Fatalf("conversion: got %v want 33.3", got.ConversionRate)
	}
}

func TestRevenueSeries(t *testing.T) {
	t.Parallel()

	checkout := []decode.Record{
		{"Date": "1/2/2024", "Amount": 10.0},
		{"Date": "1/1/2024", "Amount": 5.0},
		{"Date": "1/2/2024", "Amount": 20.0},
		{"Date": "whenever", "Amount": 1.0},
	}

	got := RevenueSeries(checkout)
	want := []SeriesPoint{
		{Date: "1/1/2024", Amount: 5, Count: 1},
		{Date: "1/2/2024", Amount: 30, Count: 2},
		{Date: "whenever", Amount: 1, Count: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("series: got %#v want %#v", got, want)
	}
}

func TestRevenueSeries_Empty(t *testing.T) {
	t.Parallel()

	if got := RevenueSeries(nil); len(got) != 0 {
		t.Fatalf("series: %#v", got)
	}
}
