package decode

import (
	"fmt"
	"reflect"
	"testing"
)

func TestDetectHeader_SkipsBanner(t *testing.T) {
	t.Parallel()

	rows := [][]string{
		{"Quarterly Report", "", ""},
		{"", "", ""},
		{"Name", "Email", "Date"},
		{"Ann", "a@x.com", "1/1/2024"},
	}
	idx, headers := DetectHeader(rows)
	if idx != 2 {
		t.Fatalf("header index: got %d want 2", idx)
	}
	if !reflect.DeepEqual(headers, []string{"Name", "Email", "Date"}) {
		t.Fatalf("headers: got %#v", headers)
	}
}

// Nine rows with at most one populated cell, then a qualifying row: the
// detector must land on index 9.
func TestDetectHeader_WindowBoundary(t *testing.T) {
	t.Parallel()

	var rows [][]string
	for i := 0; i < 9; i++ {
		rows = append(rows, []string{fmt.Sprintf("banner %d", i), "", ""})
	}
	rows = append(rows, []string{"Name", "Email"})
	rows = append(rows, []string{"Ann", "a@x.com"})

	idx, headers := DetectHeader(rows)
	if idx != 9 {
		t.Fatalf("header index: got %d want 9", idx)
	}
	if !reflect.DeepEqual(headers, []string{"Name", "Email"}) {
		t.Fatalf("headers: got %#v", headers)
	}
}

// Rows past the scan window never qualify; the fallback is row 0.
func TestDetectHeader_BeyondWindowFallsBack(t *testing.T) {
	t.Parallel()

	var rows [][]string
	for i := 0; i < 11; i++ {
		rows = append(rows, []string{"x", ""})
	}
	rows = append(rows, []string{"Name", "Email"})

	idx, _ := DetectHeader(rows)
	if idx != 0 {
		t.Fatalf("header index: got %d want 0", idx)
	}
}

func TestDetectHeader_AllBlank(t *testing.T) {
	t.Parallel()

	rows := [][]string{{"", ""}, {"", ""}}
	idx, headers := DetectHeader(rows)
	if idx != 0 {
		t.Fatalf("header index: got %d want 0", idx)
	}
	// Blank header cells must get unique synthesized names, never "".
	if !reflect.DeepEqual(headers, []string{"Column 1", "Column 2"}) {
		t.Fatalf("headers: got %#v", headers)
	}
}

func TestDetectHeader_NoRows(t *testing.T) {
	t.Parallel()

	idx, headers := DetectHeader(nil)
	if idx != 0 || headers != nil {
		t.Fatalf("got idx=%d headers=%#v", idx, headers)
	}
}
