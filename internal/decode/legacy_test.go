package decode

import (
	"testing"
	"time"
)

var legacyHeaders = []string{"Name", "Email", "Date", "Offer", "Name", "Email", "Date", "Offer", "Amount", "Name"}

func TestDecodeLegacy_ThreeGroups(t *testing.T) {
	t.Parallel()

	rows := [][]string{
		legacyHeaders,
		{"A", "a@x.com", "1/1/2024", "X", "B", "b@x.com", "1/2/2024", "Y", "50", "C"},
	}
	got := DecodeLegacy(rows, 0, legacyHeaders)

	fw := got[GroupFramework]
	if len(fw) != 1 {
		t.Fatalf("framework: got %d records", len(fw))
	}
	if fw[0]["Name"] != "A" || fw[0]["Email"] != "a@x.com" || fw[0]["Offer"] != "X" || fw[0]["Date"] != "1/1/2024" {
		t.Fatalf("framework record: %#v", fw[0])
	}
	if d, ok := fw[0]["DateObj"].(time.Time); !ok || !d.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("framework DateObj: %#v", fw[0]["DateObj"])
	}

	co := got[GroupCheckout]
	if len(co) != 1 {
		t.Fatalf("checkout: got %d records", len(co))
	}
	if co[0]["Name"] != "B" || co[0]["Email"] != "b@x.com" {
		t.Fatalf("checkout record: %#v", co[0])
	}
	if co[0]["Amount"] != float64(50) {
		t.Fatalf("checkout Amount: %#v", co[0]["Amount"])
	}

	ol := got[GroupOpenLeads]
	if len(ol) != 1 || ol[0]["Name"] != "C" {
		t.Fatalf("openLeads: %#v", ol)
	}
	// Open leads is a minimal capture: name only.
	if len(ol[0]) != 1 {
		t.Fatalf("openLeads record should only carry Name: %#v", ol[0])
	}
}

// Groups fill independently: one physical row may feed one logical table and
// skip the others.
func TestDecodeLegacy_IndependentGroups(t *testing.T) {
	t.Parallel()

	rows := [][]string{
		legacyHeaders,
		{"A", "a@x.com", "1/1/2024", "X", "", "", "", "", "", ""},
		{"", "", "", "", "B", "b@x.com", "1/2/2024", "Y", "$1,234.56", ""},
		{"", "", "", "", "", "", "", "", "", "C"},
	}
	got := DecodeLegacy(rows, 0, legacyHeaders)

	if len(got[GroupFramework]) != 1 || len(got[GroupCheckout]) != 1 || len(got[GroupOpenLeads]) != 1 {
		t.Fatalf("group sizes: fw=%d co=%d ol=%d",
			len(got[GroupFramework]), len(got[GroupCheckout]), len(got[GroupOpenLeads]))
	}
	if got[GroupCheckout][0]["Amount"] != 1234.56 {
		t.Fatalf("Amount: %#v", got[GroupCheckout][0]["Amount"])
	}
}

func TestDecodeLegacy_MalformedCells(t *testing.T) {
	t.Parallel()

	rows := [][]string{
		legacyHeaders,
		// Short row: checkout columns missing entirely.
		{"A", "a@x.com", "not a date"},
		// Unparsable amount must coerce to 0, never NaN.
		{"", "", "", "", "B", "b@x.com", "bad", "Y", "N/A", ""},
	}
	got := DecodeLegacy(rows, 0, legacyHeaders)

	fw := got[GroupFramework]
	if len(fw) != 1 {
		t.Fatalf("framework: %#v", fw)
	}
	if _, present := fw[0]["DateObj"]; present {
		t.Fatalf("unparsable date must leave the record dateless: %#v", fw[0])
	}
	if fw[0]["Date"] != "not a date" {
		t.Fatalf("original date string must be kept: %#v", fw[0]["Date"])
	}

	co := got[GroupCheckout]
	if len(co) != 1 || co[0]["Amount"] != float64(0) {
		t.Fatalf("checkout: %#v", co)
	}
}

// Headers lacking any second or third "Name" occurrence simply produce empty
// groups; no error path exists.
func TestDecodeLegacy_SingleTableHeader(t *testing.T) {
	t.Parallel()

	headers := []string{"Name", "Email", "Date", "Offer"}
	rows := [][]string{
		headers,
		{"A", "a@x.com", "1/1/2024", "X"},
	}
	got := DecodeLegacy(rows, 0, headers)
	if len(got[GroupFramework]) != 1 {
		t.Fatalf("framework: %#v", got[GroupFramework])
	}
	if len(got[GroupCheckout]) != 0 || len(got[GroupOpenLeads]) != 0 {
		t.Fatalf("expected empty checkout/openLeads: %#v", got)
	}
	if got[GroupCheckout] == nil || got[GroupOpenLeads] == nil {
		t.Fatal("groups must be empty slices, not nil")
	}
}
