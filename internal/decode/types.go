// Package decode turns raw spreadsheet rows into typed records.
//
// Two interchangeable strategies exist:
//
//   - Legacy: a fixed-shape sheet holding three horizontally-concatenated
//     logical tables (lead capture, checkout, open leads), distinguished by
//     repeated column names. See legacy.go.
//   - Universal: arbitrary named tabs with per-column mappings supplied by
//     tenant configuration. See universal.go.
//
// Both strategies share the header detector (header.go) and the coercion
// rules in internal/coerce. Neither has an error path: shape anomalies
// (short rows, blank headers, unparsable cells) resolve to defined fallback
// values so the sheet always renders.
package decode

// Record is one decoded logical row: column key → coerced value.
//
// Values are string, float64, or time.Time; a missing key reads as nil.
// Records are flat on purpose: an external exporter flattens them directly
// into CSV fields. Consumers derive new slices instead of mutating records.
type Record map[string]any

// ColumnType tags how a configured column is coerced and rendered.
type ColumnType string

const (
	TypeText     ColumnType = "text"
	TypeDate     ColumnType = "date"
	TypeBadge    ColumnType = "badge"
	TypeCurrency ColumnType = "currency"
)

// ColumnSpec maps one sheet column to a record key and coercion rule.
// Key must match a header cell of the tab it belongs to.
type ColumnSpec struct {
	Key   string     `json:"key"`
	Label string     `json:"label"`
	Type  ColumnType `json:"type"`
}

// TabSpec is the tenant-configured view of one sub-sheet.
//
// ID is unique within a tenant's tab list; GID need not be, since distinct tabs
// may expose different column views over the same physical sub-sheet.
// TabSpecs are created by tenant administrators and are read-only here.
type TabSpec struct {
	ID      string       `json:"id"`
	Label   string       `json:"label"`
	GID     string       `json:"gid"`
	Columns []ColumnSpec `json:"columns,omitempty"`
}

// Legacy group keys. In universal mode the group key is the TabSpec ID.
const (
	GroupFramework = "framework"
	GroupCheckout  = "checkout"
	GroupOpenLeads = "openLeads"
)

// cell returns row[i] or "" when the row is shorter than the header.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
