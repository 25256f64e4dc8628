package decode

import "sheetfeed/internal/coerce"

// The legacy sheet layout packs three logical tables side by side in one
// physical sheet, repeating the column names "Name", "Email", "Date", "Offer"
// once per table (plus a single "Amount" column for checkout). The nth
// occurrence of a name addresses the nth logical table.
//
// That convention is fragile, so it is isolated here as an explicit rule
// table (logical group → nth occurrence of a named column) rather than being
// scattered through decode logic. Swapping the convention means editing this
// table, nothing else.

type legacyField struct {
	key    string     // record key to write
	column string     // header name to look up
	nth    int        // 1-based occurrence of column in the header row
	typ    ColumnType // coercion applied to the cell
}

type legacyGroup struct {
	key    string
	gate   legacyField // group contributes only when this cell is non-empty
	fields []legacyField
}

var legacyGroups = []legacyGroup{
	{
		key:  GroupFramework,
		gate: legacyField{column: "Name", nth: 1},
		fields: []legacyField{
			{key: "Name", column: "Name", nth: 1, typ: TypeText},
			{key: "Email", column: "Email", nth: 1, typ: TypeText},
			{key: "Date", column: "Date", nth: 1, typ: TypeDate},
			{key: "Offer", column: "Offer", nth: 1, typ: TypeBadge},
		},
	},
	{
		key:  GroupCheckout,
		gate: legacyField{column: "Name", nth: 2},
		fields: []legacyField{
			{key: "Name", column: "Name", nth: 2, typ: TypeText},
			{key: "Email", column: "Email", nth: 2, typ: TypeText},
			{key: "Date", column: "Date", nth: 2, typ: TypeDate},
			// Amount appears once in the sheet, not once per table.
			{key: "Amount", column: "Amount", nth: 1, typ: TypeCurrency},
		},
	},
	{
		// Open leads is a residual bucket: only the name is captured.
		key:  GroupOpenLeads,
		gate: legacyField{column: "Name", nth: 3},
		fields: []legacyField{
			{key: "Name", column: "Name", nth: 3, typ: TypeText},
		},
	},
}

// nthIndex returns the index of the nth occurrence of name in headers, or -1.
func nthIndex(headers []string, name string, n int) int {
	count := 0
	for i, h := range headers {
		if h == name {
			count++
			if count == n {
				return i
			}
		}
	}
	return -1
}

// DecodeLegacy decodes the fixed-shape legacy sheet into its three groups.
//
// Groups are independent per physical row: a row may be populated in one
// logical table and blank in another, because the three tables grow at their
// own pace. A row joins a group only when that group's Name cell is
// non-empty.
//
// Date cells keep the original string under "Date" and, when parsable, the
// parsed value under "DateObj"; unparsable dates leave the record dateless.
// Amount follows the currency rule and defaults to 0.
func DecodeLegacy(rows [][]string, headerIndex int, headers []string) map[string][]Record {
	out := map[string][]Record{
		GroupFramework: {},
		GroupCheckout:  {},
		GroupOpenLeads: {},
	}

	// Resolve occurrence indexes once, not per row.
	type boundField struct {
		legacyField
		idx int
	}
	type boundGroup struct {
		key     string
		gateIdx int
		fields  []boundField
	}
	bound := make([]boundGroup, 0, len(legacyGroups))
	for _, g := range legacyGroups {
		bg := boundGroup{
			key:     g.key,
			gateIdx: nthIndex(headers, g.gate.column, g.gate.nth),
		}
		for _, f := range g.fields {
			bg.fields = append(bg.fields, boundField{legacyField: f, idx: nthIndex(headers, f.column, f.nth)})
		}
		bound = append(bound, bg)
	}

	for i := headerIndex + 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) == 0 {
			continue
		}

		for _, g := range bound {
			if g.gateIdx < 0 || cell(row, g.gateIdx) == "" {
				continue
			}

			rec := Record{}
			for _, f := range g.fields {
				v := ""
				if f.idx >= 0 {
					v = cell(row, f.idx)
				}
				switch f.typ {
				case TypeCurrency:
					rec[f.key] = coerce.Currency(v)
				case TypeDate:
					rec[f.key] = v
					if d, ok := coerce.Date(v); ok {
						rec["DateObj"] = d
					}
				default:
					rec[f.key] = v
				}
			}
			out[g.key] = append(out[g.key], rec)
		}
	}

	return out
}
