package decode

import "sheetfeed/internal/coerce"

// DecodeUniversal decodes data rows using the tab's configured column view.
//
// Every header cell is a distinct record key. Headers without a matching
// ColumnSpec pass through as trimmed strings under the raw header text;
// headers with a spec are coerced by its type:
//
//   - currency: float64 via the currency rule (default 0)
//   - date: parsed date value; when the cell does not parse, the raw string
//     is kept so the row still displays, and the record counts as dateless
//   - text, badge: trimmed string
//
// Zero-length rows are skipped. Rows shorter than the header read missing
// cells as the empty string, never an error.
func DecodeUniversal(rows [][]string, headerIndex int, headers []string, tab TabSpec) []Record {
	typeByKey := make(map[string]ColumnType, len(tab.Columns))
	for _, c := range tab.Columns {
		typeByKey[c.Key] = c.Type
	}

	out := []Record{}
	for i := headerIndex + 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) == 0 {
			continue
		}

		rec := make(Record, len(headers))
		for idx, h := range headers {
			v := cell(row, idx)
			switch typeByKey[h] {
			case TypeCurrency:
				rec[h] = coerce.Currency(v)
			case TypeDate:
				if d, ok := coerce.Date(v); ok {
					rec[h] = d
				} else {
					rec[h] = v
				}
			default:
				rec[h] = v
			}
		}
		out = append(out, rec)
	}
	return out
}
