package engine

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"sheetfeed/internal/decode"
)

// Columns derives a deterministic column order for records that carry no
// configured column list: the union of all keys, sorted. Callers with a
// configured view should pass their own order to WriteCSV instead.
func Columns(recs []decode.Record) []string {
	seen := map[string]bool{}
	var cols []string
	for _, r := range recs {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

// WriteCSV writes records in their given order as CSV.
//
// Format contract with downstream consumers: a plain header line, then one
// line per record with every field double-quoted, internal quotes doubled,
// fields comma-separated, rows newline-terminated. Record values flatten
// directly: strings as-is, numbers undecorated, dates as YYYY-MM-DD,
// missing values empty.
func WriteCSV(w io.Writer, columns []string, recs []decode.Record) error {
	if len(columns) == 0 {
		columns = Columns(recs)
	}

	if _, err := io.WriteString(w, strings.Join(columns, ",")+"\n"); err != nil {
		return err
	}

	var b strings.Builder
	for _, r := range recs {
		b.Reset()
		for i, c := range columns {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(exportString(r[c]), `"`, `""`))
			b.WriteByte('"')
		}
		b.WriteByte('\n')
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}

func exportString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		return t.Format("2006-01-02")
	default:
		return fmt.Sprint(t)
	}
}
