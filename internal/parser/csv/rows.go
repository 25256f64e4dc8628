// Package csv parses published-spreadsheet CSV bodies into raw rows.
//
// Rows come back as positional string cells with no header association and
// no type inference; header detection and typing happen in later stages.
// Parsing is intentionally lenient: published sheets are maintained by
// non-technical users, so ragged field counts and stray quotes must not
// fail the read.
package csv

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// RawRows parses CSV bytes into rows of trimmed string cells.
//
// Behavior:
//   - Field counts may vary per record (FieldsPerRecord = -1).
//   - LazyQuotes tolerates stray quotes inside unquoted fields.
//   - A UTF-8 BOM on the first cell is stripped.
//   - Rows whose cells are all empty are dropped.
//   - Unreadable records are skipped, not fatal; a completely unparsable
//     body yields zero rows.
//
// Bodies that are not valid UTF-8 are re-decoded as Windows-1252 first;
// sheets exported from legacy office tooling occasionally arrive that way.
func RawRows(data []byte) [][]string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	if !utf8.Valid(data) {
		if decoded, err := charmap.Windows1252.NewDecoder().Bytes(data); err == nil {
			data = decoded
		}
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	first := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Skip the bad record; the rest of the sheet is still useful.
			continue
		}

		row := make([]string, len(rec))
		empty := true
		for i, v := range rec {
			if first && i == 0 {
				v = strings.TrimPrefix(v, "\uFEFF")
			}
			v = strings.TrimSpace(v)
			row[i] = v
			if v != "" {
				empty = false
			}
		}
		first = false

		if empty {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}
