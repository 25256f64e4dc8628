package decode

import (
	"fmt"
	"strings"
)

// headerScanWindow bounds the search for the true header row. Rows past the
// window are assumed to be data, which keeps pathological sheets with huge
// banner sections from degenerating into a full scan.
const headerScanWindow = 10

// DetectHeader locates the header row inside the leading rows of a sheet.
//
// Published sheets often carry a title or banner row above the real header.
// The first scanned row with at least two populated cells is taken as the
// header: two cells is the minimal signal of "these look like column labels"
// while still tolerating a single stray cell in a banner row.
//
// DetectHeader always succeeds: if nothing in the window qualifies, row 0 is
// used. Header cells are trimmed, and blank cells get a synthesized unique
// name so they cannot collide on the empty string as a record key.
func DetectHeader(rows [][]string) (int, []string) {
	headerIndex := 0
	limit := len(rows)
	if limit > headerScanWindow {
		limit = headerScanWindow
	}
	for i := 0; i < limit; i++ {
		filled := 0
		for _, c := range rows[i] {
			if strings.TrimSpace(c) != "" {
				filled++
			}
		}
		if filled >= 2 {
			headerIndex = i
			break
		}
	}

	if len(rows) == 0 {
		return 0, nil
	}

	src := rows[headerIndex]
	headers := make([]string, len(src))
	for i, h := range src {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Column %d", i+1)
		}
		headers[i] = h
	}
	return headerIndex, headers
}
