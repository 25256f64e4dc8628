// Package engine provides generic, decoder-agnostic operations over decoded
// records: date-range filtering, free-text search, type-aware sorting, and
// pagination.
//
// All operations are pure transformations, deriving new slices rather than
// mutating their input, so the presentation layer owns all state and the same
// record sequence can serve any number of concurrent views. Composition
// order is fixed: filter → search → sort → paginate. Applying the pipeline
// twice with the same state yields the same output.
package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"sheetfeed/internal/decode"
)

// DefaultPageSize is the page size used when a query does not set one.
const DefaultPageSize = 10

// DefaultDateKey is where decoders store a record's parsed date value.
const DefaultDateKey = "DateObj"

// DefaultSearchFields are the fields searched when a query does not name any.
var DefaultSearchFields = []string{"Name", "Email"}

// Query is the filter/sort/pagination state for one view, owned by the
// caller. The zero value means "no filter, no search, no sort, first page".
type Query struct {
	Start *time.Time
	End   *time.Time

	Search       string
	SearchFields []string

	SortKey  string
	SortDesc bool

	Page     int
	PageSize int

	// DateKey overrides where the date filter reads the record's date value.
	// Empty means DefaultDateKey.
	DateKey string
}

// WithSearch returns a copy of q with a new search term and the page reset
// to 1. Changing the term always restarts pagination; keeping the old page
// against a different result set would show an arbitrary window.
func (q Query) WithSearch(term string) Query {
	q.Search = term
	q.Page = 1
	return q
}

// FilterByDate keeps records whose date value falls within [start, end]
// inclusive on whichever bound is set.
//
// Records without a date signal (missing key or non-date value) pass
// through: an unknown date means "don't exclude", not "drop". With neither
// bound set the input is returned unchanged.
func FilterByDate(recs []decode.Record, start, end *time.Time, dateKey string) []decode.Record {
	if start == nil && end == nil {
		return recs
	}
	if dateKey == "" {
		dateKey = DefaultDateKey
	}

	out := make([]decode.Record, 0, len(recs))
	for _, r := range recs {
		d, ok := r[dateKey].(time.Time)
		if !ok {
			out = append(out, r)
			continue
		}
		if start != nil && d.Before(*start) {
			continue
		}
		if end != nil && d.After(*end) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Search keeps records where any of the given fields contains term,
// case-insensitively. Only string-valued fields participate. An empty term
// is a pass-through; nil fields default to DefaultSearchFields.
func Search(recs []decode.Record, term string, fields []string) []decode.Record {
	term = strings.TrimSpace(term)
	if term == "" {
		return recs
	}
	if fields == nil {
		fields = DefaultSearchFields
	}

	fold := cases.Fold()
	needle := fold.String(term)

	out := make([]decode.Record, 0, len(recs))
	for _, r := range recs {
		for _, f := range fields {
			s, ok := r[f].(string)
			if !ok {
				continue
			}
			if strings.Contains(fold.String(s), needle) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// Sort returns a stably sorted copy of recs by a single key.
//
// Comparison is type-aware: numbers compare numerically, dates by their
// underlying time value, everything else as case-insensitive strings.
// Missing values sort lowest in ascending order. An empty key returns the
// input unchanged.
func Sort(recs []decode.Record, key string, desc bool) []decode.Record {
	if key == "" {
		return recs
	}

	out := make([]decode.Record, len(recs))
	copy(out, recs)

	// Collators are not safe for concurrent use; build one per call.
	col := collate.New(language.English, collate.IgnoreCase)

	sort.SliceStable(out, func(i, j int) bool {
		c := compareValues(col, out[i][key], out[j][key])
		if desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

// compareValues orders two record values. nil sorts lowest; like types
// compare natively; everything else falls back to collated strings.
func compareValues(col *collate.Collator, a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if af, aok := a.(float64); aok {
		if bf, bok := b.(float64); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	if at, aok := a.(time.Time); aok {
		if bt, bok := b.(time.Time); bok {
			return at.Compare(bt)
		}
	}
	return col.CompareString(valueString(a), valueString(b))
}

func valueString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}

// Paginate slices out one 1-indexed page. Page values below 1 read as page
// 1, a non-positive size reads as DefaultPageSize, and a page past the end
// yields an empty slice rather than an error.
func Paginate(recs []decode.Record, page, size int) []decode.Record {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}

	lo := (page - 1) * size
	if lo >= len(recs) {
		return []decode.Record{}
	}
	hi := lo + size
	if hi > len(recs) {
		hi = len(recs)
	}
	return recs[lo:hi]
}

// Ordered applies filter → search → sort, i.e. everything but pagination.
// This is the record order an exporter sees.
func Ordered(recs []decode.Record, q Query) []decode.Record {
	recs = FilterByDate(recs, q.Start, q.End, q.DateKey)
	recs = Search(recs, q.Search, q.SearchFields)
	return Sort(recs, q.SortKey, q.SortDesc)
}

// Apply runs the full pipeline and returns the visible page.
func Apply(recs []decode.Record, q Query) []decode.Record {
	return Paginate(Ordered(recs, q), q.Page, q.PageSize)
}
