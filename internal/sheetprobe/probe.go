// Package sheetprobe bootstraps tab-view configurations by sampling a
// published spreadsheet.
//
// Administrators onboarding a tenant rarely want to hand-write column
// specs. The probe fetches a bounded sample of each tab, detects the header
// row, guesses a coarse type per column, and emits a tab-spec skeleton the
// administrator edits down rather than writes up.
package sheetprobe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sheetfeed/internal/coerce"
	"sheetfeed/internal/decode"
	"sheetfeed/internal/sheetref"
	"sheetfeed/internal/sheets"
)

// Source provides the two sheet operations the probe needs. Satisfied by
// *sheets.Client.
type Source interface {
	FetchCSV(ctx context.Context, ref sheetref.Ref) [][]string
	DiscoverTabs(ctx context.Context, ref sheetref.Ref) []sheets.Tab
}

// Options controls a probe run.
type Options struct {
	// Sheet is the spreadsheet reference (share URL, published URL, or
	// bare ID). Required.
	Sheet string

	// GID selects the tab to sample when Discover is false. Empty means
	// the gid embedded in Sheet, or the first tab.
	GID string

	// Discover samples every tab listed in the published HTML instead of
	// a single one.
	Discover bool

	// SampleRows bounds how many data rows feed type inference per tab.
	// Defaults to 50.
	SampleRows int
}

// TabReport is the probe result for one tab.
type TabReport struct {
	Tab         sheets.Tab     `json:"tab"`
	HeaderIndex int            `json:"headerIndex"`
	SampledRows int            `json:"sampledRows"`
	Spec        decode.TabSpec `json:"spec"`
}

// Report is the full probe result. Tabs holds per-tab detail; Specs is the
// ready-to-edit configuration skeleton.
type Report struct {
	Ref   sheetref.Ref     `json:"ref"`
	Tabs  []TabReport      `json:"tabs"`
	Specs []decode.TabSpec `json:"specs"`
}

// ErrNoData is returned when no sampled tab yields any data rows.
var ErrNoData = errors.New("sheetprobe: no data rows sampled")

// Probe samples the spreadsheet and returns a configuration skeleton.
// Tabs that fetch empty are skipped; an error comes back only when the
// reference is blank or every tab was empty.
func Probe(ctx context.Context, src Source, opts Options) (Report, error) {
	if strings.TrimSpace(opts.Sheet) == "" {
		return Report{}, errors.New("sheetprobe: no spreadsheet reference given")
	}
	if opts.SampleRows <= 0 {
		opts.SampleRows = 50
	}

	ref := sheetref.Resolve(opts.Sheet, opts.GID)
	rep := Report{Ref: ref}

	tabs := []sheets.Tab{{Name: "Sheet1", GID: ref.GID}}
	if opts.Discover {
		tabs = src.DiscoverTabs(ctx, ref)
	}

	for _, tab := range tabs {
		tabRef := sheetref.Resolve(opts.Sheet, tab.GID)
		rows := src.FetchCSV(ctx, tabRef)
		if len(rows) == 0 {
			continue
		}

		headerIndex, headers := decode.DetectHeader(rows)
		data := rows[headerIndex+1:]
		if len(data) > opts.SampleRows {
			data = data[:opts.SampleRows]
		}

		spec := decode.TabSpec{
			ID:    slug(tab.Name),
			Label: tab.Name,
			GID:   tab.GID,
		}
		for i, label := range headers {
			spec.Columns = append(spec.Columns, decode.ColumnSpec{
				Key:   label,
				Label: label,
				Type:  inferType(columnSamples(data, i)),
			})
		}

		rep.Tabs = append(rep.Tabs, TabReport{
			Tab:         tab,
			HeaderIndex: headerIndex,
			SampledRows: len(data),
			Spec:        spec,
		})
		rep.Specs = append(rep.Specs, spec)
	}

	if len(rep.Tabs) == 0 {
		return Report{}, fmt.Errorf("%w (ref %s)", ErrNoData, ref.CanonicalID)
	}
	return rep, nil
}

func columnSamples(rows [][]string, col int) []string {
	var out []string
	for _, row := range rows {
		if col >= len(row) {
			continue
		}
		if v := strings.TrimSpace(row[col]); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// inferType guesses a coarse column type from non-empty samples. Dates win
// over numbers because slash-formatted dates never parse as floats, then
// anything majority-numeric is treated as currency. The guess is a starting
// point; administrators adjust the emitted spec.
func inferType(samples []string) decode.ColumnType {
	if len(samples) == 0 {
		return decode.TypeText
	}

	dates, numbers := 0, 0
	for _, s := range samples {
		if _, ok := coerce.Date(s); ok {
			dates++
			continue
		}
		if looksNumeric(s) {
			numbers++
		}
	}

	half := len(samples) / 2
	switch {
	case dates > half:
		return decode.TypeDate
	case numbers > half:
		return decode.TypeCurrency
	default:
		return decode.TypeText
	}
}

func looksNumeric(s string) bool {
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.' || r == ',' || r == '-' || r == '$' || r == '€' || r == '£' || r == ' ':
		default:
			return false
		}
	}
	return digits > 0
}

// slug normalizes a tab name into a stable group key: lowercase, runs of
// non-alphanumerics collapsed to single dashes.
func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
