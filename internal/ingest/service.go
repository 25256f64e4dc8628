// Package ingest is the public entrypoint of the ingestion core: it wires
// reference resolution, CSV retrieval, header detection, and row decoding
// into one call.
//
// Ingest never fails for data-shape reasons. The single error it can return
// is a missing spreadsheet reference, which indicates administrator
// misconfiguration and deserves a visible message. Everything else (dead
// links, wrong publish styles, mangled sheets) degrades to empty record
// sequences, because the product promise is "always render something" over
// a sheet maintained by a non-technical user.
package ingest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"sheetfeed/internal/decode"
	"sheetfeed/internal/metrics"
	"sheetfeed/internal/sheetref"
	"sheetfeed/internal/sheets"
)

// Result maps a group key (legacy group name, or tab ID in universal mode)
// to its decoded records. Every ingestion call produces a fresh Result;
// there is no caching layer here.
type Result map[string][]decode.Record

// ErrNoSheetRef is returned when the tenant has no spreadsheet configured.
var ErrNoSheetRef = errors.New("ingest: no spreadsheet reference configured")

// Fetcher retrieves one tab of a published sheet as raw rows. Satisfied by
// *sheets.Client; tests inject fakes.
type Fetcher interface {
	FetchCSV(ctx context.Context, ref sheetref.Ref) [][]string
}

// Service performs ingestion. Safe for concurrent use.
type Service struct {
	sheets Fetcher
}

// New constructs a Service. A nil fetcher gets a default sheets client.
func New(f Fetcher) *Service {
	if f == nil {
		f = sheets.New(sheets.Options{})
	}
	return &Service{sheets: f}
}

// Ingest fetches and decodes a tenant's spreadsheet.
//
// Strategy selection happens once per call: a non-empty tabs list selects
// the universal decoder (one concurrent fetch per tab, all-of-N join),
// otherwise the legacy fixed-shape decoder runs against the single tab the
// reference points at. The two are never mixed within a call.
//
// gid selects the legacy tab explicitly; it is passed to reference
// resolution as data, never spliced into the reference string, so a bare
// spreadsheet ID stays canonical. Empty gid falls back to whatever the
// reference embeds, then "0". Universal mode ignores it in favor of each
// tab's own gid.
//
// A failing tab in universal mode yields an empty record sequence under its
// ID without affecting sibling tabs. Cancelling ctx abandons in-flight
// fetches; partial work is discarded.
func (s *Service) Ingest(ctx context.Context, sheetRef, gid string, tabs []decode.TabSpec) (Result, error) {
	if strings.TrimSpace(sheetRef) == "" {
		return nil, ErrNoSheetRef
	}

	start := time.Now()
	defer func() {
		metrics.ObserveHistogram("ingest.duration_seconds", time.Since(start).Seconds())
	}()

	if len(tabs) > 0 {
		metrics.IncCounter("ingest.calls", 1, "mode:universal")
		return s.ingestUniversal(ctx, sheetRef, tabs), nil
	}
	metrics.IncCounter("ingest.calls", 1, "mode:legacy")
	return s.ingestLegacy(ctx, sheetRef, gid), nil
}

func (s *Service) ingestLegacy(ctx context.Context, sheetRef, gid string) Result {
	ref := sheetref.Resolve(sheetRef, gid)
	rows := s.sheets.FetchCSV(ctx, ref)
	if len(rows) == 0 {
		return Result{
			decode.GroupFramework: {},
			decode.GroupCheckout:  {},
			decode.GroupOpenLeads: {},
		}
	}

	headerIndex, headers := decode.DetectHeader(rows)
	out := Result(decode.DecodeLegacy(rows, headerIndex, headers))
	for group, recs := range out {
		metrics.IncCounter("ingest.records", float64(len(recs)), "group:"+group)
	}
	return out
}

func (s *Service) ingestUniversal(ctx context.Context, sheetRef string, tabs []decode.TabSpec) Result {
	type tabResult struct {
		id   string
		recs []decode.Record
	}

	results := make([]tabResult, len(tabs))
	var wg sync.WaitGroup
	for i, tab := range tabs {
		wg.Add(1)
		go func(i int, tab decode.TabSpec) {
			defer wg.Done()

			ref := sheetref.Resolve(sheetRef, tab.GID)
			recs := []decode.Record{}
			if rows := s.sheets.FetchCSV(ctx, ref); len(rows) > 0 {
				headerIndex, headers := decode.DetectHeader(rows)
				recs = decode.DecodeUniversal(rows, headerIndex, headers, tab)
			}
			results[i] = tabResult{id: tab.ID, recs: recs}
		}(i, tab)
	}
	wg.Wait()

	out := make(Result, len(results))
	for _, r := range results {
		out[r.id] = r.recs
		metrics.IncCounter("ingest.records", float64(len(r.recs)), "group:"+r.id)
	}
	return out
}
