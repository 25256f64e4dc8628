// Command sheetprobe generates a tab-view configuration by sampling a
// published spreadsheet.
//
// This command is intended for quickly onboarding a tenant without writing
// column specs by hand. It fetches a bounded sample of each tab, detects
// the header row, guesses coarse column types (text, date, currency), and
// emits either:
//
//   - A full probe report with per-tab detail (default), or
//   - Just the tab-spec skeleton (-specs), ready for cmd/ingest -tabs.
//
// -discover walks every tab listed in the sheet's published HTML; without
// it, only the tab addressed by -sheet/-gid is sampled.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"sheetfeed/internal/sheetprobe"
	"sheetfeed/internal/sheets"
)

func main() {
	var (
		// flagSheet accepts any of the reference shapes administrators
		// paste: share URL, published URL, or a bare spreadsheet ID.
		flagSheet = flag.String("sheet", "", "Spreadsheet reference (share URL, published URL, or bare ID)")

		flagGID      = flag.String("gid", "", "Tab gid to sample (single-tab mode)")
		flagDiscover = flag.Bool("discover", false, "Sample every tab listed in the published HTML")
		flagRows     = flag.Int("rows", 50, "Max data rows sampled per tab for type inference")
		flagSpecs    = flag.Bool("specs", false, "Emit only the tab-spec skeleton instead of the full report")
		flagPretty   = flag.Bool("pretty", true, "Pretty-print JSON output")
	)
	flag.Parse()

	if strings.TrimSpace(*flagSheet) == "" {
		fmt.Fprintln(os.Stderr, "missing -sheet")
		flag.Usage()
		os.Exit(2)
	}

	// Probing should be fast; prefer failing quickly over hanging on a
	// slow publish endpoint.
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client := sheets.New(sheets.Options{})
	rep, err := sheetprobe.Probe(ctx, client, sheetprobe.Options{
		Sheet:      *flagSheet,
		GID:        *flagGID,
		Discover:   *flagDiscover,
		SampleRows: *flagRows,
	})
	if err != nil {
		log.Fatalf("probe: %v", err)
	}

	var out any = rep
	if *flagSpecs {
		out = rep.Specs
	}

	enc := json.NewEncoder(os.Stdout)
	if *flagPretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(out); err != nil {
		log.Fatalf("encode report: %v", err)
	}
}
