// Command ingest fetches a published spreadsheet and prints its decoded
// record groups as JSON, one group as an exported CSV, or a dashboard
// stats summary.
//
// The spreadsheet comes either from an explicit -sheet reference, or from a
// tenant's stored configuration (-tenant with -store/-dsn). Tab views come
// from the stored configuration or a -tabs JSON file; without any, the
// fixed legacy decoding runs.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"sheetfeed/internal/decode"
	"sheetfeed/internal/engine"
	"sheetfeed/internal/ingest"
	"sheetfeed/internal/metrics"
	"sheetfeed/internal/metrics/datadog"
	"sheetfeed/internal/tenantcfg"

	// register all config store backends with the factory.
	_ "sheetfeed/internal/tenantcfg/all"
)

// backendCloser is the minimal interface used by this command to manage a
// metrics backend.
type backendCloser interface {
	metrics.Backend
	Close() error
}

// deps are external seams for testability.
type deps struct {
	Stdout io.Writer
	Stderr io.Writer

	Fetcher        ingest.Fetcher
	OpenStore      func(ctx context.Context, opts tenantcfg.Options) (tenantcfg.Store, error)
	BackendFactory func(ctx context.Context, jobName string, tags []string, flushEvery time.Duration) (backendCloser, error)
}

// runConfig holds the parsed flags for a run.
type runConfig struct {
	Sheet    string
	GID      string
	TabsFile string

	Tenant    string
	StoreKind string
	StoreDSN  string

	Format string
	Group  string

	MetricsBackend string
	DDTagsCSV      string
	FlushEvery     time.Duration
	EnvFile        string
}

// main is intentionally small: it wires real dependencies and exits with a code.
func main() {
	code := run(context.Background(), os.Args[1:], deps{
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		OpenStore: tenantcfg.New,
		BackendFactory: func(ctx context.Context, jobName string, tags []string, flushEvery time.Duration) (backendCloser, error) {
			return datadog.NewBackend(ctx, datadog.Options{
				JobName:    jobName,
				Tags:       tags,
				FlushEvery: flushEvery,
			})
		},
	})
	os.Exit(code)
}

// run executes the command and returns an exit code.
//
// Exit codes:
//   - 0: success.
//   - 1: ingestion failed (missing spreadsheet reference).
//   - 2: configuration/initialization error.
func run(ctx context.Context, args []string, d deps) int {
	if d.Stdout == nil {
		d.Stdout = io.Discard
	}
	if d.Stderr == nil {
		d.Stderr = io.Discard
	}

	cfg, err := parseFlags(args)
	if err != nil {
		fmt.Fprintln(d.Stderr, err.Error())
		return 2
	}

	// Optional env file for store DSNs and Datadog keys. Absence is fine.
	if cfg.EnvFile != "" {
		if err := godotenv.Load(cfg.EnvFile); err != nil {
			fmt.Fprintf(d.Stderr, "load env file: %v\n", err)
			return 2
		}
	} else {
		_ = godotenv.Load()
	}

	sheet, tabs, err := resolveSource(ctx, cfg, d)
	if err != nil {
		fmt.Fprintf(d.Stderr, "resolve source: %v\n", err)
		return 2
	}

	switch cfg.MetricsBackend {
	case "datadog":
		if d.BackendFactory == nil {
			fmt.Fprintln(d.Stderr, "internal error: BackendFactory is nil")
			return 2
		}
		tags := append(datadog.ParseTagsCSV(cfg.DDTagsCSV), "tool:ingest")
		backend, err := d.BackendFactory(ctx, "sheetfeed_ingest", tags, cfg.FlushEvery)
		if err != nil {
			fmt.Fprintf(d.Stderr, "datadog backend init failed: %v\n", err)
			return 2
		}
		metrics.SetBackend(backend)
		defer func() {
			_ = backend.Close()
		}()
	case "", "none":
		// metrics disabled; nop backend remains
	default:
		fmt.Fprintf(d.Stderr, "metrics: unknown backend %q; metrics disabled\n", cfg.MetricsBackend)
	}

	svc := ingest.New(d.Fetcher)
	result, err := svc.Ingest(ctx, sheet, cfg.GID, tabs)
	if err != nil {
		fmt.Fprintf(d.Stderr, "%v\n", err)
		return 1
	}

	if err := writeResult(d.Stdout, cfg, result); err != nil {
		fmt.Fprintf(d.Stderr, "%v\n", err)
		return 2
	}
	return 0
}

// resolveSource merges flag and stored-config inputs into a spreadsheet
// reference and optional tab views. A stored config's values win only where
// the corresponding flag is unset.
func resolveSource(ctx context.Context, cfg runConfig, d deps) (string, []decode.TabSpec, error) {
	sheet := cfg.Sheet
	var tabs []decode.TabSpec

	if cfg.TabsFile != "" {
		data, err := os.ReadFile(cfg.TabsFile)
		if err != nil {
			return "", nil, fmt.Errorf("read tabs file: %w", err)
		}
		if err := json.Unmarshal(data, &tabs); err != nil {
			return "", nil, fmt.Errorf("parse tabs file: %w", err)
		}
	}

	if cfg.Tenant != "" {
		if d.OpenStore == nil {
			return "", nil, errors.New("internal error: OpenStore is nil")
		}
		store, err := d.OpenStore(ctx, tenantcfg.Options{Kind: cfg.StoreKind, DSN: cfg.StoreDSN})
		if err != nil {
			return "", nil, fmt.Errorf("open config store: %w", err)
		}
		defer store.Close()

		tc, err := store.Load(ctx, cfg.Tenant)
		if err != nil {
			return "", nil, fmt.Errorf("load tenant %q: %w", cfg.Tenant, err)
		}
		if sheet == "" {
			sheet = tc.SpreadsheetID
		}
		if tabs == nil {
			tabs = tc.Tabs
		}
	}

	return sheet, tabs, nil
}

func writeResult(w io.Writer, cfg runConfig, result ingest.Result) error {
	switch cfg.Format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)

	case "csv":
		group := cfg.Group
		if group == "" && len(result) == 1 {
			for k := range result {
				group = k
			}
		}
		recs, ok := result[group]
		if !ok {
			return fmt.Errorf("group %q not in result; pick one of %s with -group", group, strings.Join(groupNames(result), ", "))
		}
		recs = engine.Ordered(recs, engine.Query{})
		return engine.WriteCSV(w, engine.Columns(recs), recs)

	case "stats":
		leads := append(append([]decode.Record{}, result[decode.GroupFramework]...), result[decode.GroupOpenLeads]...)
		summary := struct {
			Stats   engine.Stats         `json:"stats"`
			Revenue []engine.SeriesPoint `json:"revenueByDay"`
		}{
			Stats:   engine.Summarize(leads, result[decode.GroupCheckout]),
			Revenue: engine.RevenueSeries(result[decode.GroupCheckout]),
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)

	default:
		return fmt.Errorf("unknown format %q (want json, csv, or stats)", cfg.Format)
	}
}

func groupNames(result ingest.Result) []string {
	names := make([]string, 0, len(result))
	for k := range result {
		names = append(names, k)
	}
	return names
}

// parseFlags parses command arguments into a validated runConfig.
//
// Errors:
//   - Returns an error for invalid/missing required flags.
//   - Does not exit the process (caller decides exit code).
func parseFlags(args []string) (runConfig, error) {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)

	var usageBuf strings.Builder
	fs.SetOutput(&usageBuf)
	fs.Usage = func() {
		fmt.Fprintf(&usageBuf, "Usage of %s:\n", fs.Name())
		fs.PrintDefaults()
	}

	var cfg runConfig
	fs.StringVar(&cfg.Sheet, "sheet", "", "Spreadsheet reference (share URL, published URL, or bare ID)")
	fs.StringVar(&cfg.GID, "gid", "", "Tab gid for legacy single-tab mode")
	fs.StringVar(&cfg.TabsFile, "tabs", "", "Path to tab views JSON (array of tab specs)")
	fs.StringVar(&cfg.Tenant, "tenant", "", "Tenant ID to load configuration for")
	fs.StringVar(&cfg.StoreKind, "store", "sqlite", "Config store backend (sqlite, postgres, mssql)")
	fs.StringVar(&cfg.StoreDSN, "dsn", "", "Config store DSN")
	fs.StringVar(&cfg.Format, "format", "json", "Output format (json, csv, or stats)")
	fs.StringVar(&cfg.Group, "group", "", "Group to export when -format=csv")
	fs.StringVar(&cfg.MetricsBackend, "metrics-backend", "", "Metrics backend to use (datadog, none)")
	fs.StringVar(&cfg.DDTagsCSV, "dd_tags", "", "Extra Datadog tags CSV (e.g. env:prod,service:sheetfeed)")
	fs.DurationVar(&cfg.FlushEvery, "metrics_flush", 1*time.Minute, "Datadog flush interval")
	fs.StringVar(&cfg.EnvFile, "env", "", "Env file to load (default .env when present)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return runConfig{}, errors.New(usageBuf.String())
		}
		return runConfig{}, fmt.Errorf("%v\n\n%s", err, usageBuf.String())
	}

	if cfg.Sheet == "" && cfg.Tenant == "" {
		return runConfig{}, errors.New("missing required -sheet <reference> or -tenant <id>")
	}
	switch cfg.Format {
	case "json", "csv", "stats":
	default:
		return runConfig{}, fmt.Errorf("-format must be json, csv, or stats, got %q", cfg.Format)
	}

	return cfg, nil
}
