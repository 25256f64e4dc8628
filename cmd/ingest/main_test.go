package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"sheetfeed/internal/decode"
	"sheetfeed/internal/sheetref"
	"sheetfeed/internal/tenantcfg"
)

type fakeFetcher struct {
	byGID map[string][][]string

	mu   sync.Mutex
	refs []sheetref.Ref
}

func (f *fakeFetcher) FetchCSV(_ context.Context, ref sheetref.Ref) [][]string {
	f.mu.Lock()
	f.refs = append(f.refs, ref)
	f.mu.Unlock()
	return f.byGID[ref.GID]
}

type fakeStore struct {
	cfg tenantcfg.Config
}

func (s *fakeStore) Load(context.Context, string) (*tenantcfg.Config, error) { return &s.cfg, nil }
func (s *fakeStore) Save(context.Context, *tenantcfg.Config) error           { return nil }
func (s *fakeStore) Close()                                                  {}

func TestParseFlags(t *testing.T) {
	t.Parallel()

	if _, err := parseFlags(nil); err == nil {
		t.Error("no -sheet or -tenant accepted")
	}
	if _, err := parseFlags([]string{"-sheet", "abc", "-format", "xml"}); err == nil {
		t.Error("bad -format accepted")
	}
	cfg, err := parseFlags([]string{"-sheet", "abc", "-gid", "7", "-format", "csv", "-group", "framework"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.Sheet != "abc" || cfg.GID != "7" || cfg.Group != "framework" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestRunLegacyJSON(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{byGID: map[string][][]string{"0": {
		{"Name", "Email", "Date", "Offer", "Name", "Email", "Date", "Amount", "Name"},
		{"Ann", "ann@x.com", "1/5/2024", "Basic", "", "", "", "", ""},
	}}}

	var out, errOut strings.Builder
	code := run(context.Background(), []string{"-sheet", "1AbCdEfGh"}, deps{
		Stdout:  &out,
		Stderr:  &errOut,
		Fetcher: fetcher,
	})
	if code != 0 {
		t.Fatalf("run = %d, stderr: %s", code, errOut.String())
	}

	var result map[string][]map[string]any
	if err := json.Unmarshal([]byte(out.String()), &result); err != nil {
		t.Fatalf("output not JSON: %v\n%s", err, out.String())
	}
	if len(result["framework"]) != 1 || result["framework"][0]["Name"] != "Ann" {
		t.Errorf("framework = %+v", result["framework"])
	}
	if len(result["checkout"]) != 0 {
		t.Errorf("checkout = %+v", result["checkout"])
	}
}

func TestRunBareIDWithGID(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{byGID: map[string][][]string{"42": {
		{"Name", "Email"},
		{"Ann", "ann@x.com"},
	}}}

	var out strings.Builder
	code := run(context.Background(), []string{"-sheet", "1AbCdEfGh", "-gid", "42"}, deps{
		Stdout:  &out,
		Stderr:  os.Stderr,
		Fetcher: fetcher,
	})
	if code != 0 {
		t.Fatalf("run = %d", code)
	}

	// -gid must reach resolution as data; splicing it into the reference
	// would corrupt the canonical ID and fetch a nonexistent path.
	if len(fetcher.refs) != 1 {
		t.Fatalf("fetches = %d, want 1", len(fetcher.refs))
	}
	if got := fetcher.refs[0].CanonicalID; got != "1AbCdEfGh" {
		t.Errorf("CanonicalID = %q, want %q", got, "1AbCdEfGh")
	}
	if got := fetcher.refs[0].GID; got != "42" {
		t.Errorf("GID = %q, want %q", got, "42")
	}
	if !strings.Contains(out.String(), "Ann") {
		t.Errorf("output = %s", out.String())
	}
}

func TestRunUniversalCSV(t *testing.T) {
	t.Parallel()

	tabsPath := filepath.Join(t.TempDir(), "tabs.json")
	tabs := []decode.TabSpec{{ID: "students", GID: "100", Columns: []decode.ColumnSpec{
		{Key: "Score", Type: decode.TypeCurrency},
	}}}
	data, err := json.Marshal(tabs)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(tabsPath, data, 0o644); err != nil {
		t.Fatal(err)
	}

	fetcher := &fakeFetcher{byGID: map[string][][]string{"100": {
		{"Name", "Score"},
		{"Dee", "$91.50"},
	}}}

	var out strings.Builder
	code := run(context.Background(), []string{
		"-sheet", "1AbCdEfGh", "-tabs", tabsPath, "-format", "csv",
	}, deps{Stdout: &out, Stderr: os.Stderr, Fetcher: fetcher})
	if code != 0 {
		t.Fatalf("run = %d", code)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("output = %q", out.String())
	}
	if lines[0] != "Name,Score" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != `"Dee","91.5"` {
		t.Errorf("row = %q", lines[1])
	}
}

func TestRunStats(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{byGID: map[string][][]string{"0": {
		{"Name", "Email", "Date", "Offer", "Name", "Email", "Date", "Amount", "Name"},
		{"Ann", "ann@x.com", "1/5/2024", "Basic", "Bo", "bo@x.com", "1/6/2024", "$100.00", "Cal"},
		{"Dee", "dee@x.com", "1/7/2024", "Pro", "", "", "", "", "Eve"},
	}}}

	var out strings.Builder
	code := run(context.Background(), []string{"-sheet", "1AbCdEfGh", "-format", "stats"}, deps{
		Stdout:  &out,
		Stderr:  os.Stderr,
		Fetcher: fetcher,
	})
	if code != 0 {
		t.Fatalf("run = %d", code)
	}

	var summary struct {
		Stats struct {
			Leads          int
			Purchases      int
			Revenue        float64
			ConversionRate float64
		} `json:"stats"`
	}
	if err := json.Unmarshal([]byte(out.String()), &summary); err != nil {
		t.Fatalf("output not JSON: %v\n%s", err, out.String())
	}
	// Leads: 2 framework + 2 open leads; purchases: 1 checkout at $100.
	if summary.Stats.Leads != 4 || summary.Stats.Purchases != 1 {
		t.Errorf("stats = %+v", summary.Stats)
	}
	if summary.Stats.Revenue != 100 {
		t.Errorf("revenue = %v", summary.Stats.Revenue)
	}
	if summary.Stats.ConversionRate != 25.0 {
		t.Errorf("conversion = %v", summary.Stats.ConversionRate)
	}
}

func TestRunTenantConfig(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{byGID: map[string][][]string{"0": {
		{"Name", "Email"},
		{"Gil", "gil@x.com"},
	}}}
	store := &fakeStore{cfg: tenantcfg.Config{
		TenantID:      "acme",
		SpreadsheetID: "2PACX-abc",
	}}

	var out strings.Builder
	code := run(context.Background(), []string{"-tenant", "acme"}, deps{
		Stdout:  &out,
		Stderr:  os.Stderr,
		Fetcher: fetcher,
		OpenStore: func(_ context.Context, opts tenantcfg.Options) (tenantcfg.Store, error) {
			return store, nil
		},
	})
	if code != 0 {
		t.Fatalf("run = %d", code)
	}
	if !strings.Contains(out.String(), "Gil") {
		t.Errorf("output = %s", out.String())
	}
}

func TestRunMissingSheetReference(t *testing.T) {
	t.Parallel()

	store := &fakeStore{cfg: tenantcfg.Config{TenantID: "acme"}}

	var errOut strings.Builder
	code := run(context.Background(), []string{"-tenant", "acme"}, deps{
		Stderr:  &errOut,
		Fetcher: &fakeFetcher{},
		OpenStore: func(_ context.Context, opts tenantcfg.Options) (tenantcfg.Store, error) {
			return store, nil
		},
	})
	if code != 1 {
		t.Fatalf("run = %d, want 1", code)
	}
	if !strings.Contains(errOut.String(), "no spreadsheet reference") {
		t.Errorf("stderr = %q", errOut.String())
	}
}
