// Package tenantcfg stores per-tenant ingestion configuration: which
// spreadsheet a tenant's dashboard reads and, optionally, the tab/column
// views defined by its administrators.
//
// The presence of tab views is what selects the decoding strategy at
// ingestion time: a tenant with one or more tabs is decoded universally,
// a tenant without any falls back to the legacy fixed-shape decoder. The
// store itself is strategy-agnostic; it just round-trips the document.
//
// Backends register themselves under a kind string from an init function
// (see the postgres, sqlite, and mssql subpackages); callers import
// tenantcfg/all to link every backend and select one by configuration.
package tenantcfg

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"sheetfeed/internal/decode"
)

// Config is one tenant's ingestion configuration.
type Config struct {
	TenantID      string           `json:"tenantId"`
	SpreadsheetID string           `json:"spreadsheetId"`
	Tabs          []decode.TabSpec `json:"tabs,omitempty"`
}

// ErrNotFound is returned by Load when the tenant has no stored config.
var ErrNotFound = errors.New("tenantcfg: tenant not found")

// Store is the backend-agnostic persistence interface.
//
// Implementations must be safe for concurrent use; dashboard reads and
// admin saves overlap in practice.
type Store interface {
	// Load returns the tenant's config, or ErrNotFound.
	Load(ctx context.Context, tenantID string) (*Config, error)

	// Save upserts the tenant's config keyed by Config.TenantID.
	Save(ctx context.Context, cfg *Config) error

	// Close releases backend resources. Call once at shutdown.
	Close()
}

// Options selects and configures a backend.
type Options struct {
	// Kind must match a registered backend kind ("postgres", "sqlite",
	// "mssql").
	Kind string
	// DSN is passed through to the backend factory; validation is
	// backend-specific.
	DSN string
}

type factory func(ctx context.Context, opts Options) (Store, error)

var (
	mu        sync.RWMutex
	factories = map[string]factory{}
)

// Register registers a backend under a kind. Call from an init function in
// a backend package.
//
// Panics on empty kind, nil factory, or duplicate registration. Failing
// fast beats ambiguous backend selection.
func Register(kind string, f factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("tenantcfg: Register called with empty kind")
	}
	if f == nil {
		panic("tenantcfg: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("tenantcfg: factory already registered for kind=%q", kind))
	}
	factories[kind] = f
}

// New constructs a Store for the configured backend kind.
func New(ctx context.Context, opts Options) (Store, error) {
	if opts.Kind == "" {
		return nil, fmt.Errorf("tenantcfg: missing Kind")
	}

	mu.RLock()
	f, ok := factories[opts.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("tenantcfg: unsupported kind %q", opts.Kind)
	}
	return f(ctx, opts)
}
