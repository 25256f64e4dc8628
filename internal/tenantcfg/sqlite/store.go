// Package sqlite implements tenantcfg.Store on SQLite.
//
// SQLite serves single-node deployments and tests; the schema mirrors the
// Postgres backend with the tab document stored as a JSON TEXT column.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"sheetfeed/internal/tenantcfg"
)

type store struct {
	db *sql.DB
}

func init() {
	tenantcfg.Register("sqlite", New)
}

const schema = `
CREATE TABLE IF NOT EXISTS tenant_configs (
	tenant_id      TEXT PRIMARY KEY,
	spreadsheet_id TEXT NOT NULL,
	tabs_json      TEXT NOT NULL DEFAULT '[]',
	updated_at     TEXT NOT NULL
)`

// New opens (and if needed initializes) a SQLite-backed store.
func New(ctx context.Context, opts tenantcfg.Options) (tenantcfg.Store, error) {
	db, err := sql.Open("sqlite", opts.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tenant_configs: %w", err)
	}
	return &store{db: db}, nil
}

func (s *store) Close() { _ = s.db.Close() }

func (s *store) Load(ctx context.Context, tenantID string) (*tenantcfg.Config, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT spreadsheet_id, tabs_json FROM tenant_configs WHERE tenant_id = ?`, tenantID)

	cfg := &tenantcfg.Config{TenantID: tenantID}
	var tabsJSON string
	if err := row.Scan(&cfg.SpreadsheetID, &tabsJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, tenantcfg.ErrNotFound
		}
		return nil, fmt.Errorf("load tenant %s: %w", tenantID, err)
	}
	if err := json.Unmarshal([]byte(tabsJSON), &cfg.Tabs); err != nil {
		return nil, fmt.Errorf("decode tabs for tenant %s: %w", tenantID, err)
	}
	if len(cfg.Tabs) == 0 {
		// No tab views means legacy-mode decoding; keep that signal as nil.
		cfg.Tabs = nil
	}
	return cfg, nil
}

func (s *store) Save(ctx context.Context, cfg *tenantcfg.Config) error {
	if cfg.TenantID == "" {
		return fmt.Errorf("save tenant config: empty tenant id")
	}
	tabsJSON, err := json.Marshal(cfg.Tabs)
	if err != nil {
		return fmt.Errorf("encode tabs for tenant %s: %w", cfg.TenantID, err)
	}
	if cfg.Tabs == nil {
		tabsJSON = []byte("[]")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tenant_configs (tenant_id, spreadsheet_id, tabs_json, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(tenant_id) DO UPDATE SET
			spreadsheet_id = excluded.spreadsheet_id,
			tabs_json      = excluded.tabs_json,
			updated_at     = excluded.updated_at`,
		cfg.TenantID, cfg.SpreadsheetID, string(tabsJSON),
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save tenant %s: %w", cfg.TenantID, err)
	}
	return nil
}
