// Package postgres implements tenantcfg.Store on Postgres via pgx.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sheetfeed/internal/tenantcfg"
)

type store struct {
	pool *pgxpool.Pool
}

func init() {
	tenantcfg.Register("postgres", New)
}

const schema = `
CREATE TABLE IF NOT EXISTS tenant_configs (
	tenant_id      TEXT PRIMARY KEY,
	spreadsheet_id TEXT NOT NULL,
	tabs_json      JSONB NOT NULL DEFAULT '[]',
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// New opens a pooled Postgres store and ensures the schema exists.
func New(ctx context.Context, opts tenantcfg.Options) (tenantcfg.Store, error) {
	pool, err := pgxpool.New(ctx, opts.DSN)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create tenant_configs: %w", err)
	}
	return &store{pool: pool}, nil
}

func (s *store) Close() { s.pool.Close() }

func (s *store) Load(ctx context.Context, tenantID string) (*tenantcfg.Config, error) {
	cfg := &tenantcfg.Config{TenantID: tenantID}
	var tabsJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT spreadsheet_id, tabs_json FROM tenant_configs WHERE tenant_id = $1`,
		tenantID).Scan(&cfg.SpreadsheetID, &tabsJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tenantcfg.ErrNotFound
		}
		return nil, fmt.Errorf("load tenant %s: %w", tenantID, err)
	}
	if err := json.Unmarshal(tabsJSON, &cfg.Tabs); err != nil {
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

	_, err = s.pool.Exec(ctx, `
		INSERT INTO tenant_configs (tenant_id, spreadsheet_id, tabs_json, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (tenant_id) DO UPDATE SET
			spreadsheet_id = EXCLUDED.spreadsheet_id,
			tabs_json      = EXCLUDED.tabs_json,
			updated_at     = now()`,
		cfg.TenantID, cfg.SpreadsheetID, tabsJSON)
	if err != nil {
		return fmt.Errorf("save tenant %s: %w", cfg.TenantID, err)
	}
	return nil
}
