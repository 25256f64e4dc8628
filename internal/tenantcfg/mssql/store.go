// Package mssql implements tenantcfg.Store on SQL Server.
//
// Schema and semantics mirror the Postgres backend; SQL Server has no
// ON CONFLICT, so Save uses MERGE for the upsert.
package mssql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/microsoft/go-mssqldb"

	"sheetfeed/internal/tenantcfg"
)

type store struct {
	db *sql.DB
}

func init() {
	tenantcfg.Register("mssql", New)
}

const schema = `
IF OBJECT_ID('tenant_configs', 'U') IS NULL
CREATE TABLE tenant_configs (
	tenant_id      NVARCHAR(128) NOT NULL PRIMARY KEY,
	spreadsheet_id NVARCHAR(512) NOT NULL,
	tabs_json      NVARCHAR(MAX) NOT NULL DEFAULT '[]',
	updated_at     DATETIMEOFFSET NOT NULL DEFAULT SYSDATETIMEOFFSET()
)`

// New opens a SQL Server store and ensures the schema exists.
func New(ctx context.Context, opts tenantcfg.Options) (tenantcfg.Store, error) {
	db, err := sql.Open("sqlserver", opts.DSN)
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
		`SELECT spreadsheet_id, tabs_json FROM tenant_configs WHERE tenant_id = @p1`, tenantID)

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
		MERGE tenant_configs AS target
		USING (SELECT @p1 AS tenant_id) AS src
			ON target.tenant_id = src.tenant_id
		WHEN MATCHED THEN UPDATE SET
			spreadsheet_id = @p2,
			tabs_json      = @p3,
			updated_at     = SYSDATETIMEOFFSET()
		WHEN NOT MATCHED THEN
			INSERT (tenant_id, spreadsheet_id, tabs_json)
			VALUES (@p1, @p2, @p3);`,
		cfg.TenantID, cfg.SpreadsheetID, string(tabsJSON))
	if err != nil {
		return fmt.Errorf("save tenant %s: %w", cfg.TenantID, err)
	}
	return nil
}
