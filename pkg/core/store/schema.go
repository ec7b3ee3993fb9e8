package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// schema is applied in order by Migrate. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		id BIGSERIAL PRIMARY KEY,
		filename TEXT NOT NULL,
		industry TEXT,
		uploaded_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS financial_records (
		id BIGSERIAL PRIMARY KEY,
		document_id BIGINT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		account_name TEXT NOT NULL,
		category TEXT NOT NULL,
		sub_category TEXT,
		period TEXT,
		amount NUMERIC(18,2) NOT NULL,
		currency TEXT NOT NULL DEFAULT 'USD',
		recorded_date DATE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_financial_records_document ON financial_records(document_id)`,
	`CREATE TABLE IF NOT EXISTS industry_benchmarks (
		industry TEXT NOT NULL,
		metric_name TEXT NOT NULL,
		industry_average DOUBLE PRECISION NOT NULL,
		industry_median DOUBLE PRECISION NOT NULL,
		percentile_25 DOUBLE PRECISION,
		percentile_75 DOUBLE PRECISION,
		description TEXT,
		PRIMARY KEY (industry, metric_name)
	)`,
	`CREATE TABLE IF NOT EXISTS ai_insights (
		id UUID PRIMARY KEY,
		document_id BIGINT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		model_used TEXT,
		content JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ai_insights_lookup ON ai_insights(document_id, kind, created_at DESC)`,
}

// Migrate creates the tables used by the repositories.
func (d *DB) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d: %w", i+1, err)
		}
	}
	zerolog.Ctx(ctx).Info().Int("statements", len(schema)).Msg("schema up to date")
	return nil
}
