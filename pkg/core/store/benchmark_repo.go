package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"financial_insights/pkg/models"

	"github.com/rs/zerolog"
)

// BenchmarkRepo serves industry benchmarks.
// Supports two sources: DB (primary) + JSON files (fallback/local).
type BenchmarkRepo struct {
	db      *sql.DB
	fileDir string
}

// NewBenchmarkRepo creates a benchmark repository. Either db or dir may be empty.
// Files are named after the industry, e.g. dir/retail.json, and hold a list of entries.
func NewBenchmarkRepo(db *DB, dir string) *BenchmarkRepo {
	r := &BenchmarkRepo{fileDir: dir}
	if db != nil {
		r.db = db.SQL()
	}
	return r
}

// BenchmarksForIndustry returns the benchmarks of an industry keyed by metric name.
// An industry with no benchmarks anywhere yields an empty map, not an error.
func (r *BenchmarkRepo) BenchmarksForIndustry(ctx context.Context, industry string) (map[string]models.BenchmarkEntry, error) {
	// 1. Try DB
	if r.db != nil {
		entries, err := r.fromDB(ctx, industry)
		if err != nil {
			return nil, err
		}
		if len(entries) > 0 {
			return entries, nil
		}
	}

	// 2. Fall back to files
	if r.fileDir != "" {
		entries, err := r.fromFile(industry)
		if err != nil {
			return nil, err
		}
		if len(entries) > 0 {
			zerolog.Ctx(ctx).Debug().Str("industry", industry).Msg("benchmarks loaded from file")
			return entries, nil
		}
	}

	return map[string]models.BenchmarkEntry{}, nil
}

func (r *BenchmarkRepo) fromDB(ctx context.Context, industry string) (map[string]models.BenchmarkEntry, error) {
	query := `
		SELECT metric_name, industry_average, industry_median,
		       percentile_25, percentile_75, description
		FROM industry_benchmarks
		WHERE industry = $1
	`
	rows, err := r.db.QueryContext(ctx, query, industry)
	if err != nil {
		return nil, fmt.Errorf("failed to query benchmarks: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]models.BenchmarkEntry)
	for rows.Next() {
		var (
			e        models.BenchmarkEntry
			p25, p75 sql.NullFloat64
			desc     sql.NullString
		)
		if err := rows.Scan(&e.MetricName, &e.IndustryAverage, &e.IndustryMedian, &p25, &p75, &desc); err != nil {
			return nil, fmt.Errorf("failed to scan benchmark: %w", err)
		}
		e.Percentile25, e.Percentile75, e.Description = p25.Float64, p75.Float64, desc.String
		entries[e.MetricName] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read benchmarks: %w", err)
	}
	return entries, nil
}

func (r *BenchmarkRepo) fromFile(industry string) (map[string]models.BenchmarkEntry, error) {
	path := filepath.Join(r.fileDir, industryFileName(industry))
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read benchmark file: %w", err)
	}

	var list []models.BenchmarkEntry
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	entries := make(map[string]models.BenchmarkEntry, len(list))
	for _, e := range list {
		if e.MetricName == "" {
			continue
		}
		entries[e.MetricName] = e
	}
	return entries, nil
}

// industryFileName turns "Software & Services" into "software_services.json".
func industryFileName(industry string) string {
	var b strings.Builder
	underscore := false
	for _, c := range strings.ToLower(strings.TrimSpace(industry)) {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteRune(c)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_") + ".json"
}
