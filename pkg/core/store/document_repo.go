package store

import (
	"context"
	"database/sql"
	"fmt"

	"financial_insights/pkg/models"
)

// DocumentRepo reads the financial records extracted from uploaded documents.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new document repository
func NewDocumentRepo(db *DB) *DocumentRepo {
	return &DocumentRepo{db: db.SQL()}
}

// RecordsForDocument returns the records of a document in insertion order.
// found is false when the document does not exist.
func (r *DocumentRepo) RecordsForDocument(ctx context.Context, documentID int64) ([]models.FinancialRecord, bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM documents WHERE id = $1)`, documentID).Scan(&exists)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up document: %w", err)
	}
	if !exists {
		return nil, false, nil
	}

	query := `
		SELECT account_name, category, COALESCE(sub_category, ''), COALESCE(period, ''),
		       amount, currency, recorded_date
		FROM financial_records
		WHERE document_id = $1
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, true, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	records := []models.FinancialRecord{}
	for rows.Next() {
		var (
			rec      models.FinancialRecord
			category string
			recorded sql.NullTime
		)
		if err := rows.Scan(&rec.AccountName, &category, &rec.SubCategory, &rec.Period,
			&rec.Amount, &rec.Currency, &recorded); err != nil {
			return nil, true, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.Category = models.Category(category)
		if recorded.Valid {
			rec.RecordedDate = recorded.Time
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, true, fmt.Errorf("failed to read records: %w", err)
	}
	return records, true, nil
}

// IndustryForDocument returns the industry recorded on the document, "" when unset.
func (r *DocumentRepo) IndustryForDocument(ctx context.Context, documentID int64) (string, error) {
	var industry sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT industry FROM documents WHERE id = $1`, documentID).Scan(&industry)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up document industry: %w", err)
	}
	return industry.String, nil
}
