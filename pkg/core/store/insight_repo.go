package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"financial_insights/pkg/models"

	"github.com/google/uuid"
)

// InsightRepo handles the storage of generated insights.
type InsightRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewInsightRepo creates a new repository instance.
func NewInsightRepo(db *DB) *InsightRepo {
	return &InsightRepo{db: db.SQL(), now: time.Now}
}

// StoredInsight is one row of the insight history.
type StoredInsight struct {
	ID         string          `json:"id"`
	DocumentID int64           `json:"document_id"`
	Kind       string          `json:"kind"`
	ModelUsed  string          `json:"model_used"`
	Content    json.RawMessage `json:"content"`
	CreatedAt  time.Time       `json:"created_at"`
}

type metaCarrier interface {
	Meta() models.InsightMeta
}

// Record persists an insight DTO as a JSONB document.
func (r *InsightRepo) Record(ctx context.Context, documentID int64, kind string, insight any) error {
	content, err := json.Marshal(insight)
	if err != nil {
		return fmt.Errorf("failed to marshal insight: %w", err)
	}

	id, model, created := uuid.NewString(), "", r.now()
	if m, ok := insight.(metaCarrier); ok {
		meta := m.Meta()
		if meta.ID != "" {
			id = meta.ID
		}
		model = meta.ModelUsed
		if !meta.GeneratedAt.IsZero() {
			created = meta.GeneratedAt
		}
	}

	query := `
		INSERT INTO ai_insights (id, document_id, kind, model_used, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, id, documentID, kind, model, content, created); err != nil {
		return fmt.Errorf("failed to save insight: %w", err)
	}
	return nil
}

// Latest retrieves the most recent insight of a kind for a document.
func (r *InsightRepo) Latest(ctx context.Context, documentID int64, kind string) (*StoredInsight, error) {
	query := `
		SELECT id, document_id, kind, COALESCE(model_used, ''), content, created_at
		FROM ai_insights
		WHERE document_id = $1 AND kind = $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	var (
		s       StoredInsight
		content []byte
	)
	err := r.db.QueryRowContext(ctx, query, documentID, kind).
		Scan(&s.ID, &s.DocumentID, &s.Kind, &s.ModelUsed, &content, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no %s insight for document %d: %w", kind, documentID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load insight: %w", err)
	}
	s.Content = json.RawMessage(content)
	return &s, nil
}
