package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/rajavaid77/claims-review-pipeline/internal/core/domain"
)

// ClaimEventRepository is the append-only audit trail. Inserts only; no
// statement here updates or deletes a row.
type ClaimEventRepository struct {
	db *sql.DB
}

func NewClaimEventRepository(db *sql.DB) *ClaimEventRepository {
	return &ClaimEventRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *ClaimEventRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026053001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS claim_event (
	id BIGSERIAL PRIMARY KEY,
	claim_reference TEXT NOT NULL,
	claim_event TEXT NOT NULL,
	claim_status TEXT NOT NULL,
	detail JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_claim_event_reference ON claim_event(claim_reference, id);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *ClaimEventRepository) Append(ctx context.Context, event *domain.ClaimEvent) error {
	detail := event.Detail
	if detail == nil {
		detail = map[string]any{}
	}
	detailJSON, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("marshal event detail: %w", err)
	}

	row := r.db.QueryRowContext(ctx, `
INSERT INTO claim_event (claim_reference, claim_event, claim_status, detail)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at
`, event.ClaimReference, string(event.Type), string(event.Status), detailJSON)

	if err := row.Scan(&event.ID, &event.CreatedAt); err != nil {
		return fmt.Errorf("insert claim event: %w", err)
	}
	return nil
}

func (r *ClaimEventRepository) ListByReference(ctx context.Context, claimReference string) ([]domain.ClaimEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, claim_reference, claim_event, claim_status, detail, created_at
FROM claim_event
WHERE claim_reference = $1
ORDER BY id
`, claimReference)
	if err != nil {
		return nil, fmt.Errorf("query claim events: %w", err)
	}
	defer rows.Close()

	var events []domain.ClaimEvent
	for rows.Next() {
		event, err := scanClaimEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claim events: %w", err)
	}
	return events, nil
}

// ListSummaries returns every known claim reference with its latest status
// per event type.
func (r *ClaimEventRepository) ListSummaries(ctx context.Context) ([]domain.ClaimSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT DISTINCT ON (claim_reference, claim_event) claim_reference, claim_event, claim_status
FROM claim_event
ORDER BY claim_reference, claim_event, id DESC
`)
	if err != nil {
		return nil, fmt.Errorf("query claim summaries: %w", err)
	}
	defer rows.Close()

	byReference := map[string]*domain.ClaimSummary{}
	var order []string
	for rows.Next() {
		var reference, eventType, status string
		if err := rows.Scan(&reference, &eventType, &status); err != nil {
			return nil, fmt.Errorf("scan claim summary: %w", err)
		}
		summary, ok := byReference[reference]
		if !ok {
			summary = &domain.ClaimSummary{ClaimReference: reference}
			byReference[reference] = summary
			order = append(order, reference)
		}
		switch domain.ClaimEventType(eventType) {
		case domain.EventFormSubmission:
			summary.Submission = domain.ClaimEventStatus(status)
		case domain.EventDataProcessing:
			summary.Processing = domain.ClaimEventStatus(status)
		case domain.EventVerification:
			summary.Verification = domain.ClaimEventStatus(status)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claim summaries: %w", err)
	}

	summaries := make([]domain.ClaimSummary, 0, len(order))
	for _, reference := range order {
		summaries = append(summaries, *byReference[reference])
	}
	return summaries, nil
}

func scanClaimEvent(rows *sql.Rows) (domain.ClaimEvent, error) {
	var event domain.ClaimEvent
	var eventType, status string
	var detailRaw []byte

	if err := rows.Scan(&event.ID, &event.ClaimReference, &eventType, &status, &detailRaw, &event.CreatedAt); err != nil {
		return domain.ClaimEvent{}, fmt.Errorf("scan claim event: %w", err)
	}
	if err := json.Unmarshal(detailRaw, &event.Detail); err != nil {
		return domain.ClaimEvent{}, fmt.Errorf("unmarshal event detail: %w", err)
	}
	event.Type = domain.ClaimEventType(eventType)
	event.Status = domain.ClaimEventStatus(status)
	return event, nil
}
