package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/onurcolak/lead-notification-service/internal/domain"
)

type CallRepository struct {
	db *sqlx.DB
}

func NewCallRepository(db *sqlx.DB) *CallRepository {
	return &CallRepository{db: db}
}

func (r *CallRepository) Create(ctx context.Context, call *domain.CallRecord) error {
	query := `
		INSERT INTO call_records (from_phone, to_number, start_time, duration_seconds, raw_payload, processed)
		VALUES (?, ?, ?, ?, ?, FALSE)
	`

	result, err := r.db.ExecContext(ctx, query,
		call.FromPhone, call.ToNumber, call.StartTime, call.DurationSeconds, call.RawPayload,
	)
	if err != nil {
		return fmt.Errorf("failed to create call record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	call.ID = id
	call.Processed = false
	return nil
}

// ListPending returns unprocessed calls, newest first.
func (r *CallRepository) ListPending(ctx context.Context, limit int) ([]domain.CallRecord, error) {
	query := `
		SELECT id, from_phone, to_number, start_time, duration_seconds, raw_payload, processed, lead_id
		FROM call_records
		WHERE processed = FALSE
		ORDER BY start_time DESC, id DESC
		LIMIT ?
	`

	var calls []domain.CallRecord
	if err := r.db.SelectContext(ctx, &calls, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list pending calls: %w", err)
	}

	return calls, nil
}

func (r *CallRepository) MarkProcessed(ctx context.Context, callID int64, leadID *int64) error {
	query := `
		UPDATE call_records
		SET processed = TRUE, lead_id = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, leadID, callID)
	if err != nil {
		return fmt.Errorf("failed to mark call as processed: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("no call record found with id %d", callID)
	}

	return nil
}

func (r *CallRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM call_records WHERE processed = FALSE"); err != nil {
		return 0, fmt.Errorf("failed to count pending calls: %w", err)
	}
	return count, nil
}
