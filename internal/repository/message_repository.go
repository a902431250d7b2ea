package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/onurcolak/lead-notification-service/internal/domain"
)

const messageColumns = `
	id, lead_id, phone, template_name, status, transport_message_id, via, created_at,
	sent_at, delivered_at, read_at, failed_at, failure_reason`

// MessageRepository handles database operations for message records.
type MessageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, record *domain.MessageRecord) error {
	query := `
		INSERT INTO message_records (lead_id, phone, template_name, status, transport_message_id, via,
			created_at, sent_at, delivered_at, read_at, failed_at, failure_reason)
		VALUES (:lead_id, :phone, :template_name, :status, :transport_message_id, :via,
			:created_at, :sent_at, :delivered_at, :read_at, :failed_at, :failure_reason)
	`

	result, err := r.db.NamedExecContext(ctx, query, record)
	if err != nil {
		return fmt.Errorf("failed to create message record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	record.ID = id
	return nil
}

func (r *MessageRepository) GetByID(ctx context.Context, id int64) (*domain.MessageRecord, error) {
	query := `SELECT` + messageColumns + ` FROM message_records WHERE id = ?`

	var record domain.MessageRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get message record: %w", err)
	}

	return &record, nil
}

func (r *MessageRepository) GetByTransportID(ctx context.Context, transportMessageID string) (*domain.MessageRecord, error) {
	query := `SELECT` + messageColumns + ` FROM message_records WHERE transport_message_id = ? LIMIT 1`

	var record domain.MessageRecord
	if err := r.db.GetContext(ctx, &record, query, transportMessageID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get message record by transport id: %w", err)
	}

	return &record, nil
}

// UpdateStatus persists record only if its stored status still equals
// expected. It reports false when another writer got there first.
func (r *MessageRepository) UpdateStatus(
	ctx context.Context,
	record *domain.MessageRecord,
	expected domain.MessageStatus,
) (bool, error) {
	query := `
		UPDATE message_records
		SET status = ?, sent_at = ?, delivered_at = ?, read_at = ?, failed_at = ?, failure_reason = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		record.Status, record.SentAt, record.DeliveredAt, record.ReadAt, record.FailedAt, record.FailureReason,
		record.ID, expected,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update message status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows > 0, nil
}

func (r *MessageRepository) GetAll(
	ctx context.Context,
	status *domain.MessageStatus,
	page, pageSize int,
) ([]domain.MessageRecord, int64, error) {
	offset := (page - 1) * pageSize
	var totalCount int64
	var records []domain.MessageRecord

	if status != nil {
		countQuery := "SELECT COUNT(*) FROM message_records WHERE status = ?"
		if err := r.db.GetContext(ctx, &totalCount, countQuery, *status); err != nil {
			return nil, 0, fmt.Errorf("failed to count message records: %w", err)
		}

		query := `SELECT` + messageColumns + `
			FROM message_records
			WHERE status = ?
			ORDER BY created_at DESC, id DESC
			LIMIT ? OFFSET ?
		`
		if err := r.db.SelectContext(ctx, &records, query, *status, pageSize, offset); err != nil {
			return nil, 0, fmt.Errorf("failed to get message records: %w", err)
		}
	} else {
		countQuery := "SELECT COUNT(*) FROM message_records"
		if err := r.db.GetContext(ctx, &totalCount, countQuery); err != nil {
			return nil, 0, fmt.Errorf("failed to count message records: %w", err)
		}

		query := `SELECT` + messageColumns + `
			FROM message_records
			ORDER BY created_at DESC, id DESC
			LIMIT ? OFFSET ?
		`
		if err := r.db.SelectContext(ctx, &records, query, pageSize, offset); err != nil {
			return nil, 0, fmt.Errorf("failed to get message records: %w", err)
		}
	}

	return records, totalCount, nil
}

// GetStats returns record counts per status.
func (r *MessageRepository) GetStats(ctx context.Context) (*domain.MessageStats, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN status = 'queued' THEN 1 ELSE 0 END), 0)    AS queued,
			COALESCE(SUM(CASE WHEN status = 'sent' THEN 1 ELSE 0 END), 0)      AS sent,
			COALESCE(SUM(CASE WHEN status = 'delivered' THEN 1 ELSE 0 END), 0) AS delivered,
			COALESCE(SUM(CASE WHEN status = 'read' THEN 1 ELSE 0 END), 0)      AS read_count,
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0)    AS failed
		FROM message_records
	`

	var stats domain.MessageStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	return &stats, nil
}
