package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/onurcolak/lead-notification-service/internal/domain"
)

const leadColumns = `
	l.id, l.name, l.phone, l.email, l.source, l.current_stage_id, l.quality_score,
	l.notes, l.opted_out_of_messaging, l.created_at, l.updated_at`

// LeadRepository is the narrow lead store used by ingestion and campaigns.
type LeadRepository struct {
	db *sqlx.DB
}

func NewLeadRepository(db *sqlx.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

func (r *LeadRepository) FindByPhone(ctx context.Context, phone string) (*domain.Lead, error) {
	query := `SELECT` + leadColumns + `
		FROM leads l
		WHERE l.phone = ?
		LIMIT 1
	`

	var lead domain.Lead
	if err := r.db.GetContext(ctx, &lead, query, phone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find lead by phone: %w", err)
	}

	leads := []domain.Lead{lead}
	if err := r.attachProjects(ctx, leads); err != nil {
		return nil, err
	}

	return &leads[0], nil
}

func (r *LeadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	now := time.Now().UTC()

	query := `
		INSERT INTO leads (name, phone, email, source, current_stage_id, quality_score, notes,
			opted_out_of_messaging, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		lead.Name, lead.Phone, lead.Email, lead.Source, lead.CurrentStageID, lead.QualityScore,
		lead.Notes, lead.OptedOutOfMessaging, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	lead.ID = id
	lead.CreatedAt = now
	lead.UpdatedAt = now

	return nil
}

func (r *LeadRepository) Update(ctx context.Context, lead *domain.Lead) error {
	now := time.Now().UTC()

	query := `
		UPDATE leads
		SET name = ?, email = ?, current_stage_id = ?, quality_score = ?, notes = ?,
			opted_out_of_messaging = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		lead.Name, lead.Email, lead.CurrentStageID, lead.QualityScore, lead.Notes,
		lead.OptedOutOfMessaging, now, lead.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update lead: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("no lead found with id %d", lead.ID)
	}

	lead.UpdatedAt = now
	return nil
}

func (r *LeadRepository) AddInterestedProject(ctx context.Context, leadID, projectID int64) error {
	query := `INSERT IGNORE INTO lead_projects (lead_id, project_id) VALUES (?, ?)`

	if _, err := r.db.ExecContext(ctx, query, leadID, projectID); err != nil {
		return fmt.Errorf("failed to add interested project: %w", err)
	}

	return nil
}

// ListCreatedBetween returns leads created in [from, to], newest first. When
// projectNames is not empty only leads interested in one of them are returned.
func (r *LeadRepository) ListCreatedBetween(
	ctx context.Context,
	from, to time.Time,
	projectNames []string,
) ([]domain.Lead, error) {
	var (
		query string
		args  []any
		err   error
	)

	if len(projectNames) > 0 {
		query, args, err = sqlx.In(`
			SELECT DISTINCT`+leadColumns+`
			FROM leads l
			JOIN lead_projects lp ON lp.lead_id = l.id
			JOIN projects p ON p.id = lp.project_id
			WHERE l.created_at >= ? AND l.created_at <= ? AND p.name IN (?)
			ORDER BY l.created_at DESC, l.id DESC
		`, from, to, projectNames)
		if err != nil {
			return nil, fmt.Errorf("failed to build lead query: %w", err)
		}
	} else {
		query = `
			SELECT` + leadColumns + `
			FROM leads l
			WHERE l.created_at >= ? AND l.created_at <= ?
			ORDER BY l.created_at DESC, l.id DESC
		`
		args = []any{from, to}
	}

	var leads []domain.Lead
	if err := r.db.SelectContext(ctx, &leads, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}

	if err := r.attachProjects(ctx, leads); err != nil {
		return nil, err
	}

	return leads, nil
}

// attachProjects fills InterestedProjectIDs in link order.
func (r *LeadRepository) attachProjects(ctx context.Context, leads []domain.Lead) error {
	if len(leads) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(leads))
	index := make(map[int64]int, len(leads))
	for i, l := range leads {
		ids = append(ids, l.ID)
		index[l.ID] = i
	}

	query, args, err := sqlx.In(`
		SELECT lead_id, project_id
		FROM lead_projects
		WHERE lead_id IN (?)
		ORDER BY created_at ASC, project_id ASC
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to build project link query: %w", err)
	}

	var links []struct {
		LeadID    int64 `db:"lead_id"`
		ProjectID int64 `db:"project_id"`
	}
	if err := r.db.SelectContext(ctx, &links, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to load interested projects: %w", err)
	}

	for _, link := range links {
		i := index[link.LeadID]
		leads[i].InterestedProjectIDs = append(leads[i].InterestedProjectIDs, link.ProjectID)
	}

	return nil
}
