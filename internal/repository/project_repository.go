package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/onurcolak/lead-notification-service/internal/domain"
)

type ProjectRepository struct {
	db *sqlx.DB
}

func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*domain.Project, error) {
	query := `
		SELECT id, name, COALESCE(ivr_number, '') AS ivr_number, brochure_url
		FROM projects
		WHERE id = ?
	`

	var project domain.Project
	if err := r.db.GetContext(ctx, &project, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &project, nil
}

func (r *ProjectRepository) FindByIVRNumber(ctx context.Context, number string) (*domain.Project, error) {
	query := `
		SELECT id, name, COALESCE(ivr_number, '') AS ivr_number, brochure_url
		FROM projects
		WHERE ivr_number = ?
		LIMIT 1
	`

	var project domain.Project
	if err := r.db.GetContext(ctx, &project, query, number); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find project by ivr number: %w", err)
	}

	return &project, nil
}

func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	query := `INSERT INTO projects (name, ivr_number, brochure_url) VALUES (?, ?, ?)`

	var ivr any
	if project.IVRNumber != "" {
		ivr = project.IVRNumber
	}

	result, err := r.db.ExecContext(ctx, query, project.Name, ivr, project.BrochureURL)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	project.ID = id
	return nil
}
