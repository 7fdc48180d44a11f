package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
)

// OrganisationRepository reads tenant records.
type OrganisationRepository struct {
	db *sqlx.DB
}

// NewOrganisationRepository constructs the repository.
func NewOrganisationRepository(db *sqlx.DB) *OrganisationRepository {
	return &OrganisationRepository{db: db}
}

// FindByID fetches an organisation by id.
func (r *OrganisationRepository) FindByID(ctx context.Context, id string) (*models.Organisation, error) {
	const query = `SELECT id, name, code, is_active, created_at, updated_at FROM organisations WHERE id = $1`
	var org models.Organisation
	if err := r.db.GetContext(ctx, &org, query, id); err != nil {
		return nil, err
	}
	return &org, nil
}

// ListActive returns every active organisation.
func (r *OrganisationRepository) ListActive(ctx context.Context) ([]models.Organisation, error) {
	const query = `SELECT id, name, code, is_active, created_at, updated_at FROM organisations WHERE is_active = TRUE ORDER BY name ASC`
	var orgs []models.Organisation
	if err := r.db.SelectContext(ctx, &orgs, query); err != nil {
		return nil, fmt.Errorf("list organisations: %w", err)
	}
	return orgs, nil
}
