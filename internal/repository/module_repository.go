package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
)

const moduleColumns = "id, organisation_id, profile_id, academic_year_id, status, is_active, notes, deleted_at, created_at, updated_at"

// ModuleRepository persists year-scoped module instances.
type ModuleRepository struct {
	db *sqlx.DB
}

// NewModuleRepository constructs the repository.
func NewModuleRepository(db *sqlx.DB) *ModuleRepository {
	return &ModuleRepository{db: db}
}

// FindByID fetches a live module.
func (r *ModuleRepository) FindByID(ctx context.Context, organisationID, id string) (*models.Module, error) {
	query := "SELECT " + moduleColumns + " FROM modules WHERE organisation_id = $1 AND id = $2 AND " + moduleLive
	var module models.Module
	if err := r.db.GetContext(ctx, &module, query, organisationID, id); err != nil {
		return nil, err
	}
	return &module, nil
}

// ListByYear returns live modules of a year.
func (r *ModuleRepository) ListByYear(ctx context.Context, organisationID, academicYearID string) ([]models.Module, error) {
	query := "SELECT " + moduleColumns + " FROM modules WHERE organisation_id = $1 AND academic_year_id = $2 AND " + moduleLive + " ORDER BY created_at ASC"
	var modules []models.Module
	if err := r.db.SelectContext(ctx, &modules, query, organisationID, academicYearID); err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	return modules, nil
}

// ExistsForYear checks the (profile, year, organisation) triple among live rows.
func (r *ModuleRepository) ExistsForYear(ctx context.Context, organisationID, profileID, academicYearID string) (bool, error) {
	query := "SELECT 1 FROM modules WHERE organisation_id = $1 AND profile_id = $2 AND academic_year_id = $3 AND " + moduleLive + " LIMIT 1"
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, organisationID, profileID, academicYearID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check module year instance: %w", err)
	}
	return true, nil
}

// Create inserts a module instance.
func (r *ModuleRepository) Create(ctx context.Context, module *models.Module) error {
	return insertModule(ctx, r.db, module, time.Now().UTC())
}

func insertModule(ctx context.Context, ext sqlx.ExtContext, module *models.Module, now time.Time) error {
	if module.ID == "" {
		module.ID = uuid.NewString()
	}
	if module.CreatedAt.IsZero() {
		module.CreatedAt = now
	}
	module.UpdatedAt = now

	const query = `INSERT INTO modules (id, organisation_id, profile_id, academic_year_id, status, is_active, notes, created_at, updated_at)
		VALUES (:id, :organisation_id, :profile_id, :academic_year_id, :status, :is_active, :notes, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, ext, query, module); err != nil {
		return fmt.Errorf("create module: %w", err)
	}
	return nil
}
