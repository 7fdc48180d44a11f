package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
)

const academicYearColumns = "id, organisation_id, name, start_date, end_date, is_active, is_default, created_at, updated_at"

// AcademicYearRepository persists academic years.
type AcademicYearRepository struct {
	db *sqlx.DB
}

// NewAcademicYearRepository constructs the repository.
func NewAcademicYearRepository(db *sqlx.DB) *AcademicYearRepository {
	return &AcademicYearRepository{db: db}
}

// FindByID fetches a year within the organisation.
func (r *AcademicYearRepository) FindByID(ctx context.Context, organisationID, id string) (*models.AcademicYear, error) {
	query := "SELECT " + academicYearColumns + " FROM academic_years WHERE organisation_id = $1 AND id = $2"
	var year models.AcademicYear
	if err := r.db.GetContext(ctx, &year, query, organisationID, id); err != nil {
		return nil, err
	}
	return &year, nil
}

// FindDefault returns the organisation's default year.
func (r *AcademicYearRepository) FindDefault(ctx context.Context, organisationID string) (*models.AcademicYear, error) {
	query := "SELECT " + academicYearColumns + " FROM academic_years WHERE organisation_id = $1 AND is_default = TRUE LIMIT 1"
	var year models.AcademicYear
	if err := r.db.GetContext(ctx, &year, query, organisationID); err != nil {
		return nil, err
	}
	return &year, nil
}

// List returns the organisation's years, newest first.
func (r *AcademicYearRepository) List(ctx context.Context, organisationID string) ([]models.AcademicYear, error) {
	query := "SELECT " + academicYearColumns + " FROM academic_years WHERE organisation_id = $1 ORDER BY start_date DESC"
	var years []models.AcademicYear
	if err := r.db.SelectContext(ctx, &years, query, organisationID); err != nil {
		return nil, fmt.Errorf("list academic years: %w", err)
	}
	return years, nil
}

// Create inserts a year. A default year clears the flag on its siblings in the same transaction.
func (r *AcademicYearRepository) Create(ctx context.Context, year *models.AcademicYear) (err error) {
	if year.ID == "" {
		year.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if year.CreatedAt.IsZero() {
		year.CreatedAt = now
	}
	year.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create academic year: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if year.IsDefault {
		if _, err = tx.ExecContext(ctx, `UPDATE academic_years SET is_default = FALSE, updated_at = $2 WHERE organisation_id = $1 AND is_default = TRUE`, year.OrganisationID, now); err != nil {
			return fmt.Errorf("clear default academic year: %w", err)
		}
	}

	const query = `INSERT INTO academic_years (id, organisation_id, name, start_date, end_date, is_active, is_default, created_at, updated_at)
		VALUES (:id, :organisation_id, :name, :start_date, :end_date, :is_active, :is_default, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, query, year); err != nil {
		return fmt.Errorf("create academic year: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create academic year: %w", err)
	}
	return nil
}
