package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
)

var lecturerColumns = []string{
	"id", "organisation_id", "profile_id", "academic_year_id", "teaching_availability", "total_allocated",
	"allocated_teaching_hours", "allocated_admin_hours", "allocated_research_hours", "allocated_other_hours",
	"status", "notes", "deleted_at", "created_at", "updated_at",
}

// LecturerRepository persists lecturer year instances.
type LecturerRepository struct {
	db *sqlx.DB
}

// NewLecturerRepository constructs the repository.
func NewLecturerRepository(db *sqlx.DB) *LecturerRepository {
	return &LecturerRepository{db: db}
}

// FindByID fetches a live lecturer.
func (r *LecturerRepository) FindByID(ctx context.Context, organisationID, id string) (*models.Lecturer, error) {
	query := "SELECT " + strings.Join(lecturerColumns, ", ") + " FROM lecturers WHERE organisation_id = $1 AND id = $2 AND " + lecturerLive
	var lecturer models.Lecturer
	if err := r.db.GetContext(ctx, &lecturer, query, organisationID, id); err != nil {
		return nil, err
	}
	return &lecturer, nil
}

// ExistsForYear checks the (profile, year, organisation) triple among live rows.
func (r *LecturerRepository) ExistsForYear(ctx context.Context, organisationID, profileID, academicYearID string) (bool, error) {
	query := "SELECT 1 FROM lecturers WHERE organisation_id = $1 AND profile_id = $2 AND academic_year_id = $3 AND " + lecturerLive + " LIMIT 1"
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, organisationID, profileID, academicYearID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check lecturer year instance: %w", err)
	}
	return true, nil
}

// Create inserts a year instance.
func (r *LecturerRepository) Create(ctx context.Context, lecturer *models.Lecturer) error {
	if lecturer.ID == "" {
		lecturer.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if lecturer.CreatedAt.IsZero() {
		lecturer.CreatedAt = now
	}
	lecturer.UpdatedAt = now
	lecturer.RecomputeTotal()

	const query = `INSERT INTO lecturers (id, organisation_id, profile_id, academic_year_id, teaching_availability, total_allocated,
		allocated_teaching_hours, allocated_admin_hours, allocated_research_hours, allocated_other_hours, status, notes, created_at, updated_at)
		VALUES (:id, :organisation_id, :profile_id, :academic_year_id, :teaching_availability, :total_allocated,
		:allocated_teaching_hours, :allocated_admin_hours, :allocated_research_hours, :allocated_other_hours, :status, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, lecturer); err != nil {
		return fmt.Errorf("create lecturer: %w", err)
	}
	return nil
}

// UpdateHours writes the category hours and the recomputed total.
func (r *LecturerRepository) UpdateHours(ctx context.Context, lecturer *models.Lecturer) error {
	lecturer.RecomputeTotal()
	lecturer.UpdatedAt = time.Now().UTC()
	query := `UPDATE lecturers SET teaching_availability = :teaching_availability, total_allocated = :total_allocated,
		allocated_teaching_hours = :allocated_teaching_hours, allocated_admin_hours = :allocated_admin_hours,
		allocated_research_hours = :allocated_research_hours, allocated_other_hours = :allocated_other_hours,
		status = :status, notes = :notes, updated_at = :updated_at
		WHERE id = :id AND organisation_id = :organisation_id AND ` + lecturerLive
	result, err := r.db.NamedExecContext(ctx, query, lecturer)
	if err != nil {
		return fmt.Errorf("update lecturer hours: %w", err)
	}
	return requireAffected(result, "lecturer")
}

// adjustTeachingHours shifts teaching hours and the total by delta in one statement and
// reports how many live lecturer rows it touched.
func adjustTeachingHours(ctx context.Context, ext sqlx.ExtContext, organisationID, id string, delta float64, now time.Time) (int64, error) {
	query := `UPDATE lecturers SET allocated_teaching_hours = allocated_teaching_hours + $3, total_allocated = total_allocated + $3, updated_at = $4
		WHERE organisation_id = $1 AND id = $2 AND ` + lecturerLive
	result, err := ext.ExecContext(ctx, query, organisationID, id, delta, now)
	if err != nil {
		return 0, fmt.Errorf("adjust lecturer teaching hours: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check lecturer rows: %w", err)
	}
	return affected, nil
}

// SoftDelete stamps deleted_at.
func (r *LecturerRepository) SoftDelete(ctx context.Context, organisationID, id string) error {
	now := time.Now().UTC()
	query := `UPDATE lecturers SET deleted_at = $3, updated_at = $3 WHERE organisation_id = $1 AND id = $2 AND ` + lecturerLive
	result, err := r.db.ExecContext(ctx, query, organisationID, id, now)
	if err != nil {
		return fmt.Errorf("delete lecturer: %w", err)
	}
	return requireAffected(result, "lecturer")
}

const workloadSelect = `SELECT l.id AS lecturer_id, l.profile_id, l.academic_year_id, p.full_name, p.email, p.family,
       p.total_contract, p.max_teaching_hours, l.total_allocated, l.allocated_teaching_hours,
       l.allocated_admin_hours, l.allocated_research_hours, l.allocated_other_hours
FROM lecturers l
JOIN lecturer_profiles p ON p.id = l.profile_id`

// FindWorkload returns the joined workload row of one lecturer.
func (r *LecturerRepository) FindWorkload(ctx context.Context, organisationID, id string) (*models.LecturerWorkload, error) {
	query := workloadSelect + `
WHERE l.organisation_id = $1 AND l.id = $2 AND l.deleted_at IS NULL`
	var workload models.LecturerWorkload
	if err := r.db.GetContext(ctx, &workload, query, organisationID, id); err != nil {
		return nil, err
	}
	return &workload, nil
}

// ListWorkloads returns workload rows for every live lecturer of a year.
func (r *LecturerRepository) ListWorkloads(ctx context.Context, organisationID, academicYearID string) ([]models.LecturerWorkload, error) {
	query := workloadSelect + `
WHERE l.organisation_id = $1 AND l.academic_year_id = $2 AND l.deleted_at IS NULL
ORDER BY p.full_name ASC`
	var workloads []models.LecturerWorkload
	if err := r.db.SelectContext(ctx, &workloads, query, organisationID, academicYearID); err != nil {
		return nil, fmt.Errorf("list lecturer workloads: %w", err)
	}
	return workloads, nil
}

// ListCapacitySnapshot returns allocated/contract pairs for live lecturers in each
// organisation's default year.
func (r *LecturerRepository) ListCapacitySnapshot(ctx context.Context) ([]models.CapacityStatusCount, error) {
	const query = `SELECT l.organisation_id, l.total_allocated, p.total_contract
FROM lecturers l
JOIN lecturer_profiles p ON p.id = l.profile_id
JOIN academic_years y ON y.id = l.academic_year_id AND y.is_default = TRUE
WHERE l.deleted_at IS NULL`
	var rows []models.CapacityStatusCount
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list capacity snapshot: %w", err)
	}
	return rows, nil
}
