package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
)

// AdminAllocationRepository persists the admin-hour entries of lecturers.
type AdminAllocationRepository struct {
	db *sqlx.DB
}

// NewAdminAllocationRepository constructs the repository.
func NewAdminAllocationRepository(db *sqlx.DB) *AdminAllocationRepository {
	return &AdminAllocationRepository{db: db}
}

// ListByLecturer returns the entries of a lecturer in display order.
func (r *AdminAllocationRepository) ListByLecturer(ctx context.Context, organisationID, lecturerID string) ([]models.AdminAllocation, error) {
	const query = `SELECT id, organisation_id, lecturer_id, category, description, hours, is_header, sort_order, created_at
FROM admin_allocations WHERE organisation_id = $1 AND lecturer_id = $2 ORDER BY sort_order ASC, created_at ASC`
	var entries []models.AdminAllocation
	if err := r.db.SelectContext(ctx, &entries, query, organisationID, lecturerID); err != nil {
		return nil, fmt.Errorf("list admin allocations: %w", err)
	}
	return entries, nil
}

// ReplaceForLecturer swaps the whole entry list and rewrites the lecturer's admin
// hours and total inside one transaction.
func (r *AdminAllocationRepository) ReplaceForLecturer(ctx context.Context, organisationID, lecturerID string, entries []models.AdminAllocation, adminHours float64) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace admin allocations: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM admin_allocations WHERE organisation_id = $1 AND lecturer_id = $2`, organisationID, lecturerID); err != nil {
		return fmt.Errorf("clear admin allocations: %w", err)
	}

	now := time.Now().UTC()
	for i := range entries {
		entry := &entries[i]
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		entry.OrganisationID = organisationID
		entry.LecturerID = lecturerID
		entry.SortOrder = i
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = now
		}
		if _, err = tx.NamedExecContext(ctx, `INSERT INTO admin_allocations (id, organisation_id, lecturer_id, category, description, hours, is_header, sort_order, created_at)
			VALUES (:id, :organisation_id, :lecturer_id, :category, :description, :hours, :is_header, :sort_order, :created_at)`, entry); err != nil {
			return fmt.Errorf("insert admin allocation: %w", err)
		}
	}

	if _, err = tx.ExecContext(ctx, `UPDATE lecturers SET allocated_admin_hours = $3,
		total_allocated = allocated_teaching_hours + $3 + allocated_research_hours + allocated_other_hours, updated_at = $4
		WHERE organisation_id = $1 AND id = $2`, organisationID, lecturerID, adminHours, now); err != nil {
		return fmt.Errorf("update lecturer admin hours: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace admin allocations: %w", err)
	}
	return nil
}
