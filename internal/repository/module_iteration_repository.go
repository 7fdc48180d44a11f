package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
)

const iterationColumns = "id, organisation_id, module_id, academic_year_id, semester, assigned_lecturer_ids, assigned_status, deleted_at, created_at, updated_at"

// ModuleIterationRepository persists module deliveries and their lecturer membership.
type ModuleIterationRepository struct {
	db *sqlx.DB
}

// NewModuleIterationRepository constructs the repository.
func NewModuleIterationRepository(db *sqlx.DB) *ModuleIterationRepository {
	return &ModuleIterationRepository{db: db}
}

// FindByID fetches a live iteration.
func (r *ModuleIterationRepository) FindByID(ctx context.Context, organisationID, id string) (*models.ModuleIteration, error) {
	query := "SELECT " + iterationColumns + " FROM module_iterations WHERE organisation_id = $1 AND id = $2 AND " + iterationLive
	var iteration models.ModuleIteration
	if err := r.db.GetContext(ctx, &iteration, query, organisationID, id); err != nil {
		return nil, err
	}
	return &iteration, nil
}

// ListByYear returns live iterations of a year.
func (r *ModuleIterationRepository) ListByYear(ctx context.Context, organisationID, academicYearID string) ([]models.ModuleIteration, error) {
	query := "SELECT " + iterationColumns + " FROM module_iterations WHERE organisation_id = $1 AND academic_year_id = $2 AND " + iterationLive + " ORDER BY semester ASC, created_at ASC"
	var iterations []models.ModuleIteration
	if err := r.db.SelectContext(ctx, &iterations, query, organisationID, academicYearID); err != nil {
		return nil, fmt.Errorf("list module iterations: %w", err)
	}
	return iterations, nil
}

// Create inserts an iteration.
func (r *ModuleIterationRepository) Create(ctx context.Context, iteration *models.ModuleIteration) error {
	if iteration.ID == "" {
		iteration.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if iteration.CreatedAt.IsZero() {
		iteration.CreatedAt = now
	}
	iteration.UpdatedAt = now
	if iteration.AssignedLecturerIDs == nil {
		iteration.AssignedLecturerIDs = pq.StringArray{}
	}
	if iteration.AssignedStatus == "" {
		iteration.AssignedStatus = models.DeriveAssignmentStatus(iteration.AssignedLecturerIDs)
	}

	const query = `INSERT INTO module_iterations (id, organisation_id, module_id, academic_year_id, semester, assigned_lecturer_ids, assigned_status, created_at, updated_at)
		VALUES (:id, :organisation_id, :module_id, :academic_year_id, :semester, :assigned_lecturer_ids, :assigned_status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, iteration); err != nil {
		return fmt.Errorf("create module iteration: %w", err)
	}
	return nil
}

// AssignLecturer writes the new membership, inserts the seeded allocation and adds its
// hours to the lecturer in one transaction. A missing iteration or lecturer rolls back
// with sql.ErrNoRows.
func (r *ModuleIterationRepository) AssignLecturer(ctx context.Context, organisationID, id string, lecturerIDs []string, status models.AssignmentStatus, allocation *models.ModuleAllocation) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assign lecturer: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if err = updateAssignment(ctx, tx, organisationID, id, lecturerIDs, status, now); err != nil {
		return err
	}
	if err = insertModuleAllocation(ctx, tx, allocation, now); err != nil {
		return err
	}
	affected, err := adjustTeachingHours(ctx, tx, organisationID, allocation.LecturerID, allocation.TotalHours(), now)
	if err != nil {
		return err
	}
	if affected == 0 {
		err = fmt.Errorf("lecturer %s: %w", allocation.LecturerID, sql.ErrNoRows)
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit assign lecturer: %w", err)
	}
	return nil
}

// UnassignLecturer writes the new membership and, when the lecturer holds an allocation
// on the iteration, deletes the oldest one and subtracts its hours, all in one
// transaction. It returns the removed allocation, or nil when there was none.
func (r *ModuleIterationRepository) UnassignLecturer(ctx context.Context, organisationID, id string, lecturerIDs []string, status models.AssignmentStatus, lecturerID string) (removed *models.ModuleAllocation, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin unassign lecturer: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if err = updateAssignment(ctx, tx, organisationID, id, lecturerIDs, status, now); err != nil {
		return nil, err
	}

	allocation, findErr := findFirstAllocationForUpdate(ctx, tx, organisationID, id, lecturerID)
	switch {
	case errors.Is(findErr, sql.ErrNoRows):
	case findErr != nil:
		err = fmt.Errorf("find module allocation: %w", findErr)
		return nil, err
	default:
		if err = deleteModuleAllocation(ctx, tx, organisationID, allocation.ID); err != nil {
			return nil, err
		}
		if _, err = adjustTeachingHours(ctx, tx, organisationID, lecturerID, -allocation.TotalHours(), now); err != nil {
			return nil, err
		}
		removed = allocation
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit unassign lecturer: %w", err)
	}
	return removed, nil
}

func updateAssignment(ctx context.Context, ext sqlx.ExtContext, organisationID, id string, lecturerIDs []string, status models.AssignmentStatus, now time.Time) error {
	query := `UPDATE module_iterations SET assigned_lecturer_ids = $3, assigned_status = $4, updated_at = $5
		WHERE organisation_id = $1 AND id = $2 AND ` + iterationLive
	ids := pq.StringArray(lecturerIDs)
	if ids == nil {
		ids = pq.StringArray{}
	}
	result, err := ext.ExecContext(ctx, query, organisationID, id, ids, string(status), now)
	if err != nil {
		return fmt.Errorf("update iteration assignment: %w", err)
	}
	return requireAffected(result, "module iteration")
}

// UpdateStatus patches only the workflow status.
func (r *ModuleIterationRepository) UpdateStatus(ctx context.Context, organisationID, id string, status models.AssignmentStatus) error {
	query := `UPDATE module_iterations SET assigned_status = $3, updated_at = $4 WHERE organisation_id = $1 AND id = $2 AND ` + iterationLive
	result, err := r.db.ExecContext(ctx, query, organisationID, id, string(status), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update iteration status: %w", err)
	}
	return requireAffected(result, "module iteration")
}

// SoftDelete stamps deleted_at.
func (r *ModuleIterationRepository) SoftDelete(ctx context.Context, organisationID, id string) error {
	query := `UPDATE module_iterations SET deleted_at = $3, updated_at = $3 WHERE organisation_id = $1 AND id = $2 AND ` + iterationLive
	result, err := r.db.ExecContext(ctx, query, organisationID, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("delete module iteration: %w", err)
	}
	return requireAffected(result, "module iteration")
}
