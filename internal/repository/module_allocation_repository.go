package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
)

const moduleAllocationColumns = "id, organisation_id, module_iteration_id, lecturer_id, teaching_hours, marking_hours, allocation_type_id, created_at, updated_at"

// ModuleAllocationRepository reads lecturer ↔ iteration allocation records. Writes go
// through the assignment transactions of ModuleIterationRepository.
type ModuleAllocationRepository struct {
	db *sqlx.DB
}

// NewModuleAllocationRepository constructs the repository.
func NewModuleAllocationRepository(db *sqlx.DB) *ModuleAllocationRepository {
	return &ModuleAllocationRepository{db: db}
}

// ListByIteration returns allocations of an iteration.
func (r *ModuleAllocationRepository) ListByIteration(ctx context.Context, organisationID, iterationID string) ([]models.ModuleAllocation, error) {
	query := "SELECT " + moduleAllocationColumns + " FROM module_allocations WHERE organisation_id = $1 AND module_iteration_id = $2 ORDER BY created_at ASC"
	var allocations []models.ModuleAllocation
	if err := r.db.SelectContext(ctx, &allocations, query, organisationID, iterationID); err != nil {
		return nil, fmt.Errorf("list module allocations: %w", err)
	}
	return allocations, nil
}

func insertModuleAllocation(ctx context.Context, ext sqlx.ExtContext, allocation *models.ModuleAllocation, now time.Time) error {
	if allocation.ID == "" {
		allocation.ID = uuid.NewString()
	}
	if allocation.CreatedAt.IsZero() {
		allocation.CreatedAt = now
	}
	allocation.UpdatedAt = now

	const query = `INSERT INTO module_allocations (id, organisation_id, module_iteration_id, lecturer_id, teaching_hours, marking_hours, allocation_type_id, created_at, updated_at)
		VALUES (:id, :organisation_id, :module_iteration_id, :lecturer_id, :teaching_hours, :marking_hours, :allocation_type_id, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, ext, query, allocation); err != nil {
		return fmt.Errorf("create module allocation: %w", err)
	}
	return nil
}

// findFirstAllocationForUpdate locks the oldest allocation for (iteration, lecturer), or
// returns sql.ErrNoRows.
func findFirstAllocationForUpdate(ctx context.Context, q sqlx.QueryerContext, organisationID, iterationID, lecturerID string) (*models.ModuleAllocation, error) {
	query := "SELECT " + moduleAllocationColumns + " FROM module_allocations WHERE organisation_id = $1 AND module_iteration_id = $2 AND lecturer_id = $3 ORDER BY created_at ASC LIMIT 1 FOR UPDATE"
	var allocation models.ModuleAllocation
	if err := sqlx.GetContext(ctx, q, &allocation, query, organisationID, iterationID, lecturerID); err != nil {
		return nil, err
	}
	return &allocation, nil
}

func deleteModuleAllocation(ctx context.Context, ext sqlx.ExtContext, organisationID, id string) error {
	const query = `DELETE FROM module_allocations WHERE organisation_id = $1 AND id = $2`
	result, err := ext.ExecContext(ctx, query, organisationID, id)
	if err != nil {
		return fmt.Errorf("delete module allocation: %w", err)
	}
	return requireAffected(result, "module allocation")
}
