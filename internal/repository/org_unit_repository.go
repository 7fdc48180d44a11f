package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
)

// OrgUnitRepository persists faculties and departments.
type OrgUnitRepository struct {
	db *sqlx.DB
}

// NewOrgUnitRepository constructs the repository.
func NewOrgUnitRepository(db *sqlx.DB) *OrgUnitRepository {
	return &OrgUnitRepository{db: db}
}

// FindFaculty fetches a live faculty.
func (r *OrgUnitRepository) FindFaculty(ctx context.Context, organisationID, id string) (*models.Faculty, error) {
	query := "SELECT id, organisation_id, code, name, deleted_at, created_at, updated_at FROM faculties WHERE organisation_id = $1 AND id = $2 AND " + facultyLive
	var faculty models.Faculty
	if err := r.db.GetContext(ctx, &faculty, query, organisationID, id); err != nil {
		return nil, err
	}
	return &faculty, nil
}

// ListFaculties returns live faculties ordered by code.
func (r *OrgUnitRepository) ListFaculties(ctx context.Context, organisationID string) ([]models.Faculty, error) {
	query := "SELECT id, organisation_id, code, name, deleted_at, created_at, updated_at FROM faculties WHERE organisation_id = $1 AND " + facultyLive + " ORDER BY code"
	var faculties []models.Faculty
	if err := r.db.SelectContext(ctx, &faculties, query, organisationID); err != nil {
		return nil, fmt.Errorf("list faculties: %w", err)
	}
	return faculties, nil
}

// FacultyCodeExists checks code uniqueness among live faculties.
func (r *OrgUnitRepository) FacultyCodeExists(ctx context.Context, organisationID, code, excludeID string) (bool, error) {
	return codeExists(ctx, r.db, "faculties", facultyLive, organisationID, code, excludeID)
}

// SaveFaculty inserts the faculty when it has no id, otherwise updates it.
func (r *OrgUnitRepository) SaveFaculty(ctx context.Context, faculty *models.Faculty) error {
	now := time.Now().UTC()
	faculty.UpdatedAt = now
	if faculty.ID == "" {
		faculty.ID = uuid.NewString()
		faculty.CreatedAt = now
		const insert = `INSERT INTO faculties (id, organisation_id, code, name, created_at, updated_at)
			VALUES (:id, :organisation_id, :code, :name, :created_at, :updated_at)`
		if _, err := r.db.NamedExecContext(ctx, insert, faculty); err != nil {
			return fmt.Errorf("create faculty: %w", err)
		}
		return nil
	}
	update := `UPDATE faculties SET code = :code, name = :name, updated_at = :updated_at WHERE id = :id AND organisation_id = :organisation_id AND ` + facultyLive
	result, err := r.db.NamedExecContext(ctx, update, faculty)
	if err != nil {
		return fmt.Errorf("update faculty: %w", err)
	}
	return requireAffected(result, "faculty")
}

// DeleteFaculty soft-deletes a faculty.
func (r *OrgUnitRepository) DeleteFaculty(ctx context.Context, organisationID, id string) error {
	return r.softDelete(ctx, "faculties", facultyLive, organisationID, id)
}

// FindDepartment fetches a live department.
func (r *OrgUnitRepository) FindDepartment(ctx context.Context, organisationID, id string) (*models.Department, error) {
	query := "SELECT id, organisation_id, faculty_id, code, name, deleted_at, created_at, updated_at FROM departments WHERE organisation_id = $1 AND id = $2 AND " + departmentLive
	var department models.Department
	if err := r.db.GetContext(ctx, &department, query, organisationID, id); err != nil {
		return nil, err
	}
	return &department, nil
}

// ListDepartments returns live departments, optionally restricted to one faculty.
func (r *OrgUnitRepository) ListDepartments(ctx context.Context, organisationID, facultyID string) ([]models.Department, error) {
	builder := psql.Select("id", "organisation_id", "faculty_id", "code", "name", "deleted_at", "created_at", "updated_at").
		From("departments").
		Where(sq.Eq{"organisation_id": organisationID}).
		Where(departmentLive).
		OrderBy("code")
	if facultyID != "" {
		builder = builder.Where(sq.Eq{"faculty_id": facultyID})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list departments: %w", err)
	}
	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, query, args...); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// DepartmentCodeExists checks code uniqueness among live departments.
func (r *OrgUnitRepository) DepartmentCodeExists(ctx context.Context, organisationID, code, excludeID string) (bool, error) {
	return codeExists(ctx, r.db, "departments", departmentLive, organisationID, code, excludeID)
}

// SaveDepartment inserts the department when it has no id, otherwise updates it.
func (r *OrgUnitRepository) SaveDepartment(ctx context.Context, department *models.Department) error {
	now := time.Now().UTC()
	department.UpdatedAt = now
	if department.ID == "" {
		department.ID = uuid.NewString()
		department.CreatedAt = now
		const insert = `INSERT INTO departments (id, organisation_id, faculty_id, code, name, created_at, updated_at)
			VALUES (:id, :organisation_id, :faculty_id, :code, :name, :created_at, :updated_at)`
		if _, err := r.db.NamedExecContext(ctx, insert, department); err != nil {
			return fmt.Errorf("create department: %w", err)
		}
		return nil
	}
	update := `UPDATE departments SET faculty_id = :faculty_id, code = :code, name = :name, updated_at = :updated_at WHERE id = :id AND organisation_id = :organisation_id AND ` + departmentLive
	result, err := r.db.NamedExecContext(ctx, update, department)
	if err != nil {
		return fmt.Errorf("update department: %w", err)
	}
	return requireAffected(result, "department")
}

// DeleteDepartment soft-deletes a department.
func (r *OrgUnitRepository) DeleteDepartment(ctx context.Context, organisationID, id string) error {
	return r.softDelete(ctx, "departments", departmentLive, organisationID, id)
}

func (r *OrgUnitRepository) softDelete(ctx context.Context, table, live, organisationID, id string) error {
	query := fmt.Sprintf("UPDATE %s SET deleted_at = $3, updated_at = $3 WHERE organisation_id = $1 AND id = $2 AND %s", table, live)
	result, err := r.db.ExecContext(ctx, query, organisationID, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	return requireAffected(result, table)
}
