package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// AuditAction constants represent actions to be logged.
const (
	AuditActionAdminAllocationUpdate = "ADMIN_ALLOCATION_UPDATE"
	AuditActionLecturerAssign        = "LECTURER_ASSIGN"
	AuditActionLecturerUnassign      = "LECTURER_UNASSIGN"
	AuditActionIterationStatus       = "ITERATION_STATUS_UPDATE"
	AuditActionIterationCreate       = "ITERATION_CREATE"
	AuditActionIterationDelete       = "ITERATION_DELETE"
	AuditActionModuleProfileCreate   = "MODULE_PROFILE_CREATE"
	AuditActionModuleProfileUpdate   = "MODULE_PROFILE_UPDATE"
	AuditActionModuleProfileDelete   = "MODULE_PROFILE_DELETE"
	AuditActionModuleCreate          = "MODULE_CREATE"
	AuditActionModuleBulkImport      = "MODULE_BULK_IMPORT"
	AuditActionModuleRollover        = "MODULE_ROLLOVER"
	AuditActionLecturerRollover      = "LECTURER_ROLLOVER"
	AuditActionLecturerProfileCreate = "LECTURER_PROFILE_CREATE"
	AuditActionLecturerProfileUpdate = "LECTURER_PROFILE_UPDATE"
	AuditActionLecturerProfileDelete = "LECTURER_PROFILE_DEACTIVATE"
	AuditActionLecturerCreate        = "LECTURER_CREATE"
	AuditActionLecturerHoursUpdate   = "LECTURER_HOURS_UPDATE"
	AuditActionLecturerDelete        = "LECTURER_DELETE"
	AuditActionAcademicYearCreate    = "ACADEMIC_YEAR_CREATE"
	AuditActionFacultyCreate         = "FACULTY_CREATE"
	AuditActionFacultyUpdate         = "FACULTY_UPDATE"
	AuditActionFacultyDelete         = "FACULTY_DELETE"
	AuditActionDepartmentCreate      = "DEPARTMENT_CREATE"
	AuditActionDepartmentUpdate      = "DEPARTMENT_UPDATE"
	AuditActionDepartmentDelete      = "DEPARTMENT_DELETE"
)

// Audit entity types.
const (
	EntityLecturer        = "lecturer"
	EntityLecturerProfile = "lecturer_profile"
	EntityModuleProfile   = "module_profile"
	EntityModule          = "module"
	EntityModuleIteration = "module_iteration"
	EntityAcademicYear    = "academic_year"
	EntityFaculty         = "faculty"
	EntityDepartment      = "department"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID             string         `db:"id" json:"id"`
	OrganisationID string         `db:"organisation_id" json:"organisation_id"`
	UserID         string         `db:"user_id" json:"user_id"`
	Action         string         `db:"action" json:"action"`
	EntityType     string         `db:"entity_type" json:"entity_type"`
	EntityID       string         `db:"entity_id" json:"entity_id"`
	Changes        types.JSONText `db:"changes" json:"changes,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
}
