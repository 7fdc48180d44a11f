package models

import (
	"time"

	"github.com/lib/pq"
)

// AssignmentStatus tracks the staffing state of a module iteration.
type AssignmentStatus string

const (
	AssignmentStatusUnassigned AssignmentStatus = "unassigned"
	AssignmentStatusAssigned   AssignmentStatus = "assigned"
	AssignmentStatusPending    AssignmentStatus = "pending"
	AssignmentStatusInProgress AssignmentStatus = "in-progress"
	AssignmentStatusCompleted  AssignmentStatus = "completed"
)

// IsWorkflow reports whether the status may be set explicitly rather than derived.
func (s AssignmentStatus) IsWorkflow() bool {
	switch s {
	case AssignmentStatusPending, AssignmentStatusInProgress, AssignmentStatusCompleted:
		return true
	}
	return false
}

// DeriveAssignmentStatus returns the membership-driven status for a lecturer list.
func DeriveAssignmentStatus(lecturerIDs []string) AssignmentStatus {
	if len(lecturerIDs) == 0 {
		return AssignmentStatusUnassigned
	}
	return AssignmentStatusAssigned
}

// ModuleIteration is one delivery of a module in a semester.
type ModuleIteration struct {
	ID                  string           `db:"id" json:"id"`
	OrganisationID      string           `db:"organisation_id" json:"organisation_id"`
	ModuleID            string           `db:"module_id" json:"module_id"`
	AcademicYearID      string           `db:"academic_year_id" json:"academic_year_id"`
	Semester            string           `db:"semester" json:"semester"`
	AssignedLecturerIDs pq.StringArray   `db:"assigned_lecturer_ids" json:"assigned_lecturer_ids"`
	AssignedStatus      AssignmentStatus `db:"assigned_status" json:"assigned_status"`
	DeletedAt           *time.Time       `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt           time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time        `db:"updated_at" json:"updated_at"`
}

// IsLive reports whether the iteration has not been soft-deleted.
func (i ModuleIteration) IsLive() bool { return i.DeletedAt == nil }

// ModuleAllocation joins a lecturer to an iteration with seeded hours.
type ModuleAllocation struct {
	ID                string    `db:"id" json:"id"`
	OrganisationID    string    `db:"organisation_id" json:"organisation_id"`
	ModuleIterationID string    `db:"module_iteration_id" json:"module_iteration_id"`
	LecturerID        string    `db:"lecturer_id" json:"lecturer_id"`
	TeachingHours     float64   `db:"teaching_hours" json:"teaching_hours"`
	MarkingHours      float64   `db:"marking_hours" json:"marking_hours"`
	AllocationTypeID  *string   `db:"allocation_type_id" json:"allocation_type_id,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// TotalHours is the teaching load the allocation contributes.
func (a ModuleAllocation) TotalHours() float64 {
	return a.TeachingHours + a.MarkingHours
}
