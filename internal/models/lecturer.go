package models

import "time"

// LecturerProfile holds person-level identity and contract terms.
// Profiles are never deleted; IsActive=false is the soft delete.
type LecturerProfile struct {
	ID               string    `db:"id" json:"id"`
	OrganisationID   string    `db:"organisation_id" json:"organisation_id"`
	FullName         string    `db:"full_name" json:"full_name"`
	Email            string    `db:"email" json:"email"`
	Family           string    `db:"family" json:"family"`
	FTE              float64   `db:"fte" json:"fte"`
	Capacity         float64   `db:"capacity" json:"capacity"`
	MaxTeachingHours float64   `db:"max_teaching_hours" json:"max_teaching_hours"`
	TotalContract    float64   `db:"total_contract" json:"total_contract"`
	IsActive         bool      `db:"is_active" json:"is_active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// IsLive reports whether the profile is not soft-deleted.
func (p LecturerProfile) IsLive() bool { return p.IsActive }

// Lecturer is a profile's participation in one academic year.
// Deletion sets DeletedAt.
type Lecturer struct {
	ID                     string     `db:"id" json:"id"`
	OrganisationID         string     `db:"organisation_id" json:"organisation_id"`
	ProfileID              string     `db:"profile_id" json:"profile_id"`
	AcademicYearID         string     `db:"academic_year_id" json:"academic_year_id"`
	TeachingAvailability   float64    `db:"teaching_availability" json:"teaching_availability"`
	TotalAllocated         float64    `db:"total_allocated" json:"total_allocated"`
	AllocatedTeachingHours float64    `db:"allocated_teaching_hours" json:"allocated_teaching_hours"`
	AllocatedAdminHours    float64    `db:"allocated_admin_hours" json:"allocated_admin_hours"`
	AllocatedResearchHours float64    `db:"allocated_research_hours" json:"allocated_research_hours"`
	AllocatedOtherHours    float64    `db:"allocated_other_hours" json:"allocated_other_hours"`
	Status                 string     `db:"status" json:"status"`
	Notes                  *string    `db:"notes" json:"notes,omitempty"`
	DeletedAt              *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt              time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time  `db:"updated_at" json:"updated_at"`
}

// IsLive reports whether the year instance is not soft-deleted.
func (l Lecturer) IsLive() bool { return l.DeletedAt == nil }

// RecomputeTotal restores TotalAllocated as the sum of the category hours.
func (l *Lecturer) RecomputeTotal() {
	l.TotalAllocated = l.AllocatedTeachingHours + l.AllocatedAdminHours + l.AllocatedResearchHours + l.AllocatedOtherHours
}

// LecturerStatusActive is the status given to new year instances.
const LecturerStatusActive = "active"

// LecturerProfileFilter captures list options for lecturer profiles.
type LecturerProfileFilter struct {
	Search   string
	Family   string
	Active   *bool
	Page     int
	PageSize int
}
