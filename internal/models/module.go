package models

import "time"

// ModuleProfile is a reusable module definition. IsActive=false is the soft delete.
type ModuleProfile struct {
	ID                   string    `db:"id" json:"id"`
	OrganisationID       string    `db:"organisation_id" json:"organisation_id"`
	Code                 string    `db:"code" json:"code"`
	Title                string    `db:"title" json:"title"`
	Credits              int       `db:"credits" json:"credits"`
	Level                int       `db:"level" json:"level"`
	DefaultTeachingHours float64   `db:"default_teaching_hours" json:"default_teaching_hours"`
	DefaultMarkingHours  float64   `db:"default_marking_hours" json:"default_marking_hours"`
	ModuleLeader         *string   `db:"module_leader" json:"module_leader,omitempty"`
	IsActive             bool      `db:"is_active" json:"is_active"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

// IsLive reports whether the profile is not soft-deleted.
func (p ModuleProfile) IsLive() bool { return p.IsActive }

// ModuleStatusActive is the status given to newly instantiated modules.
const ModuleStatusActive = "active"

// Module is a ModuleProfile offered in one academic year.
type Module struct {
	ID             string     `db:"id" json:"id"`
	OrganisationID string     `db:"organisation_id" json:"organisation_id"`
	ProfileID      string     `db:"profile_id" json:"profile_id"`
	AcademicYearID string     `db:"academic_year_id" json:"academic_year_id"`
	Status         string     `db:"status" json:"status"`
	IsActive       bool       `db:"is_active" json:"is_active"`
	Notes          *string    `db:"notes" json:"notes,omitempty"`
	DeletedAt      *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// IsLive reports whether the module has not been soft-deleted.
func (m Module) IsLive() bool { return m.DeletedAt == nil }

// ModuleProfileFilter captures list options for module profiles.
type ModuleProfileFilter struct {
	Search   string
	Level    *int
	Active   *bool
	Page     int
	PageSize int
}
