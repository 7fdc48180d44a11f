package models

import "time"

// Faculty groups departments. Deletion sets DeletedAt.
type Faculty struct {
	ID             string     `db:"id" json:"id"`
	OrganisationID string     `db:"organisation_id" json:"organisation_id"`
	Code           string     `db:"code" json:"code"`
	Name           string     `db:"name" json:"name"`
	DeletedAt      *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// IsLive reports whether the faculty has not been soft-deleted.
func (f Faculty) IsLive() bool { return f.DeletedAt == nil }

// Department belongs to an optional faculty. Deletion sets DeletedAt.
type Department struct {
	ID             string     `db:"id" json:"id"`
	OrganisationID string     `db:"organisation_id" json:"organisation_id"`
	FacultyID      *string    `db:"faculty_id" json:"faculty_id,omitempty"`
	Code           string     `db:"code" json:"code"`
	Name           string     `db:"name" json:"name"`
	DeletedAt      *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// IsLive reports whether the department has not been soft-deleted.
func (d Department) IsLive() bool { return d.DeletedAt == nil }
