package models

import "time"

// AcademicYear drives which year-scoped rows are current.
type AcademicYear struct {
	ID             string    `db:"id" json:"id"`
	OrganisationID string    `db:"organisation_id" json:"organisation_id"`
	Name           string    `db:"name" json:"name"`
	StartDate      time.Time `db:"start_date" json:"start_date"`
	EndDate        time.Time `db:"end_date" json:"end_date"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	IsDefault      bool      `db:"is_default" json:"is_default"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
