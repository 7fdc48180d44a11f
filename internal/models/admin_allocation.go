package models

import "time"

// AdminAllocation is one (category, description, hours) entry held per lecturer.
// Header rows group entries for display and carry no hours.
type AdminAllocation struct {
	ID             string    `db:"id" json:"id"`
	OrganisationID string    `db:"organisation_id" json:"organisation_id"`
	LecturerID     string    `db:"lecturer_id" json:"lecturer_id"`
	Category       string    `db:"category" json:"category"`
	Description    string    `db:"description" json:"description"`
	Hours          *float64  `db:"hours" json:"hours"`
	IsHeader       bool      `db:"is_header" json:"is_header"`
	SortOrder      int       `db:"sort_order" json:"sort_order"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
