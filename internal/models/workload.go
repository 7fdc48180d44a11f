package models

// CapacityStatus classifies how much of a capacity is consumed.
type CapacityStatus string

const (
	CapacityAvailable    CapacityStatus = "available"
	CapacityNearCapacity CapacityStatus = "near-capacity"
	CapacityAtCapacity   CapacityStatus = "at-capacity"
	CapacityOverloaded   CapacityStatus = "overloaded"
)

// CapacityStatuses lists every status in ascending order of load.
var CapacityStatuses = []CapacityStatus{CapacityAvailable, CapacityNearCapacity, CapacityAtCapacity, CapacityOverloaded}

// LecturerWorkload is the derived capacity view for one lecturer year instance.
type LecturerWorkload struct {
	LecturerID          string         `db:"lecturer_id" json:"lecturer_id"`
	ProfileID           string         `db:"profile_id" json:"profile_id"`
	AcademicYearID      string         `db:"academic_year_id" json:"academic_year_id"`
	FullName            string         `db:"full_name" json:"full_name"`
	Email               string         `db:"email" json:"email"`
	Family              string         `db:"family" json:"family"`
	TotalContract       float64        `db:"total_contract" json:"total_contract"`
	MaxTeachingHours    float64        `db:"max_teaching_hours" json:"max_teaching_hours"`
	TotalAllocated      float64        `db:"total_allocated" json:"total_allocated"`
	TeachingHours       float64        `db:"allocated_teaching_hours" json:"allocated_teaching_hours"`
	AdminHours          float64        `db:"allocated_admin_hours" json:"allocated_admin_hours"`
	ResearchHours       float64        `db:"allocated_research_hours" json:"allocated_research_hours"`
	OtherHours          float64        `db:"allocated_other_hours" json:"allocated_other_hours"`
	Utilization         float64        `db:"-" json:"utilization"`
	TeachingUtilization float64        `db:"-" json:"teaching_utilization"`
	AvailableHours      float64        `db:"-" json:"available_hours"`
	Status              CapacityStatus `db:"-" json:"status"`
}

// WorkloadOverview aggregates workloads for an academic year.
type WorkloadOverview struct {
	AcademicYearID string                 `json:"academic_year_id"`
	Lecturers      []LecturerWorkload     `json:"lecturers"`
	StatusCounts   map[CapacityStatus]int `json:"status_counts"`
}

// CapacityStatusCount is one row of the per-organisation status aggregation.
type CapacityStatusCount struct {
	OrganisationID string  `db:"organisation_id"`
	TotalAllocated float64 `db:"total_allocated"`
	TotalContract  float64 `db:"total_contract"`
}
