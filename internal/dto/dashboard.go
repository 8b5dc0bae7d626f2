package dto

import "github.com/univ-adm/faculte-api/internal/models"

// DashboardResponse aggregates read-only rollups for an administrative actor.
// Administrator counts are restricted to the roles the actor may manage.
type DashboardResponse struct {
	AdministratorCounts []RoleCount       `json:"administrator_counts"`
	PendingRequests     int               `json:"pending_requests"`
	GroupFillRates      []GroupFillRate   `json:"group_fill_rates"`
	SectionCoverage     []SectionCoverage `json:"section_coverage"`
}

// RoleCount counts administrators holding one role.
type RoleCount struct {
	Role  models.Role `db:"role" json:"role"`
	Count int         `db:"count" json:"count"`
}

// GroupFillRate reports occupancy pressure per group.
type GroupFillRate struct {
	GroupID   string           `db:"id" json:"group_id"`
	Name      string           `db:"name" json:"name"`
	Type      models.GroupType `db:"type" json:"type"`
	Occupancy int              `db:"current_occupancy" json:"current_occupancy"`
	Capacity  int              `db:"capacity" json:"capacity"`
}

// SectionCoverage reports how many responsable roles are filled per section.
type SectionCoverage struct {
	SectionID   string `db:"section_id" json:"section_id"`
	SectionName string `db:"section_name" json:"section_name"`
	FilledRoles int    `db:"filled_roles" json:"filled_roles"`
}
