package models

import "time"

// ResponsableRole scopes a teacher's authority over a section.
type ResponsableRole string

const (
	ResponsableFiliere ResponsableRole = "FILIERE"
	ResponsableSection ResponsableRole = "SECTION"
	ResponsableTD      ResponsableRole = "TD"
	ResponsableTP      ResponsableRole = "TP"
)

// SectionResponsable binds one enseignant to one section for exactly one
// responsable role. At most one responsable exists per (section, role) pair;
// reassigning replaces the current holder.
type SectionResponsable struct {
	ID         string          `db:"id" json:"id"`
	SectionID  string          `db:"section_id" json:"section_id"`
	TeacherID  string          `db:"enseignant_id" json:"enseignant_id"`
	Role       ResponsableRole `db:"role" json:"role"`
	GroupID    *string         `db:"group_id" json:"group_id,omitempty"`
	AssignedAt time.Time       `db:"assigned_at" json:"assigned_at"`
}
