package dto

import "github.com/univ-adm/faculte-api/internal/models"

// CreateGroupRequest is the administrative payload for creating a TD/TP group.
type CreateGroupRequest struct {
	Name      string           `json:"name" validate:"required"`
	Type      models.GroupType `json:"type" validate:"required,grouptype"`
	SectionID string           `json:"section_id" validate:"required"`
	Capacity  int              `json:"capacity" validate:"required,gt=0"`
}

// AssignStudentRequest adds a student to a group.
type AssignStudentRequest struct {
	StudentID string `json:"etudiant_id" validate:"required"`
}

// RosterEntry is one line of a group roster listing or export.
type RosterEntry struct {
	StudentID string `db:"id" json:"etudiant_id"`
	Matricule string `db:"matricule" json:"matricule"`
	FullName  string `db:"full_name" json:"full_name"`
}
