package dto

import "github.com/univ-adm/faculte-api/internal/models"

// AssignResponsableRequest binds a teacher to a section responsable role.
type AssignResponsableRequest struct {
	TeacherID string                 `json:"enseignant_id" validate:"required"`
	Role      models.ResponsableRole `json:"role" validate:"required,responsablerole"`
	GroupID   *string                `json:"group_id"`
}

// BulkAssignResponsablesRequest assigns several responsables in one call.
// Assignments are independent; one failure does not abort the rest.
type BulkAssignResponsablesRequest struct {
	Assignments []AssignResponsableRequest `json:"assignments" validate:"required,min=1,dive"`
}

// BulkAssignResult reports per-assignment outcomes.
type BulkAssignResult struct {
	Assigned []models.SectionResponsable `json:"assigned"`
	Failed   []BulkAssignFailure         `json:"failed,omitempty"`
}

// BulkAssignFailure describes one failed assignment in a bulk call.
type BulkAssignFailure struct {
	TeacherID string                 `json:"enseignant_id"`
	Role      models.ResponsableRole `json:"role"`
	Reason    string                 `json:"reason"`
}
