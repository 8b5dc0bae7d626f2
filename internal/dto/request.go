package dto

import "github.com/univ-adm/faculte-api/internal/models"

// CreateChangeRequestRequest is the student-facing payload for a transfer
// request. Refs are identifiers of sections or groups depending on Type.
type CreateChangeRequestRequest struct {
	Type           models.ChangeRequestType `json:"type" validate:"required,requesttype"`
	CurrentRefID   string                   `json:"current_ref_id"`
	RequestedRefID string                   `json:"requested_ref_id" validate:"required"`
	Justification  string                   `json:"justification" validate:"required"`
}

// UpdateRequestStatusRequest is the generic staff review payload.
type UpdateRequestStatusRequest struct {
	Status          models.ChangeRequestStatus `json:"status" validate:"required"`
	ResponseMessage string                     `json:"response_message"`
}

// ReviewGroupChangeRequest is the teacher-facing approval payload.
type ReviewGroupChangeRequest struct {
	Decision models.ChangeRequestStatus `json:"decision" validate:"required"`
	Message  string                     `json:"message"`
}

// GroupChangeDecision is the minimal summary returned by the approval path.
type GroupChangeDecision struct {
	ID      string                     `json:"id"`
	Status  models.ChangeRequestStatus `json:"status"`
	Message string                     `json:"message"`
}

// ChangeRequestQuery filters request listings.
type ChangeRequestQuery struct {
	Status []models.ChangeRequestStatus
	Type   models.ChangeRequestType
}
