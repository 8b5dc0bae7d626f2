package models

import "time"

// ChangeRequestType enumerates what a student asks to change.
type ChangeRequestType string

const (
	ChangeRequestSection  ChangeRequestType = "SECTION"
	ChangeRequestGroupeTD ChangeRequestType = "GROUPE_TD"
	ChangeRequestGroupeTP ChangeRequestType = "GROUPE_TP"
)

// ChangeRequestStatus captures the workflow states. PENDING is the only
// non-terminal state; APPROVED and REJECTED are terminal.
type ChangeRequestStatus string

const (
	ChangeRequestPending  ChangeRequestStatus = "PENDING"
	ChangeRequestApproved ChangeRequestStatus = "APPROVED"
	ChangeRequestRejected ChangeRequestStatus = "REJECTED"
)

// ChangeRequest is a student-submitted transfer request reviewed by staff or
// by the responsable of the current group's section. Current/requested refs
// are identifier references resolved to full entities only when applied.
type ChangeRequest struct {
	ID              string              `db:"id" json:"id"`
	Type            ChangeRequestType   `db:"type" json:"type"`
	StudentID       string              `db:"etudiant_id" json:"etudiant_id"`
	CurrentRefID    *string             `db:"current_ref_id" json:"current_ref_id,omitempty"`
	RequestedRefID  *string             `db:"requested_ref_id" json:"requested_ref_id,omitempty"`
	Justification   string              `db:"justification" json:"justification"`
	Status          ChangeRequestStatus `db:"status" json:"status"`
	ResponseMessage *string             `db:"response_message" json:"response_message,omitempty"`
	ReviewedBy      *string             `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time          `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt       time.Time           `db:"created_at" json:"created_at"`
}

// ChangeRequestFilter constrains listing queries.
type ChangeRequestFilter struct {
	StudentID  string
	Status     []ChangeRequestStatus
	Type       ChangeRequestType
	SectionIDs []string
	Limit      int
	Offset     int
}
