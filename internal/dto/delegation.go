package dto

import "time"

// DelegateTaskRequest hands a task to a subordinate administrator.
type DelegateTaskRequest struct {
	TargetID string `json:"target_id" validate:"required"`
	TaskType string `json:"task_type" validate:"required"`
	Details  string `json:"details" validate:"required"`
}

// DelegationAck acknowledges a recorded delegation.
type DelegationAck struct {
	ID         string    `json:"id"`
	TargetName string    `json:"target_name"`
	TaskType   string    `json:"task_type"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}
