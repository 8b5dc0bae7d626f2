package models

import "time"

// Delegation records one administrator handing a task to a subordinate.
type Delegation struct {
	ID        string    `db:"id" json:"id"`
	SenderID  string    `db:"sender_id" json:"sender_id"`
	TargetID  string    `db:"target_id" json:"target_id"`
	TaskType  string    `db:"task_type" json:"task_type"`
	Details   string    `db:"details" json:"details"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
