package models

import "time"

// Student is an etudiant record. GroupTDID and GroupTPID are single current
// pointers, not membership lists: a student is in at most one TD and one TP
// group at a time.
type Student struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Matricule string    `db:"matricule" json:"matricule"`
	FullName  string    `db:"full_name" json:"full_name"`
	SectionID *string   `db:"section_id" json:"section_id,omitempty"`
	GroupTDID *string   `db:"groupe_td_id" json:"groupe_td_id,omitempty"`
	GroupTPID *string   `db:"groupe_tp_id" json:"groupe_tp_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Teacher is an enseignant record.
type Teacher struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Grade     *string   `db:"grade" json:"grade,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
