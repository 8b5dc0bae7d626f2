package models

import "time"

// GroupType distinguishes directed-work (TD) from practical-work (TP) groups.
type GroupType string

const (
	GroupTypeTD GroupType = "TD"
	GroupTypeTP GroupType = "TP"
)

// Group is a capacity-bounded TD or TP group within a section.
// Invariant: 0 <= CurrentOccupancy <= Capacity after every mutation.
type Group struct {
	ID               string    `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	Type             GroupType `db:"type" json:"type"`
	SectionID        string    `db:"section_id" json:"section_id"`
	Capacity         int       `db:"capacity" json:"capacity"`
	CurrentOccupancy int       `db:"current_occupancy" json:"current_occupancy"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// GroupAvailability is the occupancy snapshot returned by availability checks.
type GroupAvailability struct {
	GroupID          string `json:"group_id"`
	Available        bool   `json:"available"`
	CurrentOccupancy int    `json:"current_occupancy"`
	Capacity         int    `json:"capacity"`
}
