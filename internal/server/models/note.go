package models

import "time"

// Note is a note assigned to a user. Username is filled by reads that join
// the owner.
type Note struct {
	ID        string
	UserID    string
	Username  string
	Title     string
	Text      string
	Completed bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
