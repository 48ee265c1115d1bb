package model

import "time"

// Category is a user-scoped grouping a todo may optionally belong to.
// Deleting a category detaches its todos rather than deleting them.
type Category struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
