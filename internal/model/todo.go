package model

import "time"

// Todo is a user-owned task with an ordered set of subtasks.
type Todo struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Status      Status    `json:"status" db:"status"`
	Favorite    bool      `json:"favorite" db:"favorite"`
	Sequence    int       `json:"sequence" db:"sequence"`
	CategoryID  *string   `json:"category_id,omitempty" db:"category_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	// Tags is populated by queries that join with todo_tags.
	Tags []Tag `json:"tags,omitempty" db:"-"`

	// Subtasks is populated on detail queries.
	Subtasks []Subtask `json:"subtasks,omitempty" db:"-"`
}

// Completed is a derived view of the status enum for API responses.
// It is never stored.
func (t Todo) Completed() bool {
	return t.Status == StatusCompleted
}

// Subtask is a sub-entry within a todo. Its lifecycle is bound to the
// parent todo (CASCADE delete), and every status mutation triggers a
// rollup of the parent's status.
type Subtask struct {
	ID        string    `json:"id" db:"id"`
	TodoID    string    `json:"todo_id" db:"todo_id"`
	Title     string    `json:"title" db:"title"`
	Status    Status    `json:"status" db:"status"`
	Sequence  int       `json:"sequence" db:"sequence"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
