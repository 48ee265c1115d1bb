package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sanathshetty444/todoer/internal/model"
)

// CreateSubtask inserts a new subtask and recomputes the parent todo's
// status in the same transaction. Sequence is assigned max+1 within the
// parent's scope, with the same unlocked read as todo creation.
func (s *SQLiteStore) CreateSubtask(ctx context.Context, sub model.Subtask) (*model.Subtask, error) {
	if strings.TrimSpace(sub.Title) == "" {
		return nil, fmt.Errorf("%w: subtask title must not be empty", ErrInvalidInput)
	}
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	if sub.Status == "" {
		sub.Status = model.StatusNotStarted
	}
	if !model.ValidStatus(sub.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, sub.Status)
	}

	if sub.Sequence == 0 {
		var maxSeq int
		err := s.db.GetContext(ctx, &maxSeq,
			"SELECT COALESCE(MAX(sequence), 0) FROM subtasks WHERE todo_id = ?",
			sub.TodoID)
		if err != nil {
			return nil, fmt.Errorf("getting max subtask sequence: %w", err)
		}
		sub.Sequence = maxSeq + 1
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO subtasks (id, todo_id, title, status, sequence, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.TodoID, sub.Title, sub.Status, sub.Sequence,
		sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating subtask: %w", err)
	}

	if err := recomputeTodoStatus(ctx, tx, sub.TodoID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing subtask create: %w", err)
	}
	return &sub, nil
}

// UpdateSubtaskTitle renames a subtask. Status and sequence are untouched.
func (s *SQLiteStore) UpdateSubtaskTitle(ctx context.Context, id, title string) (*model.Subtask, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: subtask title must not be empty", ErrInvalidInput)
	}
	result, err := s.db.ExecContext(ctx,
		"UPDATE subtasks SET title = ?, updated_at = ? WHERE id = ?",
		title, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("updating subtask %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, fmt.Errorf("subtask %s: %w", id, ErrNotFound)
	}
	return s.GetSubtaskByID(ctx, id)
}

// UpdateSubtaskStatus sets a subtask's status and recomputes the parent
// todo's status in the same transaction. The parent row is overwritten
// even when the rolled-up value is unchanged.
func (s *SQLiteStore) UpdateSubtaskStatus(ctx context.Context, id string, status model.Status) (*model.Subtask, error) {
	if !model.ValidStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var todoID string
	err = tx.GetContext(ctx, &todoID,
		"SELECT todo_id FROM subtasks WHERE id = ?", id)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("subtask %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("getting subtask %s: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE subtasks SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now().UTC(), id); err != nil {
		return nil, fmt.Errorf("updating subtask %s status: %w", id, err)
	}

	if err := recomputeTodoStatus(ctx, tx, todoID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing status update: %w", err)
	}
	return s.GetSubtaskByID(ctx, id)
}

// DeleteSubtask removes a subtask and recomputes the parent todo's status
// in the same transaction, since the removed subtask no longer
// contributes to the rollup.
func (s *SQLiteStore) DeleteSubtask(ctx context.Context, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var todoID string
	err = tx.GetContext(ctx, &todoID,
		"SELECT todo_id FROM subtasks WHERE id = ?", id)
	if err != nil {
		if isNoRows(err) {
			return fmt.Errorf("subtask %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("getting subtask %s: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM subtasks WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting subtask %s: %w", id, err)
	}

	if err := recomputeTodoStatus(ctx, tx, todoID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing subtask delete: %w", err)
	}
	return nil
}

// GetSubtaskByID retrieves a single subtask.
func (s *SQLiteStore) GetSubtaskByID(ctx context.Context, id string) (*model.Subtask, error) {
	var sub model.Subtask
	err := s.db.GetContext(ctx, &sub, "SELECT * FROM subtasks WHERE id = ?", id)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("subtask %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("getting subtask %s: %w", id, err)
	}
	return &sub, nil
}

// GetSubtasks returns all subtasks for a todo ordered by ascending
// sequence, ties broken by creation time, newest first.
func (s *SQLiteStore) GetSubtasks(ctx context.Context, todoID string) ([]model.Subtask, error) {
	var subs []model.Subtask
	err := s.db.SelectContext(ctx, &subs,
		"SELECT * FROM subtasks WHERE todo_id = ? ORDER BY sequence ASC, created_at DESC",
		todoID)
	if err != nil {
		return nil, fmt.Errorf("querying subtasks for todo %s: %w", todoID, err)
	}
	return subs, nil
}

// ReorderSubtasks overwrites the sequence of the listed subtasks in one
// all-or-nothing transaction and returns the todo's full subtask list in
// the resulting order. Every id must belong to the todo.
func (s *SQLiteStore) ReorderSubtasks(ctx context.Context, todoID string, assignments []SequenceAssignment) ([]model.Subtask, error) {
	if err := validateAssignments(assignments); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := checkMembership(ctx, tx, "subtasks", "todo_id", todoID, assignments); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for _, a := range assignments {
		if _, err := tx.ExecContext(ctx,
			"UPDATE subtasks SET sequence = ?, updated_at = ? WHERE id = ? AND todo_id = ?",
			a.Sequence, now, a.ID, todoID); err != nil {
			return nil, fmt.Errorf("reordering subtask %s: %w", a.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing reorder: %w", err)
	}

	return s.GetSubtasks(ctx, todoID)
}

// recomputeTodoStatus rolls the current subtask statuses up into the
// parent todo row. The write is unconditional; callers must not assume a
// no-op skip when the value is unchanged.
func recomputeTodoStatus(ctx context.Context, tx *sqlx.Tx, todoID string) error {
	var raw []model.Status
	err := tx.SelectContext(ctx, &raw,
		"SELECT status FROM subtasks WHERE todo_id = ?", todoID)
	if err != nil {
		return fmt.Errorf("reading subtask statuses for todo %s: %w", todoID, err)
	}

	status := model.RollupStatus(raw)

	if _, err := tx.ExecContext(ctx,
		"UPDATE todos SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now().UTC(), todoID); err != nil {
		return fmt.Errorf("writing rolled-up status for todo %s: %w", todoID, err)
	}
	return nil
}
