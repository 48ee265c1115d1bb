package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sanathshetty444/todoer/internal/model"
)

// CreateTag inserts a new tag. Names are unique per user.
func (s *SQLiteStore) CreateTag(ctx context.Context, tag model.Tag) (*model.Tag, error) {
	if strings.TrimSpace(tag.Name) == "" {
		return nil, fmt.Errorf("%w: tag name must not be empty", ErrInvalidInput)
	}
	if tag.ID == "" {
		tag.ID = uuid.New().String()
	}
	tag.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO tags (id, user_id, name, created_at) VALUES (?, ?, ?, ?)",
		tag.ID, tag.UserID, tag.Name, tag.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("tag %s: %w", tag.Name, ErrDuplicateName)
		}
		return nil, fmt.Errorf("creating tag: %w", err)
	}
	return &tag, nil
}

// UpdateTag renames a tag owned by the user.
func (s *SQLiteStore) UpdateTag(ctx context.Context, tag model.Tag) error {
	if strings.TrimSpace(tag.Name) == "" {
		return fmt.Errorf("%w: tag name must not be empty", ErrInvalidInput)
	}
	result, err := s.db.ExecContext(ctx,
		"UPDATE tags SET name = ? WHERE id = ? AND user_id = ?",
		tag.Name, tag.ID, tag.UserID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("tag %s: %w", tag.Name, ErrDuplicateName)
		}
		return fmt.Errorf("updating tag %s: %w", tag.ID, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("tag %s: %w", tag.ID, ErrNotFound)
	}
	return nil
}

// DeleteTag removes a tag. CASCADE on todo_tags removes associations.
func (s *SQLiteStore) DeleteTag(ctx context.Context, userID, id string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM tags WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("deleting tag %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("tag %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetTags retrieves the user's tags ordered by name.
func (s *SQLiteStore) GetTags(ctx context.Context, userID string) ([]model.Tag, error) {
	var tags []model.Tag
	err := s.db.SelectContext(ctx, &tags,
		"SELECT * FROM tags WHERE user_id = ? ORDER BY name", userID)
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	return tags, nil
}

// GetTagsForTodo retrieves all tags associated with a todo.
func (s *SQLiteStore) GetTagsForTodo(ctx context.Context, todoID string) ([]model.Tag, error) {
	var tags []model.Tag
	err := s.db.SelectContext(ctx, &tags, `
		SELECT t.* FROM tags t
		INNER JOIN todo_tags tt ON t.id = tt.tag_id
		WHERE tt.todo_id = ?
		ORDER BY t.name`, todoID)
	if err != nil {
		return nil, fmt.Errorf("querying tags for todo %s: %w", todoID, err)
	}
	return tags, nil
}
