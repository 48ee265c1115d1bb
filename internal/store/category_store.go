package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sanathshetty444/todoer/internal/model"
)

// CreateCategory inserts a new category. Names are unique per user.
func (s *SQLiteStore) CreateCategory(ctx context.Context, cat model.Category) (*model.Category, error) {
	if strings.TrimSpace(cat.Name) == "" {
		return nil, fmt.Errorf("%w: category name must not be empty", ErrInvalidInput)
	}
	if cat.ID == "" {
		cat.ID = uuid.New().String()
	}
	cat.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO categories (id, user_id, name, created_at) VALUES (?, ?, ?, ?)",
		cat.ID, cat.UserID, cat.Name, cat.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("category %s: %w", cat.Name, ErrDuplicateName)
		}
		return nil, fmt.Errorf("creating category: %w", err)
	}
	return &cat, nil
}

// UpdateCategory renames a category owned by the user.
func (s *SQLiteStore) UpdateCategory(ctx context.Context, cat model.Category) error {
	if strings.TrimSpace(cat.Name) == "" {
		return fmt.Errorf("%w: category name must not be empty", ErrInvalidInput)
	}
	result, err := s.db.ExecContext(ctx,
		"UPDATE categories SET name = ? WHERE id = ? AND user_id = ?",
		cat.Name, cat.ID, cat.UserID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("category %s: %w", cat.Name, ErrDuplicateName)
		}
		return fmt.Errorf("updating category %s: %w", cat.ID, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("category %s: %w", cat.ID, ErrNotFound)
	}
	return nil
}

// DeleteCategory removes a category. Todos referencing it are detached,
// not deleted (ON DELETE SET NULL).
func (s *SQLiteStore) DeleteCategory(ctx context.Context, userID, id string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM categories WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("deleting category %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetCategories retrieves the user's categories ordered by name.
func (s *SQLiteStore) GetCategories(ctx context.Context, userID string) ([]model.Category, error) {
	var cats []model.Category
	err := s.db.SelectContext(ctx, &cats,
		"SELECT * FROM categories WHERE user_id = ? ORDER BY name", userID)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	return cats, nil
}
