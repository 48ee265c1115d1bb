package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sanathshetty444/todoer/internal/model"
)

// Sentinel errors returned by Store implementations. Callers match them
// with errors.Is / errors.As.
var (
	// ErrNotFound is returned when a row does not exist or is not
	// visible to the requesting user.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateName is returned on per-user unique name violations
	// for categories and tags.
	ErrDuplicateName = errors.New("name already exists")

	// ErrInvalidInput is returned when a reorder batch contains
	// malformed entries. Nothing is mutated.
	ErrInvalidInput = errors.New("invalid input")
)

// MembershipError reports reorder assignments whose ids do not belong to
// the target scope. The whole batch is rejected.
type MembershipError struct {
	IDs []string
}

func (e *MembershipError) Error() string {
	return fmt.Sprintf("entities not in scope: %s", strings.Join(e.IDs, ", "))
}

// SequenceAssignment is one entry of a bulk reorder batch.
type SequenceAssignment struct {
	ID       string `json:"id"`
	Sequence int    `json:"sequence"`
}

// TodoFilter controls filtering, sorting, and pagination for todo queries.
// All queries are additionally scoped to a single user.
type TodoFilter struct {
	Status     *model.Status // nil for all
	CategoryID *string       // category UUID, "none" (NULL category), or nil
	TagIDs     []string      // filter by any of these tags (OR logic)
	Query      *string       // search title + description
	Favorite   *bool
	SortBy     string // "sequence", "created_at", "updated_at", "title"
	SortDesc   bool
	Limit      int
	Offset     int
}

// Store defines the persistence interface for users, todos, subtasks,
// categories, tags, and refresh tokens.
type Store interface {
	// === Users ===

	CreateUser(ctx context.Context, user model.User) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	DeleteUser(ctx context.Context, id string) error

	// === Todos ===

	CreateTodo(ctx context.Context, todo model.Todo) (*model.Todo, error)
	UpdateTodo(ctx context.Context, userID string, todo model.Todo) (*model.Todo, error)
	DeleteTodo(ctx context.Context, userID, id string) error
	GetTodoByID(ctx context.Context, userID, id string) (*model.Todo, error)
	GetTodos(ctx context.Context, userID string, filter TodoFilter) ([]model.Todo, error)
	CountTodos(ctx context.Context, userID string, filter TodoFilter) (int, error)
	ReorderTodos(ctx context.Context, userID string, assignments []SequenceAssignment) (int, error)
	SetTodoTags(ctx context.Context, userID, todoID string, tagIDs []string) error

	// === Subtasks ===

	CreateSubtask(ctx context.Context, sub model.Subtask) (*model.Subtask, error)
	UpdateSubtaskTitle(ctx context.Context, id, title string) (*model.Subtask, error)
	UpdateSubtaskStatus(ctx context.Context, id string, status model.Status) (*model.Subtask, error)
	DeleteSubtask(ctx context.Context, id string) error
	GetSubtaskByID(ctx context.Context, id string) (*model.Subtask, error)
	GetSubtasks(ctx context.Context, todoID string) ([]model.Subtask, error)
	ReorderSubtasks(ctx context.Context, todoID string, assignments []SequenceAssignment) ([]model.Subtask, error)

	// === Categories ===

	CreateCategory(ctx context.Context, cat model.Category) (*model.Category, error)
	UpdateCategory(ctx context.Context, cat model.Category) error
	DeleteCategory(ctx context.Context, userID, id string) error
	GetCategories(ctx context.Context, userID string) ([]model.Category, error)

	// === Tags ===

	CreateTag(ctx context.Context, tag model.Tag) (*model.Tag, error)
	UpdateTag(ctx context.Context, tag model.Tag) error
	DeleteTag(ctx context.Context, userID, id string) error
	GetTags(ctx context.Context, userID string) ([]model.Tag, error)
	GetTagsForTodo(ctx context.Context, todoID string) ([]model.Tag, error)

	// === Refresh tokens ===

	CreateRefreshToken(ctx context.Context, token model.RefreshToken) error
	GetRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error)
	BlacklistRefreshToken(ctx context.Context, token string) (bool, error)
	BlacklistAllForUser(ctx context.Context, userID string) (int64, error)
	DeleteStaleRefreshTokens(ctx context.Context, before time.Time) (int64, error)
}
