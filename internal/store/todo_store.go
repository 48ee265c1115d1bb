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

// CreateTodo inserts a new todo. Generates a UUID if ID is empty and
// assigns the next sequence value within the owner's scope.
//
// The max-then-insert sequence read is deliberately not lock-protected:
// two concurrent creates for the same user may compute the same value.
// Sequence is a sort hint, ties are broken by created_at.
func (s *SQLiteStore) CreateTodo(ctx context.Context, todo model.Todo) (*model.Todo, error) {
	if strings.TrimSpace(todo.Title) == "" {
		return nil, fmt.Errorf("%w: todo title must not be empty", ErrInvalidInput)
	}
	if todo.ID == "" {
		todo.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	todo.CreatedAt = now
	todo.UpdatedAt = now
	if todo.Status == "" {
		todo.Status = model.StatusNotStarted
	}
	if !model.ValidStatus(todo.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, todo.Status)
	}

	if todo.Sequence == 0 {
		next, err := s.nextTodoSequence(ctx, todo.UserID)
		if err != nil {
			return nil, err
		}
		todo.Sequence = next
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO todos (
			id, user_id, title, description, status, favorite,
			sequence, category_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		todo.ID, todo.UserID, todo.Title, todo.Description, todo.Status,
		boolToInt(todo.Favorite), todo.Sequence, todo.CategoryID,
		todo.CreatedAt, todo.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating todo: %w", err)
	}
	return &todo, nil
}

// nextTodoSequence returns max(sequence)+1 within the user's scope,
// treating an empty scope as 0.
func (s *SQLiteStore) nextTodoSequence(ctx context.Context, userID string) (int, error) {
	var maxSeq int
	err := s.db.GetContext(ctx, &maxSeq,
		"SELECT COALESCE(MAX(sequence), 0) FROM todos WHERE user_id = ?", userID)
	if err != nil {
		return 0, fmt.Errorf("getting max todo sequence: %w", err)
	}
	return maxSeq + 1, nil
}

// UpdateTodo updates an existing todo's fields. A directly written status
// persists until the next subtask mutation recomputes it.
func (s *SQLiteStore) UpdateTodo(ctx context.Context, userID string, todo model.Todo) (*model.Todo, error) {
	if strings.TrimSpace(todo.Title) == "" {
		return nil, fmt.Errorf("%w: todo title must not be empty", ErrInvalidInput)
	}
	if !model.ValidStatus(todo.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, todo.Status)
	}
	todo.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE todos SET
			title = ?, description = ?, status = ?, favorite = ?,
			category_id = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		todo.Title, todo.Description, todo.Status, boolToInt(todo.Favorite),
		todo.CategoryID, todo.UpdatedAt,
		todo.ID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating todo %s: %w", todo.ID, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, fmt.Errorf("todo %s: %w", todo.ID, ErrNotFound)
	}

	return s.GetTodoByID(ctx, userID, todo.ID)
}

// DeleteTodo removes a todo owned by the user. Cascades to subtasks and
// tag associations.
func (s *SQLiteStore) DeleteTodo(ctx context.Context, userID, id string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM todos WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("deleting todo %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("todo %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetTodoByID retrieves a single todo owned by the user, including its
// tags and subtasks.
func (s *SQLiteStore) GetTodoByID(ctx context.Context, userID, id string) (*model.Todo, error) {
	row := s.db.QueryRowxContext(ctx,
		"SELECT * FROM todos WHERE id = ? AND user_id = ?", id, userID)

	todo, err := scanTodo(row)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("todo %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("getting todo %s: %w", id, err)
	}

	tags, err := s.GetTagsForTodo(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading tags for todo %s: %w", id, err)
	}
	todo.Tags = tags

	subtasks, err := s.GetSubtasks(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading subtasks for todo %s: %w", id, err)
	}
	todo.Subtasks = subtasks

	return &todo, nil
}

// GetTodos retrieves the user's todos matching the filter, tags included.
func (s *SQLiteStore) GetTodos(ctx context.Context, userID string, filter TodoFilter) ([]model.Todo, error) {
	query, args := buildTodoQuery("SELECT todos.*", userID, filter, false)

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying todos: %w", err)
	}
	defer rows.Close()

	var todos []model.Todo
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range todos {
		tags, err := s.GetTagsForTodo(ctx, todos[i].ID)
		if err != nil {
			return nil, fmt.Errorf("loading tags for todo %s: %w", todos[i].ID, err)
		}
		todos[i].Tags = tags
	}

	return todos, nil
}

// CountTodos returns the count of the user's todos matching the filter.
func (s *SQLiteStore) CountTodos(ctx context.Context, userID string, filter TodoFilter) (int, error) {
	query, args := buildTodoQuery("SELECT COUNT(DISTINCT todos.id)", userID, filter, true)

	var count int
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("counting todos: %w", err)
	}
	return count, nil
}

// ReorderTodos overwrites the sequence of the listed todos in one
// all-or-nothing transaction. Every id must belong to the user; any
// foreign id fails the whole batch with a MembershipError. Todos not
// mentioned keep their sequence; no compaction is performed.
func (s *SQLiteStore) ReorderTodos(ctx context.Context, userID string, assignments []SequenceAssignment) (int, error) {
	if err := validateAssignments(assignments); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := checkMembership(ctx, tx, "todos", "user_id", userID, assignments); err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	for _, a := range assignments {
		if _, err := tx.ExecContext(ctx,
			"UPDATE todos SET sequence = ?, updated_at = ? WHERE id = ? AND user_id = ?",
			a.Sequence, now, a.ID, userID); err != nil {
			return 0, fmt.Errorf("reordering todo %s: %w", a.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing reorder: %w", err)
	}
	return len(assignments), nil
}

// SetTodoTags replaces all tag associations for a todo owned by the user.
func (s *SQLiteStore) SetTodoTags(ctx context.Context, userID, todoID string, tagIDs []string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var owned int
	err = tx.GetContext(ctx, &owned,
		"SELECT COUNT(*) FROM todos WHERE id = ? AND user_id = ?", todoID, userID)
	if err != nil {
		return fmt.Errorf("checking todo %s: %w", todoID, err)
	}
	if owned == 0 {
		return fmt.Errorf("todo %s: %w", todoID, ErrNotFound)
	}

	// Remove existing associations.
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM todo_tags WHERE todo_id = ?", todoID); err != nil {
		return fmt.Errorf("clearing todo tags: %w", err)
	}

	// Insert new associations.
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO todo_tags (todo_id, tag_id) VALUES (?, ?)",
			todoID, tagID); err != nil {
			return fmt.Errorf("setting tag %s on todo %s: %w", tagID, todoID, err)
		}
	}

	return tx.Commit()
}

// checkMembership verifies inside the transaction that every assignment
// id exists in the named table under the given scope column and value.
// Offending ids are reported together; the caller rolls back.
func checkMembership(ctx context.Context, tx *sqlx.Tx, table, scopeCol, scopeVal string, assignments []SequenceAssignment) error {
	ids := make([]string, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.ID)
	}

	query, args, err := sqlx.In(
		"SELECT id FROM "+table+" WHERE "+scopeCol+" = ? AND id IN (?)",
		scopeVal, ids)
	if err != nil {
		return fmt.Errorf("building membership query: %w", err)
	}

	rows, err := tx.QueryxContext(ctx, tx.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("checking membership in %s: %w", table, err)
	}
	defer rows.Close()

	found := make(map[string]bool, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scanning membership row: %w", err)
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	var missing []string
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !found[id] && !seen[id] {
			missing = append(missing, id)
			seen[id] = true
		}
	}
	if len(missing) > 0 {
		return &MembershipError{IDs: missing}
	}
	return nil
}

// buildTodoQuery constructs the SQL query and args for a user-scoped
// TodoFilter. Count queries skip grouping, ordering, and pagination;
// COUNT(DISTINCT) already absorbs duplicate join rows.
func buildTodoQuery(selectClause, userID string, filter TodoFilter, forCount bool) (string, []interface{}) {
	conditions := []string{"todos.user_id = ?"}
	args := []interface{}{userID}
	needsTagJoin := len(filter.TagIDs) > 0

	from := " FROM todos"
	if needsTagJoin {
		from += " INNER JOIN todo_tags ON todos.id = todo_tags.todo_id"
	}

	if filter.Status != nil {
		conditions = append(conditions, "todos.status = ?")
		args = append(args, *filter.Status)
	}
	if filter.Favorite != nil {
		conditions = append(conditions, "todos.favorite = ?")
		args = append(args, boolToInt(*filter.Favorite))
	}
	if filter.CategoryID != nil {
		if *filter.CategoryID == "none" {
			conditions = append(conditions, "todos.category_id IS NULL")
		} else {
			conditions = append(conditions, "todos.category_id = ?")
			args = append(args, *filter.CategoryID)
		}
	}
	if len(filter.TagIDs) > 0 {
		placeholders := make([]string, len(filter.TagIDs))
		for i, id := range filter.TagIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		conditions = append(conditions,
			"todo_tags.tag_id IN ("+strings.Join(placeholders, ", ")+")")
	}
	if filter.Query != nil && *filter.Query != "" {
		conditions = append(conditions,
			"(todos.title LIKE ? OR todos.description LIKE ?)")
		q := "%" + *filter.Query + "%"
		args = append(args, q, q)
	}

	query := selectClause + from + " WHERE " + strings.Join(conditions, " AND ")

	if forCount {
		return query, args
	}

	if needsTagJoin {
		query += " GROUP BY todos.id"
	}

	// Sort. Sequence ties break by creation time, newest first.
	sortBy := "todos.sequence"
	if filter.SortBy != "" {
		allowed := map[string]string{
			"sequence":   "todos.sequence",
			"created_at": "todos.created_at",
			"updated_at": "todos.updated_at",
			"title":      "todos.title",
		}
		if col, ok := allowed[filter.SortBy]; ok {
			sortBy = col
		}
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", sortBy, direction)
	if sortBy == "todos.sequence" {
		query += ", todos.created_at DESC"
	}

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	return query, args
}

// scanTodo scans a todo row from sqlx.Rows or sqlx.Row.
func scanTodo(row interface{ Scan(dest ...interface{}) error }) (model.Todo, error) {
	var (
		todo       model.Todo
		favorite   int
		categoryID *string
	)

	err := row.Scan(
		&todo.ID, &todo.UserID, &todo.Title, &todo.Description, &todo.Status,
		&favorite, &todo.Sequence, &categoryID,
		&todo.CreatedAt, &todo.UpdatedAt,
	)
	if err != nil {
		return model.Todo{}, err
	}

	todo.Favorite = favorite != 0
	todo.CategoryID = categoryID

	return todo, nil
}
