package client

import (
	"context"
	"net/http"
	"time"
)

// User mirrors the server's user representation.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Todo mirrors the server's todo representation. Completed is derived
// server-side from the status enum.
type Todo struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Favorite    bool      `json:"favorite"`
	Sequence    int       `json:"sequence"`
	CategoryID  *string   `json:"category_id,omitempty"`
	Completed   bool      `json:"completed"`
	Tags        []Tag     `json:"tags,omitempty"`
	Subtasks    []Subtask `json:"subtasks,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Subtask mirrors the server's subtask representation.
type Subtask struct {
	ID        string    `json:"id"`
	TodoID    string    `json:"todo_id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	Sequence  int       `json:"sequence"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tag mirrors the server's tag representation.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SequenceAssignment is one entry of a bulk reorder request.
type SequenceAssignment struct {
	ID       string `json:"id"`
	Sequence int    `json:"sequence"`
}

// Register creates an account and stores the returned token pair.
func (c *Client) Register(ctx context.Context, email, name, password string) (*User, error) {
	var resp struct {
		User        User   `json:"user"`
		AccessToken string `json:"accessToken"`
	}
	err := c.Do(ctx, http.MethodPost, "/api/auth/register", map[string]string{
		"email": email, "name": name, "password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	c.SetTokens(resp.AccessToken, c.refreshTokenValue())
	return &resp.User, nil
}

// Login authenticates and stores the returned access token. The refresh
// token arrives as an HTTP-only cookie when a cookie jar is configured;
// callers using header transport should pass it to SetTokens.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var resp struct {
		User        User   `json:"user"`
		AccessToken string `json:"accessToken"`
	}
	err := c.Do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email": email, "password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	c.SetTokens(resp.AccessToken, c.refreshTokenValue())
	return &resp.User, nil
}

// Logout revokes the stored refresh token server-side and clears local
// credentials. It never fails from the caller's perspective once the
// server answers.
func (c *Client) Logout(ctx context.Context) error {
	_, refresh := c.currentTokens()
	err := c.Do(ctx, http.MethodPost, "/api/auth/logout", map[string]string{
		"refreshToken": refresh,
	}, nil)
	c.clearTokens()
	return err
}

// Todos lists the user's todos.
func (c *Client) Todos(ctx context.Context) ([]Todo, error) {
	var resp struct {
		Todos []Todo `json:"todos"`
	}
	if err := c.Do(ctx, http.MethodGet, "/api/todos", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Todos, nil
}

// CreateTodo creates a todo with the given title.
func (c *Client) CreateTodo(ctx context.Context, title, description string) (*Todo, error) {
	var resp struct {
		Todo Todo `json:"todo"`
	}
	err := c.Do(ctx, http.MethodPost, "/api/todos", map[string]string{
		"title": title, "description": description,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.Todo, nil
}

// ReorderTodos rewrites the sequence values of the listed todos.
func (c *Client) ReorderTodos(ctx context.Context, orders []SequenceAssignment) (int, error) {
	var resp struct {
		UpdatedCount int `json:"updated_count"`
	}
	err := c.Do(ctx, http.MethodPut, "/api/todos/reorder", map[string]interface{}{
		"todo_orders": orders,
	}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.UpdatedCount, nil
}

// CreateSubtask adds a subtask to a todo.
func (c *Client) CreateSubtask(ctx context.Context, todoID, title string) (*Subtask, error) {
	var resp struct {
		Subtask Subtask `json:"subtask"`
	}
	err := c.Do(ctx, http.MethodPost, "/api/todos/"+todoID+"/subtasks", map[string]string{
		"title": title,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.Subtask, nil
}

// SetSubtaskStatus updates a subtask's status; the parent todo's status
// is recomputed server-side.
func (c *Client) SetSubtaskStatus(ctx context.Context, subtaskID, status string) (*Subtask, error) {
	var resp struct {
		Subtask Subtask `json:"subtask"`
	}
	err := c.Do(ctx, http.MethodPut, "/api/subtasks/"+subtaskID+"/status", map[string]string{
		"status": status,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.Subtask, nil
}

// ReorderSubtasks rewrites the sequence values of the listed subtasks
// within one todo and returns the full reordered list.
func (c *Client) ReorderSubtasks(ctx context.Context, todoID string, orders []SequenceAssignment) ([]Subtask, error) {
	var resp struct {
		Subtasks []Subtask `json:"subtasks"`
	}
	err := c.Do(ctx, http.MethodPut, "/api/subtasks/reorder", map[string]interface{}{
		"todo_id": todoID, "subtasks": orders,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Subtasks, nil
}

func (c *Client) refreshTokenValue() string {
	_, refresh := c.currentTokens()
	return refresh
}
