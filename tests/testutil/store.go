package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sanathshetty444/todoer/internal/model"
	"github.com/sanathshetty444/todoer/internal/store"
)

// NewTestStore creates a SQLiteStore backed by a file in a per-test temp
// directory, with all migrations applied. The store is closed when the
// test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "todoer_test.db"))
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// CreateTestUser inserts a user with a fixed password hash and returns it.
func CreateTestUser(t *testing.T, s store.Store, email string) *model.User {
	t.Helper()

	user, err := s.CreateUser(context.Background(), model.User{
		Email:        email,
		Name:         "Test User",
		PasswordHash: "$2a$10$testhashnotverifiedbythestorelayer",
	})
	if err != nil {
		t.Fatalf("creating test user: %v", err)
	}
	return user
}

// CreateTestTodo inserts a todo for the user and returns it.
func CreateTestTodo(t *testing.T, s store.Store, userID, title string) *model.Todo {
	t.Helper()

	todo, err := s.CreateTodo(context.Background(), model.Todo{
		UserID: userID,
		Title:  title,
	})
	if err != nil {
		t.Fatalf("creating test todo: %v", err)
	}
	return todo
}
