package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sanathshetty444/todoer/internal/auth"
	"github.com/sanathshetty444/todoer/internal/model"
	"github.com/sanathshetty444/todoer/internal/store"
)

type createSubtaskRequest struct {
	Title  string       `json:"title" binding:"required"`
	Status model.Status `json:"status"`
}

type updateSubtaskRequest struct {
	Title string `json:"title" binding:"required"`
}

type subtaskStatusRequest struct {
	Status model.Status `json:"status" binding:"required"`
}

type reorderSubtasksRequest struct {
	TodoID   string                     `json:"todo_id" binding:"required"`
	Subtasks []store.SequenceAssignment `json:"subtasks" binding:"required"`
}

func (s *Server) listSubtasks(c *gin.Context) {
	todo, err := s.ownedTodo(c, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subtasks": todo.Subtasks})
}

func (s *Server) createSubtask(c *gin.Context) {
	var req createSubtaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	todo, err := s.ownedTodo(c, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	sub, err := s.store.CreateSubtask(c.Request.Context(), model.Subtask{
		TodoID: todo.ID,
		Title:  req.Title,
		Status: req.Status,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"subtask": sub})
}

func (s *Server) updateSubtask(c *gin.Context) {
	var req updateSubtaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := s.ownedSubtask(c, c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}

	sub, err := s.store.UpdateSubtaskTitle(c.Request.Context(), c.Param("id"), req.Title)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subtask": sub})
}

// updateSubtaskStatus mutates a subtask's status; the store rolls the
// parent todo's status up in the same transaction.
func (s *Server) updateSubtaskStatus(c *gin.Context) {
	var req subtaskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !model.ValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	if _, err := s.ownedSubtask(c, c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}

	sub, err := s.store.UpdateSubtaskStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subtask": sub})
}

func (s *Server) deleteSubtask(c *gin.Context) {
	if _, err := s.ownedSubtask(c, c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}

	if err := s.store.DeleteSubtask(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "subtask deleted"})
}

// reorderSubtasks atomically rewrites the sequence of the listed
// subtasks within one todo and returns the full reordered list.
func (s *Server) reorderSubtasks(c *gin.Context) {
	var req reorderSubtasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := s.ownedTodo(c, req.TodoID); err != nil {
		s.fail(c, err)
		return
	}

	subs, err := s.store.ReorderSubtasks(c.Request.Context(), req.TodoID, req.Subtasks)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subtasks": subs})
}

// ownedTodo loads a todo scoped to the authenticated user. Todos owned
// by other users are indistinguishable from missing ones.
func (s *Server) ownedTodo(c *gin.Context, todoID string) (*model.Todo, error) {
	return s.store.GetTodoByID(c.Request.Context(), auth.UserID(c), todoID)
}

// ownedSubtask loads a subtask and verifies the parent todo belongs to
// the authenticated user.
func (s *Server) ownedSubtask(c *gin.Context, subtaskID string) (*model.Subtask, error) {
	sub, err := s.store.GetSubtaskByID(c.Request.Context(), subtaskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedTodo(c, sub.TodoID); err != nil {
		return nil, err
	}
	return sub, nil
}
