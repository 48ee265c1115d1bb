package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sanathshetty444/todoer/internal/auth"
	"github.com/sanathshetty444/todoer/internal/model"
	"github.com/sanathshetty444/todoer/internal/store"
)

// todoResponse adds the view-only completed flag derived from the status
// enum. The flag is never stored.
type todoResponse struct {
	model.Todo
	Completed bool `json:"completed"`
}

func toTodoResponse(t model.Todo) todoResponse {
	return todoResponse{Todo: t, Completed: t.Completed()}
}

func toTodoResponses(todos []model.Todo) []todoResponse {
	out := make([]todoResponse, 0, len(todos))
	for _, t := range todos {
		out = append(out, toTodoResponse(t))
	}
	return out
}

type createTodoRequest struct {
	Title       string       `json:"title" binding:"required"`
	Description string       `json:"description"`
	Status      model.Status `json:"status"`
	Favorite    bool         `json:"favorite"`
	CategoryID  *string      `json:"category_id"`
	TagIDs      []string     `json:"tag_ids"`
}

type updateTodoRequest struct {
	Title       *string       `json:"title"`
	Description *string       `json:"description"`
	Status      *model.Status `json:"status"`
	Favorite    *bool         `json:"favorite"`
	CategoryID  *string       `json:"category_id"`
}

type reorderTodosRequest struct {
	TodoOrders []store.SequenceAssignment `json:"todo_orders" binding:"required"`
}

type setTagsRequest struct {
	TagIDs []string `json:"tag_ids"`
}

func (s *Server) listTodos(c *gin.Context) {
	userID := auth.UserID(c)
	filter := todoFilterFromQuery(c)

	todos, err := s.store.GetTodos(c.Request.Context(), userID, filter)
	if err != nil {
		s.fail(c, err)
		return
	}
	total, err := s.store.CountTodos(c.Request.Context(), userID, filter)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"todos": toTodoResponses(todos), "total": total})
}

func (s *Server) createTodo(c *gin.Context) {
	var req createTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	todo, err := s.store.CreateTodo(c.Request.Context(), model.Todo{
		UserID:      auth.UserID(c),
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Favorite:    req.Favorite,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	if len(req.TagIDs) > 0 {
		if err := s.store.SetTodoTags(c.Request.Context(), auth.UserID(c), todo.ID, req.TagIDs); err != nil {
			s.fail(c, err)
			return
		}
		todo, err = s.store.GetTodoByID(c.Request.Context(), auth.UserID(c), todo.ID)
		if err != nil {
			s.fail(c, err)
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{"todo": toTodoResponse(*todo)})
}

func (s *Server) getTodo(c *gin.Context) {
	todo, err := s.store.GetTodoByID(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"todo": toTodoResponse(*todo)})
}

func (s *Server) updateTodo(c *gin.Context) {
	userID := auth.UserID(c)

	existing, err := s.store.GetTodoByID(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	var req updateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Title != nil {
		existing.Title = *req.Title
	}
	if req.Description != nil {
		existing.Description = *req.Description
	}
	if req.Status != nil {
		existing.Status = *req.Status
	}
	if req.Favorite != nil {
		existing.Favorite = *req.Favorite
	}
	if req.CategoryID != nil {
		if *req.CategoryID == "" {
			existing.CategoryID = nil
		} else {
			existing.CategoryID = req.CategoryID
		}
	}

	updated, err := s.store.UpdateTodo(c.Request.Context(), userID, *existing)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"todo": toTodoResponse(*updated)})
}

func (s *Server) deleteTodo(c *gin.Context) {
	if err := s.store.DeleteTodo(c.Request.Context(), auth.UserID(c), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "todo deleted"})
}

// reorderTodos atomically rewrites the sequence of the listed todos.
// Todos not mentioned keep their sequence.
func (s *Server) reorderTodos(c *gin.Context) {
	var req reorderTodosRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	count, err := s.store.ReorderTodos(c.Request.Context(), auth.UserID(c), req.TodoOrders)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated_count": count})
}

func (s *Server) setTodoTags(c *gin.Context) {
	var req setTagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := auth.UserID(c)
	todoID := c.Param("id")

	if err := s.store.SetTodoTags(c.Request.Context(), userID, todoID, req.TagIDs); err != nil {
		s.fail(c, err)
		return
	}

	todo, err := s.store.GetTodoByID(c.Request.Context(), userID, todoID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"todo": toTodoResponse(*todo)})
}

// todoFilterFromQuery translates list query params into a TodoFilter.
func todoFilterFromQuery(c *gin.Context) store.TodoFilter {
	var filter store.TodoFilter

	if v := c.Query("status"); v != "" {
		status := model.Status(v)
		filter.Status = &status
	}
	if v := c.Query("category_id"); v != "" {
		filter.CategoryID = &v
	}
	if ids := c.QueryArray("tag_id"); len(ids) > 0 {
		filter.TagIDs = ids
	}
	if v := c.Query("q"); v != "" {
		filter.Query = &v
	}
	if v := c.Query("favorite"); v != "" {
		fav := v == "true" || v == "1"
		filter.Favorite = &fav
	}
	filter.SortBy = c.Query("sort_by")
	filter.SortDesc = c.Query("order") == "desc"
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		filter.Limit = v
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v > 0 {
		filter.Offset = v
	}

	return filter
}
