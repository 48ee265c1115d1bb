// Package api exposes the HTTP surface: auth, todos, subtasks,
// categories, and tags.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/sanathshetty444/todoer/internal/auth"
	"github.com/sanathshetty444/todoer/internal/model"
	"github.com/sanathshetty444/todoer/internal/store"
)

// Server wires the store and token manager into gin handlers.
type Server struct {
	store  store.Store
	auth   *auth.Manager
	cfg    model.AuthConfig
	logger *log.Logger
}

// NewServer builds a Server. Dependencies are injected; the server holds
// no ambient global state.
func NewServer(s store.Store, m *auth.Manager, cfg model.AuthConfig, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{store: s, auth: m, cfg: cfg, logger: logger}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", s.register)
		authGroup.POST("/login", s.login)
		authGroup.POST("/logout", s.logout)
		authGroup.GET("/access-token", s.accessToken)
	}

	protected := api.Group("/")
	protected.Use(auth.Middleware(s.auth))
	{
		todos := protected.Group("/todos")
		{
			todos.GET("", s.listTodos)
			todos.POST("", s.createTodo)
			todos.PUT("/reorder", s.reorderTodos)
			todos.GET("/:id", s.getTodo)
			todos.PUT("/:id", s.updateTodo)
			todos.DELETE("/:id", s.deleteTodo)
			todos.PUT("/:id/tags", s.setTodoTags)
			todos.GET("/:id/subtasks", s.listSubtasks)
			todos.POST("/:id/subtasks", s.createSubtask)
		}

		subtasks := protected.Group("/subtasks")
		{
			subtasks.PUT("/reorder", s.reorderSubtasks)
			subtasks.PUT("/:id", s.updateSubtask)
			subtasks.PUT("/:id/status", s.updateSubtaskStatus)
			subtasks.DELETE("/:id", s.deleteSubtask)
		}

		categories := protected.Group("/categories")
		{
			categories.GET("", s.listCategories)
			categories.POST("", s.createCategory)
			categories.PUT("/:id", s.updateCategory)
			categories.DELETE("/:id", s.deleteCategory)
		}

		tags := protected.Group("/tags")
		{
			tags.GET("", s.listTags)
			tags.POST("", s.createTag)
			tags.PUT("/:id", s.updateTag)
			tags.DELETE("/:id", s.deleteTag)
		}
	}

	return r
}

// requestLogger logs method, path, status, and latency per request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// fail maps store errors onto HTTP statuses. Membership mismatches are
// hidden-by-design and reported as not found.
func (s *Server) fail(c *gin.Context, err error) {
	var membership *store.MembershipError
	switch {
	case errors.Is(err, store.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &membership):
		c.JSON(http.StatusNotFound, gin.H{"error": membership.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrDuplicateName):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		s.logger.Error("request failed", "path", c.Request.URL.Path, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
