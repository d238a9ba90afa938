package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"todoservice/internal/repository"
	"todoservice/internal/service"
)

type TodoHandler struct {
	svc    *service.TodoService
	logger *zap.Logger
}

func NewTodoHandler(svc *service.TodoService, logger *zap.Logger) *TodoHandler {
	return &TodoHandler{svc: svc, logger: logger}
}

// ListTodos handles GET /todos.
func (h *TodoHandler) ListTodos(c *gin.Context) {
	todos, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.logger.Error("ListTodos: failed to fetch todos", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch todos"})
		return
	}
	c.JSON(http.StatusOK, todos)
}

// CreateTodo handles POST /todos.
func (h *TodoHandler) CreateTodo(c *gin.Context) {
	var in service.CreateTodoInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.logger.Warn("CreateTodo: malformed request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	created, err := h.svc.Create(c.Request.Context(), in)
	if isValidationError(err) {
		h.logger.Warn("CreateTodo: validation failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("CreateTodo: failed to create todo", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create todo"})
		return
	}

	h.logger.Info("CreateTodo: success", zap.Int("todo_id", created.ID))
	c.JSON(http.StatusCreated, created)
}

// ToggleTodo handles PUT /todos/:id. Toggling is the only update.
func (h *TodoHandler) ToggleTodo(c *gin.Context) {
	id, ok := h.todoID(c)
	if !ok {
		return
	}

	t, err := h.svc.Toggle(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "todo not found"})
		return
	}
	if err != nil {
		h.logger.Error("ToggleTodo: failed to toggle todo",
			zap.Int("todo_id", id),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to toggle todo"})
		return
	}

	h.logger.Info("ToggleTodo: success",
		zap.Int("todo_id", id),
		zap.Bool("completed", t.Completed),
	)
	c.JSON(http.StatusOK, t)
}

// DeleteTodo handles DELETE /todos/:id.
func (h *TodoHandler) DeleteTodo(c *gin.Context) {
	id, ok := h.todoID(c)
	if !ok {
		return
	}

	err := h.svc.Delete(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "todo not found"})
		return
	}
	if err != nil {
		h.logger.Error("DeleteTodo: failed to delete todo",
			zap.Int("todo_id", id),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete todo"})
		return
	}

	h.logger.Info("DeleteTodo: success", zap.Int("todo_id", id))
	c.JSON(http.StatusOK, gin.H{"message": "todo deleted successfully"})
}

// ListCategories handles GET /categories.
func (h *TodoHandler) ListCategories(c *gin.Context) {
	categories, err := h.svc.Categories(c.Request.Context())
	if err != nil {
		h.logger.Error("ListCategories: failed to fetch categories", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch categories"})
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *TodoHandler) todoID(c *gin.Context) (int, bool) {
	idStr := c.Param("id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		h.logger.Warn("invalid todo id", zap.String("id", idStr))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid todo id"})
		return 0, false
	}
	return id, true
}

func isValidationError(err error) bool {
	return errors.Is(err, service.ErrEmptyTask) ||
		errors.Is(err, service.ErrInvalidPriority) ||
		errors.Is(err, service.ErrInvalidRecurrence) ||
		errors.Is(err, service.ErrInvalidDueDate)
}
