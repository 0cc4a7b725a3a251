package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ntuon/taskapp/internal/database/models"
	"github.com/ntuon/taskapp/internal/database/repository"
	"github.com/ntuon/taskapp/internal/database/service"
	"github.com/ntuon/taskapp/internal/middleware"
)

// defaultPageSize is applied when no limit query parameter is given.
const defaultPageSize = 10

// TaskHandler handles HTTP requests for tasks
type TaskHandler struct {
	service service.TaskService
	logger  *slog.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(service service.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		service: service,
		logger:  logger,
	}
}

type CreateTaskRequest struct {
	Description string `json:"description" binding:"required"`
	Completed   bool   `json:"completed"`
}

// updatableTaskFields is the allow-list for task updates.
var updatableTaskFields = map[string]bool{
	"description": true,
	"completed":   true,
}

// Create handles POST /tasks. The author is always the caller; any
// client-supplied author value is ignored.
func (h *TaskHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("⚠️ [TaskHandler] Invalid create request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Description is required"})
		return
	}

	task, err := h.service.Create(user.ID, req.Description, req.Completed)
	if err != nil {
		h.handleTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, task)
}

// List handles GET /tasks with optional completed, limit, page and sortBy
// query parameters.
//
//	GET /tasks?completed=true
//	GET /tasks?limit=10&page=1
//	GET /tasks?sortBy=createdAt:desc
func (h *TaskHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)

	opts := repository.ListOptions{Limit: defaultPageSize}

	if completedStr := c.Query("completed"); completedStr != "" {
		completed := completedStr == "true"
		opts.Completed = &completed
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			opts.Limit = limit
		}
	}

	if pageStr := c.Query("page"); pageStr != "" {
		if page, err := strconv.Atoi(pageStr); err == nil && page > 1 {
			opts.Offset = opts.Limit * (page - 1)
		}
	}

	if sortBy := c.Query("sortBy"); sortBy != "" {
		parts := strings.SplitN(sortBy, ":", 2)
		opts.SortField = parts[0]
		opts.SortDesc = len(parts) == 2 && parts[1] == "desc"
	}

	tasks, err := h.service.List(user.ID, opts)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	// Always a JSON array, never null
	if tasks == nil {
		tasks = []models.Task{}
	}
	c.JSON(http.StatusOK, tasks)
}

// Get handles GET /tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	user := middleware.CurrentUser(c)

	id, ok := h.taskID(c)
	if !ok {
		return
	}

	task, err := h.service.Get(user.ID, id)
	if err != nil {
		h.handleTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// Update handles PATCH /tasks/:id. Only description and completed may
// change.
func (h *TaskHandler) Update(c *gin.Context) {
	user := middleware.CurrentUser(c)

	id, ok := h.taskID(c)
	if !ok {
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid update"})
		return
	}

	if len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid update"})
		return
	}
	for field, value := range fields {
		if !updatableTaskFields[field] || bytes.Equal(value, jsonNull) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid update"})
			return
		}
	}

	var upd struct {
		Description *string `json:"description"`
		Completed   *bool   `json:"completed"`
	}
	if err := json.Unmarshal(body, &upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid update"})
		return
	}

	task, err := h.service.Update(user.ID, id, service.TaskUpdate{
		Description: upd.Description,
		Completed:   upd.Completed,
	})
	if err != nil {
		h.handleTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// Delete handles DELETE /tasks/:id and returns the deleted task
func (h *TaskHandler) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)

	id, ok := h.taskID(c)
	if !ok {
		return
	}

	task, err := h.service.Delete(user.ID, id)
	if err != nil {
		h.handleTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// taskID parses the :id path parameter, rejecting malformed ids before any
// query runs.
func (h *TaskHandler) taskID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Incorrect format for an ID"})
		return uuid.Nil, false
	}
	return id, true
}

// handleTaskError maps service errors to HTTP responses
func (h *TaskHandler) handleTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrTaskNotFound):
		c.Status(http.StatusNotFound)
	case errors.Is(err, models.ErrDescriptionRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("❌ [TaskHandler] Internal server error", "error", err)
		c.Status(http.StatusInternalServerError)
	}
}
