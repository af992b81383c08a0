package handlers

import (
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/taskboard/taskboard/internal/dto"
	"github.com/taskboard/taskboard/internal/errors"
	"github.com/taskboard/taskboard/internal/models"
	"github.com/taskboard/taskboard/internal/repository"
	"github.com/taskboard/taskboard/internal/services"
	"github.com/taskboard/taskboard/pkg/logger"
)

type TaskHandler struct {
	service *services.TaskService
}

func NewTaskHandler(service *services.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// CreateTask creates a new task, upserting the embedded users by email
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req dto.TaskCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDateUTC,
		Priority:    models.TaskPriority(req.Priority),
		Status:      models.TaskStatus(req.Status),
		Owner: services.UserInput{
			FullName:  req.Owner.FullName,
			Email:     req.Owner.Email,
			Telephone: req.Owner.Telephone,
		},
	}
	if req.Assignee != nil {
		input.Assignee = &services.UserInput{
			FullName:  req.Assignee.FullName,
			Email:     req.Assignee.Email,
			Telephone: req.Assignee.Telephone,
		}
	}

	task, err := h.service.CreateTask(c.Request.Context(), input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskResponse(*task))
}

// GetTask returns a task by id
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, err := h.service.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskResponse(*task))
}

// ListTasks returns a filtered, sorted, paginated listing
func (h *TaskHandler) ListTasks(c *gin.Context) {
	filter, ok := h.parseListFilter(c)
	if !ok {
		return
	}

	tasks, total, err := h.service.ListTasks(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	filter.Normalize()
	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, filter.Page, filter.PageSize, total))
}

// UpdateTask applies the fields present in the body under the If-Match
// version token; absent fields are left unchanged
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	version, ok := h.requireVersion(c)
	if !ok {
		return
	}

	var req dto.TaskUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDateUTC,
		AssigneeID:  req.AssignedUserID,
	}
	if req.Priority != nil {
		p := models.TaskPriority(*req.Priority)
		input.Priority = &p
	}
	if req.Status != nil {
		s := models.TaskStatus(*req.Status)
		input.Status = &s
	}

	task, err := h.service.UpdateTask(c.Request.Context(), c.Param("id"), input, version)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskResponse(*task))
}

// UpdateTaskStatus changes only the status under the If-Match version token
func (h *TaskHandler) UpdateTaskStatus(c *gin.Context) {
	version, ok := h.requireVersion(c)
	if !ok {
		return
	}

	var req dto.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.service.UpdateTaskStatus(c.Request.Context(), c.Param("id"), models.TaskStatus(req.Status), version)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskResponse(*task))
}

// UpdateTaskAssignee sets or clears the assignee under the If-Match version token
func (h *TaskHandler) UpdateTaskAssignee(c *gin.Context) {
	version, ok := h.requireVersion(c)
	if !ok {
		return
	}

	var req dto.AssigneeUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.service.UpdateTaskAssignee(c.Request.Context(), c.Param("id"), req.AssignedUserID, version)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskResponse(*task))
}

// DeleteTask removes a task. No If-Match; delete is absolute.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	if err := h.service.DeleteTask(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// requireVersion extracts the stored version token from If-Match.
func (h *TaskHandler) requireVersion(c *gin.Context) (string, bool) {
	header := c.GetHeader("If-Match")
	if header == "" {
		errors.BadRequest(c, "If-Match header is required",
			errors.FieldError{Field: "If-Match", Message: "missing conditional-request header"})
		return "", false
	}

	version, err := dto.DecodeVersion(header)
	if err != nil || version == "" {
		errors.BadRequest(c, "If-Match header is malformed",
			errors.FieldError{Field: "If-Match", Message: "expected base64-encoded version token"})
		return "", false
	}

	return version, true
}

func (h *TaskHandler) parseListFilter(c *gin.Context) (repository.TaskFilter, bool) {
	filter := repository.TaskFilter{
		Search: c.Query("search"),
	}

	switch scope := c.DefaultQuery("scope", string(repository.ScopeAll)); repository.TaskScope(scope) {
	case repository.ScopeAll:
		filter.Scope = repository.ScopeAll
	case repository.ScopeOwner:
		filter.Scope = repository.ScopeOwner
		filter.UserID = c.Query("ownerUserId")
	case repository.ScopeAssignee:
		filter.Scope = repository.ScopeAssignee
		filter.UserID = c.Query("assignedUserId")
	default:
		errors.BadRequest(c, "Invalid scope",
			errors.FieldError{Field: "scope", Message: "must be one of any, owner, assignee"})
		return filter, false
	}

	for _, s := range splitList(c.Query("status")) {
		status := models.TaskStatus(s)
		if !status.IsValid() {
			errors.BadRequest(c, "Invalid status filter",
				errors.FieldError{Field: "status", Message: "unknown status " + s})
			return filter, false
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	for _, p := range splitList(c.Query("priority")) {
		priority := models.TaskPriority(p)
		if !priority.IsValid() {
			errors.BadRequest(c, "Invalid priority filter",
				errors.FieldError{Field: "priority", Message: "unknown priority " + p})
			return filter, false
		}
		filter.Priorities = append(filter.Priorities, priority)
	}

	filter.OverdueOnly = c.Query("overdueOnly") == "true"
	if v := c.Query("reminderSent"); v != "" {
		b := v == "true"
		filter.ReminderSent = &b
	}

	filter.SortBy = repository.TaskSortKey(c.DefaultQuery("sortBy", string(repository.SortByDueDate)))
	filter.SortDesc = strings.EqualFold(c.Query("sortDir"), "desc")

	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", strconv.Itoa(repository.DefaultPageSize)))

	return filter, true
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// respondError maps service errors to HTTP status codes.
func (h *TaskHandler) respondError(c *gin.Context, err error) {
	switch {
	case stderrors.Is(err, services.ErrTaskNotFound):
		errors.NotFound(c, "Task not found")
	case stderrors.Is(err, services.ErrUserNotFound):
		errors.NotFound(c, "User not found")
	case stderrors.Is(err, services.ErrConcurrencyConflict):
		errors.Conflict(c, "")
	case stderrors.Is(err, services.ErrInvalidOperation):
		errors.InvalidOperation(c, err.Error())
	default:
		logger.Error(c.Request.Context(), "Task request failed", "error", err)
		errors.InternalError(c)
	}
}
