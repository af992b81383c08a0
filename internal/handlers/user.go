package handlers

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/taskboard/taskboard/internal/dto"
	"github.com/taskboard/taskboard/internal/errors"
	"github.com/taskboard/taskboard/internal/repository"
	"github.com/taskboard/taskboard/internal/services"
	"github.com/taskboard/taskboard/pkg/logger"
)

type UserHandler struct {
	service *services.UserService
}

func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// CreateUser creates (or converges on) a user keyed by email
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req dto.UserCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.service.CreateUser(c.Request.Context(), services.CreateUserInput{
		FullName:  req.FullName,
		Email:     req.Email,
		Telephone: req.Telephone,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserResponse(*user))
}

// GetUser returns a user by id
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.service.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserResponse(*user))
}

// GetUserByEmail returns a user by email
func (h *UserHandler) GetUserByEmail(c *gin.Context) {
	user, err := h.service.GetUserByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserResponse(*user))
}

// ListUsers returns users matching an optional search
func (h *UserHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", strconv.Itoa(repository.DefaultPageSize)))

	users, total, err := h.service.ListUsers(c.Request.Context(), c.Query("search"), page, pageSize)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if page < 1 {
		page = 1
	}
	if pageSize < repository.MinPageSize || pageSize > repository.MaxPageSize {
		pageSize = repository.DefaultPageSize
	}
	c.JSON(http.StatusOK, dto.ToUserListResponse(users, page, pageSize, total))
}

func (h *UserHandler) respondError(c *gin.Context, err error) {
	switch {
	case stderrors.Is(err, services.ErrUserNotFound):
		errors.NotFound(c, "User not found")
	default:
		logger.Error(c.Request.Context(), "User request failed", "error", err)
		errors.InternalError(c)
	}
}
