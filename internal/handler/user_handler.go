package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ntuon/taskapp/internal/avatar"
	"github.com/ntuon/taskapp/internal/database/models"
	"github.com/ntuon/taskapp/internal/database/service"
	"github.com/ntuon/taskapp/internal/middleware"
)

// UserHandler handles HTTP requests for accounts, sessions and avatars
type UserHandler struct {
	authService service.AuthService
	userService service.UserService
	logger      *slog.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(authService service.AuthService, userService service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		authService: authService,
		userService: userService,
		logger:      logger,
	}
}

// Request/Response DTOs
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Age      int    `json:"age"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// jsonNull is the literal value of an explicit null field in an update body.
var jsonNull = []byte("null")

// updatableUserFields is the allow-list for profile updates.
var updatableUserFields = map[string]bool{
	"name":     true,
	"email":    true,
	"password": true,
	"age":      true,
}

// Register handles POST /users
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("⚠️ [UserHandler] Invalid registration request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name, email and password are required"})
		return
	}

	user, token, err := h.authService.Register(req.Name, req.Email, req.Password, req.Age)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{User: user, Token: token})
}

// Login handles POST /users/login
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("⚠️ [UserHandler] Invalid login request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	user, token, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, AuthResponse{User: user, Token: token})
}

// Logout handles POST /users/logout and revokes only the presented token
func (h *UserHandler) Logout(c *gin.Context) {
	user := middleware.CurrentUser(c)
	token := middleware.CurrentToken(c)

	if err := h.authService.Logout(user.ID, token); err != nil {
		h.logger.Error("❌ [UserHandler] Logout failed", "user_id", user.ID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Status(http.StatusOK)
}

// LogoutAll handles POST /users/logoutAll and revokes every session
func (h *UserHandler) LogoutAll(c *gin.Context) {
	user := middleware.CurrentUser(c)

	if err := h.authService.LogoutAll(user.ID); err != nil {
		h.logger.Error("❌ [UserHandler] Logout all failed", "user_id", user.ID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Status(http.StatusOK)
}

// GetProfile handles GET /users/me
func (h *UserHandler) GetProfile(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.CurrentUser(c))
}

// UpdateProfile handles PATCH /users/me. Only name, email, password and age
// may change; anything else in the body rejects the whole update.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	user := middleware.CurrentUser(c)

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
		// Explicit nulls would silently skip the field instead of
		// clearing it, so they are rejected outright
		if !updatableUserFields[field] || bytes.Equal(value, jsonNull) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid update"})
			return
		}
	}

	var upd struct {
		Name     *string `json:"name"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
		Age      *int    `json:"age"`
	}
	if err := json.Unmarshal(body, &upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid update"})
		return
	}

	updated, err := h.userService.UpdateProfile(user.ID, service.ProfileUpdate{
		Name:     upd.Name,
		Email:    upd.Email,
		Password: upd.Password,
		Age:      upd.Age,
	})
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteAccount handles DELETE /users/me
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	user := middleware.CurrentUser(c)

	deleted, err := h.userService.DeleteAccount(user.ID)
	if err != nil {
		h.logger.Error("❌ [UserHandler] Account deletion failed", "user_id", user.ID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, deleted)
}

// UploadAvatar handles POST /users/me/avatar. The extension and size gate
// runs before the file content is touched.
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	user := middleware.CurrentUser(c)

	file, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "An 'avatar' file field is required"})
		return
	}

	if err := avatar.ValidateUpload(file.Filename, file.Size); err != nil {
		h.logger.Warn("⚠️ [UserHandler] Avatar rejected", "user_id", user.ID, "filename", file.Filename, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	processed, err := avatar.Process(data)
	if err != nil {
		if errors.Is(err, avatar.ErrInvalidImage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("❌ [UserHandler] Avatar processing failed", "user_id", user.ID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	if err := h.userService.SetAvatar(user.ID, processed); err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Status(http.StatusOK)
}

// DeleteAvatar handles DELETE /users/me/avatar
func (h *UserHandler) DeleteAvatar(c *gin.Context) {
	user := middleware.CurrentUser(c)

	if err := h.userService.ClearAvatar(user.ID); err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Status(http.StatusOK)
}

// GetAvatar handles GET /users/:id/avatar. Public; any failure collapses to
// an empty 404 so the endpoint leaks nothing about accounts.
func (h *UserHandler) GetAvatar(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	data, err := h.userService.GetAvatar(uint(id))
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	c.Data(http.StatusOK, "image/png", data)
}

// handleUserError maps service errors to HTTP responses
func (h *UserHandler) handleUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrNameRequired),
		errors.Is(err, models.ErrEmailInvalid),
		errors.Is(err, models.ErrPasswordTooShort),
		errors.Is(err, models.ErrPasswordDisallowed),
		errors.Is(err, models.ErrAgeNegative):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrEmailAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unable to login"})
	default:
		h.logger.Error("❌ [UserHandler] Internal server error", "error", err)
		c.Status(http.StatusInternalServerError)
	}
}
