package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/henrychris/EventManagement/internal/domain"
	"github.com/henrychris/EventManagement/internal/dto"
	"github.com/henrychris/EventManagement/internal/middleware"
	"github.com/henrychris/EventManagement/internal/service"
	"github.com/henrychris/EventManagement/pkg/logger"
	"github.com/henrychris/EventManagement/pkg/response"
)

// AuthHandler handles registration, login, and the current-user endpoint
type AuthHandler struct {
	auth service.AuthService
	log  *logger.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(auth service.AuthService) *AuthHandler {
	return &AuthHandler{
		auth: auth,
		log:  logger.Get(),
	}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	resp, err := h.auth.Register(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Created(c, "", resp)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, resp)
}

// Me handles GET /users/me (authenticated)
func (h *AuthHandler) Me(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		response.Unauthorized(c, "authentication required")
		return
	}

	user, err := h.auth.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, user)
}

func (h *AuthHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrDuplicateEmail):
		response.Conflict(c, "User.DuplicateEmail", domain.ErrDuplicateEmail.Error())
	case errors.Is(err, domain.ErrLoginFailed):
		response.Unauthorized(c, domain.ErrLoginFailed.Error())
	case errors.Is(err, domain.ErrUserNotFound):
		response.NotFound(c, "User.NotFound", "User not found")
	default:
		h.log.Error("auth request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		response.InternalError(c)
	}
}
