package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dooh-ops/backend/internal/apperr"
	"github.com/dooh-ops/backend/internal/models"
	"github.com/dooh-ops/backend/pkg/response"
	"github.com/dooh-ops/backend/pkg/utils"
)

// Store is the user persistence used by the handler.
type Store interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.UserPublic, error)
	Create(ctx context.Context, email, passwordHash, fullName string, role models.Role) (*models.User, error)
}

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name" binding:"required"`
	Role     string `json:"role"` // optional, defaults to viewer
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// ParseRole maps a role name to a Role. Empty means viewer.
func ParseRole(s string) (models.Role, error) {
	switch models.Role(s) {
	case "":
		return models.RoleViewer, nil
	case models.RoleAdmin, models.RoleOperator, models.RoleViewer:
		return models.Role(s), nil
	}
	return "", apperr.Invalid("role", "unknown role %q", s)
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	repo   Store
	jwt    *JWTService
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(repo Store, jwt *JWTService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, jwt: jwt, logger: logger}
}

// Register handles POST /auth/register. Accounts are created by admins.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	role, err := ParseRole(req.Role)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	user, err := h.repo.Create(c.Request.Context(), req.Email, hash, req.FullName, role)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			response.Conflict(c, err.Error())
			return
		}
		h.logger.Error("create user", zap.Error(err))
		response.Fail(c, apperr.HTTPStatus(err), err.Error())
		return
	}
	h.logger.Info("user registered", zap.String("email", user.Email), zap.String("role", string(user.Role)))
	response.Created(c, user.ToPublic())
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			h.logger.Error("login lookup", zap.Error(err))
		}
		response.Unauthorized(c, "invalid email or password")
		return
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	c.JSON(http.StatusOK, response.Body{Success: true, Data: TokenResponse{Token: token, User: user.ToPublic()}})
}

// List handles GET /users (admin only).
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Fail(c, apperr.HTTPStatus(err), err.Error())
		return
	}
	response.OK(c, list)
}
