package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/intervention-service/internal/api/dto"
	"github.com/spec-kit/intervention-service/internal/auth"
	"github.com/spec-kit/intervention-service/internal/service"
	apperrors "github.com/spec-kit/intervention-service/pkg/util"
)

// AuthHandler exposes login and the landing redirect.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Username == "" || req.Password == "" {
		return apperrors.NewValidationError("username and password required", nil)
	}

	user, token, exp, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user":    userResponse(user),
			"auth":    dto.AuthResponse{Token: token, ExpiresAt: exp},
			"landing": auth.DefaultView(user.Role),
		},
	})
}

// Home handles GET / by sending the caller to their role's dashboard.
func (h *AuthHandler) Home(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	return c.Redirect(auth.DefaultView(actor.Role), fiber.StatusSeeOther)
}
