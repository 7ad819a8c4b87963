package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"cryptodash/internal/domain"
	"cryptodash/internal/middleware"
	"cryptodash/internal/observability"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	userRepo domain.UserRepository
	issuer   *middleware.TokenIssuer
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userRepo domain.UserRepository, issuer *middleware.TokenIssuer) *AuthHandler {
	return &AuthHandler{
		userRepo: userRepo,
		issuer:   issuer,
	}
}

// Signup creates an account and returns a token for it
// POST /auth/signup
func (h *AuthHandler) Signup(c echo.Context) error {
	var req domain.SignupRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return UnprocessableResponse(c, "Name, email and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to hash password", err)
	}

	user := &domain.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now(),
	}
	if err := h.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return BadRequestResponse(c, "User already exists")
		}
		return InternalServerErrorResponse(c, "Failed to create user", err)
	}

	token, err := h.issuer.Generate(user.ID, user.Email)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to generate token", err)
	}

	observability.LoggerFromContext(ctx).Info("[AUTH] User signed up", "user_id", user.ID)
	return c.JSON(http.StatusOK, domain.SignupResponse{
		Message:         "User created successfully",
		UserID:          user.ID,
		AccessToken:     token,
		TokenType:       "bearer",
		NeedsOnboarding: true,
	})
}

// Login handles user login
// POST /auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req domain.LoginRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return UnprocessableResponse(c, "Email and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.userRepo.GetByEmail(ctx, req.Email)
	if errors.Is(err, domain.ErrNotFound) {
		return UnauthorizedResponse(c, "Invalid email or password")
	}
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to get user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return UnauthorizedResponse(c, "Invalid email or password")
	}

	token, err := h.issuer.Generate(user.ID, user.Email)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to generate token", err)
	}

	return c.JSON(http.StatusOK, domain.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}
