package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"cryptodash/internal/domain"
	"cryptodash/internal/middleware"
	"cryptodash/internal/observability"
	"cryptodash/internal/service"
)

// UserHandler handles profile and onboarding requests
type UserHandler struct {
	userRepo domain.UserRepository
	prefRepo domain.PreferenceRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo domain.UserRepository, prefRepo domain.PreferenceRepository) *UserHandler {
	return &UserHandler{
		userRepo: userRepo,
		prefRepo: prefRepo,
	}
}

// GetMe returns current user details
// GET /me
func (h *UserHandler) GetMe(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.userRepo.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return UnauthorizedResponse(c, "User not found")
	}
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to get user details", err)
	}

	_, err = h.prefRepo.Get(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return InternalServerErrorResponse(c, "Failed to get preferences", err)
	}

	return c.JSON(http.StatusOK, domain.Me{
		ID:              user.ID,
		Name:            user.Name,
		Email:           user.Email,
		NeedsOnboarding: errors.Is(err, domain.ErrNotFound),
	})
}

// SaveOnboarding stores the onboarding answers
// POST /onboarding
func (h *UserHandler) SaveOnboarding(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	var req domain.OnboardingRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	if !domain.HasOption(domain.InvestorTypeOptions, req.InvestorType) {
		return UnprocessableResponse(c, fmt.Sprintf("investor_type: unknown value %q", req.InvestorType))
	}
	if len(req.ContentType) == 0 {
		return UnprocessableResponse(c, "content_type: at least one value is required")
	}
	for _, ct := range req.ContentType {
		if !domain.HasOption(domain.ContentTypeOptions, ct) {
			return UnprocessableResponse(c, fmt.Sprintf("content_type: unknown value %q", ct))
		}
	}

	var assets, warnings []string
	for _, a := range req.CryptoAssets {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if !service.KnownAsset(a) {
			warnings = append(warnings, fmt.Sprintf("No price data for %q yet; it was saved anyway.", a))
		}
		assets = append(assets, a)
	}
	if len(assets) == 0 {
		return c.JSON(http.StatusOK, domain.OnboardingResponse{Saved: false, Message: "Select at least one asset"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err = h.prefRepo.Upsert(ctx, &domain.Preferences{
		UserID:       userID,
		CryptoAssets: assets,
		InvestorType: req.InvestorType,
		ContentType:  req.ContentType,
		UpdatedAt:    time.Now(),
	})
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to save preferences", err)
	}

	observability.LoggerFromContext(ctx).Info("[ONBOARDING] Preferences saved", "user_id", userID, "assets", len(assets))
	return c.JSON(http.StatusOK, domain.OnboardingResponse{
		Saved:    true,
		Message:  "Preferences saved",
		Warnings: warnings,
	})
}
