package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"cryptodash/internal/delivery/http/dto"
	"cryptodash/internal/domain"
	"cryptodash/internal/middleware"
	"cryptodash/internal/observability"
	"cryptodash/internal/service"
	"cryptodash/internal/utils"
)

// DashboardHandler serves the daily dashboard and its votes
type DashboardHandler struct {
	prefRepo      domain.PreferenceRepository
	dashboardRepo domain.DashboardRepository
	voteRepo      domain.VoteRepository
	feed          *service.SectionFeed
	clock         *utils.DayClock
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(
	prefRepo domain.PreferenceRepository,
	dashboardRepo domain.DashboardRepository,
	voteRepo domain.VoteRepository,
	feed *service.SectionFeed,
	clock *utils.DayClock,
) *DashboardHandler {
	return &DashboardHandler{
		prefRepo:      prefRepo,
		dashboardRepo: dashboardRepo,
		voteRepo:      voteRepo,
		feed:          feed,
		clock:         clock,
	}
}

// GetDashboard returns today's dashboard, creating it on first access
// GET /dashboard
func (h *DashboardHandler) GetDashboard(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	prefs, err := h.preferences(ctx, userID)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to get preferences", err)
	}

	d, err := h.today(ctx, userID, prefs)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to build dashboard", err)
	}

	return c.JSON(http.StatusOK, dto.ToDashboardOutput(d, prefs))
}

// RefreshSection regenerates one section of today's dashboard
// POST /dashboard/refresh/:section
func (h *DashboardHandler) RefreshSection(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	section, err := domain.ParseSection(c.Param("section"))
	if err != nil {
		return NotFoundResponse(c, "Unknown section: "+c.Param("section"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	prefs, err := h.preferences(ctx, userID)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to get preferences", err)
	}

	current, err := h.today(ctx, userID, prefs)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to build dashboard", err)
	}

	raw, err := h.feed.Generate(ctx, section, prefs)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to generate section", err)
	}

	// only this key is written so concurrent refreshes of other sections survive
	d, err := h.dashboardRepo.SaveSection(ctx, userID, current.Day, section, raw)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to save dashboard", err)
	}

	observability.LoggerFromContext(ctx).Info("[DASHBOARD] Section regenerated", "user_id", userID, "section", section)
	return c.JSON(http.StatusOK, dto.ToDashboardOutput(d, prefs))
}

// SaveVote stores one vote; a zero value clears it
// POST /votes
func (h *DashboardHandler) SaveVote(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	var req domain.VoteRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	if !domain.Section(req.Section).Valid() {
		return UnprocessableResponse(c, "section: unknown value")
	}
	if strings.TrimSpace(req.Item) == "" {
		return UnprocessableResponse(c, "item: field required")
	}
	if !req.Value.Valid() {
		return UnprocessableResponse(c, "value: must be -1, 0 or 1")
	}
	if req.DashboardID != "" {
		if _, err := uuid.Parse(req.DashboardID); err != nil {
			return UnprocessableResponse(c, "dashboard_id: invalid uuid")
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err = h.voteRepo.Upsert(ctx, &domain.StoredVote{
		UserID:      userID,
		DashboardID: req.DashboardID,
		Section:     req.Section,
		Item:        req.Item,
		Value:       req.Value,
		Day:         h.clock.StartOfDay(),
	})
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to save vote", err)
	}

	msg := "Vote saved"
	if req.Value == domain.VoteNone {
		msg = "Vote removed"
	}
	return c.JSON(http.StatusOK, domain.MessageResponse{Message: msg})
}

// ListVotes returns the votes of a day
// GET /votes?date=today[&dashboard_id=...]
func (h *DashboardHandler) ListVotes(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	day, err := h.clock.ResolveDay(c.QueryParam("date"))
	if err != nil {
		return UnprocessableResponse(c, "date: expected today or YYYY-MM-DD")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	votes, err := h.voteRepo.ListForDay(ctx, userID, day, c.QueryParam("dashboard_id"))
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to list votes", err)
	}

	return c.JSON(http.StatusOK, dto.ToVoteRecords(votes))
}

// preferences returns nil for a user who never onboarded
func (h *DashboardHandler) preferences(ctx context.Context, userID int64) (*domain.Preferences, error) {
	prefs, err := h.prefRepo.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return prefs, err
}

func (h *DashboardHandler) today(ctx context.Context, userID int64, prefs *domain.Preferences) (*domain.StoredDashboard, error) {
	day := h.clock.StartOfDay()

	d, err := h.dashboardRepo.GetForDay(ctx, userID, day)
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	sections, err := h.feed.Build(ctx, prefs)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	d = &domain.StoredDashboard{
		ID:        uuid.New(),
		UserID:    userID,
		Day:       day,
		Sections:  sections,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.dashboardRepo.Save(ctx, d); err != nil {
		return nil, err
	}

	// a concurrent first access may have won the insert
	return h.dashboardRepo.GetForDay(ctx, userID, day)
}
