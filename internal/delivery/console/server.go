package console

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"cryptodash/internal/domain"
	"cryptodash/internal/observability"
	"cryptodash/internal/service"
	"cryptodash/internal/session"
	"cryptodash/internal/usecase"
)

// Deps are the client services the console exposes
type Deps struct {
	Session    *session.Store
	Auth       *usecase.AuthService
	Onboarding *usecase.OnboardingService
	Dashboard  *usecase.DashboardService
	Votes      *service.VoteMachine
	Toasts     *service.ToastService
	Theme      *service.ThemeService
}

// Server is a local JSON API over the client state, for scripting and UIs
type Server struct {
	deps Deps
}

// NewServer creates a new Server
func NewServer(deps Deps) *Server {
	return &Server{deps: deps}
}

// Routes builds the router
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestContext)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/session", s.getSession)
	r.Post("/signup", s.signup)
	r.Post("/login", s.login)
	r.Post("/logout", s.logout)
	r.Get("/me", s.resume)

	r.Route("/onboarding", func(r chi.Router) {
		r.Get("/options", s.onboardingOptions)
		r.Post("/", s.submitOnboarding)
	})

	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/", s.getDashboard)
		r.Post("/load", s.loadDashboard)
		r.Post("/refresh/{section}", s.refreshSection)
	})

	r.Get("/votes", s.listVotes)
	r.Post("/votes", s.vote)

	r.Get("/toast", s.getToast)

	r.Route("/theme", func(r chi.Router) {
		r.Get("/", s.getTheme)
		r.Put("/", s.setTheme)
		r.Post("/toggle", s.toggleTheme)
	})

	return r
}

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type routeBody struct {
	Route domain.Route `json:"route"`
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Session.Describe())
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if !decode(w, r, &body) {
		return
	}
	route, err := s.deps.Auth.Signup(r.Context(), body.Name, body.Email, body.Password)
	if err != nil {
		writeError(w, err, "Signup failed")
		return
	}
	writeJSON(w, http.StatusOK, routeBody{Route: route})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if !decode(w, r, &body) {
		return
	}
	route, err := s.deps.Auth.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		// a rejected login is not an expired session
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": domain.UserMessage(err, "Login failed")})
		return
	}
	writeJSON(w, http.StatusOK, routeBody{Route: route})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Auth.Logout(r.Context()); err != nil {
		writeError(w, err, "Logout failed")
		return
	}
	writeJSON(w, http.StatusOK, routeBody{Route: domain.RouteLogin})
}

func (s *Server) resume(w http.ResponseWriter, r *http.Request) {
	route, me, err := s.deps.Auth.Resume(r.Context())
	if err != nil {
		writeError(w, err, "Failed to load profile")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"route": route, "me": me})
}

func (s *Server) onboardingOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]domain.Option{
		"crypto_assets":  domain.AssetOptions,
		"investor_types": domain.InvestorTypeOptions,
		"content_types":  domain.ContentTypeOptions,
	})
}

type onboardingBody struct {
	CryptoAssets []string `json:"crypto_assets"`
	InvestorType string   `json:"investor_type"`
	ContentType  []string `json:"content_type"`
	OtherAsset   string   `json:"other_asset"`
}

func (s *Server) submitOnboarding(w http.ResponseWriter, r *http.Request) {
	var body onboardingBody
	if !decode(w, r, &body) {
		return
	}
	resp, err := s.deps.Onboarding.Submit(r.Context(), domain.OnboardingProfile{
		CryptoAssets: body.CryptoAssets,
		InvestorType: body.InvestorType,
		ContentTypes: body.ContentType,
		OtherAsset:   body.OtherAsset,
	})
	if err != nil {
		writeError(w, err, "Failed to save onboarding")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"route": domain.RouteDashboard, "result": resp})
}

func (s *Server) getDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Dashboard.View())
}

func (s *Server) loadDashboard(w http.ResponseWriter, r *http.Request) {
	if _, err := s.deps.Dashboard.Load(r.Context()); err != nil {
		writeError(w, err, "Failed to load dashboard")
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Dashboard.View())
}

func (s *Server) refreshSection(w http.ResponseWriter, r *http.Request) {
	section, err := domain.ParseSection(chi.URLParam(r, "section"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}

	ran, err := s.deps.Dashboard.RefreshSection(r.Context(), section)
	if err != nil {
		writeError(w, err, "Failed to refresh section")
		return
	}
	if !ran {
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "already refreshing"})
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Dashboard.View())
}

func (s *Server) listVotes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Votes.States())
}

type voteBody struct {
	Section string           `json:"section"`
	Item    string           `json:"item"`
	Value   domain.VoteValue `json:"value"`
}

func (s *Server) vote(w http.ResponseWriter, r *http.Request) {
	var body voteBody
	if !decode(w, r, &body) {
		return
	}
	result, err := s.deps.Votes.Vote(r.Context(), domain.VoteKey{Section: body.Section, Item: body.Item}, body.Value)
	if err != nil {
		writeError(w, err, "Invalid vote")
		return
	}

	status := http.StatusOK
	out := map[string]any{"outcome": result.Outcome, "value": result.Value}
	if result.Err != nil {
		if errors.Is(result.Err, domain.ErrSessionExpired) {
			writeError(w, result.Err, "")
			return
		}
		status = http.StatusBadGateway
		out["error"] = domain.UserMessage(result.Err, "Vote not saved")
	}
	writeJSON(w, status, out)
}

func (s *Server) getToast(w http.ResponseWriter, r *http.Request) {
	toast, ok := s.deps.Toasts.Current()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, toast)
}

type themeBody struct {
	Theme string `json:"theme"`
}

func (s *Server) getTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := s.deps.Theme.Get(r.Context())
	if err != nil {
		writeError(w, err, "Failed to read theme")
		return
	}
	writeJSON(w, http.StatusOK, themeBody{Theme: theme})
}

func (s *Server) setTheme(w http.ResponseWriter, r *http.Request) {
	var body themeBody
	if !decode(w, r, &body) {
		return
	}
	if err := s.deps.Theme.Set(r.Context(), body.Theme); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) toggleTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := s.deps.Theme.Toggle(r.Context())
	if err != nil {
		writeError(w, err, "Failed to save theme")
		return
	}
	writeJSON(w, http.StatusOK, themeBody{Theme: theme})
}

// requestContext copies chi's request id onto the slog context
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			r = r.WithContext(observability.WithRequestID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return false
	}
	return true
}

// writeError maps an expired session to a login redirect and anything else to a message
func writeError(w http.ResponseWriter, err error, fallback string) {
	if errors.Is(err, domain.ErrSessionExpired) {
		writeJSON(w, http.StatusUnauthorized, map[string]domain.Route{"redirect": domain.RouteLogin})
		return
	}

	status := http.StatusBadGateway
	switch {
	case errors.Is(err, domain.ErrInvalidProfile), errors.Is(err, domain.ErrInvalidVote),
		errors.Is(err, domain.ErrMissingFields), errors.Is(err, domain.ErrCoinNotFound),
		errors.Is(err, domain.ErrUnknownSection):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": domain.UserMessage(err, fallback)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		observability.Logger().Error("[CONSOLE] Failed to encode response", "error", err)
	}
}
