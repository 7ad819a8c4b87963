package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	custommiddleware "cryptodash/internal/middleware"
	"cryptodash/internal/observability"
)

// RouterConfig holds all dependencies for routing
type RouterConfig struct {
	AuthHandler      *AuthHandler
	UserHandler      *UserHandler
	DashboardHandler *DashboardHandler
	Issuer           *custommiddleware.TokenIssuer
}

// SetupRoutes configures all HTTP routes
func SetupRoutes(e *echo.Echo, config *RouterConfig) {
	e.HTTPErrorHandler = HTTPErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
	e.Use(requestContext)
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/health"
		},
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			observability.LoggerFromContext(c.Request().Context()).Info("[HTTP] Request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency.String(),
			)
			return nil
		},
	}))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "healthy",
			"service":   "cryptodash-api",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	// Auth routes (public)
	auth := e.Group("/auth")
	{
		auth.POST("/signup", config.AuthHandler.Signup)
		auth.POST("/login", config.AuthHandler.Login)
	}

	// Protected routes
	protected := e.Group("", config.Issuer.Auth)
	{
		protected.GET("/me", config.UserHandler.GetMe)
		protected.POST("/onboarding", config.UserHandler.SaveOnboarding)
		protected.GET("/dashboard", config.DashboardHandler.GetDashboard)
		protected.POST("/dashboard/refresh/:section", config.DashboardHandler.RefreshSection)
		protected.POST("/votes", config.DashboardHandler.SaveVote)
		protected.GET("/votes", config.DashboardHandler.ListVotes)
	}
}

// requestContext puts the echo request id on the request context for slog
func requestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Response().Header().Get(echo.HeaderXRequestID)
		if id != "" {
			req := c.Request()
			c.SetRequest(req.WithContext(observability.WithRequestID(req.Context(), id)))
		}
		return next(c)
	}
}
