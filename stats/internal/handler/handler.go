package handler

import (
	"net/http"

	md "github.com/bookhive/borrowing-service/pkg/middleware"

	"github.com/bookhive/borrowing-service/pkg/auth"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type Handler struct {
	statsSvc StatsService
	log      *zap.Logger
}

func New(statsSrv StatsService, log *zap.Logger) *Handler {
	return &Handler{
		statsSvc: statsSrv,
		log:      log,
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)

	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig()),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)

	api.GET("/stats", h.GetStats, auth.JwtAuthentication)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// GetStats is staff-only; counters cover every user's borrowings.
func (h *Handler) GetStats(c echo.Context) error {
	ctx := c.Request().Context()
	caller, err := auth.CallerFromContext(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	if !caller.IsStaff {
		return echo.NewHTTPError(http.StatusForbidden, "staff only")
	}
	stats, err := h.statsSvc.Stats(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}
