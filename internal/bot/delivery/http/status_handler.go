package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/andrewyy141/market-intel-bot/internal/bot/config"
	"github.com/andrewyy141/market-intel-bot/internal/bot/dto"
	"github.com/andrewyy141/market-intel-bot/internal/repository"
	"github.com/andrewyy141/market-intel-bot/pkg/logger"
)

const (
	defaultSignalsLimit = 20
	maxSignalsLimit     = 100
)

// StatusHandler serves the operational endpoints.
type StatusHandler struct {
	signalRepo  repository.SignalRepository
	historyRepo repository.AlertHistoryRepository
	cfg         *config.Config
	logger      *logger.Logger
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(signalRepo repository.SignalRepository, historyRepo repository.AlertHistoryRepository, cfg *config.Config, logger *logger.Logger) *StatusHandler {
	return &StatusHandler{
		signalRepo:  signalRepo,
		historyRepo: historyRepo,
		cfg:         cfg,
		logger:      logger,
	}
}

// RegisterRoutes registers the operational routes on the Echo instance.
func (h *StatusHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	v1 := e.Group("/api/v1")
	v1.GET("/status", h.Status)
	v1.GET("/signals", h.RecentSignals)
	v1.GET("/watchlist", h.Watchlist)
}

// Health responds 200 as long as the process is up.
func (h *StatusHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// Status reports today's alert usage against the configured gates.
func (h *StatusHandler) Status(c echo.Context) error {
	alertsToday, err := h.historyRepo.CountToday(c.Request().Context())
	if err != nil {
		h.logger.Error("failed to count today's alerts", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, dto.StatusResponse{
		AlertsToday:     alertsToday,
		MaxAlertsPerDay: h.cfg.Scanner.MaxAlertsPerDay,
		WatchlistSize:   len(h.cfg.Sources.Watchlist),
		MinConfidence:   h.cfg.Scanner.MinConfidence,
	})
}

// RecentSignals returns the most recent signals, newest first.
func (h *StatusHandler) RecentSignals(c echo.Context) error {
	limit := defaultSignalsLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid limit"})
		}
		limit = parsed
	}
	if limit > maxSignalsLimit {
		limit = maxSignalsLimit
	}

	signals, err := h.signalRepo.FindRecent(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("failed to load recent signals", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, signals)
}

// Watchlist returns the configured ticker list.
func (h *StatusHandler) Watchlist(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.WatchlistResponse{Tickers: h.cfg.Sources.Watchlist})
}
