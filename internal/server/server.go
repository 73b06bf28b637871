// Package server exposes health, status and Prometheus metrics over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rewired-gh/suimomentum/internal/logger"
	"github.com/rewired-gh/suimomentum/internal/models"
	"github.com/rewired-gh/suimomentum/internal/scheduler"
	"github.com/rewired-gh/suimomentum/internal/storage"
)

const defaultExecutionLimit = 20

// StatusSource reports the live scheduler state.
type StatusSource interface {
	Status() scheduler.Status
}

// ExecutionLog reads the trade journal.
type ExecutionLog interface {
	RecentExecutions(k int) ([]models.ExecutionRecord, error)
	ExecutionStats() (storage.Stats, error)
	GetDecision(id string) (*models.Decision, error)
}

type executionsQuery struct {
	Limit int `query:"limit" validate:"gte=1,lte=500"`
}

type statusResponse struct {
	scheduler.Status
	Stats            *storage.Stats           `json:"stats,omitempty"`
	RecentExecutions []models.ExecutionRecord `json:"recent_executions"`
}

// Server wraps an echo instance.
type Server struct {
	echo     *echo.Echo
	addr     string
	status   StatusSource
	journal  ExecutionLog
	validate *validator.Validate
}

// New builds the server. journal and registry may be nil.
func New(addr string, status StatusSource, journal ExecutionLog, registry *prometheus.Registry) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:     e,
		addr:     addr,
		status:   status,
		journal:  journal,
		validate: validator.New(),
	}

	e.GET("/healthz", s.handleHealth)
	e.GET("/status", s.handleStatus)
	e.GET("/executions", s.handleExecutions)
	e.GET("/decisions/:id", s.handleDecision)
	if registry != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	return s
}

// Handler returns the underlying HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens in a background goroutine.
func (s *Server) Start() {
	go func() {
		logger.Info("Status server listening on %s", s.addr)
		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Status server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(c echo.Context) error {
	resp := statusResponse{
		Status:           s.status.Status(),
		RecentExecutions: []models.ExecutionRecord{},
	}

	if s.journal != nil {
		stats, err := s.journal.ExecutionStats()
		if err != nil {
			logger.Warn("Failed to read execution stats: %v", err)
		} else {
			resp.Stats = &stats
		}
		recent, err := s.journal.RecentExecutions(defaultExecutionLimit)
		if err != nil {
			logger.Warn("Failed to read recent executions: %v", err)
		} else {
			resp.RecentExecutions = recent
		}
	}

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleExecutions(c echo.Context) error {
	if s.journal == nil {
		return echo.NewHTTPError(http.StatusNotFound, "journal disabled")
	}

	var q executionsQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if q.Limit == 0 {
		q.Limit = defaultExecutionLimit
	}
	if err := s.validate.StructCtx(c.Request().Context(), q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and 500: %v", err))
	}

	recent, err := s.journal.RecentExecutions(q.Limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"executions": recent})
}

type decisionResponse struct {
	ID             string    `json:"id"`
	Pair           string    `json:"pair"`
	Momentum       float64   `json:"momentum"`
	InputAmount    float64   `json:"input_amount"`
	OutputAmount   float64   `json:"output_amount"`
	TotalFees      float64   `json:"total_fees"`
	ExpectedProfit float64   `json:"expected_profit"`
	DecidedAt      time.Time `json:"decided_at"`
}

func (s *Server) handleDecision(c echo.Context) error {
	if s.journal == nil {
		return echo.NewHTTPError(http.StatusNotFound, "journal disabled")
	}

	d, err := s.journal.GetDecision(c.Param("id"))
	if errors.Is(err, storage.ErrDecisionNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, decisionResponse{
		ID:             d.ID,
		Pair:           d.Pair.String(),
		Momentum:       d.Momentum,
		InputAmount:    d.Route.InputAmount,
		OutputAmount:   d.Route.OutputAmount,
		TotalFees:      d.Route.TotalFees,
		ExpectedProfit: d.ExpectedProfit,
		DecidedAt:      d.DecidedAt,
	})
}
