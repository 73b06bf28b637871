// Package monitor turns price observations into momentum readings and selects
// at most one swap opportunity per cycle.
package monitor

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/rewired-gh/suimomentum/internal/logger"
	"github.com/rewired-gh/suimomentum/internal/models"
)

// RouteService returns candidate routes ordered best first.
type RouteService interface {
	GetRoutes(ctx context.Context, tokenIn, tokenOut string, amount, maxSlippage float64) ([]models.Route, error)
}

type Config struct {
	Pairs              []models.TradingPair
	SwapAmount         float64
	MomentumThreshold  float64
	MinProfitThreshold float64
	MaxSlippage        float64
}

func DefaultConfig() Config {
	return Config{
		Pairs:              []models.TradingPair{{TokenIn: "SUI", TokenOut: "USDC"}},
		SwapAmount:         1.0,
		MomentumThreshold:  0.02,
		MinProfitThreshold: 0.01,
		MaxSlippage:        0.01,
	}
}

type SkipReason string

const (
	SkipNoPrice        SkipReason = "no_price"
	SkipInvalidPrice   SkipReason = "invalid_price"
	SkipBelowThreshold SkipReason = "below_threshold"
	SkipRouteError     SkipReason = "route_error"
	SkipNoRoutes       SkipReason = "no_routes"
	SkipUnprofitable   SkipReason = "unprofitable"
)

// Skip records why a pair did not produce a decision.
type Skip struct {
	Pair           models.TradingPair
	Reason         SkipReason
	Momentum       float64
	ExpectedProfit float64
	Err            error
}

// Evaluation is the outcome of one evaluation pass. Decision is nil when no pair qualified.
type Evaluation struct {
	Decision *models.Decision
	Readings []models.MomentumReading
	Skips    []Skip
}

// Evaluator applies the momentum and profitability thresholds to the configured pairs.
type Evaluator struct {
	history *PriceHistory
	routes  RouteService
	config  Config
}

func New(history *PriceHistory, routes RouteService, config Config) *Evaluator {
	return &Evaluator{
		history: history,
		routes:  routes,
		config:  config,
	}
}

// History returns the price history the evaluator records into.
func (e *Evaluator) History() *PriceHistory {
	return e.history
}

// Evaluate scans the pairs in declaration order and returns the first one whose
// momentum and expected profit both clear their thresholds. Evaluation stops at
// that pair; later pairs are neither recorded nor quoted this cycle.
func (e *Evaluator) Evaluate(ctx context.Context, prices map[string]float64, now time.Time) Evaluation {
	var ev Evaluation
	readings := make(map[string]models.MomentumReading)

	for _, pair := range e.config.Pairs {
		reading, seen := readings[pair.TokenIn]
		if !seen {
			price, ok := prices[pair.TokenIn]
			if !ok {
				ev.Skips = append(ev.Skips, Skip{Pair: pair, Reason: SkipNoPrice})
				continue
			}
			// zero, negative, NaN and infinite quotes never enter the window
			if !(price > 0) || math.IsInf(price, 1) {
				logger.Warn("Skipping %s: invalid %s price %v", pair, pair.TokenIn, price)
				ev.Skips = append(ev.Skips, Skip{Pair: pair, Reason: SkipInvalidPrice})
				continue
			}
			reading = Reading(pair.TokenIn, e.history.Record(pair.TokenIn, price, now))
			readings[pair.TokenIn] = reading
			ev.Readings = append(ev.Readings, reading)
		}

		if !reading.Exceeds(e.config.MomentumThreshold) {
			ev.Skips = append(ev.Skips, Skip{Pair: pair, Reason: SkipBelowThreshold, Momentum: reading.Ratio})
			continue
		}

		logger.Debug("Momentum %s=%.4f over %d samples exceeds %.4f, fetching routes to %s",
			pair.TokenIn, reading.Ratio, reading.SampleCount, e.config.MomentumThreshold, pair.TokenOut)

		routes, err := e.routes.GetRoutes(ctx, pair.TokenIn, pair.TokenOut, e.config.SwapAmount, e.config.MaxSlippage)
		if err != nil {
			routeErr := &models.RouteError{Pair: pair, Err: err}
			logger.Warn("Skipping %s: %v", pair, routeErr)
			ev.Skips = append(ev.Skips, Skip{Pair: pair, Reason: SkipRouteError, Momentum: reading.Ratio, Err: routeErr})
			continue
		}
		if len(routes) == 0 {
			ev.Skips = append(ev.Skips, Skip{Pair: pair, Reason: SkipNoRoutes, Momentum: reading.Ratio})
			continue
		}

		best := routes[0]
		if err := best.Validate(); err != nil {
			routeErr := &models.RouteError{Pair: pair, Err: err}
			logger.Warn("Skipping %s: %v", pair, routeErr)
			ev.Skips = append(ev.Skips, Skip{Pair: pair, Reason: SkipRouteError, Momentum: reading.Ratio, Err: routeErr})
			continue
		}

		profit := best.ExpectedProfit()
		if !(profit > e.config.MinProfitThreshold) {
			ev.Skips = append(ev.Skips, Skip{Pair: pair, Reason: SkipUnprofitable, Momentum: reading.Ratio, ExpectedProfit: profit})
			continue
		}

		ev.Decision = &models.Decision{
			ID:             uuid.New().String(),
			Pair:           pair,
			Momentum:       reading.Ratio,
			Route:          best,
			ExpectedProfit: profit,
			DecidedAt:      now,
		}
		return ev
	}

	return ev
}

// RouteErrors returns the route failures recorded in the evaluation.
func (ev Evaluation) RouteErrors() []error {
	var errs []error
	for _, s := range ev.Skips {
		var routeErr *models.RouteError
		if errors.As(s.Err, &routeErr) {
			errs = append(errs, routeErr)
		}
	}
	return errs
}
