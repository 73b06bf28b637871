// Package scheduler drives trading cycles: fetch prices, evaluate, and execute
// at most one swap, one cycle at a time.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rewired-gh/suimomentum/internal/executor"
	"github.com/rewired-gh/suimomentum/internal/logger"
	"github.com/rewired-gh/suimomentum/internal/metrics"
	"github.com/rewired-gh/suimomentum/internal/models"
	"github.com/rewired-gh/suimomentum/internal/monitor"
)

// DefaultInterval is the time between scheduled cycles.
const DefaultInterval = 30 * time.Second

// PriceFeed returns the current price of every tracked symbol.
type PriceFeed interface {
	FetchPrices(ctx context.Context) (map[string]float64, error)
}

// Journal records decisions and executions for audit.
type Journal interface {
	RecordDecision(d *models.Decision) error
	RecordExecution(r models.ExecutionRecord) error
}

// Notifier reports swaps and cycle health to operators.
type Notifier interface {
	SendSwap(d *models.Decision, r *models.TxReceipt) error
	SendError(err error) error
	SendRecovery(failureCount int) error
}

type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseFetching
	PhaseEvaluating
	PhaseExecuting
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseFetching:
		return "fetching"
	case PhaseEvaluating:
		return "evaluating"
	case PhaseExecuting:
		return "executing"
	default:
		return fmt.Sprintf("phase(%d)", int32(p))
	}
}

type Outcome string

const (
	OutcomeNoDecision     Outcome = "no_decision"
	OutcomeExecuted       Outcome = "executed"
	OutcomeBusy           Outcome = "busy"
	OutcomeFeedError      Outcome = "feed_error"
	OutcomeExecutionError Outcome = "execution_error"
	OutcomePanic          Outcome = "panic"
)

// CycleResult describes one completed cycle.
type CycleResult struct {
	StartedAt  time.Time
	Duration   time.Duration
	Outcome    Outcome
	Prices     map[string]float64
	Evaluation monitor.Evaluation
	Decision   *models.Decision
	Receipt    *models.TxReceipt
	Err        error
}

// Options holds optional collaborators. Nil fields are skipped.
type Options struct {
	Interval time.Duration
	Journal  Journal
	Notifier Notifier
	Metrics  *metrics.Recorder
	// AfterCycle runs at the end of every cycle, inside the cycle lock.
	AfterCycle func()
	Now        func() time.Time
}

// Scheduler owns the cycle loop. RunCycle runs exactly one cycle synchronously;
// Run drives RunCycle on a ticker.
type Scheduler struct {
	feed      PriceFeed
	evaluator *monitor.Evaluator
	gate      *executor.Gate
	opts      Options

	mu    sync.Mutex // serializes cycle bodies
	phase atomic.Int32

	stateMu             sync.RWMutex
	last                *CycleResult
	consecutiveFailures int
	cycles              int
}

func New(feed PriceFeed, evaluator *monitor.Evaluator, gate *executor.Gate, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Scheduler{
		feed:      feed,
		evaluator: evaluator,
		gate:      gate,
		opts:      opts,
	}
	gate.OnExecution(s.recordExecution)
	return s
}

// Phase returns the current cycle phase.
func (s *Scheduler) Phase() Phase {
	return Phase(s.phase.Load())
}

func (s *Scheduler) setPhase(p Phase) {
	s.phase.Store(int32(p))
}

// Run executes one cycle immediately and then one per interval until ctx is done.
// Cycle failures are logged and never stop the loop.
func (s *Scheduler) Run(ctx context.Context) {
	logger.Debug("Running initial trading cycle")
	s.RunCycle(ctx) //nolint:errcheck

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Scheduler stopped")
			return
		case <-ticker.C:
			logger.Debug("Starting scheduled trading cycle")
			s.RunCycle(ctx) //nolint:errcheck
		}
	}
}

// RunCycle runs one fetch → evaluate → (maybe) execute pass. Concurrent callers
// are serialized so cycles never interleave.
func (s *Scheduler) RunCycle(ctx context.Context) (res CycleResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res.StartedAt = s.opts.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panic: %v", r)
			res.Outcome = OutcomePanic
		}
		res.Err = err
		res.Duration = s.opts.Now().Sub(res.StartedAt)
		s.setPhase(PhaseIdle)
		s.finishCycle(res)
	}()

	s.setPhase(PhaseFetching)
	prices, err := s.feed.FetchPrices(ctx)
	if err != nil {
		res.Outcome = OutcomeFeedError
		return res, &models.FeedError{Err: err}
	}
	res.Prices = prices
	for sym, p := range prices {
		s.opts.Metrics.RecordPrice(sym, p)
	}
	logger.Debug("Fetched %d prices", len(prices))

	s.setPhase(PhaseEvaluating)
	ev := s.evaluator.Evaluate(ctx, prices, s.opts.Now())
	res.Evaluation = ev
	for _, r := range ev.Readings {
		s.opts.Metrics.RecordMomentum(r.Symbol, r.Ratio)
	}
	for _, sk := range ev.Skips {
		s.opts.Metrics.RecordSkip(sk.Pair.String(), string(sk.Reason))
	}

	if ev.Decision == nil {
		res.Outcome = OutcomeNoDecision
		return res, nil
	}
	decision := ev.Decision
	res.Decision = decision

	s.setPhase(PhaseExecuting)
	logger.Info("Opportunity on %s: momentum %.4f, expected profit %.4f",
		decision.Pair, decision.Momentum, decision.ExpectedProfit)
	s.opts.Metrics.RecordDecision(decision.Pair.String())
	if s.opts.Journal != nil {
		if err := s.opts.Journal.RecordDecision(decision); err != nil {
			logger.Warn("Failed to journal decision %s: %v", decision.ID, err)
		}
	}

	s.opts.Metrics.SetInFlight(true)
	receipt, err := s.gate.Submit(ctx, decision)
	s.opts.Metrics.SetInFlight(false)

	switch {
	case errors.Is(err, models.ErrBusy):
		res.Outcome = OutcomeBusy
		s.opts.Metrics.RecordBusyDrop()
		return res, err
	case err != nil:
		res.Outcome = OutcomeExecutionError
		return res, err
	}

	res.Outcome = OutcomeExecuted
	res.Receipt = receipt
	logger.Info("Swap %s executed: digest %s (dry run: %t)", decision.ID, receipt.Digest, receipt.DryRun)

	if s.opts.Notifier != nil {
		if err := s.opts.Notifier.SendSwap(decision, receipt); err != nil {
			logger.Warn("Failed to send swap notification: %v", err)
		}
	}
	return res, nil
}

// failed reports whether a cycle outcome counts toward the failure streak.
// A busy drop is a discarded opportunity, not a failure.
func failed(res CycleResult) bool {
	return res.Err != nil && !errors.Is(res.Err, models.ErrBusy)
}

func (s *Scheduler) finishCycle(res CycleResult) {
	s.opts.Metrics.RecordCycle(string(res.Outcome), res.Duration.Seconds())

	s.stateMu.Lock()
	s.cycles++
	s.last = &res
	previousFailures := s.consecutiveFailures
	if failed(res) {
		s.consecutiveFailures++
	} else {
		s.consecutiveFailures = 0
	}
	s.stateMu.Unlock()

	if failed(res) {
		logger.Error("Trading cycle failed (%s): %v", res.Outcome, res.Err)
		if previousFailures == 0 && s.opts.Notifier != nil {
			if sendErr := s.opts.Notifier.SendError(res.Err); sendErr != nil {
				logger.Warn("Failed to send error notification to Telegram: %v", sendErr)
			}
		}
	} else {
		if previousFailures > 0 && s.opts.Notifier != nil {
			if sendErr := s.opts.Notifier.SendRecovery(previousFailures); sendErr != nil {
				logger.Warn("Failed to send recovery notification to Telegram: %v", sendErr)
			}
		}
		logger.Info("Trading cycle completed in %v (%s)", res.Duration, res.Outcome)
	}

	if s.opts.AfterCycle != nil {
		s.opts.AfterCycle()
	}
}

func (s *Scheduler) recordExecution(r models.ExecutionRecord) {
	s.opts.Metrics.RecordExecution(r.Pair.String(), string(r.Status))
	if s.opts.Journal == nil {
		return
	}
	if err := s.opts.Journal.RecordExecution(r); err != nil {
		logger.Warn("Failed to journal execution %s: %v", r.ID, err)
	}
}
