// Package executor gates swap submission so that at most one execution is in flight.
package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rewired-gh/suimomentum/internal/logger"
	"github.com/rewired-gh/suimomentum/internal/models"
)

// Signer builds, signs and submits the swap transaction for a route.
type Signer interface {
	SubmitSwap(ctx context.Context, route models.Route) (*models.TxReceipt, error)
}

type State int32

const (
	Idle State = iota
	InFlight
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case InFlight:
		return "in_flight"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Gate turns a decision into a single swap attempt. A decision submitted while
// another is in flight is rejected with models.ErrBusy and dropped.
type Gate struct {
	signer Signer
	state  atomic.Int32
	now    func() time.Time

	hookMu      sync.Mutex
	onExecution func(models.ExecutionRecord)
}

func NewGate(signer Signer) *Gate {
	return &Gate{
		signer: signer,
		now:    time.Now,
	}
}

// OnExecution registers a callback invoked after every accepted attempt.
func (g *Gate) OnExecution(fn func(models.ExecutionRecord)) {
	g.hookMu.Lock()
	defer g.hookMu.Unlock()
	g.onExecution = fn
}

// State reports whether an execution is in flight.
func (g *Gate) State() State {
	return State(g.state.Load())
}

// Submit executes the decision's route. It never retries.
func (g *Gate) Submit(ctx context.Context, decision *models.Decision) (receipt *models.TxReceipt, err error) {
	if decision == nil {
		return nil, errors.New("nil decision")
	}
	if !g.state.CompareAndSwap(int32(Idle), int32(InFlight)) {
		logger.Warn("Dropping decision %s for %s: %v", decision.ID, decision.Pair, models.ErrBusy)
		return nil, models.ErrBusy
	}

	record := models.ExecutionRecord{
		ID:         uuid.New().String(),
		DecisionID: decision.ID,
		Pair:       decision.Pair,
		StartedAt:  g.now(),
	}

	defer func() {
		if r := recover(); r != nil {
			receipt = nil
			err = &models.ExecutionError{
				DecisionID: decision.ID,
				Pair:       decision.Pair,
				Err:        fmt.Errorf("signer panic: %v", r),
			}
		}

		record.FinishedAt = g.now()
		if err != nil {
			record.Status = models.ExecutionFailed
			record.Error = err.Error()
		} else {
			record.Status = models.ExecutionSucceeded
			record.Digest = receipt.Digest
			record.DryRun = receipt.DryRun
		}

		g.state.Store(int32(Idle))
		g.notify(record)
	}()

	logger.Info("Submitting swap %s: %.4f %s -> %.4f %s (fees %.4f, expected profit %.2f%%)",
		decision.ID, decision.Route.InputAmount, decision.Pair.TokenIn,
		decision.Route.OutputAmount, decision.Pair.TokenOut, decision.Route.TotalFees,
		decision.ExpectedProfit*100)

	receipt, err = g.signer.SubmitSwap(ctx, decision.Route)
	if err != nil {
		return nil, &models.ExecutionError{DecisionID: decision.ID, Pair: decision.Pair, Err: err}
	}
	if receipt == nil {
		return nil, &models.ExecutionError{DecisionID: decision.ID, Pair: decision.Pair, Err: errors.New("signer returned no receipt")}
	}
	return receipt, nil
}

func (g *Gate) notify(record models.ExecutionRecord) {
	g.hookMu.Lock()
	fn := g.onExecution
	g.hookMu.Unlock()
	if fn != nil {
		fn(record)
	}
}
