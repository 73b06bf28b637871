package models

import (
	"errors"
	"fmt"
)

// ErrBusy is returned when a swap is attempted while another is in flight.
// The candidate decision is dropped, not queued.
var ErrBusy = errors.New("execution already in flight")

// FeedError means the price fetch failed; the cycle yields no decision.
type FeedError struct {
	Err error
}

func (e *FeedError) Error() string { return fmt.Sprintf("price feed: %v", e.Err) }
func (e *FeedError) Unwrap() error { return e.Err }

// RouteError means the route fetch for one pair failed; only that pair is skipped.
type RouteError struct {
	Pair TradingPair
	Err  error
}

func (e *RouteError) Error() string { return fmt.Sprintf("routes for %s: %v", e.Pair, e.Err) }
func (e *RouteError) Unwrap() error { return e.Err }

// ExecutionError means swap submission failed (signing, network, or on-chain revert).
type ExecutionError struct {
	DecisionID string
	Pair       TradingPair
	Err        error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execute %s (decision %s): %v", e.Pair, e.DecisionID, e.Err)
}
func (e *ExecutionError) Unwrap() error { return e.Err }

// FatalConfigError is the only error kind that terminates the process.
type FatalConfigError struct {
	Field string
	Err   error
}

func (e *FatalConfigError) Error() string { return fmt.Sprintf("config %s: %v", e.Field, e.Err) }
func (e *FatalConfigError) Unwrap() error { return e.Err }
