package models

import (
	"time"
)

// Decision is produced by the evaluator, consumed once by the execution gate, then discarded.
type Decision struct {
	ID             string
	Pair           TradingPair
	Momentum       float64
	Route          Route
	ExpectedProfit float64
	DecidedAt      time.Time
}

// TxReceipt is the outcome of a submitted swap.
type TxReceipt struct {
	Digest      string
	Status      string
	GasUsed     int64
	DryRun      bool
	SubmittedAt time.Time
}

type ExecutionStatus string

const (
	ExecutionSucceeded ExecutionStatus = "succeeded"
	ExecutionFailed    ExecutionStatus = "failed"
)

// ExecutionRecord describes one accepted swap attempt.
type ExecutionRecord struct {
	ID         string          `json:"id"`
	DecisionID string          `json:"decision_id"`
	Pair       TradingPair     `json:"pair"`
	Status     ExecutionStatus `json:"status"`
	Digest     string          `json:"digest,omitempty"`
	DryRun     bool            `json:"dry_run"`
	Error      string          `json:"error,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
}
