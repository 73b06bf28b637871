package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/rewired-gh/suimomentum/internal/models"
	"github.com/rewired-gh/suimomentum/internal/monitor"
)

// CycleSummary is the externally visible part of the last cycle.
type CycleSummary struct {
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`
	Outcome   Outcome   `json:"outcome"`
	Pair      string    `json:"pair,omitempty"`
	Digest    string    `json:"digest,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Status is a point-in-time snapshot of the scheduler.
type Status struct {
	Phase               string                   `json:"phase"`
	Gate                string                   `json:"gate"`
	Cycles              int                      `json:"cycles"`
	ConsecutiveFailures int                      `json:"consecutive_failures"`
	LastCycle           *CycleSummary            `json:"last_cycle,omitempty"`
	Momentum            []models.MomentumReading `json:"momentum"`
}

// Status reads the current state without taking the cycle lock.
func (s *Scheduler) Status() Status {
	st := Status{
		Phase:    s.Phase().String(),
		Gate:     s.gate.State().String(),
		Momentum: []models.MomentumReading{},
	}

	history := s.evaluator.History()
	now := s.opts.Now()
	for _, sym := range history.Symbols() {
		series := history.SeriesAt(sym, now)
		if len(series) == 0 {
			continue
		}
		st.Momentum = append(st.Momentum, monitor.Reading(sym, series))
	}

	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	st.Cycles = s.cycles
	st.ConsecutiveFailures = s.consecutiveFailures
	if s.last != nil {
		sum := &CycleSummary{
			StartedAt: s.last.StartedAt,
			Duration:  s.last.Duration.String(),
			Outcome:   s.last.Outcome,
		}
		if s.last.Decision != nil {
			sum.Pair = s.last.Decision.Pair.String()
		}
		if s.last.Receipt != nil {
			sum.Digest = s.last.Receipt.Digest
		}
		if s.last.Err != nil {
			sum.Error = s.last.Err.Error()
		}
		st.LastCycle = sum
	}
	return st
}

// String renders the status as plain text for chat commands.
func (st Status) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "phase: %s, gate: %s, cycles: %d", st.Phase, st.Gate, st.Cycles)
	if st.ConsecutiveFailures > 0 {
		fmt.Fprintf(&b, ", failing for %d cycles", st.ConsecutiveFailures)
	}
	b.WriteString("\n")
	if st.LastCycle != nil {
		fmt.Fprintf(&b, "last cycle: %s at %s", st.LastCycle.Outcome, st.LastCycle.StartedAt.Format(time.RFC3339))
		if st.LastCycle.Pair != "" {
			fmt.Fprintf(&b, " on %s", st.LastCycle.Pair)
		}
		b.WriteString("\n")
	}
	for _, r := range st.Momentum {
		fmt.Fprintf(&b, "%s: %+.2f%% over %d samples\n", r.Symbol, r.Ratio*100, r.SampleCount)
	}
	return strings.TrimRight(b.String(), "\n")
}
