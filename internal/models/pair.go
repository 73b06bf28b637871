// Package models defines the core domain entities: trading pairs, price samples, routes, and decisions.
package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// TradingPair is a directed swap from TokenIn to TokenOut.
// Pairs are static configuration fixed at startup.
type TradingPair struct {
	TokenIn  string `json:"token_in" mapstructure:"token_in"`
	TokenOut string `json:"token_out" mapstructure:"token_out"`
}

func (p TradingPair) String() string {
	return p.TokenIn + "/" + p.TokenOut
}

// Validate checks pair field constraints.
func (p TradingPair) Validate() error {
	if p.TokenIn == "" {
		return errors.New("token in must not be empty")
	}
	if p.TokenOut == "" {
		return errors.New("token out must not be empty")
	}
	if p.TokenIn == p.TokenOut {
		return fmt.Errorf("token in and token out must differ (%s)", p.TokenIn)
	}
	return nil
}

// PriceSample is a single price observation. Immutable once created.
type PriceSample struct {
	Price      float64   `json:"price"`
	ObservedAt time.Time `json:"observed_at"`
}

// PriceSeries is ordered by ObservedAt ascending.
type PriceSeries []PriceSample

// Earliest returns the oldest retained sample.
func (s PriceSeries) Earliest() (PriceSample, bool) {
	if len(s) == 0 {
		return PriceSample{}, false
	}
	return s[0], true
}

// Latest returns the most recent sample.
func (s PriceSeries) Latest() (PriceSample, bool) {
	if len(s) == 0 {
		return PriceSample{}, false
	}
	return s[len(s)-1], true
}

// MomentumReading is derived each cycle and never stored.
type MomentumReading struct {
	Symbol      string  `json:"symbol"`
	Ratio       float64 `json:"ratio"`
	SampleCount int     `json:"sample_count"`
}

// Exceeds reports whether |Ratio| is strictly above threshold. NaN never exceeds.
func (r MomentumReading) Exceeds(threshold float64) bool {
	return math.Abs(r.Ratio) > threshold
}
