package models

import (
	"errors"
	"math"
	"testing"
)

func TestTradingPairValidate(t *testing.T) {
	tests := []struct {
		name    string
		pair    TradingPair
		wantErr bool
	}{
		{name: "valid pair", pair: TradingPair{TokenIn: "SUI", TokenOut: "USDC"}},
		{name: "empty token in", pair: TradingPair{TokenOut: "USDC"}, wantErr: true},
		{name: "empty token out", pair: TradingPair{TokenIn: "SUI"}, wantErr: true},
		{name: "same token", pair: TradingPair{TokenIn: "SUI", TokenOut: "SUI"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.pair.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("TradingPair.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRouteExpectedProfit(t *testing.T) {
	r := Route{InputAmount: 100, OutputAmount: 102, TotalFees: 0.5}
	if got := r.ExpectedProfit(); math.Abs(got-0.015) > 1e-12 {
		t.Errorf("ExpectedProfit() = %v, want 0.015", got)
	}
	if err := (Route{InputAmount: 0}).Validate(); err == nil {
		t.Error("expected error for zero input amount")
	}
}

func TestMomentumReadingExceeds(t *testing.T) {
	tests := []struct {
		ratio float64
		want  bool
	}{
		{0.03, true},
		{-0.03, true},
		{0.02, false},
		{-0.02, false},
		{0, false},
		{math.NaN(), false},
	}
	for _, tt := range tests {
		r := MomentumReading{Symbol: "SUI", Ratio: tt.ratio}
		if got := r.Exceeds(0.02); got != tt.want {
			t.Errorf("Exceeds(%v) = %v, want %v", tt.ratio, got, tt.want)
		}
	}
}

func TestErrorsUnwrap(t *testing.T) {
	cause := errors.New("boom")
	pair := TradingPair{TokenIn: "SUI", TokenOut: "USDC"}

	errs := []error{
		&FeedError{Err: cause},
		&RouteError{Pair: pair, Err: cause},
		&ExecutionError{DecisionID: "d1", Pair: pair, Err: cause},
		&FatalConfigError{Field: "wallet.private_key", Err: cause},
	}
	for _, err := range errs {
		if !errors.Is(err, cause) {
			t.Errorf("%T does not unwrap to cause", err)
		}
	}

	var execErr *ExecutionError
	if !errors.As(errs[2], &execErr) || execErr.Pair != pair {
		t.Errorf("errors.As failed for ExecutionError")
	}
}
