package models

import "errors"

// RouteStep is one hop of an aggregator route. Opaque to the decision engine.
type RouteStep struct {
	PoolID    string  `json:"poolId"`
	Dex       string  `json:"dex"`
	TokenIn   string  `json:"tokenIn"`
	TokenOut  string  `json:"tokenOut"`
	AmountIn  float64 `json:"amountIn"`
	AmountOut float64 `json:"amountOut"`
}

// Route is a swap path computed by the external aggregator.
// Only InputAmount, OutputAmount and TotalFees are read by the engine; the whole
// route is passed through to the signer.
type Route struct {
	InputAmount  float64     `json:"inputAmount"`
	OutputAmount float64     `json:"outputAmount"`
	TotalFees    float64     `json:"totalFees"`
	Steps        []RouteStep `json:"steps"`
}

// ExpectedProfit returns (output - input - fees) / input.
func (r Route) ExpectedProfit() float64 {
	return (r.OutputAmount - r.InputAmount - r.TotalFees) / r.InputAmount
}

// Validate checks route field constraints.
func (r Route) Validate() error {
	if r.InputAmount <= 0 {
		return errors.New("route input amount must be positive")
	}
	if r.OutputAmount < 0 {
		return errors.New("route output amount must not be negative")
	}
	if r.TotalFees < 0 {
		return errors.New("route total fees must not be negative")
	}
	return nil
}
