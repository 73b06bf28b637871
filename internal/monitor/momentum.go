package monitor

import "github.com/rewired-gh/suimomentum/internal/models"

// Momentum returns the endpoint delta (latest - earliest) / earliest of a series.
// Fewer than two samples is the insufficient-data state and yields exactly 0.
func Momentum(series models.PriceSeries) float64 {
	if len(series) < 2 {
		return 0
	}
	earliest, _ := series.Earliest()
	latest, _ := series.Latest()
	return (latest.Price - earliest.Price) / earliest.Price
}

// Reading computes a MomentumReading for symbol.
func Reading(symbol string, series models.PriceSeries) models.MomentumReading {
	return models.MomentumReading{
		Symbol:      symbol,
		Ratio:       Momentum(series),
		SampleCount: len(series),
	}
}
