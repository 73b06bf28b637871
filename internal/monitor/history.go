package monitor

import (
	"sort"
	"sync"
	"time"

	"github.com/rewired-gh/suimomentum/internal/models"
)

// DefaultWindow is the trailing window over which samples are retained.
const DefaultWindow = 5 * time.Minute

// PriceHistory keeps one time-ordered series per symbol. Series are created lazily
// on first observation and live only in memory.
type PriceHistory struct {
	mu     sync.Mutex
	window time.Duration
	series map[string]models.PriceSeries
}

func NewPriceHistory(window time.Duration) *PriceHistory {
	if window <= 0 {
		window = DefaultWindow
	}
	return &PriceHistory{
		window: window,
		series: make(map[string]models.PriceSeries),
	}
}

// Window returns the retention window.
func (h *PriceHistory) Window() time.Duration {
	return h.window
}

// Record appends a sample for symbol and evicts every sample with
// observedAt <= now - window. It returns a copy of the retained series.
func (h *PriceHistory) Record(symbol string, price float64, now time.Time) models.PriceSeries {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := append(h.series[symbol], models.PriceSample{Price: price, ObservedAt: now})

	cutoff := now.Add(-h.window)
	keep := 0
	for keep < len(s) && !s[keep].ObservedAt.After(cutoff) {
		keep++
	}
	if keep > 0 {
		s = append(s[:0:0], s[keep:]...)
	}
	h.series[symbol] = s

	return append(models.PriceSeries(nil), s...)
}

// Series returns a copy of the retained series for symbol without modifying it.
func (h *PriceHistory) Series(symbol string) models.PriceSeries {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append(models.PriceSeries(nil), h.series[symbol]...)
}

// SeriesAt returns a copy of the samples for symbol still inside the window at
// now. The stored series is not modified.
func (h *PriceHistory) SeriesAt(symbol string, now time.Time) models.PriceSeries {
	h.mu.Lock()
	defer h.mu.Unlock()

	cutoff := now.Add(-h.window)
	var out models.PriceSeries
	for _, sample := range h.series[symbol] {
		if sample.ObservedAt.After(cutoff) {
			out = append(out, sample)
		}
	}
	return out
}

// Symbols returns every symbol with a series, sorted.
func (h *PriceHistory) Symbols() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	symbols := make([]string, 0, len(h.series))
	for sym := range h.series {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	return symbols
}

// Reset drops all series.
func (h *PriceHistory) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.series = make(map[string]models.PriceSeries)
}
