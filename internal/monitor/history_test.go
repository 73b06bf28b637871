package monitor

import (
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceHistory_RecordEvictsExactWindow(t *testing.T) {
	h := NewPriceHistory(5 * time.Minute)
	t0 := time.Unix(1_700_000_000, 0)

	h.Record("SUI", 1.00, t0)
	h.Record("SUI", 1.01, t0.Add(2*time.Minute))
	series := h.Record("SUI", 1.02, t0.Add(5*time.Minute))

	// t0 is exactly now - window and must be evicted.
	require.Len(t, series, 2)
	assert.Equal(t, 1.01, series[0].Price)
	assert.Equal(t, 1.02, series[1].Price)

	now := t0.Add(5 * time.Minute)
	for _, s := range series {
		assert.True(t, s.ObservedAt.After(now.Add(-h.Window())), "sample at %v outside window", s.ObservedAt)
	}
}

func TestPriceHistory_DropsEverythingAfterGap(t *testing.T) {
	h := NewPriceHistory(time.Minute)
	t0 := time.Unix(1_700_000_000, 0)

	h.Record("SUI", 1.0, t0)
	h.Record("SUI", 1.1, t0.Add(10*time.Second))
	series := h.Record("SUI", 1.2, t0.Add(time.Hour))

	require.Len(t, series, 1)
	assert.Equal(t, 1.2, series[0].Price)
}

func TestPriceHistory_IndependentSymbols(t *testing.T) {
	h := NewPriceHistory(time.Minute)
	t0 := time.Unix(1_700_000_000, 0)

	h.Record("SUI", 1.0, t0)
	h.Record("CETUS", 0.1, t0)
	h.Record("SUI", 1.1, t0.Add(time.Second))

	assert.Len(t, h.Series("SUI"), 2)
	assert.Len(t, h.Series("CETUS"), 1)
	assert.Equal(t, []string{"CETUS", "SUI"}, h.Symbols())
}

func TestPriceHistory_ReturnsCopy(t *testing.T) {
	h := NewPriceHistory(time.Minute)
	t0 := time.Unix(1_700_000_000, 0)

	series := h.Record("SUI", 1.0, t0)
	series[0].Price = 99

	assert.Equal(t, 1.0, h.Series("SUI")[0].Price)
}

func TestPriceHistory_NaNPropagates(t *testing.T) {
	h := NewPriceHistory(time.Minute)
	t0 := time.Unix(1_700_000_000, 0)

	h.Record("SUI", 1.0, t0)
	series := h.Record("SUI", math.NaN(), t0.Add(time.Second))

	assert.True(t, math.IsNaN(Momentum(series)))
}

func TestPriceHistory_ConcurrentSymbols(t *testing.T) {
	h := NewPriceHistory(time.Minute)
	t0 := time.Unix(1_700_000_000, 0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sym := fmt.Sprintf("TOK%d", i)
			for j := 0; j < 50; j++ {
				h.Record(sym, float64(j+1), t0.Add(time.Duration(j)*time.Millisecond))
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		series := h.Series(fmt.Sprintf("TOK%d", i))
		require.Len(t, series, 50)
		assert.Equal(t, 50.0, series[49].Price)
	}

	h.Reset()
	assert.Empty(t, h.Symbols())
}

func TestNewPriceHistory_DefaultWindow(t *testing.T) {
	assert.Equal(t, DefaultWindow, NewPriceHistory(0).Window())
}

func TestPriceHistory_SeriesAtHidesStaleSamples(t *testing.T) {
	h := NewPriceHistory(5 * time.Minute)
	t0 := time.Unix(1_700_000_000, 0)
	h.Record("SUI", 1.00, t0)
	h.Record("SUI", 1.10, t0.Add(3*time.Minute))

	assert.Len(t, h.SeriesAt("SUI", t0.Add(4*time.Minute)), 2)

	fresh := h.SeriesAt("SUI", t0.Add(5*time.Minute))
	require.Len(t, fresh, 1)
	assert.Equal(t, 1.10, fresh[0].Price)

	assert.Empty(t, h.SeriesAt("SUI", t0.Add(10*time.Minute)))
	assert.Len(t, h.Series("SUI"), 2, "stored series is untouched")
}
