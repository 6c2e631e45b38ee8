package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"turtle_dash/internal/models"
)

// Ряд со строго постоянным TR=2: low=i, high=i+2, close=i+1.
func constantTRBars(n int) []models.PriceBar {
	bars := make([]models.PriceBar, n)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		f := float64(i)
		bars[i] = models.PriceBar{
			StockCode: "005930",
			Date:      base.AddDate(0, 0, i),
			Open:      f + 1,
			High:      f + 2,
			Low:       f,
			Close:     f + 1,
		}
	}
	return bars
}

func TestATRConstantTrueRange(t *testing.T) {
	bars := constantTRBars(25)
	atr := ATR(bars, 20)

	assert.Len(t, atr, 25)
	// первые period значений не определены: TR нулевого бара не существует
	for i := 0; i < 20; i++ {
		assert.True(t, math.IsNaN(atr[i]), "atr[%d] must be NaN", i)
	}
	for i := 20; i < 25; i++ {
		assert.InDelta(t, 2.0, atr[i], 1e-9, "atr[%d]", i)
	}
}

func TestATRWindowSlides(t *testing.T) {
	bars := constantTRBars(25)
	// выброс на последнем баре: TR = max(30-24, |30-24|, |24-24|) = 6
	bars[24].High = 30
	bars[24].Close = 25

	atr := ATR(bars, 20)
	assert.InDelta(t, 2.0, atr[23], 1e-9)
	assert.InDelta(t, (19*2.0+6.0)/20, atr[24], 1e-9)
}

func TestATRNotEnoughBars(t *testing.T) {
	atr := ATR(constantTRBars(20), 20) // нужен period+1
	for i, v := range atr {
		assert.True(t, math.IsNaN(v), "atr[%d]", i)
	}
}

func TestDonchian(t *testing.T) {
	bars := constantTRBars(30)
	highs, lows := Donchian(bars, 20)

	for i := 0; i < 19; i++ {
		assert.True(t, math.IsNaN(highs[i]), "highs[%d]", i)
		assert.True(t, math.IsNaN(lows[i]), "lows[%d]", i)
	}
	// окно [i-19, i]: max high = i+2, min low = i-19
	assert.InDelta(t, 21.0, highs[19], 1e-9)
	assert.InDelta(t, 0.0, lows[19], 1e-9)
	assert.InDelta(t, 31.0, highs[29], 1e-9)
	assert.InDelta(t, 10.0, lows[29], 1e-9)
}

func TestDonchianNotEnoughBars(t *testing.T) {
	highs, lows := Donchian(constantTRBars(5), 20)
	assert.Len(t, highs, 5)
	for i := range highs {
		assert.True(t, math.IsNaN(highs[i]))
		assert.True(t, math.IsNaN(lows[i]))
	}
}
