// Package indicator — чистые функции над упорядоченным рядом свечей.
// Ряд обязан быть отсортирован по возрастанию даты, без ресемплинга —
// это забота вызывающего.
package indicator

import (
	"math"

	"turtle_dash/internal/models"
)

// ATR — скользящее среднее true range за period баров (простое окно,
// не экспонента). TR первого бара не определён (нет prev close), поэтому
// первое определённое значение — на индексе period; до него NaN.
func ATR(bars []models.PriceBar, period int) []float64 {
	n := len(bars)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	if period <= 0 || n < period+1 {
		return out
	}

	tr := make([]float64, n)
	tr[0] = math.NaN()
	for i := 1; i < n; i++ {
		b, prevClose := bars[i], bars[i-1].Close
		tr[i] = math.Max(b.High-b.Low,
			math.Max(math.Abs(b.High-prevClose), math.Abs(b.Low-prevClose)))
	}

	sum := 0.0
	for i := 1; i <= period; i++ {
		sum += tr[i]
	}
	out[period] = sum / float64(period)
	for i := period + 1; i < n; i++ {
		sum += tr[i] - tr[i-period]
		out[i] = sum / float64(period)
	}
	return out
}

// Donchian — скользящий max(high) и min(low) за period баров.
// Определён с индекса period-1, раньше NaN.
func Donchian(bars []models.PriceBar, period int) (highs, lows []float64) {
	n := len(bars)
	highs = make([]float64, n)
	lows = make([]float64, n)
	for i := range highs {
		highs[i] = math.NaN()
		lows[i] = math.NaN()
	}
	if period <= 0 || n < period {
		return highs, lows
	}

	for i := period - 1; i < n; i++ {
		hi, lo := bars[i-period+1].High, bars[i-period+1].Low
		for j := i - period + 2; j <= i; j++ {
			if bars[j].High > hi {
				hi = bars[j].High
			}
			if bars[j].Low < lo {
				lo = bars[j].Low
			}
		}
		highs[i] = hi
		lows[i] = lo
	}
	return highs, lows
}
