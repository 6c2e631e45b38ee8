// Package turtle — расчёт сигналов по правилам Turtle: пробой дончиана,
// сайзинг уровней через ATR. Функции чистые: ряд свечей на входе,
// сигнал или уровни на выходе, никаких побочных эффектов.
package turtle

import (
	"math"
	"time"

	"turtle_dash/internal/helper"
	"turtle_dash/internal/indicator"
	"turtle_dash/internal/models"
)

const (
	atrPeriod = 20 // ATR всегда 20д, независимо от периода входа

	system1Entry = 20
	system2Entry = 55

	stopLossMult = 2.0
	addOnMult    = 0.5

	system1TakeProfitMult = 4.0
	system2TakeProfitMult = 6.0 // система 2 целится дальше
)

// CalculateSystem1 — система 1 (короткая): вход по пробою 20д канала.
// Нужно минимум 30 баров, иначе сигнала нет.
func CalculateSystem1(bars []models.PriceBar, asOf time.Time) *models.Signal {
	return calculate(bars, asOf, models.System1, system1Entry, system1TakeProfitMult)
}

// CalculateSystem2 — система 2 (длинная): вход по пробою 55д канала,
// тейк шире (6×ATR). Нужно минимум 60 баров.
func CalculateSystem2(bars []models.PriceBar, asOf time.Time) *models.Signal {
	return calculate(bars, asOf, models.System2, system2Entry, system2TakeProfitMult)
}

func calculate(bars []models.PriceBar, asOf time.Time, system models.SystemType, entryPeriod int, tpMult float64) *models.Signal {
	n := len(bars)
	if n < system.MinBars() {
		return nil
	}

	atr := indicator.ATR(bars, atrPeriod)
	highCh, lowCh := indicator.Donchian(bars, entryPeriod)

	// Пробой меряем против канала ПРЕДЫДУЩЕГО бара: канал, в который входит
	// сегодняшний экстремум, сигналом не считается (look-ahead).
	current := bars[n-1].Close
	prevHigh := highCh[n-2]
	prevLow := lowCh[n-2]
	currentATR := atr[n-1]

	if math.IsNaN(currentATR) || math.IsNaN(prevHigh) {
		return nil
	}

	var side models.SignalType
	var stop, take, addOn float64
	switch {
	case current > prevHigh:
		side = models.SignalBuy
		stop = current - stopLossMult*currentATR
		take = current + tpMult*currentATR
		addOn = current + addOnMult*currentATR
	case current < prevLow:
		side = models.SignalSell
		stop = current + stopLossMult*currentATR
		take = current - tpMult*currentATR
		addOn = current - addOnMult*currentATR
	default:
		// цена внутри канала — сигнала нет
		return nil
	}

	return &models.Signal{
		StockCode:    bars[n-1].StockCode,
		SignalDate:   asOf,
		System:       system,
		Type:         side,
		EntryPrice:   helper.Round2(current),
		StopLoss:     helper.Round2(stop),
		TakeProfit:   helper.Round2(take),
		AddPosition:  helper.Round2(addOn),
		ATR:          helper.Round4(currentATR),
		DonchianHigh: helper.Round2(prevHigh),
		DonchianLow:  helper.Round2(prevLow),
	}
}

// Levels — живые уровни сопровождения для уже открытой позиции.
type Levels struct {
	TrailingStop float64
	StopLoss     float64
	AddPosition  float64
	ATR          float64
}

// CalculateCurrentLevels пересчитывает только сопровождение: трейлинг-стоп,
// стоп от текущей цены и цену доливки. Трейлинг — дончиан-лоу за exit-период
// ВКЛЮЧАЯ последний бар: это живой уровень, а не триггер пробоя, исключение
// последнего бара здесь не нужно. ok=false значит «сейчас посчитать нельзя»,
// а не «позиции нет».
func CalculateCurrentLevels(bars []models.PriceBar, system models.SystemType) (Levels, bool) {
	n := len(bars)
	if n < 60 {
		return Levels{}, false
	}

	atr := indicator.ATR(bars, atrPeriod)
	currentATR := atr[n-1]
	if math.IsNaN(currentATR) {
		return Levels{}, false
	}

	exitPeriod := system.ExitPeriod()
	trailing := bars[n-exitPeriod].Low
	for i := n - exitPeriod + 1; i < n; i++ {
		if bars[i].Low < trailing {
			trailing = bars[i].Low
		}
	}

	current := bars[n-1].Close
	return Levels{
		TrailingStop: helper.Round2(trailing),
		StopLoss:     helper.Round2(current - stopLossMult*currentATR),
		AddPosition:  helper.Round2(current + addOnMult*currentATR),
		ATR:          helper.Round4(currentATR),
	}, true
}
