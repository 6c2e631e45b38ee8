package service

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"turtle_dash/internal/helper"
	"turtle_dash/internal/models"
	"turtle_dash/internal/notify"
	"turtle_dash/internal/store"
	"turtle_dash/internal/turtle"
	"turtle_dash/pkg/logger"
)

// HistoryProvider — история дневных свечей. Может вернуть меньше
// запрошенного — это не ошибка, просто данных может не хватить.
type HistoryProvider interface {
	DailyCandles(ctx context.Context, stockCode string, count int) ([]models.PriceBar, error)
}

// Reconciler сводит кандидата из условного поиска с состоянием позиции:
// открыть новую, обновить сопровождение существующей или оставить как есть.
// Ровно одна запись в стор позиций на инструмент за скан; закрытие позиций —
// не его полномочия.
type Reconciler struct {
	history   HistoryProvider
	positions store.Positions
	candles   store.Candles
	signals   store.Signals
	notifier  notify.Notifier
	lookback  int
}

func NewReconciler(
	history HistoryProvider,
	positions store.Positions,
	candles store.Candles,
	signals store.Signals,
	notifier notify.Notifier,
	lookback int,
) *Reconciler {
	return &Reconciler{
		history:   history,
		positions: positions,
		candles:   candles,
		signals:   signals,
		notifier:  notifier,
		lookback:  lookback,
	}
}

// Reconcile никогда не возвращает ошибку: любой сбой по одному инструменту
// деградирует до записи с пустыми/замороженными полями, чтобы не ронять
// остальной батч.
func (r *Reconciler) Reconcile(ctx context.Context, snap models.StockSnapshot, system models.SystemType) models.TurtleStock {
	rec := models.TurtleStock{
		Code:    snap.Code,
		Name:    snap.Name,
		Current: snap.Current,
	}

	storeOK := true
	pos, err := r.positions.GetOpen(ctx, snap.Code)
	if err != nil {
		if !errors.Is(err, store.ErrUnavailable) {
			logger.Error("reconcile %s: position lookup: %v", snap.Code, err)
		}
		storeOK = false
		pos = nil
	}

	bars, err := r.history.DailyCandles(ctx, snap.Code, r.lookback)
	if err != nil {
		logger.Error("reconcile %s: history fetch: %v", snap.Code, err)
		return r.fallback(rec, pos)
	}

	// свечи складываем по пути: upsert по (код, дата), недоступный стор молча
	// пропускаем — кеш истории вторичен
	if err := r.candles.Upsert(ctx, bars); err != nil && !errors.Is(err, store.ErrUnavailable) {
		logger.Warn("reconcile %s: candle upsert: %v", snap.Code, err)
	}

	levels, ok := turtle.CalculateCurrentLevels(bars, system)
	if !ok {
		// мало истории или ATR не определён: «посчитать нельзя», не ошибка.
		// Для открытой позиции отдаём сохранённое — лучше известное
		// вчерашнее, чем null.
		return r.fallback(rec, pos)
	}

	if pos != nil {
		return r.updateExisting(ctx, rec, pos, levels)
	}
	return r.openNew(ctx, rec, bars, levels, system, storeOK)
}

// updateExisting — шаг 3: живые trailing/add-on, всё замороженное не трогаем.
func (r *Reconciler) updateExisting(ctx context.Context, rec models.TurtleStock, pos *models.Position, levels turtle.Levels) models.TurtleStock {
	if _, err := r.positions.UpdateTrailing(ctx, pos.ID, levels.TrailingStop, levels.AddPosition); err != nil {
		if !errors.Is(err, store.ErrUnavailable) {
			logger.Error("reconcile %s: trailing update: %v", pos.StockCode, err)
		}
	}

	rec.EntryDate = helper.Ptr(pos.EntryDate.Format("2006-01-02"))
	rec.EntryPrice = helper.Ptr(pos.EntryPrice)
	rec.StopLoss = helper.Ptr(pos.FixedStopLoss)
	rec.TrailingStop = helper.Ptr(levels.TrailingStop)
	rec.AddPosition = helper.Ptr(levels.AddPosition)
	rec.HasPosition = true
	return rec
}

// openNew — шаг 4: новая позиция с замороженными entry/ATR/стопом.
// При недоступном сторе ветка остаётся расчётной: уровни отдаём,
// ничего не персистим, entry-поля пустые.
func (r *Reconciler) openNew(ctx context.Context, rec models.TurtleStock, bars []models.PriceBar, levels turtle.Levels, system models.SystemType, storeOK bool) models.TurtleStock {
	entry := helper.Round2(bars[len(bars)-1].Close)
	rec.StopLoss = helper.Ptr(levels.StopLoss)
	rec.TrailingStop = helper.Ptr(levels.TrailingStop)
	rec.AddPosition = helper.Ptr(levels.AddPosition)

	if !storeOK {
		return rec
	}

	today := time.Now()

	// формальный сигнал пишем в журнал, если пробой подтверждается;
	// позиция может открыться и без него (кандидат пришёл из скана)
	var signalID *int64
	if sig := calculateSignal(bars, today, system); sig != nil {
		if id, err := r.signals.Append(ctx, sig); err != nil {
			if !errors.Is(err, store.ErrUnavailable) {
				logger.Error("reconcile %s: signal append: %v", rec.Code, err)
			}
		} else {
			signalID = &id
		}
	}

	pos := &models.Position{
		StockCode:           rec.Code,
		SignalID:            signalID,
		EntryDate:           today,
		EntryPrice:          entry,
		EntryATR:            levels.ATR,
		FixedStopLoss:       levels.StopLoss,
		System:              system,
		CurrentTrailingStop: helper.Ptr(levels.TrailingStop),
		CurrentAddPosition:  helper.Ptr(levels.AddPosition),
	}

	if _, err := r.positions.Create(ctx, pos); err != nil {
		if !errors.Is(err, store.ErrUnavailable) {
			logger.Error("reconcile %s: position create: %v", rec.Code, err)
		}
		// расчётные уровни остаются, entry-полей нет — позиция не записана
		return rec
	}

	rec.EntryDate = helper.Ptr(today.Format("2006-01-02"))
	rec.EntryPrice = helper.Ptr(entry)
	rec.HasPosition = true

	r.notifier.Sendf("🐢 Новая позиция [система %s]: %s %s @ %.2f (стоп %.2f)",
		system.Key(), rec.Code, rec.Name, entry, levels.StopLoss)
	return rec
}

// fallback — шаг 2: живых уровней нет. Для открытой позиции — замороженные
// значения из стора, иначе нули.
func (r *Reconciler) fallback(rec models.TurtleStock, pos *models.Position) models.TurtleStock {
	if pos == nil {
		return rec
	}
	rec.EntryDate = helper.Ptr(pos.EntryDate.Format("2006-01-02"))
	rec.EntryPrice = helper.Ptr(pos.EntryPrice)
	rec.StopLoss = helper.Ptr(pos.FixedStopLoss)
	rec.TrailingStop = pos.CurrentTrailingStop
	rec.AddPosition = pos.CurrentAddPosition
	rec.HasPosition = true
	return rec
}

func calculateSignal(bars []models.PriceBar, asOf time.Time, system models.SystemType) *models.Signal {
	if system == models.System2 {
		return turtle.CalculateSystem2(bars, asOf)
	}
	return turtle.CalculateSystem1(bars, asOf)
}
