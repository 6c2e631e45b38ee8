// Package store — узкие контракты хранилища. Движок сканирования ходит
// только через них; деградация стора (ErrUnavailable) — штатный режим,
// а не авария.
package store

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"turtle_dash/internal/models"
)

// ErrUnavailable — бэкенд недоступен. Reconciler на это переходит
// в stateless-ветку, а не падает.
var ErrUnavailable = errors.New("store: backing store unavailable")

// Positions — одна открытая позиция на инструмент.
type Positions interface {
	// GetOpen возвращает (nil, nil), когда открытой позиции нет.
	GetOpen(ctx context.Context, stockCode string) (*models.Position, error)
	Create(ctx context.Context, p *models.Position) (int64, error)
	// UpdateTrailing меняет только трейлинг-стоп и цену доливки открытой позиции.
	UpdateTrailing(ctx context.Context, id int64, trailingStop, addPosition float64) (bool, error)
	// Close вызывается внешним процессом, не сканом.
	Close(ctx context.Context, id int64, exitDate time.Time, exitPrice float64, reason string, profitLoss float64) (bool, error)
	Summary(ctx context.Context) (*models.PositionSummary, error)
}

// Candles — дневные свечи, upsert по (код, дата): последний пишущий выигрывает.
type Candles interface {
	Upsert(ctx context.Context, bars []models.PriceBar) error
	// LastN — последние n свечей по возрастанию даты.
	LastN(ctx context.Context, stockCode string, n int) ([]models.PriceBar, error)
}

// Signals — append-only журнал пробоев.
type Signals interface {
	Append(ctx context.Context, sig *models.Signal) (int64, error)
	Recent(ctx context.Context, limit int) ([]models.Signal, error)
}
