package pg

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"turtle_dash/internal/models"
	"turtle_dash/internal/store"
	"turtle_dash/pkg/db"
)

// Signals implement store.Signals
type Signals struct {
	db *db.PgTxManager
}

func NewSignals(m *db.PgTxManager) *Signals {
	return &Signals{db: m}
}

func (s *Signals) available() bool { return s != nil && s.db != nil }

func (s *Signals) Append(ctx context.Context, sig *models.Signal) (id int64, err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "pg.Signals.Append")
		}
	}()
	if !s.available() {
		return 0, store.ErrUnavailable
	}

	err = s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		return tx.QueryRow(ctxTx, `
			INSERT INTO turtle_signals
			(stock_code, signal_date, system_type, signal_type, entry_price,
			 stop_loss, take_profit, add_position, atr_20, donchian_high, donchian_low)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id`,
			sig.StockCode, sig.SignalDate, int(sig.System), string(sig.Type), sig.EntryPrice,
			sig.StopLoss, sig.TakeProfit, sig.AddPosition, sig.ATR, sig.DonchianHigh, sig.DonchianLow,
		).Scan(&id)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Signals) Recent(ctx context.Context, limit int) (out []models.Signal, err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "pg.Signals.Recent")
		}
	}()
	if !s.available() {
		return nil, store.ErrUnavailable
	}

	rows, err := s.db.Conn().Query(ctx, `
		SELECT id, stock_code, signal_date, system_type, signal_type, entry_price,
		       stop_loss, take_profit, add_position, atr_20, donchian_high, donchian_low, created_at
		FROM turtle_signals
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var sig models.Signal
		var system int
		var sigType string
		if err = rows.Scan(
			&sig.ID, &sig.StockCode, &sig.SignalDate, &system, &sigType, &sig.EntryPrice,
			&sig.StopLoss, &sig.TakeProfit, &sig.AddPosition, &sig.ATR,
			&sig.DonchianHigh, &sig.DonchianLow, &sig.CreatedAt,
		); err != nil {
			return nil, err
		}
		sig.System = models.SystemType(system)
		sig.Type = models.SignalType(sigType)
		out = append(out, sig)
	}
	return out, rows.Err()
}
