package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"turtle_dash/internal/models"
	"turtle_dash/internal/store"
	"turtle_dash/pkg/db"
	"turtle_dash/pkg/logger"
)

// Positions implement store.Positions
type Positions struct {
	db *db.PgTxManager
}

// NewPositions instance. Манагер может быть nil — тогда стор деградирован
// и каждый вызов вернёт store.ErrUnavailable.
func NewPositions(m *db.PgTxManager) *Positions {
	return &Positions{db: m}
}

func (s *Positions) available() bool { return s != nil && s.db != nil }

const positionColumns = `
	id, stock_code, signal_id, entry_date, entry_price, entry_atr,
	fixed_stop_loss, system_type, quantity, current_trailing_stop,
	current_add_position, is_closed, exit_date, exit_price, exit_reason,
	profit_loss, created_at, updated_at`

func (s *Positions) GetOpen(ctx context.Context, stockCode string) (p *models.Position, err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "pg.Positions.GetOpen")
		}
	}()
	if !s.available() {
		return nil, store.ErrUnavailable
	}

	row := s.db.Conn().QueryRow(ctx, `
		SELECT `+positionColumns+`
		FROM turtle_positions
		WHERE stock_code = $1 AND is_closed = FALSE
		ORDER BY entry_date DESC
		LIMIT 1`, stockCode)

	p, err = scanPosition(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Positions) Create(ctx context.Context, p *models.Position) (id int64, err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "pg.Positions.Create")
		}
	}()
	if !s.available() {
		return 0, store.ErrUnavailable
	}

	err = s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		return tx.QueryRow(ctxTx, `
			INSERT INTO turtle_positions
			(stock_code, signal_id, entry_date, entry_price, entry_atr,
			 fixed_stop_loss, system_type, quantity, current_trailing_stop, current_add_position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id`,
			p.StockCode, p.SignalID, p.EntryDate, p.EntryPrice, p.EntryATR,
			p.FixedStopLoss, int(p.System), p.Quantity, p.CurrentTrailingStop, p.CurrentAddPosition,
		).Scan(&id)
	})
	if err != nil {
		return 0, err
	}
	logger.Info("position created: %s (id=%d)", p.StockCode, id)
	return id, nil
}

func (s *Positions) UpdateTrailing(ctx context.Context, id int64, trailingStop, addPosition float64) (ok bool, err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "pg.Positions.UpdateTrailing")
		}
	}()
	if !s.available() {
		return false, store.ErrUnavailable
	}

	tag, err := s.db.Conn().Exec(ctx, `
		UPDATE turtle_positions
		SET current_trailing_stop = $1, current_add_position = $2, updated_at = now()
		WHERE id = $3 AND is_closed = FALSE`,
		trailingStop, addPosition, id)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		logger.Warn("trailing update skipped: open position id=%d not found", id)
		return false, nil
	}
	return true, nil
}

func (s *Positions) Close(ctx context.Context, id int64, exitDate time.Time, exitPrice float64, reason string, profitLoss float64) (ok bool, err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "pg.Positions.Close")
		}
	}()
	if !s.available() {
		return false, store.ErrUnavailable
	}

	tag, err := s.db.Conn().Exec(ctx, `
		UPDATE turtle_positions
		SET is_closed = TRUE, exit_date = $1, exit_price = $2,
		    exit_reason = $3, profit_loss = $4, updated_at = now()
		WHERE id = $5 AND is_closed = FALSE`,
		exitDate, exitPrice, reason, profitLoss, id)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	logger.Info("position closed: id=%d reason=%s pnl=%.2f", id, reason, profitLoss)
	return true, nil
}

func (s *Positions) Summary(ctx context.Context) (sum *models.PositionSummary, err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "pg.Positions.Summary")
		}
	}()
	if !s.available() {
		return nil, store.ErrUnavailable
	}

	sum = &models.PositionSummary{}
	row := s.db.Conn().QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE NOT is_closed),
			COUNT(*),
			COUNT(*) FILTER (WHERE is_closed AND profit_loss IS NOT NULL),
			COALESCE(SUM(profit_loss) FILTER (WHERE is_closed), 0),
			COALESCE(AVG(profit_loss) FILTER (WHERE is_closed), 0),
			COUNT(*) FILTER (WHERE is_closed AND profit_loss > 0)
		FROM turtle_positions`)
	if err = row.Scan(
		&sum.ActivePositions, &sum.TotalPositions, &sum.ClosedPositions,
		&sum.TotalPnL, &sum.AvgPnL, &sum.WinCount,
	); err != nil {
		return nil, err
	}
	if sum.ClosedPositions > 0 {
		sum.WinRate = float64(sum.WinCount) / float64(sum.ClosedPositions) * 100
	}
	return sum, nil
}

func scanPosition(row pgx.Row) (*models.Position, error) {
	p := &models.Position{}
	var system int
	err := row.Scan(
		&p.ID, &p.StockCode, &p.SignalID, &p.EntryDate, &p.EntryPrice, &p.EntryATR,
		&p.FixedStopLoss, &system, &p.Quantity, &p.CurrentTrailingStop,
		&p.CurrentAddPosition, &p.IsClosed, &p.ExitDate, &p.ExitPrice, &p.ExitReason,
		&p.ProfitLoss, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.System = models.SystemType(system)
	return p, nil
}
