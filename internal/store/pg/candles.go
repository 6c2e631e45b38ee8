package pg

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"turtle_dash/internal/models"
	"turtle_dash/internal/store"
	"turtle_dash/pkg/db"
)

// Candles implement store.Candles
type Candles struct {
	db *db.PgTxManager
}

func NewCandles(m *db.PgTxManager) *Candles {
	return &Candles{db: m}
}

func (s *Candles) available() bool { return s != nil && s.db != nil }

func (s *Candles) Upsert(ctx context.Context, bars []models.PriceBar) (err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "pg.Candles.Upsert")
		}
	}()
	if !s.available() {
		return store.ErrUnavailable
	}
	if len(bars) == 0 {
		return nil
	}

	return s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		for _, b := range bars {
			if _, err := tx.Exec(ctxTx, `
				INSERT INTO daily_candle
				(stock_code, date, open_price, high_price, low_price, close_price, volume)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (stock_code, date) DO UPDATE SET
					open_price  = EXCLUDED.open_price,
					high_price  = EXCLUDED.high_price,
					low_price   = EXCLUDED.low_price,
					close_price = EXCLUDED.close_price,
					volume      = EXCLUDED.volume`,
				b.StockCode, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Candles) LastN(ctx context.Context, stockCode string, n int) (bars []models.PriceBar, err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "pg.Candles.LastN")
		}
	}()
	if !s.available() {
		return nil, store.ErrUnavailable
	}

	rows, err := s.db.Conn().Query(ctx, `
		SELECT stock_code, date, open_price, high_price, low_price, close_price, volume
		FROM daily_candle
		WHERE stock_code = $1
		ORDER BY date DESC
		LIMIT $2`, stockCode, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var b models.PriceBar
		if err = rows.Scan(&b.StockCode, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	// запрос отдаёт свежие первыми — разворачиваем в возрастание даты
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	return bars, nil
}
