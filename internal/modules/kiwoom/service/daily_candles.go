package service

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"turtle_dash/internal/helper"
	"turtle_dash/internal/models"
	"turtle_dash/pkg/logger"
)

const candleTR = "stk_dt_pole_chart_qry"

// DailyCandles тянет до count дневных свечей по инструменту через REST TR
// с пейджингом в заголовках cont-yn / next-key. Вернуть меньше запрошенного —
// не ошибка: у молодых бумаг истории просто нет.
func (c *Client) DailyCandles(ctx context.Context, stockCode string, count int) ([]models.PriceBar, error) {
	token, err := c.AccessToken(ctx, false)
	if err != nil {
		return nil, err
	}

	var (
		rows    []candleRow
		contYn  string
		nextKey string
		baseDt  = time.Now().Format("20060102")
	)

	for {
		body, err := sonic.Marshal(candleRequest{
			StkCd:      stockCode,
			BaseDt:     baseDt,
			UpdStkpcTp: "1",
		})
		if err != nil {
			return nil, errors.Wrap(err, "kiwoom: marshal candle request")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.cfg.Kiwoom.BaseURL+c.cfg.Kiwoom.CandlePath, bytes.NewReader(body))
		if err != nil {
			return nil, errors.Wrap(err, "kiwoom: candle request")
		}
		req.Header.Set("Content-Type", "application/json;charset=UTF-8")
		req.Header.Set("api-id", candleTR)
		req.Header.Set("appkey", c.cfg.Kiwoom.AppKey)
		req.Header.Set("secretkey", c.cfg.Kiwoom.AppSecret)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		if contYn != "" {
			req.Header.Set("cont-yn", contYn)
			req.Header.Set("next-key", nextKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, errors.Wrap(err, "kiwoom: candle request")
		}
		rb, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if resp.StatusCode/100 != 2 {
			return nil, errors.Errorf("kiwoom: candle http %d: %s", resp.StatusCode, string(rb))
		}

		contYn = resp.Header.Get("cont-yn")
		nextKey = resp.Header.Get("next-key")

		var cr candleResponse
		if err = sonic.Unmarshal(rb, &cr); err != nil {
			return nil, errors.Wrap(err, "kiwoom: decode candle response")
		}
		rows = append(rows, cr.Rows...)

		if contYn != "Y" || len(rows) >= count {
			break
		}
	}

	if len(rows) > count {
		rows = rows[:count]
	}

	bars := make([]models.PriceBar, 0, len(rows))
	for _, r := range rows {
		d, err := time.Parse("20060102", r.Dt)
		if err != nil {
			logger.Warn("kiwoom: bad candle date %q for %s", r.Dt, stockCode)
			continue
		}
		bars = append(bars, models.PriceBar{
			StockCode: stockCode,
			Date:      d,
			Open:      helper.ParsePrice(r.OpenPric),
			High:      helper.ParsePrice(r.HighPric),
			Low:       helper.ParsePrice(r.LowPric),
			Close:     helper.ParsePrice(r.CurPrc),
			Volume:    helper.ParseVolume(r.TrdeQty),
		})
	}

	// брокер отдаёт свежие первыми — калькулятору нужен возрастающий ряд
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}
