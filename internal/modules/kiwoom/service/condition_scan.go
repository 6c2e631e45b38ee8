package service

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"turtle_dash/internal/helper"
	"turtle_dash/internal/models"
	"turtle_dash/pkg/logger"
)

// ErrPageTimeout — страница выдачи не пришла за отведённое окно.
// Накопленные до этого строки валидны; вызывающий отличает этот исход
// от штатного «страниц больше нет».
var ErrPageTimeout = errors.New("kiwoom: condition page timed out")

// ScanCondition выполняет условный поиск seq с пейджингом cont_yn/next_key
// в рамках одной ws-сессии. При таймауте страницы возвращает накопленное
// вместе с ErrPageTimeout.
func (c *Client) ScanCondition(ctx context.Context, seq string) ([]models.StockSnapshot, error) {
	s, err := c.openSession(ctx)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	var (
		all      []models.StockSnapshot
		contYn   = "N"
		nextKey  = ""
		pageNum  = 1
		pageWait = c.cfg.Scan.PageTimeout
	)

	for {
		if err = ctx.Err(); err != nil {
			return all, err
		}

		req := conditionScanRequest{
			Trnm:       "CNSRREQ",
			Seq:        seq,
			SearchType: "0",
			StexTp:     "K",
			ContYn:     contYn,
			NextKey:    nextKey,
		}
		logger.Info("kiwoom: condition %s page %d request (cont_yn=%s)", seq, pageNum, contYn)
		if err = s.send(req); err != nil {
			return all, err
		}

		deadline := time.Now().Add(pageWait)
		pageDone := false
		for time.Now().Before(deadline) {
			head, raw, err := s.recv(time.Until(deadline))
			if err != nil {
				logger.Error("kiwoom: condition %s page %d: %v", seq, pageNum, err)
				return all, ErrPageTimeout
			}
			if head.Trnm != "CNSRREQ" {
				logger.Info("kiwoom: frame %q while waiting for page", head.Trnm)
				continue
			}
			if head.ReturnCode != 0 {
				return all, errors.Errorf("kiwoom: condition %s failed: %s", seq, head.ReturnMsg)
			}

			var resp conditionScanResponse
			if err = sonic.Unmarshal(raw, &resp); err != nil {
				return all, errors.Wrap(err, "kiwoom: decode condition page")
			}

			for _, d := range resp.Data {
				all = append(all, models.StockSnapshot{
					Code:    d[fieldCode],
					Name:    d[fieldName],
					Current: helper.ParsePrice(d[fieldCurrent]),
					Change:  helper.ParsePrice(d[fieldChange]),
					Rate:    d[fieldRate],
					Volume:  helper.ParseVolume(d[fieldVolume]),
				})
			}
			logger.Info("kiwoom: condition %s page %d: %d rows (total %d)", seq, pageNum, len(resp.Data), len(all))

			if resp.ContYn == "Y" && resp.NextKey != "" {
				contYn = "Y"
				nextKey = resp.NextKey
				pageNum++
				pageDone = true
				break
			}
			logger.Info("kiwoom: condition %s done: %d rows", seq, len(all))
			return all, nil
		}

		if !pageDone {
			logger.Error("kiwoom: condition %s page %d timed out", seq, pageNum)
			return all, ErrPageTimeout
		}
	}
}
