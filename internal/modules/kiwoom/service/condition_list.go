package service

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"turtle_dash/internal/models"
	"turtle_dash/pkg/logger"
)

const listWindow = 30 * time.Second

// ConditionList возвращает упорядоченный список условных поисков (seq, имя).
// Одна ws-сессия на вызов: логин, CNSRLST, ответ.
func (c *Client) ConditionList(ctx context.Context) ([]models.ConditionChannel, error) {
	s, err := c.openSession(ctx)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	if err = s.send(conditionListRequest{Trnm: "CNSRLST"}); err != nil {
		return nil, err
	}

	// после read-timeout у gorilla соединение мертво, поэтому одно окно
	// на весь ответ, без повторных коротких ожиданий
	deadline := time.Now().Add(listWindow)
	for time.Now().Before(deadline) {
		head, raw, err := s.recv(time.Until(deadline))
		if err != nil {
			return nil, errors.Wrap(err, "kiwoom: condition list")
		}
		if head.Trnm != "CNSRLST" {
			logger.Info("kiwoom: frame %q while waiting for condition list", head.Trnm)
			continue
		}
		if head.ReturnCode != 0 {
			return nil, errors.Errorf("kiwoom: condition list failed: %s", head.ReturnMsg)
		}

		var resp conditionListResponse
		if err = sonic.Unmarshal(raw, &resp); err != nil {
			return nil, errors.Wrap(err, "kiwoom: decode condition list")
		}

		out := make([]models.ConditionChannel, 0, len(resp.Data))
		for _, item := range resp.Data {
			if len(item) < 2 {
				continue
			}
			out = append(out, models.ConditionChannel{Seq: item[0], Name: item[1]})
		}
		logger.Info("kiwoom: condition list ok: %d channels", len(out))
		return out, nil
	}

	return nil, errors.New("kiwoom: condition list timed out")
}
