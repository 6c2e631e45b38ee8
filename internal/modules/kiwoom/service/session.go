package service

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"turtle_dash/pkg/logger"
)

// wsSession — одна авторизованная WebSocket-сессия. Сессия statefull:
// логин один раз, дальше все обмены (список условий, страницы выдачи)
// идут через это же соединение.
type wsSession struct {
	conn *websocket.Conn
}

func (c *Client) openSession(ctx context.Context) (*wsSession, error) {
	token, err := c.AccessToken(ctx, false)
	if err != nil {
		return nil, err
	}

	conn, _, err := c.wsDialer.DialContext(ctx, c.cfg.Kiwoom.WSSURL+wsPath, c.authHeaders(token))
	if err != nil {
		return nil, errors.Wrap(err, "kiwoom: ws dial")
	}

	s := &wsSession{conn: conn}
	if err = s.login(token); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *wsSession) Close() { _ = s.conn.Close() }

func (s *wsSession) send(v any) error {
	raw, err := sonic.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "kiwoom: marshal frame")
	}
	return errors.Wrap(s.conn.WriteMessage(websocket.TextMessage, raw), "kiwoom: ws write")
}

// recv читает следующий содержательный кадр. PING эхо-ится тем же телом
// прозрачно для вызывающего, мусорные кадры пропускаются.
func (s *wsSession) recv(timeout time.Duration) (frameHead, []byte, error) {
	deadline := time.Now().Add(timeout)
	for {
		if err := s.conn.SetReadDeadline(deadline); err != nil {
			return frameHead{}, nil, errors.Wrap(err, "kiwoom: set deadline")
		}
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return frameHead{}, nil, errors.Wrap(err, "kiwoom: ws read")
		}

		var head frameHead
		if err := sonic.Unmarshal(raw, &head); err != nil {
			logger.Warn("kiwoom: malformed frame: %s", string(raw))
			continue
		}
		if head.Trnm == "PING" {
			_ = s.conn.WriteMessage(websocket.TextMessage, raw)
			continue
		}
		return head, raw, nil
	}
}

func (s *wsSession) login(token string) error {
	if err := s.send(loginRequest{Trnm: "LOGIN", Token: token}); err != nil {
		return err
	}

	deadline := time.Now().Add(loginTimeout)
	for time.Now().Before(deadline) {
		head, _, err := s.recv(time.Until(deadline))
		if err != nil {
			return errors.Wrap(err, "kiwoom: login response")
		}
		if head.Trnm != "LOGIN" {
			logger.Info("kiwoom: frame %q while waiting for login", head.Trnm)
			continue
		}
		if head.ReturnCode != 0 {
			return errors.Errorf("kiwoom: login failed: %s", head.ReturnMsg)
		}
		return nil
	}
	return errors.New("kiwoom: login response timed out")
}
