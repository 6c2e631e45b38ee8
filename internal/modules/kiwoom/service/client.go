// Package service — тонкий клиент брокерского API: условный поиск через
// WebSocket (логин/пинг/пейджинг в рамках одной сессии) и дневные свечи
// через REST. Протокол не переосмысляем, только транспорт.
package service

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"turtle_dash/internal/modules/config"
	"turtle_dash/pkg/logger"
)

const (
	wsPath        = "/api/dostk/websocket"
	tokenLifetime = 23 * time.Hour

	loginTimeout = 10 * time.Second
	recvTimeout  = 5 * time.Second
)

type Client struct {
	cfg      *config.Config
	http     *http.Client
	wsDialer *websocket.Dialer

	mu             sync.Mutex
	accessToken    string
	tokenExpiresAt time.Time
}

func NewClient(cfg *config.Config) *Client {
	c := &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: 30 * time.Second},
		wsDialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}

	// селективный префетч: без токена жить можно, возьмём при первом вызове
	if _, err := c.AccessToken(context.Background(), true); err != nil {
		logger.Error("initial token fetch failed: %v", err)
	}
	return c
}

// AccessToken возвращает кешированный токен, обновляя его по истечении.
func (c *Client) AccessToken(ctx context.Context, forceRefresh bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !forceRefresh && c.accessToken != "" && time.Now().Before(c.tokenExpiresAt) {
		return c.accessToken, nil
	}

	body, err := sonic.Marshal(tokenRequest{
		GrantType: "client_credentials",
		AppKey:    c.cfg.Kiwoom.AppKey,
		SecretKey: c.cfg.Kiwoom.AppSecret,
	})
	if err != nil {
		return "", errors.Wrap(err, "kiwoom: marshal token request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.Kiwoom.BaseURL+"/oauth2/token", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "kiwoom: token request")
	}
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "kiwoom: token request")
	}
	defer resp.Body.Close()

	rb, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return "", errors.Errorf("kiwoom: token http %d: %s", resp.StatusCode, string(rb))
	}

	var tr tokenResponse
	if err = sonic.Unmarshal(rb, &tr); err != nil {
		return "", errors.Wrap(err, "kiwoom: decode token response")
	}

	c.accessToken = tr.Token
	c.tokenExpiresAt = time.Now().Add(tokenLifetime)
	return c.accessToken, nil
}

func (c *Client) authHeaders(token string) http.Header {
	h := http.Header{}
	h.Set("appkey", c.cfg.Kiwoom.AppKey)
	h.Set("secretkey", c.cfg.Kiwoom.AppSecret)
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
