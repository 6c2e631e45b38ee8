package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"turtle_dash/internal/modules/config"
)

var upgrader = websocket.Upgrader{}

// wsServer поднимает фейковый брокерский стенд: REST-токен плюс ws-эндпоинт.
// handle вызывается после успешного логина.
func wsServer(t *testing.T, loginCode int, handle func(conn *websocket.Conn)) *config.Config {
	t.Helper()

	var tokenCalls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", tokenHandler(&tokenCalls))
	mux.HandleFunc(wsPath, func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var login map[string]string
		assert.NoError(t, sonic.Unmarshal(raw, &login))
		assert.Equal(t, "LOGIN", login["trnm"])
		assert.Equal(t, "test-token", login["token"])

		resp := map[string]any{"trnm": "LOGIN", "return_code": loginCode, "return_msg": "denied"}
		rb, _ := sonic.Marshal(resp)
		_ = conn.WriteMessage(websocket.TextMessage, rb)

		if loginCode == 0 && handle != nil {
			handle(conn)
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := testConfig(srv.URL)
	cfg.Kiwoom.WSSURL = "ws" + strings.TrimPrefix(srv.URL, "http")
	return cfg
}

func writeFrame(conn *websocket.Conn, v any) {
	raw, _ := sonic.Marshal(v)
	_ = conn.WriteMessage(websocket.TextMessage, raw)
}

func TestConditionList(t *testing.T) {
	cfg := wsServer(t, 0, func(conn *websocket.Conn) {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req map[string]string
		assert.NoError(t, sonic.Unmarshal(raw, &req))
		assert.Equal(t, "CNSRLST", req["trnm"])

		// PING обязан вернуться эхом тем же телом
		ping := []byte(`{"trnm":"PING","data":"x17"}`)
		_ = conn.WriteMessage(websocket.TextMessage, ping)
		_, echo, err := conn.ReadMessage()
		assert.NoError(t, err)
		assert.JSONEq(t, string(ping), string(echo))

		writeFrame(conn, map[string]any{
			"trnm":        "CNSRLST",
			"return_code": 0,
			"data": [][]string{
				{"5", "System 1 breakout"},
				{"9", "system 2 momentum"},
				{"damaged"},
			},
		})
	})

	c := NewClient(cfg)
	channels, err := c.ConditionList(context.Background())
	require.NoError(t, err)
	require.Len(t, channels, 2)
	assert.Equal(t, "5", channels[0].Seq)
	assert.Equal(t, "System 1 breakout", channels[0].Name)
	assert.Equal(t, "9", channels[1].Seq)
}

func TestConditionListLoginRejected(t *testing.T) {
	cfg := wsServer(t, 1, nil)

	c := NewClient(cfg)
	_, err := c.ConditionList(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "login failed")
}

func TestScanConditionPaging(t *testing.T) {
	cfg := wsServer(t, 0, func(conn *websocket.Conn) {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req map[string]string
		assert.NoError(t, sonic.Unmarshal(raw, &req))
		assert.Equal(t, "CNSRREQ", req["trnm"])
		assert.Equal(t, "5", req["seq"])
		assert.Equal(t, "N", req["cont_yn"])

		writeFrame(conn, map[string]any{
			"trnm":        "CNSRREQ",
			"return_code": 0,
			"cont_yn":     "Y",
			"next_key":    "K1",
			"data": []map[string]string{
				{"9001": "005930", "302": "Samsung", "10": "+68,400", "11": "+500", "12": "0.74", "13": "1,000"},
				{"9001": "000660", "302": "Hynix", "10": "-201,000", "11": "-1,500", "12": "-0.74", "13": "2,000"},
			},
		})

		_, raw, err = conn.ReadMessage()
		if err != nil {
			return
		}
		assert.NoError(t, sonic.Unmarshal(raw, &req))
		assert.Equal(t, "Y", req["cont_yn"])
		assert.Equal(t, "K1", req["next_key"])

		writeFrame(conn, map[string]any{
			"trnm":        "CNSRREQ",
			"return_code": 0,
			"cont_yn":     "N",
			"data": []map[string]string{
				{"9001": "035420", "302": "Naver", "10": "190,500", "13": "300"},
			},
		})
	})

	c := NewClient(cfg)
	snaps, err := c.ScanCondition(context.Background(), "5")
	require.NoError(t, err)
	require.Len(t, snaps, 3)

	assert.Equal(t, "005930", snaps[0].Code)
	assert.Equal(t, "Samsung", snaps[0].Name)
	assert.InDelta(t, 68400.0, snaps[0].Current, 1e-9)
	assert.InDelta(t, 201000.0, snaps[1].Current, 1e-9)
	assert.Equal(t, int64(2000), snaps[1].Volume)
	assert.Equal(t, "035420", snaps[2].Code)
}

func TestScanConditionPageTimeout(t *testing.T) {
	cfg := wsServer(t, 0, func(conn *websocket.Conn) {
		_, _, _ = conn.ReadMessage() // CNSRREQ
		// ответ не приходит вовсе
		time.Sleep(500 * time.Millisecond)
	})
	cfg.Scan.PageTimeout = 150 * time.Millisecond

	c := NewClient(cfg)
	snaps, err := c.ScanCondition(context.Background(), "5")
	assert.True(t, errors.Is(err, ErrPageTimeout))
	assert.Empty(t, snaps)
}
