package dashboard

import (
	"context"
	_ "embed"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/fx"

	"turtle_dash/internal/models"
	"turtle_dash/internal/modules/config"
	scannersvc "turtle_dash/internal/modules/scanner/service"
	"turtle_dash/internal/store"
	"turtle_dash/pkg/logger"
)

//go:embed index.html
var indexHTML []byte

// NewMux — публичный HTTP дашборда: JSON-срез последнего скана,
// ручной рефреш и сводка по позициям.
func NewMux(snap *scannersvc.Snapshot, runner *scannersvc.Runner, positions store.Positions) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(indexHTML)
	})

	mux.HandleFunc("/api/turtle-data", func(w http.ResponseWriter, r *http.Request) {
		res := snap.Get()
		if res == nil {
			// скан ещё не прошёл: корректная пустая форма, не 500
			res = models.EmptyScanResult(false)
		}
		writeJSON(w, http.StatusOK, res)
	})

	mux.HandleFunc("/api/refresh", func(w http.ResponseWriter, r *http.Request) {
		if runner.Trigger("manual") {
			writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "busy",
			"message": "scan already in progress",
		})
	})

	mux.HandleFunc("/api/positions/summary", func(w http.ResponseWriter, r *http.Request) {
		sum, err := positions.Summary(r.Context())
		if err != nil {
			if pkgerrors.Is(err, store.ErrUnavailable) {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status":  "degraded",
					"message": "position store unavailable",
				})
				return
			}
			logger.Error("dashboard: summary: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error"})
			return
		}
		writeJSON(w, http.StatusOK, sum)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	raw, err := sonic.Marshal(v)
	if err != nil {
		logger.Error("dashboard: marshal response: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(raw)
}

func RunHTTP(lc fx.Lifecycle, cfg *config.Config, snap *scannersvc.Snapshot, runner *scannersvc.Runner, positions store.Positions) {
	addr := fmt.Sprintf("%s:%d", cfg.Service.Host, cfg.Service.PublicPort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewMux(snap, runner, positions),
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			logger.Info("dashboard listening on %s", addr)
			go func() { _ = srv.Serve(ln) }()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	return fx.Module("dashboard",
		fx.Invoke(RunHTTP),
	)
}
