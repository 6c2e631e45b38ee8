package scanner

import (
	"context"

	"go.uber.org/fx"

	rediscache "turtle_dash/internal/cache/redis"
	"turtle_dash/internal/modules/config"
	healthsvc "turtle_dash/internal/modules/health/service"
	kiwoomsvc "turtle_dash/internal/modules/kiwoom/service"
	"turtle_dash/internal/modules/scanner/service"
	"turtle_dash/internal/notify"
	"turtle_dash/internal/store"
	"turtle_dash/pkg/logger"
	"turtle_dash/pkg/tracing"
)

func Module() fx.Option {
	return fx.Module("scanner",
		fx.Provide(
			func(cfg *config.Config) notify.Notifier {
				if cfg.Telegram.Token == "" {
					return notify.Noop{}
				}
				t, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
				if err != nil {
					logger.Error("telegram init: %v — notifications off", err)
					return notify.Noop{}
				}
				return t
			},
			// кеш снапшота опционален: без redis просто nil
			func(ctx context.Context, cfg *config.Config) *rediscache.Snapshots {
				if cfg.Redis.Addr == "" {
					return nil
				}
				c, err := rediscache.New(ctx, rediscache.ClientConfig{
					Addr:     cfg.Redis.Addr,
					Password: cfg.Redis.Password,
					DB:       cfg.Redis.DB,
				})
				if err != nil {
					logger.Warn("redis unavailable: %v — snapshot cache off", err)
					return nil
				}
				return rediscache.NewSnapshots(c)
			},
			func(client *kiwoomsvc.Client, positions store.Positions, candles store.Candles, signals store.Signals, n notify.Notifier, cfg *config.Config) *service.Reconciler {
				return service.NewReconciler(client, positions, candles, signals, n, cfg.Scan.CandleLookback)
			},
			func(client *kiwoomsvc.Client, rec *service.Reconciler, cfg *config.Config, state *healthsvc.State) *service.Orchestrator {
				return service.NewOrchestrator(client, client, rec, cfg, state)
			},
			service.NewSnapshot,
			service.NewRunner,
		),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config) {
			if cfg.Jaeger.Host == "" {
				return
			}
			tracing.SetServiceName("turtle_dash")
			_, closeTracer, err := tracing.InitTracer(tracing.Config{
				Host: cfg.Jaeger.Host,
				Port: cfg.Jaeger.Port,
			})
			if err != nil {
				logger.Error("jaeger init: %v — tracing off", err)
				return
			}
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					closeTracer()
					return nil
				},
			})
		}),
		fx.Invoke(func(
			lc fx.Lifecycle,
			r *service.Runner,
			cfg *config.Config,
			ctx context.Context,
		) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go r.Start(ctx)
					// первый скан сразу при старте, дальше по расписанию
					r.Trigger("startup")
					go service.RunDaily(ctx, cfg.Scan.Time, r)
					return nil
				},
			})
		}),
	)
}
