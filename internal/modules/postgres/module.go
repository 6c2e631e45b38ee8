package postgres

import (
	"context"

	"go.uber.org/fx"

	"turtle_dash/internal/modules/config"
	healthsvc "turtle_dash/internal/modules/health/service"
	"turtle_dash/internal/store"
	"turtle_dash/internal/store/pg"
	"turtle_dash/pkg/db"
	"turtle_dash/pkg/logger"
)

// Module поднимает пул и DAO поверх него. Недоступная база — не повод
// не стартовать: движок обязан работать в деградированном режиме,
// поэтому при ошибке коннекта провайдим nil-манагер и явно помечаем
// статус в health.
func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			func(ctx context.Context, cfg *config.Config, state *healthsvc.State) *db.PgTxManager {
				if cfg.DB == "" {
					logger.Warn("db_dsn is empty — running without position store")
					state.SetStoreAvailable(false)
					return nil
				}

				poolMaster, err := db.NewPool(ctx, db.PoolConfig{DSN: cfg.DB})
				if err != nil {
					logger.Error("failed to create poolMaster: %v — store degraded", err)
					state.SetStoreAvailable(false)
					return nil
				}
				if err = poolMaster.Ping(ctx); err != nil {
					logger.Error("postgres ping failed: %v — store degraded", err)
					poolMaster.Close()
					state.SetStoreAvailable(false)
					return nil
				}

				m := db.NewPgTxManager(poolMaster)
				if err = pg.Migrate(ctx, m); err != nil {
					logger.Error("migrate failed: %v — store degraded", err)
					m.Close()
					state.SetStoreAvailable(false)
					return nil
				}

				state.SetStoreAvailable(true)
				return m
			},
			func(m *db.PgTxManager) store.Positions { return pg.NewPositions(m) },
			func(m *db.PgTxManager) store.Candles { return pg.NewCandles(m) },
			func(m *db.PgTxManager) store.Signals { return pg.NewSignals(m) },
		),
		fx.Invoke(func(lc fx.Lifecycle, m *db.PgTxManager) {
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					if m != nil {
						m.Close()
					}
					return nil
				},
			})
		}),
	)
}
