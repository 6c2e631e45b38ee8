package service

import (
	"context"

	rediscache "turtle_dash/internal/cache/redis"
	healthsvc "turtle_dash/internal/modules/health/service"
	"turtle_dash/internal/notify"
	"turtle_dash/pkg/logger"
)

// Runner — единственный исполнитель сканов. Планировщик и ручной рефреш
// оба кидают триггер сюда, своих исполнителей не заводят. Триггер во время
// идущего скана отбрасывается: сканы идемпотентны, свежий уже в работе.
type Runner struct {
	orch     *Orchestrator
	cell     *Snapshot
	cache    *rediscache.Snapshots // может быть nil
	state    *healthsvc.State
	notifier notify.Notifier

	triggers chan string
}

func NewRunner(
	orch *Orchestrator,
	cell *Snapshot,
	cache *rediscache.Snapshots,
	state *healthsvc.State,
	notifier notify.Notifier,
) *Runner {
	return &Runner{
		orch:     orch,
		cell:     cell,
		cache:    cache,
		state:    state,
		notifier: notifier,
		triggers: make(chan string, 1),
	}
}

// Trigger неблокирующе ставит скан в работу. false — раннер занят.
func (r *Runner) Trigger(source string) bool {
	select {
	case r.triggers <- source:
		return true
	default:
		return false
	}
}

// Start — цикл раннера, живёт до отмены контекста.
func (r *Runner) Start(ctx context.Context) {
	r.warm(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case src := <-r.triggers:
			r.runOnce(ctx, src)
		}
	}
}

// warm поднимает прошлый снапшот из redis, чтобы дашборд не был пустым
// до первого скана. Нет кеша — нет проблемы.
func (r *Runner) warm(ctx context.Context) {
	if r.cache == nil || r.cell.Get() != nil {
		return
	}
	res, err := r.cache.Load(ctx)
	if err != nil {
		logger.Warn("runner: snapshot warm-up: %v", err)
		return
	}
	if res != nil {
		r.cell.Set(res)
		logger.Info("runner: dashboard warmed from cache (updated %s)", res.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
}

func (r *Runner) runOnce(ctx context.Context, source string) {
	logger.Info("runner: scan started (source=%s)", source)
	r.state.SetScanRunning(true)
	defer r.state.SetScanRunning(false)

	res := r.orch.RunScan(ctx)

	r.cell.Set(res)
	r.state.MarkScan(res.UpdatedAt)
	r.state.SetReady(true)

	if r.cache != nil {
		if err := r.cache.Save(ctx, res); err != nil {
			logger.Warn("runner: snapshot save: %v", err)
		}
	}

	logger.Info("runner: scan finished: system1=%d system2=%d degraded=%v",
		len(res.System1), len(res.System2), res.Degraded)
	r.notifier.Sendf("🐢 Скан завершён: система 1 — %d, система 2 — %d",
		len(res.System1), len(res.System2))
}
