package service

import (
	"context"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"turtle_dash/internal/models"
	"turtle_dash/internal/modules/config"
	healthsvc "turtle_dash/internal/modules/health/service"
	kiwoomsvc "turtle_dash/internal/modules/kiwoom/service"
	"turtle_dash/pkg/logger"
)

// ChannelLister отдаёт список условных поисков брокера.
type ChannelLister interface {
	ConditionList(ctx context.Context) ([]models.ConditionChannel, error)
}

// ChannelScanner выполняет один условный поиск с пейджингом.
type ChannelScanner interface {
	ScanCondition(ctx context.Context, seq string) ([]models.StockSnapshot, error)
}

// Orchestrator гоняет один полный цикл: каналы → кандидаты → реконсиляция →
// агрегат по системам. Каналы строго последовательно: транспортная сессия
// одна и statefull, параллелить её нельзя.
type Orchestrator struct {
	lister  ChannelLister
	scanner ChannelScanner
	rec     *Reconciler
	cfg     *config.Config
	state   *healthsvc.State
}

func NewOrchestrator(
	lister ChannelLister,
	scanner ChannelScanner,
	rec *Reconciler,
	cfg *config.Config,
	state *healthsvc.State,
) *Orchestrator {
	return &Orchestrator{
		lister:  lister,
		scanner: scanner,
		rec:     rec,
		cfg:     cfg,
		state:   state,
	}
}

// RunScan всегда возвращает корректный результат с обоими ключами —
// рутинный скан не имеет права отдать ошибку наружу, отказы видны
// только как пустота плюс логи.
func (o *Orchestrator) RunScan(ctx context.Context) *models.ScanResult {
	span := opentracing.GlobalTracer().StartSpan("turtle.scan")
	defer span.Finish()
	ctx = opentracing.ContextWithSpan(ctx, span)

	res := models.EmptyScanResult(!o.state.StoreAvailable())

	channels, err := o.lister.ConditionList(ctx)
	if err != nil {
		logger.Error("scan: condition list: %v", err)
		return res
	}

	sys1, sys2 := o.resolveChannels(channels)
	if len(sys1) == 0 && len(sys2) == 0 {
		logger.Warn("scan: no condition channels matched %q / %q",
			o.cfg.Scan.System1Keyword, o.cfg.Scan.System2Keyword)
		return res
	}

	res.System1 = o.scanSystem(ctx, sys1, models.System1)
	res.System2 = o.scanSystem(ctx, sys2, models.System2)
	res.UpdatedAt = time.Now()
	return res
}

// resolveChannels — маппинг канала на систему по подстроке имени,
// регистр не важен. Каналы мимо обоих ключей игнорируются.
func (o *Orchestrator) resolveChannels(channels []models.ConditionChannel) (sys1, sys2 []models.ConditionChannel) {
	kw1 := strings.ToLower(o.cfg.Scan.System1Keyword)
	kw2 := strings.ToLower(o.cfg.Scan.System2Keyword)

	for _, ch := range channels {
		name := strings.ToLower(ch.Name)
		switch {
		case strings.Contains(name, kw1):
			sys1 = append(sys1, ch)
		case strings.Contains(name, kw2):
			sys2 = append(sys2, ch)
		default:
			logger.Info("scan: channel %s %q matches no system, skipped", ch.Seq, ch.Name)
		}
	}
	return sys1, sys2
}

func (o *Orchestrator) scanSystem(ctx context.Context, channels []models.ConditionChannel, system models.SystemType) []models.TurtleStock {
	out := []models.TurtleStock{}

	for i, ch := range channels {
		if i > 0 {
			// пауза между каналами: общему транспорту надо отстояться
			o.settle(ctx)
		}

		span, chCtx := opentracing.StartSpanFromContext(ctx, "turtle.scan.channel")
		span.SetTag("channel.seq", ch.Seq)
		span.SetTag("system", system.Key())

		snaps := o.scanChannel(chCtx, ch)
		if len(snaps) > o.cfg.Scan.MaxCandidates {
			logger.Warn("scan: channel %s: %d candidates over cap %d, extra dropped",
				ch.Seq, len(snaps), o.cfg.Scan.MaxCandidates)
			snaps = snaps[:o.cfg.Scan.MaxCandidates]
		}

		for _, snap := range snaps {
			out = append(out, o.rec.Reconcile(chCtx, snap, system))
		}
		span.Finish()
	}
	return out
}

// scanChannel — ограниченные ретраи; исчерпание деградирует канал
// до пустого списка и не трогает соседей.
func (o *Orchestrator) scanChannel(ctx context.Context, ch models.ConditionChannel) []models.StockSnapshot {
	attempts := o.cfg.Scan.ChannelRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		snaps, err := o.scanner.ScanCondition(ctx, ch.Seq)
		if err == nil {
			return snaps
		}
		if errors.Is(err, kiwoomsvc.ErrPageTimeout) {
			// страница протухла, но что накопили — валидно; повтор всего
			// канала только надублирует строки
			logger.Warn("scan: channel %s page timeout, keeping %d rows", ch.Seq, len(snaps))
			return snaps
		}
		logger.Error("scan: channel %s attempt %d/%d: %v", ch.Seq, attempt, attempts, err)
	}
	logger.Error("scan: channel %s exhausted retries, degraded to empty", ch.Seq)
	return nil
}

func (o *Orchestrator) settle(ctx context.Context) {
	if o.cfg.Scan.SettleDelay <= 0 {
		return
	}
	t := time.NewTimer(o.cfg.Scan.SettleDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
