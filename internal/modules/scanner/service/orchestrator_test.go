package service

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"turtle_dash/internal/models"
	"turtle_dash/internal/modules/config"
	healthsvc "turtle_dash/internal/modules/health/service"
	kiwoomsvc "turtle_dash/internal/modules/kiwoom/service"
	"turtle_dash/internal/notify"
)

type fakeLister struct {
	channels []models.ConditionChannel
	err      error
}

func (f *fakeLister) ConditionList(context.Context) ([]models.ConditionChannel, error) {
	return f.channels, f.err
}

type fakeScanner struct {
	snaps map[string][]models.StockSnapshot
	errs  map[string]error
	calls map[string]int
}

func newFakeScanner() *fakeScanner {
	return &fakeScanner{
		snaps: map[string][]models.StockSnapshot{},
		errs:  map[string]error{},
		calls: map[string]int{},
	}
}

func (f *fakeScanner) ScanCondition(_ context.Context, seq string) ([]models.StockSnapshot, error) {
	f.calls[seq]++
	return f.snaps[seq], f.errs[seq]
}

func scanConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Scan.MaxCandidates = 50
	cfg.Scan.ChannelRetries = 2
	cfg.Scan.SettleDelay = 0 // в тестах транспорту отстаиваться не надо
	cfg.Scan.System1Keyword = "system 1"
	cfg.Scan.System2Keyword = "system 2"
	return cfg
}

func newTestOrchestrator(lister *fakeLister, scanner *fakeScanner, cfg *config.Config) (*Orchestrator, *healthsvc.State) {
	hist := &fakeHistory{bars: trendBars(60)}
	rec := NewReconciler(hist, newFakePositions(), &fakeCandles{}, &fakeSignals{}, notify.Noop{}, 60)
	state := healthsvc.NewState()
	state.SetStoreAvailable(true)
	return NewOrchestrator(lister, scanner, rec, cfg, state), state
}

func TestRunScanChannelMapping(t *testing.T) {
	lister := &fakeLister{channels: []models.ConditionChannel{
		{Seq: "5", Name: "System 1 Alpha"},
		{Seq: "9", Name: "SYSTEM 2 Beta"},
		{Seq: "3", Name: "Unrelated"},
	}}
	scanner := newFakeScanner()
	scanner.snaps["5"] = []models.StockSnapshot{{Code: "A", Name: "Alpha", Current: 60}}
	scanner.snaps["9"] = []models.StockSnapshot{{Code: "B", Name: "Beta", Current: 60}}
	scanner.snaps["3"] = []models.StockSnapshot{{Code: "C", Name: "Gamma", Current: 60}}

	o, _ := newTestOrchestrator(lister, scanner, scanConfig())
	res := o.RunScan(context.Background())

	assert.Len(t, res.System1, 1)
	assert.Equal(t, "A", res.System1[0].Code)
	assert.Len(t, res.System2, 1)
	assert.Equal(t, "B", res.System2[0].Code)
	// канал мимо обоих ключей не сканируется вовсе
	assert.Zero(t, scanner.calls["3"])
	assert.False(t, res.Degraded)
	assert.False(t, res.UpdatedAt.IsZero())
}

func TestRunScanListerFailureYieldsEmptyResult(t *testing.T) {
	lister := &fakeLister{err: errors.New("ws refused")}
	o, _ := newTestOrchestrator(lister, newFakeScanner(), scanConfig())

	res := o.RunScan(context.Background())

	// оба ключа всегда на месте, даже при полном отказе апстрима
	assert.NotNil(t, res.System1)
	assert.NotNil(t, res.System2)
	assert.Empty(t, res.System1)
	assert.Empty(t, res.System2)
}

func TestRunScanNoMatchingChannels(t *testing.T) {
	lister := &fakeLister{channels: []models.ConditionChannel{
		{Seq: "1", Name: "Volume spike"},
	}}
	scanner := newFakeScanner()
	o, _ := newTestOrchestrator(lister, scanner, scanConfig())

	res := o.RunScan(context.Background())

	assert.Empty(t, res.System1)
	assert.Empty(t, res.System2)
	assert.Zero(t, scanner.calls["1"])
}

func TestRunScanCandidateCap(t *testing.T) {
	cfg := scanConfig()
	cfg.Scan.MaxCandidates = 2

	lister := &fakeLister{channels: []models.ConditionChannel{{Seq: "5", Name: "system 1"}}}
	scanner := newFakeScanner()
	for _, code := range []string{"A", "B", "C", "D", "E"} {
		scanner.snaps["5"] = append(scanner.snaps["5"],
			models.StockSnapshot{Code: code, Current: 60})
	}

	o, _ := newTestOrchestrator(lister, scanner, cfg)
	res := o.RunScan(context.Background())

	assert.Len(t, res.System1, 2)
	assert.Equal(t, "A", res.System1[0].Code)
	assert.Equal(t, "B", res.System1[1].Code)
}

func TestRunScanPageTimeoutKeepsPartial(t *testing.T) {
	lister := &fakeLister{channels: []models.ConditionChannel{{Seq: "5", Name: "system 1"}}}
	scanner := newFakeScanner()
	scanner.snaps["5"] = []models.StockSnapshot{{Code: "A", Current: 60}, {Code: "B", Current: 60}}
	scanner.errs["5"] = kiwoomsvc.ErrPageTimeout

	o, _ := newTestOrchestrator(lister, scanner, scanConfig())
	res := o.RunScan(context.Background())

	// частичная выдача валидна; ретрай канала её бы только задублировал
	assert.Len(t, res.System1, 2)
	assert.Equal(t, 1, scanner.calls["5"])
}

func TestRunScanChannelFailureIsolated(t *testing.T) {
	lister := &fakeLister{channels: []models.ConditionChannel{
		{Seq: "5", Name: "system 1"},
		{Seq: "9", Name: "system 2"},
	}}
	scanner := newFakeScanner()
	scanner.errs["5"] = errors.New("ws reset")
	scanner.snaps["9"] = []models.StockSnapshot{{Code: "B", Current: 60}}

	o, _ := newTestOrchestrator(lister, scanner, scanConfig())
	res := o.RunScan(context.Background())

	// канал деградировал после ретраев, сосед не пострадал
	assert.Equal(t, 3, scanner.calls["5"]) // 1 + ChannelRetries
	assert.Empty(t, res.System1)
	assert.Len(t, res.System2, 1)
}

func TestRunScanDegradedFlagFollowsStore(t *testing.T) {
	lister := &fakeLister{channels: nil}
	o, state := newTestOrchestrator(lister, newFakeScanner(), scanConfig())
	state.SetStoreAvailable(false)

	res := o.RunScan(context.Background())
	assert.True(t, res.Degraded)
}
