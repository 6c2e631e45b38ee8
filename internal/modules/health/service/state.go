package service

import (
	"sync/atomic"
	"time"
)

// State — атомарный статус движка: жив ли, доступен ли стор,
// когда был последний скан. Пишут его сканер и postgres-модуль,
// читает health-эндпоинт.
type State struct {
	ready     atomic.Bool
	startedAt time.Time

	storeAvailable atomic.Bool
	scanRunning    atomic.Bool
	lastScanUnix   atomic.Int64 // unix seconds
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	s.storeAvailable.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) SetStoreAvailable(v bool) { s.storeAvailable.Store(v) }
func (s *State) StoreAvailable() bool     { return s.storeAvailable.Load() }

func (s *State) SetScanRunning(v bool) { s.scanRunning.Store(v) }
func (s *State) ScanRunning() bool     { return s.scanRunning.Load() }

func (s *State) MarkScan(t time.Time) { s.lastScanUnix.Store(t.Unix()) }

func (s *State) LastScan() time.Time {
	v := s.lastScanUnix.Load()
	if v == 0 {
		return time.Time{}
	}
	return time.Unix(v, 0)
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
