package service

import (
	"sync"

	"turtle_dash/internal/models"
)

// Snapshot — ячейка «текущее состояние дашборда»: один писатель (Runner),
// читатели получают неизменяемый срез и не видят записи на полпути.
type Snapshot struct {
	mu  sync.RWMutex
	cur *models.ScanResult
}

func NewSnapshot() *Snapshot {
	return &Snapshot{}
}

// Set публикует готовый результат. Вызывающий после публикации
// результат не мутирует.
func (s *Snapshot) Set(res *models.ScanResult) {
	s.mu.Lock()
	s.cur = res
	s.mu.Unlock()
}

// Get возвращает nil, пока ни один скан не завершился.
func (s *Snapshot) Get() *models.ScanResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}
