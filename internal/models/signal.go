package models

import "time"

type SystemType int

const (
	System1 SystemType = 1 // 20д вход / 10д выход
	System2 SystemType = 2 // 55д вход / 20д выход
)

// MinBars — минимум истории для расчёта сигнала по системе.
func (s SystemType) MinBars() int {
	if s == System2 {
		return 60
	}
	return 30
}

// ExitPeriod — период дончиана для трейлинг-стопа.
func (s SystemType) ExitPeriod() int {
	if s == System2 {
		return 20
	}
	return 10
}

func (s SystemType) Key() string {
	if s == System2 {
		return "2"
	}
	return "1"
}

type SignalType string

const (
	SignalBuy  SignalType = "BUY"
	SignalSell SignalType = "SELL"
)

// Signal — зафиксированный пробой канала. Append-only, после создания не меняется.
type Signal struct {
	ID           int64
	StockCode    string
	SignalDate   time.Time
	System       SystemType
	Type         SignalType
	EntryPrice   float64
	StopLoss     float64
	TakeProfit   float64
	AddPosition  float64
	ATR          float64
	DonchianHigh float64 // канал предыдущего дня, по которому сработал пробой
	DonchianLow  float64
	CreatedAt    time.Time
}
