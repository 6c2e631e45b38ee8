package models

import "time"

// Position — живое состояние одной открытой сделки по инструменту.
// EntryATR и FixedStopLoss замораживаются при открытии; на открытой позиции
// меняются только CurrentTrailingStop и CurrentAddPosition. Закрытая позиция
// терминальна — повторный вход создаёт новую строку.
type Position struct {
	ID            int64
	StockCode     string
	SignalID      *int64 // nullable: позиция может открываться прямо из скана
	EntryDate     time.Time
	EntryPrice    float64
	EntryATR      float64
	FixedStopLoss float64
	System        SystemType
	Quantity      int64

	CurrentTrailingStop *float64
	CurrentAddPosition  *float64

	IsClosed   bool
	ExitDate   *time.Time
	ExitPrice  *float64
	ExitReason *string // STOP_LOSS | TRAILING | MANUAL
	ProfitLoss *float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PositionSummary — сводка по таблице позиций для дашборда.
type PositionSummary struct {
	ActivePositions int64   `json:"active_positions"`
	TotalPositions  int64   `json:"total_positions"`
	ClosedPositions int64   `json:"closed_positions"`
	TotalPnL        float64 `json:"total_pnl"`
	AvgPnL          float64 `json:"avg_pnl"`
	WinCount        int64   `json:"win_count"`
	WinRate         float64 `json:"win_rate"`
}
