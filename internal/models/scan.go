package models

import "time"

// ConditionChannel — условный поиск на стороне брокера: (seq, имя).
type ConditionChannel struct {
	Seq  string
	Name string
}

// StockSnapshot — строка выдачи условного поиска: код + текущая котировка.
type StockSnapshot struct {
	Code    string
	Name    string
	Current float64
	Change  float64
	Rate    string
	Volume  int64
}

// TurtleStock — обогащённая запись по инструменту для дашборда.
// Указатели nil, когда уровень посчитать нельзя (мало истории / стор недоступен).
type TurtleStock struct {
	Code         string   `json:"code"`
	Name         string   `json:"name"`
	Current      float64  `json:"current"`
	EntryDate    *string  `json:"entry_date"`
	EntryPrice   *float64 `json:"entry_price"`
	StopLoss     *float64 `json:"stop_loss"`
	TrailingStop *float64 `json:"trailing_stop"`
	AddPosition  *float64 `json:"add_position"`
	HasPosition  bool     `json:"has_position"`
}

// ScanResult — итог одного цикла скана. Оба ключа присутствуют всегда,
// даже при полном отказе апстрима (пустые списки).
type ScanResult struct {
	System1   []TurtleStock `json:"system1"`
	System2   []TurtleStock `json:"system2"`
	UpdatedAt time.Time     `json:"updated_at"`
	Degraded  bool          `json:"degraded"`
}

// EmptyScanResult — корректный «пустой» результат.
func EmptyScanResult(degraded bool) *ScanResult {
	return &ScanResult{
		System1:   []TurtleStock{},
		System2:   []TurtleStock{},
		UpdatedAt: time.Now(),
		Degraded:  degraded,
	}
}
