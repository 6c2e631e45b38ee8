package models

import "time"

// PriceBar — дневная свеча. Последовательность всегда по возрастанию даты,
// пропущенные дни просто отсутствуют (не заполняются нулями).
type PriceBar struct {
	StockCode string
	Date      time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}
