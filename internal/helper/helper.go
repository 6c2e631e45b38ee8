package helper

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Round2 — цены храним с точностью 2 знака, как в схеме БД.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Round4 — ATR храним с точностью 4 знака.
func Round4(v float64) float64 {
	return decimal.NewFromFloat(v).Round(4).InexactFloat64()
}

// ParsePrice парсит цену из выдачи брокера: котировки приходят строками,
// иногда со знаком направления ("+1530", "-720") и разделителями.
func ParsePrice(raw string) float64 {
	s := strings.TrimSpace(raw)
	s = strings.TrimLeft(s, "+-")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseVolume — объём, те же строковые причуды.
func ParseVolume(raw string) int64 {
	s := strings.TrimSpace(raw)
	s = strings.TrimLeft(s, "+-")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func Ptr[T any](v T) *T { return &v }
