package candle

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"CandlePull/internal/domain/models"
	"CandlePull/internal/service/binance"
	"CandlePull/pkg/util"
)

// Positional layout of a kline row per the Binance API documentation.
// Fields 9-11 (taker volumes and the ignore field) are unused.
const (
	fieldOpenTime = iota
	fieldOpen
	fieldHigh
	fieldLow
	fieldClose
	fieldVolume
	fieldCloseTime
	fieldQuoteVolume
	fieldTradeCount

	minRowFields = fieldTradeCount + 1
)

// InvalidRowError reports the first row that failed validation.
type InvalidRowError struct {
	Index  int
	Reason string
}

func (e *InvalidRowError) Error() string {
	return fmt.Sprintf("invalid row %d: %s", e.Index, e.Reason)
}

func invalidRow(index int, format string, a ...interface{}) error {
	return &InvalidRowError{Index: index, Reason: fmt.Sprintf(format, a...)}
}

// Normalize maps raw kline rows into typed candles, preserving order.
// The first malformed row fails the whole batch; no partial output.
// The transformation is pure and deterministic.
func Normalize(rows []binance.RawCandleRow) ([]models.Candle, error) {
	out := make([]models.Candle, 0, len(rows))

	for i, row := range rows {
		if len(row) < minRowFields {
			return nil, invalidRow(i, "expected at least %d fields, got %d", minRowFields, len(row))
		}

		openTime, err := parseMillis(row[fieldOpenTime])
		if err != nil {
			return nil, invalidRow(i, "open time: %v", err)
		}
		closeTime, err := parseMillis(row[fieldCloseTime])
		if err != nil {
			return nil, invalidRow(i, "close time: %v", err)
		}
		if !closeTime.After(openTime) {
			return nil, invalidRow(i, "close time %d must be after open time %d",
				closeTime.UnixMilli(), openTime.UnixMilli())
		}

		c := models.Candle{
			OpenTime:  openTime,
			CloseTime: closeTime,
		}

		prices := []struct {
			name string
			idx  int
			dst  *float64
		}{
			{"open", fieldOpen, &c.Open},
			{"high", fieldHigh, &c.High},
			{"low", fieldLow, &c.Low},
			{"close", fieldClose, &c.Close},
			{"volume", fieldVolume, &c.Volume},
			{"quote volume", fieldQuoteVolume, &c.QuoteVolume},
		}
		for _, p := range prices {
			v, err := parseDecimal(row[p.idx])
			if err != nil {
				return nil, invalidRow(i, "%s: %v", p.name, err)
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, invalidRow(i, "%s is not finite", p.name)
			}
			if v < 0 {
				return nil, invalidRow(i, "%s is negative: %v", p.name, v)
			}
			*p.dst = v
		}

		trades, err := parseCount(row[fieldTradeCount])
		if err != nil {
			return nil, invalidRow(i, "trade count: %v", err)
		}
		if trades < 0 {
			return nil, invalidRow(i, "trade count is negative: %d", trades)
		}
		c.TradeCount = trades

		out = append(out, c)
	}

	return out, nil
}

// parseDecimal accepts a JSON string or number holding a decimal value.
func parseDecimal(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("not a decimal string: %q", s)
		}
		return v, nil
	}

	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, fmt.Errorf("not a number: %s", raw)
	}
	return v, nil
}

func parseMillis(raw json.RawMessage) (time.Time, error) {
	var ms int64
	if err := json.Unmarshal(raw, &ms); err != nil {
		return time.Time{}, fmt.Errorf("not an integer timestamp: %s", raw)
	}
	return util.FromMillis(ms), nil
}

func parseCount(raw json.RawMessage) (int64, error) {
	var n int64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("not an integer: %s", raw)
	}
	return n, nil
}
