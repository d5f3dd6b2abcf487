package candle

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"CandlePull/internal/service/binance"
)

func mustRow(t *testing.T, fields ...interface{}) binance.RawCandleRow {
	t.Helper()
	row := make(binance.RawCandleRow, 0, len(fields))
	for _, f := range fields {
		b, err := json.Marshal(f)
		if err != nil {
			t.Fatalf("marshal field: %v", err)
		}
		row = append(row, json.RawMessage(b))
	}
	return row
}

func validRow(t *testing.T) binance.RawCandleRow {
	return mustRow(t,
		int64(1700000000000), "0.45", "0.452", "0.448", "0.451", "125000.0",
		int64(1700000900000), "56375.0", int64(450), "62500.0", "28187.5", "0",
	)
}

func TestNormalizeRoundTrip(t *testing.T) {
	candles, err := Normalize([]binance.RawCandleRow{validRow(t)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 1 {
		t.Fatalf("expected 1 candle, got %d", len(candles))
	}

	c := candles[0]
	if !c.OpenTime.Equal(time.UnixMilli(1700000000000).UTC()) {
		t.Fatalf("unexpected open time %v", c.OpenTime)
	}
	if !c.CloseTime.Equal(time.UnixMilli(1700000900000).UTC()) {
		t.Fatalf("unexpected close time %v", c.CloseTime)
	}
	if !c.CloseTime.After(c.OpenTime) {
		t.Fatalf("close time must be after open time")
	}
	if c.Open != 0.45 || c.High != 0.452 || c.Low != 0.448 || c.Close != 0.451 {
		t.Fatalf("unexpected prices %+v", c)
	}
	if c.Volume != 125000.0 || c.QuoteVolume != 56375.0 {
		t.Fatalf("unexpected volumes %+v", c)
	}
	if c.TradeCount != 450 {
		t.Fatalf("unexpected trade count %d", c.TradeCount)
	}
}

func TestNormalizeNumericFields(t *testing.T) {
	// upstream sometimes sends numbers instead of decimal strings
	row := mustRow(t,
		int64(1700000000000), 0.45, 0.452, 0.448, 0.451, 125000.0,
		int64(1700000900000), 56375.0, int64(450), "0", "0", "0",
	)
	candles, err := Normalize([]binance.RawCandleRow{row})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if candles[0].Open != 0.45 || candles[0].Volume != 125000.0 {
		t.Fatalf("unexpected candle %+v", candles[0])
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	rows := []binance.RawCandleRow{validRow(t), mustRow(t,
		int64(1700000900000), "0.451", "0.455", "0.450", "0.454", "98000.0",
		int64(1700001800000), "44356.0", int64(390), "0", "0", "0",
	)}

	first, err := Normalize(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Normalize(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("normalize is not deterministic")
	}
	if !first[0].OpenTime.Before(first[1].OpenTime) {
		t.Fatalf("input order not preserved")
	}
}

func TestNormalizeInvalidRows(t *testing.T) {
	cases := []struct {
		name string
		row  binance.RawCandleRow
	}{
		{"negative volume", mustRow(t,
			int64(1700000000000), "0.45", "0.452", "0.448", "0.451", "-1.0",
			int64(1700000900000), "56375.0", int64(450), "0", "0", "0")},
		{"non-numeric price", mustRow(t,
			int64(1700000000000), "abc", "0.452", "0.448", "0.451", "125000.0",
			int64(1700000900000), "56375.0", int64(450), "0", "0", "0")},
		{"close time equals open time", mustRow(t,
			int64(1700000000000), "0.45", "0.452", "0.448", "0.451", "125000.0",
			int64(1700000000000), "56375.0", int64(450), "0", "0", "0")},
		{"close time before open time", mustRow(t,
			int64(1700000900000), "0.45", "0.452", "0.448", "0.451", "125000.0",
			int64(1700000000000), "56375.0", int64(450), "0", "0", "0")},
		{"negative trade count", mustRow(t,
			int64(1700000000000), "0.45", "0.452", "0.448", "0.451", "125000.0",
			int64(1700000900000), "56375.0", int64(-1), "0", "0", "0")},
		{"short row", mustRow(t, int64(1700000000000), "0.45", "0.452")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			candles, err := Normalize([]binance.RawCandleRow{validRow(t), tc.row})
			if err == nil {
				t.Fatalf("expected error")
			}
			rowErr, ok := err.(*InvalidRowError)
			if !ok {
				t.Fatalf("expected *InvalidRowError, got %T: %v", err, err)
			}
			if rowErr.Index != 1 {
				t.Fatalf("expected index 1, got %d", rowErr.Index)
			}
			if candles != nil {
				t.Fatalf("expected no partial batch, got %d candles", len(candles))
			}
		})
	}
}

func TestNormalizeEmpty(t *testing.T) {
	candles, err := Normalize(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 0 {
		t.Fatalf("expected empty batch, got %d", len(candles))
	}
}
