package models

import "time"

// Candle represents one normalized OHLCV record.
type Candle struct {
	OpenTime    time.Time `json:"open_time"`
	Open        float64   `json:"open"`
	High        float64   `json:"high"`
	Low         float64   `json:"low"`
	Close       float64   `json:"close"`
	Volume      float64   `json:"volume"`
	CloseTime   time.Time `json:"close_time"`
	QuoteVolume float64   `json:"quote_volume"`
	TradeCount  int64     `json:"trade_count"`
}

// CandleBatch is an ordered set of candles for one symbol and interval.
// Candles keep the upstream order (ascending open time).
type CandleBatch struct {
	Symbol   string   `json:"symbol"`
	Interval string   `json:"interval"`
	Count    int      `json:"count"`
	Candles  []Candle `json:"candles"`
}

// NewCandleBatch builds a batch with the derived count.
func NewCandleBatch(symbol, interval string, candles []Candle) *CandleBatch {
	return &CandleBatch{
		Symbol:   symbol,
		Interval: interval,
		Count:    len(candles),
		Candles:  candles,
	}
}

// Trend classification labels.
const (
	TrendUp           = "UP"
	TrendDown         = "DOWN"
	TrendSideways     = "SIDEWAYS"
	TrendInsufficient = "INSUFFICIENT_DATA"
)

// TrendReport summarizes price direction over the last N candles.
type TrendReport struct {
	Trend              string  `json:"trend"`
	Confidence         float64 `json:"confidence"`
	PriceChange        float64 `json:"price_change,omitempty"`
	PriceChangePercent float64 `json:"price_change_percent,omitempty"`
	Volatility         float64 `json:"volatility,omitempty"`
	CurrentPrice       float64 `json:"current_price,omitempty"`
	AnalysisPeriods    int     `json:"analysis_periods,omitempty"`
	Message            string  `json:"message,omitempty"`
}
