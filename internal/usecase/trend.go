package usecase

import (
	"math"

	"CandlePull/internal/domain/models"
)

// DefaultTrendPeriods is the number of closing prices analyzed by default.
const DefaultTrendPeriods = 5

// AnalyzeTrend classifies the price direction over the last periods closes.
// The threshold scales with volatility so small moves in a choppy market
// do not read as a trend.
func AnalyzeTrend(candles []models.Candle, periods int) *models.TrendReport {
	if periods <= 0 {
		periods = DefaultTrendPeriods
	}
	if len(candles) < periods || periods < 2 {
		return &models.TrendReport{
			Trend:   models.TrendInsufficient,
			Message: "not enough data for trend analysis",
		}
	}

	closes := make([]float64, 0, periods)
	for _, c := range candles[len(candles)-periods:] {
		closes = append(closes, c.Close)
	}

	first := closes[0]
	last := closes[len(closes)-1]
	change := last - first
	changePct := 0.0
	if first != 0 {
		changePct = change / first * 100
	}

	var sum float64
	for _, v := range closes {
		sum += v
	}
	avg := sum / float64(len(closes))

	var variance float64
	for _, v := range closes {
		variance += (v - avg) * (v - avg)
	}
	variance /= float64(len(closes))
	volatility := math.Sqrt(variance)

	threshold := volatility * 0.5

	report := &models.TrendReport{
		PriceChange:        change,
		PriceChangePercent: changePct,
		Volatility:         volatility,
		CurrentPrice:       last,
		AnalysisPeriods:    periods,
	}

	switch {
	case change > threshold:
		report.Trend = models.TrendUp
		report.Confidence = math.Min(95, math.Abs(changePct)*10)
	case change < -threshold:
		report.Trend = models.TrendDown
		report.Confidence = math.Min(95, math.Abs(changePct)*10)
	default:
		report.Trend = models.TrendSideways
		conf := 70.0
		if avg != 0 {
			conf = 70 - volatility/avg*1000
		}
		report.Confidence = math.Max(30, conf)
	}

	return report
}
