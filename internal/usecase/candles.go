package usecase

import (
	"context"
	"fmt"

	"CandlePull/internal/candle"
	"CandlePull/internal/domain/models"
	"CandlePull/internal/service/binance"
	"CandlePull/pkg/metrics"
)

// RawCandleFetcher retrieves raw kline rows from the upstream API.
type RawCandleFetcher interface {
	FetchRawCandles(ctx context.Context, symbol, interval string, limit int) ([]binance.RawCandleRow, error)
}

// CandlesUseCase composes the fetch and normalize pipeline.
type CandlesUseCase struct {
	fetcher RawCandleFetcher
	rec     *metrics.Recorder

	defaultSymbol   string
	defaultInterval string
	defaultLimit    int
}

// NewCandlesUseCase creates the candles use case with request defaults.
func NewCandlesUseCase(fetcher RawCandleFetcher, defaultSymbol, defaultInterval string, defaultLimit int) *CandlesUseCase {
	return &CandlesUseCase{
		fetcher:         fetcher,
		defaultSymbol:   defaultSymbol,
		defaultInterval: defaultInterval,
		defaultLimit:    defaultLimit,
	}
}

// SetMetrics attaches a metrics recorder.
func (uc *CandlesUseCase) SetMetrics(rec *metrics.Recorder) { uc.rec = rec }

type GetCandlesParams struct {
	Symbol   string
	Interval string
	Limit    int
}

// GetCandles fetches raw rows and normalizes them into a batch.
// Errors from the client and normalizer pass through typed for the route layer.
func (uc *CandlesUseCase) GetCandles(ctx context.Context, p GetCandlesParams) (*models.CandleBatch, error) {
	if p.Symbol == "" {
		p.Symbol = uc.defaultSymbol
	}
	if p.Interval == "" {
		p.Interval = uc.defaultInterval
	}
	if p.Limit == 0 {
		p.Limit = uc.defaultLimit
	}

	rows, err := uc.fetcher.FetchRawCandles(ctx, p.Symbol, p.Interval, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("fetch candles: %w", err)
	}

	candles, err := candle.Normalize(rows)
	if err != nil {
		if uc.rec != nil {
			uc.rec.PipelineError("invalid_row")
		}
		return nil, fmt.Errorf("normalize candles: %w", err)
	}

	if uc.rec != nil {
		uc.rec.CandlesServed(p.Symbol, p.Interval, len(candles))
		if len(candles) > 0 {
			uc.rec.LastClose(p.Symbol, candles[len(candles)-1].Close)
		}
	}

	return models.NewCandleBatch(p.Symbol, p.Interval, candles), nil
}
