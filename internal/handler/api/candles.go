package api

import (
	"errors"

	"CandlePull/internal/candle"
	"CandlePull/internal/export"
	"CandlePull/internal/service/binance"
	"CandlePull/internal/usecase"
	xhttp "CandlePull/pkg/http"
	xlogger "CandlePull/pkg/logger"
	"CandlePull/pkg/util"

	"github.com/labstack/echo/v4"
)

// CandlesHandler implements the Echo-based HTTP surface of the service.
type CandlesHandler struct {
	logger   *xlogger.Logger
	uc       *usecase.CandlesUseCase
	exporter *export.Writer

	symbol   string
	interval string
}

func NewCandlesHandler(logger *xlogger.Logger, uc *usecase.CandlesUseCase, exporter *export.Writer, symbol, interval string) *CandlesHandler {
	return &CandlesHandler{
		logger:   logger,
		uc:       uc,
		exporter: exporter,
		symbol:   symbol,
		interval: interval,
	}
}

func (h *CandlesHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/health", h.Health)
	e.GET("/candles", h.Candles)
	e.GET("/candles/trend", h.Trend)
	e.GET("/candles/export", h.Export)
}

// CandlesRequest holds query parameters of the candles endpoints.
type CandlesRequest struct {
	Symbol   string `query:"symbol" validate:"omitempty,alphanum,min=3,max=20"`
	Interval string `query:"interval" validate:"omitempty,oneof=1s 1m 3m 5m 15m 30m 1h 2h 4h 6h 8h 12h 1d 3d 1w 1M"`
	Limit    int    `query:"limit" validate:"omitempty,gte=1,lte=1000"`
}

// Root reports service identity and the endpoint map.
func (h *CandlesHandler) Root(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"message":  "candle API is running",
		"status":   "healthy",
		"symbol":   h.symbol,
		"interval": h.interval,
		"endpoints": map[string]string{
			"candles": "/candles",
			"trend":   "/candles/trend",
			"export":  "/candles/export",
			"metrics": "/metrics",
		},
	})
}

// Health is the liveness endpoint.
func (h *CandlesHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "healthy"})
}

// Candles returns the latest normalized candle batch.
func (h *CandlesHandler) Candles(c echo.Context) error {
	req := &CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	batch, err := h.uc.GetCandles(c.Request().Context(), usecase.GetCandlesParams{
		Symbol:   req.Symbol,
		Interval: req.Interval,
		Limit:    req.Limit,
	})
	if err != nil {
		h.logger.Error("candles usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapPipelineError(err))
	}

	return xhttp.SuccessResponse(c, batch)
}

// Trend returns a trend classification over the most recent candles.
func (h *CandlesHandler) Trend(c echo.Context) error {
	req := &CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	periods := util.ParseIntDefault(c.QueryParam("periods"), usecase.DefaultTrendPeriods)

	batch, err := h.uc.GetCandles(c.Request().Context(), usecase.GetCandlesParams{
		Symbol:   req.Symbol,
		Interval: req.Interval,
		Limit:    req.Limit,
	})
	if err != nil {
		h.logger.Error("trend usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapPipelineError(err))
	}

	report := usecase.AnalyzeTrend(batch.Candles, periods)
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"symbol":   batch.Symbol,
		"interval": batch.Interval,
		"trend":    report,
	})
}

// Export fetches a batch and writes it to the export directory.
func (h *CandlesHandler) Export(c echo.Context) error {
	req := &CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	format := export.Format(c.QueryParam("format"))
	if format == "" {
		format = export.FormatJSON
	}
	if !export.IsValidFormat(format) {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("format must be json or csv"))
	}

	batch, err := h.uc.GetCandles(c.Request().Context(), usecase.GetCandlesParams{
		Symbol:   req.Symbol,
		Interval: req.Interval,
		Limit:    req.Limit,
	})
	if err != nil {
		h.logger.Error("export usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapPipelineError(err))
	}

	path, err := h.exporter.Write(batch, format)
	if err != nil {
		h.logger.Error("export write error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("failed to write export file"))
	}

	return xhttp.SuccessResponse(c, map[string]interface{}{
		"path":   path,
		"format": format,
		"count":  batch.Count,
	})
}

// mapPipelineError translates core errors into transport errors without
// leaking upstream details.
func mapPipelineError(err error) error {
	var rowErr *candle.InvalidRowError
	switch {
	case errors.Is(err, binance.ErrInvalidRequest):
		return xhttp.BadRequestError("invalid candle request").WithError(err)
	case errors.Is(err, binance.ErrUnavailable):
		return xhttp.BadGatewayError("market data upstream unavailable").WithError(err)
	case errors.Is(err, binance.ErrMalformedResponse):
		return xhttp.BadGatewayError("market data upstream returned malformed data").WithError(err)
	case errors.As(err, &rowErr):
		return xhttp.BadGatewayError("market data upstream returned an invalid candle").WithError(err)
	default:
		return xhttp.InternalError("failed to fetch candle data").WithError(err)
	}
}
