package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"CandlePull/internal/export"
	"CandlePull/internal/service/binance"
	"CandlePull/internal/usecase"
	xlogger "CandlePull/pkg/logger"

	"github.com/labstack/echo/v4"
)

type stubFetcher struct {
	rows []binance.RawCandleRow
	err  error
}

func (s *stubFetcher) FetchRawCandles(context.Context, string, string, int) ([]binance.RawCandleRow, error) {
	return s.rows, s.err
}

func stubRows(t *testing.T) []binance.RawCandleRow {
	t.Helper()
	var rows []binance.RawCandleRow
	body := `[
	  [1700000000000,"0.45","0.452","0.448","0.451","125000.0",1700000900000,"56375.0",450,"0","0","0"],
	  [1700000900000,"0.451","0.455","0.450","0.454","98000.0",1700001800000,"44356.0",390,"0","0","0"]
	]`
	if err := json.Unmarshal([]byte(body), &rows); err != nil {
		t.Fatalf("unmarshal rows: %v", err)
	}
	return rows
}

func newTestServer(t *testing.T, fetcher usecase.RawCandleFetcher) *echo.Echo {
	t.Helper()
	l, err := xlogger.New(&xlogger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	uc := usecase.NewCandlesUseCase(fetcher, "MANAUSDT", "15m", 20)
	h := NewCandlesHandler(l, uc, export.NewWriter(t.TempDir()), "MANAUSDT", "15m")

	e := echo.New()
	h.RegisterRoutes(e)
	return e
}

func doRequest(e *echo.Echo, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	e := newTestServer(t, &stubFetcher{rows: stubRows(t)})
	rec := doRequest(e, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "healthy") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestRootInfo(t *testing.T) {
	e := newTestServer(t, &stubFetcher{rows: stubRows(t)})
	rec := doRequest(e, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"MANAUSDT", "15m", "/candles"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q: %s", want, body)
		}
	}
}

func TestCandlesSuccess(t *testing.T) {
	e := newTestServer(t, &stubFetcher{rows: stubRows(t)})
	rec := doRequest(e, "/candles")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			Symbol   string `json:"symbol"`
			Interval string `json:"interval"`
			Count    int    `json:"count"`
			Candles  []struct {
				Close float64 `json:"close"`
			} `json:"candles"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Symbol != "MANAUSDT" || resp.Data.Interval != "15m" {
		t.Fatalf("unexpected batch %+v", resp.Data)
	}
	if resp.Data.Count != 2 || len(resp.Data.Candles) != 2 {
		t.Fatalf("unexpected count %+v", resp.Data)
	}
	if resp.Data.Candles[1].Close != 0.454 {
		t.Fatalf("unexpected close %v", resp.Data.Candles[1].Close)
	}
}

func TestCandlesValidation(t *testing.T) {
	e := newTestServer(t, &stubFetcher{rows: stubRows(t)})

	for _, target := range []string{
		"/candles?limit=-1",
		"/candles?limit=5000",
		"/candles?interval=7m",
		"/candles?symbol=x",
	} {
		rec := doRequest(e, target)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestCandlesUpstreamUnavailable(t *testing.T) {
	e := newTestServer(t, &stubFetcher{err: binance.ErrUnavailable})
	rec := doRequest(e, "/candles")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "klines") {
		t.Fatalf("response leaks upstream details: %s", rec.Body.String())
	}
}

func TestCandlesUpstreamMalformed(t *testing.T) {
	e := newTestServer(t, &stubFetcher{err: binance.ErrMalformedResponse})
	rec := doRequest(e, "/candles")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestTrend(t *testing.T) {
	e := newTestServer(t, &stubFetcher{rows: stubRows(t)})

	rec := doRequest(e, "/candles/trend?periods=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "trend") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}

	// only 2 candles available, 5 requested
	rec = doRequest(e, "/candles/trend?periods=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "INSUFFICIENT_DATA") {
		t.Fatalf("expected INSUFFICIENT_DATA, got %s", rec.Body.String())
	}
}

func TestExport(t *testing.T) {
	e := newTestServer(t, &stubFetcher{rows: stubRows(t)})

	rec := doRequest(e, "/candles/export?format=csv")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), ".csv") {
		t.Fatalf("expected csv path in body: %s", rec.Body.String())
	}

	rec = doRequest(e, "/candles/export?format=xml")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
