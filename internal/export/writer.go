package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"CandlePull/internal/domain/models"
)

// Format of an exported batch file.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// IsValidFormat returns true for supported export formats.
func IsValidFormat(f Format) bool {
	return f == FormatJSON || f == FormatCSV
}

// Writer persists normalized candle batches to local files.
type Writer struct {
	dir string
	now func() time.Time
}

// NewWriter creates a file export writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, now: time.Now}
}

// Write stores the batch in the export directory and returns the file path.
func (w *Writer) Write(batch *models.CandleBatch, format Format) (string, error) {
	if !IsValidFormat(format) {
		return "", fmt.Errorf("unsupported export format %q", format)
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s_%s.%s",
		batch.Symbol, batch.Interval, w.now().UTC().Format("20060102T150405"), format)
	path := filepath.Join(w.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		if err := enc.Encode(batch); err != nil {
			return "", fmt.Errorf("encode json: %w", err)
		}
	case FormatCSV:
		if err := writeCSV(f, batch); err != nil {
			return "", fmt.Errorf("encode csv: %w", err)
		}
	}

	return path, nil
}

func writeCSV(f *os.File, batch *models.CandleBatch) error {
	cw := csv.NewWriter(f)
	defer cw.Flush()

	header := []string{"open_time", "open", "high", "low", "close", "volume",
		"close_time", "quote_volume", "trade_count"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, c := range batch.Candles {
		row := []string{
			c.OpenTime.UTC().Format(time.RFC3339),
			formatFloat(c.Open),
			formatFloat(c.High),
			formatFloat(c.Low),
			formatFloat(c.Close),
			formatFloat(c.Volume),
			c.CloseTime.UTC().Format(time.RFC3339),
			formatFloat(c.QuoteVolume),
			strconv.FormatInt(c.TradeCount, 10),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
