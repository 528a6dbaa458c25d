package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jszwec/csvutil"

	"airfare-insights/models"
	"airfare-insights/utils"
)

// CSVWriter handles writing raw fares to a CSV file
type CSVWriter struct {
	filePath string
	logger   *utils.Logger
}

// NewCSVWriter creates a new CSVWriter
func NewCSVWriter(filePath string, logger *utils.Logger) *CSVWriter {
	return &CSVWriter{filePath: filePath, logger: logger}
}

// SaveRaw writes fares to the CSV file, replacing it. The layout matches the
// CSV fare source, so an archive can be fed back in.
func (w *CSVWriter) SaveRaw(fares []models.RawFare) error {
	dir := filepath.Dir(w.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(w.filePath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	enc := csvutil.NewEncoder(writer)
	if err := enc.EncodeHeader(models.FareRow{}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	written := 0
	for i, f := range fares {
		if f == nil {
			continue
		}
		if err := enc.Encode(models.FareRowFromRaw(f)); err != nil {
			w.logger.Error("Failed to write CSV row %d: %v", i, err)
			continue
		}
		written++
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV file: %w", err)
	}

	w.logger.Info("Raw fares written to: %s (%d rows)", w.filePath, written)
	return nil
}
