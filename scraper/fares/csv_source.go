package fares

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jszwec/csvutil"

	"airfare-insights/models"
	"airfare-insights/utils"
)

// ParseFareCSV decodes fare rows from r. The first line must be a header.
func ParseFareCSV(r io.Reader) ([]models.FareRow, error) {
	decoder, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to create CSV decoder for fares: %w", err)
	}

	var rows []models.FareRow
	if err := decoder.Decode(&rows); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode fare CSV data: %w", err)
	}
	return rows, nil
}

// CSVSource reads fares from a local CSV file, filtered to the requested routes.
type CSVSource struct {
	path   string
	logger *utils.Logger
}

func NewCSVSource(path string, logger *utils.Logger) *CSVSource {
	return &CSVSource{path: path, logger: logger}
}

func (s *CSVSource) Name() string { return SourceCSV }

// Path is the watched input file.
func (s *CSVSource) Path() string { return s.path }

func (s *CSVSource) Fetch(ctx context.Context, req FetchRequest) ([]models.RawFare, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fare CSV: %w", err)
	}
	defer f.Close()

	rows, err := ParseFareCSV(f)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(req.Routes))
	for _, r := range req.Routes {
		wanted[strings.ToUpper(strings.TrimSpace(r))] = true
	}

	fares := make([]models.RawFare, 0, len(rows))
	for _, row := range rows {
		if len(wanted) > 0 && !wanted[strings.ToUpper(strings.TrimSpace(row.RouteID))] {
			continue
		}
		fares = append(fares, row.RawFare())
	}
	s.logger.Info("Loaded %d fares from %s (%d rows)", len(fares), s.path, len(rows))
	return fares, nil
}
