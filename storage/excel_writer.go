package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"

	"airfare-insights/models"
	"airfare-insights/utils"
)

const (
	routesSheet    = "Routes"
	anomaliesSheet = "Anomalies"
)

// ExcelWriter exports a report as a workbook with a Routes sheet ordered by
// demand rank and an Anomalies sheet.
type ExcelWriter struct {
	filePath string
	logger   *utils.Logger
}

func NewExcelWriter(filePath string, logger *utils.Logger) *ExcelWriter {
	return &ExcelWriter{filePath: filePath, logger: logger}
}

// RoutesFrame builds the per-route table of a report, sorted by rank.
func RoutesFrame(report *models.AnalysisReport) dataframe.DataFrame {
	n := len(report.RouteOrder)
	var (
		ids        = make([]string, 0, n)
		ranks      = make([]int, 0, n)
		counts     = make([]int, 0, n)
		means      = make([]float64, 0, n)
		medians    = make([]float64, 0, n)
		mins       = make([]float64, 0, n)
		maxs       = make([]float64, 0, n)
		scores     = make([]float64, 0, n)
		trends     = make([]string, 0, n)
		volatility = make([]float64, 0, n)
		leads      = make([]int, 0, n)
		expected   = make([]float64, 0, n)
		confidence = make([]float64, 0, n)
		airlines   = make([]string, 0, n)
	)
	for _, id := range report.RouteOrder {
		ra := report.Route(id)
		ids = append(ids, id)
		ranks = append(ranks, ra.Demand.Rank)
		counts = append(counts, ra.Stats.Count)
		means = append(means, ra.Stats.MeanPrice)
		medians = append(medians, ra.Stats.MedianPrice)
		mins = append(mins, ra.Stats.MinPrice)
		maxs = append(maxs, ra.Stats.MaxPrice)
		scores = append(scores, ra.Demand.NormalizedScore)
		trends = append(trends, ra.Trend.Direction)
		volatility = append(volatility, ra.Trend.Volatility)
		leads = append(leads, ra.Booking.RecommendedLeadTimeDays)
		expected = append(expected, ra.Booking.ExpectedPrice)
		confidence = append(confidence, ra.Booking.Confidence)
		airlines = append(airlines, models.FormatAirlines(ra.Stats.PopularAirlines))
	}

	df := dataframe.New(
		series.New(ranks, series.Int, "rank"),
		series.New(ids, series.String, "route"),
		series.New(counts, series.Int, "records"),
		series.New(means, series.Float, "mean_price"),
		series.New(medians, series.Float, "median_price"),
		series.New(mins, series.Float, "min_price"),
		series.New(maxs, series.Float, "max_price"),
		series.New(scores, series.Float, "demand_score"),
		series.New(trends, series.String, "trend"),
		series.New(volatility, series.Float, "volatility"),
		series.New(leads, series.Int, "book_days_ahead"),
		series.New(expected, series.Float, "expected_price"),
		series.New(confidence, series.Float, "confidence"),
		series.New(airlines, series.String, "popular_airlines"),
	)
	return df.Arrange(dataframe.Sort("rank"))
}

// Export writes the workbook, replacing any existing file.
func (w *ExcelWriter) Export(report *models.AnalysisReport) error {
	if report == nil {
		return fmt.Errorf("no report to export")
	}
	if err := os.MkdirAll(filepath.Dir(w.filePath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", routesSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	df := RoutesFrame(report)
	if df.Err != nil {
		return fmt.Errorf("failed to build routes table: %w", df.Err)
	}
	if err := writeFrame(f, routesSheet, df); err != nil {
		return err
	}

	if _, err := f.NewSheet(anomaliesSheet); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}
	header := []interface{}{"route", "departure_date", "price", "deviation_sigma"}
	if err := f.SetSheetRow(anomaliesSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write anomalies header: %w", err)
	}
	row := 2
	for _, id := range report.Ranking {
		for _, a := range report.Route(id).Trend.Anomalies {
			cell, _ := excelize.CoordinatesToCellName(1, row)
			values := []interface{}{id, a.DepartureDate.Format("2006-01-02"), a.Price, a.DeviationSigma}
			if err := f.SetSheetRow(anomaliesSheet, cell, &values); err != nil {
				return fmt.Errorf("failed to write anomaly row: %w", err)
			}
			row++
		}
	}

	if err := f.SaveAs(w.filePath); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	w.logger.Info("Report workbook written to: %s (%d routes, %d anomalies)", w.filePath, df.Nrow(), row-2)
	return nil
}

func writeFrame(f *excelize.File, sheet string, df dataframe.DataFrame) error {
	colNames := df.Names()
	for i, name := range colNames {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return fmt.Errorf("failed to write header %s: %w", name, err)
		}
	}
	for rowIdx := 0; rowIdx < df.Nrow(); rowIdx++ {
		for colIdx, colName := range colNames {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(sheet, cell, df.Col(colName).Val(rowIdx)); err != nil {
				return fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
		}
	}
	return nil
}
