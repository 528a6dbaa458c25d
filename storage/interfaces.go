package storage

import "airfare-insights/models"

// RawStorage archives raw fares exactly as acquired
type RawStorage interface {
	SaveRaw(fares []models.RawFare) error
}

// ReportStorage persists validated fares and analysis results of one run
type ReportStorage interface {
	SaveFares(runID string, records []models.FareRecord) error
	SaveReport(run RunInfo, report *models.AnalysisReport) error
	Close() error
}

// ReportExporter writes a report to a presentation file
type ReportExporter interface {
	Export(report *models.AnalysisReport) error
}
