// Package narrative turns a finished analysis report into human-readable
// insights, either deterministically or through a chat-completion service.
package narrative

import (
	"context"
	"fmt"
	"strings"
	"time"

	"airfare-insights/models"
)

// Insight kinds.
const (
	KindTrends  = "trends"
	KindPricing = "pricing"
	KindDemand  = "demand"
	KindGeneral = "general"
)

// Insight sources.
const (
	SourceFallback = "fallback"
	SourceChat     = "chat"
)

// ParseKind maps free text to a kind; anything unknown is general.
func ParseKind(s string) string {
	switch k := strings.ToLower(strings.TrimSpace(s)); k {
	case KindTrends, KindPricing, KindDemand:
		return k
	default:
		return KindGeneral
	}
}

// Insight is a generated narrative about a report.
type Insight struct {
	Kind            string    `json:"analysis_type"`
	Source          string    `json:"source"`
	Lines           []string  `json:"trends"`
	Recommendations []string  `json:"recommendations"`
	Analysis        string    `json:"analysis,omitempty"`
	KeyPoints       []string  `json:"key_points,omitempty"`
	GeneratedAt     time.Time `json:"timestamp"`
}

// Generator produces an insight of the given kind for report.
type Generator interface {
	Generate(ctx context.Context, report *models.AnalysisReport, kind string) (*Insight, error)
}

// BookingSummary is the booking advice of one route in a Summary.
type BookingSummary struct {
	DaysAhead     int     `json:"days_ahead"`
	ExpectedPrice float64 `json:"avg_price"`
	Confidence    float64 `json:"confidence"`
}

// RouteSummary is the metrics-only view of one route.
type RouteSummary struct {
	MeanPrice    float64        `json:"avg_price"`
	DemandScore  float64        `json:"demand_score"`
	Volatility   float64        `json:"price_volatility"`
	Trend        string         `json:"price_trend"`
	AnomalyCount int            `json:"anomaly_count"`
	BestBooking  BookingSummary `json:"best_booking_window"`

	PopularAirlines []models.AirlineCount `json:"popular_airlines"`
}

// Summary is the finalized metrics table handed to generators. It carries no
// raw fare records.
type Summary struct {
	TotalRoutes      int                     `json:"total_routes"`
	OverallMeanPrice float64                 `json:"overall_avg_price"`
	PriceRange       models.PriceRange       `json:"price_range"`
	TopDemandRoutes  []string                `json:"high_demand_routes"`
	Routes           map[string]RouteSummary `json:"route_statistics"`
}

// Summarize builds the metrics table of report.
func Summarize(report *models.AnalysisReport) Summary {
	s := Summary{
		TotalRoutes:      len(report.Routes),
		OverallMeanPrice: report.OverallMeanPrice,
		PriceRange:       report.OverallPriceRange,
		TopDemandRoutes:  append([]string{}, report.TopDemandRoutes...),
		Routes:           make(map[string]RouteSummary, len(report.Routes)),
	}
	for id, ra := range report.Routes {
		s.Routes[id] = RouteSummary{
			MeanPrice:    ra.Stats.MeanPrice,
			DemandScore:  ra.Demand.NormalizedScore,
			Volatility:   ra.Trend.Volatility,
			Trend:        ra.Trend.Direction,
			AnomalyCount: len(ra.Trend.Anomalies),
			BestBooking: BookingSummary{
				DaysAhead:     ra.Booking.RecommendedLeadTimeDays,
				ExpectedPrice: ra.Booking.ExpectedPrice,
				Confidence:    ra.Booking.Confidence,
			},
			PopularAirlines: ra.Stats.PopularAirlines,
		}
	}
	return s
}

func errNoReport() error {
	return fmt.Errorf("no analysis report available")
}
