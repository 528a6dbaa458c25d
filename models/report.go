package models

import (
	"strconv"
	"strings"
	"time"
)

// Trend directions.
const (
	TrendRising  = "rising"
	TrendFalling = "falling"
	TrendStable  = "stable"
)

// LeadTimeCount is one bar of a route's lead-time histogram.
type LeadTimeCount struct {
	Days  int `json:"days"`
	Count int `json:"count"`
}

// AirlineCount is how many fares of a route an airline offered.
type AirlineCount struct {
	Airline string `json:"airline"`
	Count   int    `json:"count"`
}

// FormatAirlines renders counts as "Qantas (3), Jetstar (2)".
func FormatAirlines(counts []AirlineCount) string {
	var b strings.Builder
	for i, c := range counts {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.Airline)
		b.WriteString(" (")
		b.WriteString(strconv.Itoa(c.Count))
		b.WriteString(")")
	}
	return b.String()
}

// RouteStats holds descriptive price statistics for one route.
type RouteStats struct {
	RouteID              string          `json:"route_id"`
	Count                int             `json:"count"`
	MeanPrice            float64         `json:"mean_price"`
	MedianPrice          float64         `json:"median_price"`
	MinPrice             float64         `json:"min_price"`
	MaxPrice             float64         `json:"max_price"`
	PriceStdDev          float64         `json:"price_stddev"`
	DateSpanDays         int             `json:"date_span_days"`
	LeadTimeDistribution []LeadTimeCount `json:"lead_time_distribution"`
	CheapestDeparture    time.Time       `json:"cheapest_departure"`
	PriciestDeparture    time.Time       `json:"priciest_departure"`
	PopularAirlines      []AirlineCount  `json:"popular_airlines"`
}

// DemandScore is the composite demand metric of a route.
type DemandScore struct {
	RawScore        float64 `json:"raw_score"`
	NormalizedScore float64 `json:"normalized_score"`
	Rank            int     `json:"rank"`
	VolumeSignal    float64 `json:"volume_signal"`
	PriceSignal     float64 `json:"price_signal"`
	AuxiliarySignal float64 `json:"auxiliary_signal"`
}

// Anomaly is a price point far from its route mean.
type Anomaly struct {
	DepartureDate  time.Time `json:"departure_date"`
	Price          float64   `json:"price"`
	DeviationSigma float64   `json:"deviation_sigma"`
}

// TrendSummary describes the shape of a route's departure-ordered price series.
type TrendSummary struct {
	Direction  string    `json:"direction"`
	Volatility float64   `json:"volatility"`
	Slope      float64   `json:"slope"`
	Anomalies  []Anomaly `json:"anomalies"`
}

// BookingRecommendation is the cheapest-on-average lead-time window of a route.
type BookingRecommendation struct {
	RecommendedLeadTimeDays int     `json:"recommended_lead_time_days"`
	ExpectedPrice           float64 `json:"expected_price_at_recommendation"`
	Confidence              float64 `json:"confidence"`
	BucketStartDays         int     `json:"bucket_start_days"`
	BucketEndDays           int     `json:"bucket_end_days"`
	SampleCount             int     `json:"sample_count"`
	Fallback                bool    `json:"fallback"`
}

// PricePoint is one chart-ready observation.
type PricePoint struct {
	DepartureDate time.Time `json:"departure_date"`
	Price         float64   `json:"price"`
}

// RouteAnalysis joins everything computed for one route.
type RouteAnalysis struct {
	Stats       RouteStats            `json:"stats"`
	Demand      DemandScore           `json:"demand"`
	Trend       TrendSummary          `json:"trend"`
	Booking     BookingRecommendation `json:"booking"`
	PriceSeries []PricePoint          `json:"price_series"`
}

// PriceRange is a closed [Min, Max] interval.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// MalformedRecordWarning explains why one raw record was excluded.
type MalformedRecordWarning struct {
	Index  int    `json:"index"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (w MalformedRecordWarning) Error() string {
	return "record " + strconv.Itoa(w.Index) + ": " + w.Field + ": " + w.Reason
}

// AnalysisReport is the assembled, read-only result of one analysis run.
type AnalysisReport struct {
	Routes              map[string]*RouteAnalysis `json:"routes"`
	RouteOrder          []string                  `json:"route_order"`
	Ranking             []string                  `json:"ranking"`
	OverallMeanPrice    float64                   `json:"overall_mean_price"`
	OverallPriceRange   PriceRange                `json:"overall_price_range"`
	TopDemandRoutes     []string                  `json:"top_demand_routes"`
	LowDemandRoutes     []string                  `json:"low_demand_routes"`
	CheapestRoutes      []string                  `json:"cheapest_routes"`
	MostExpensiveRoutes []string                  `json:"most_expensive_routes"`
	TotalRecords        int                       `json:"total_records"`
	RejectedCount       int                       `json:"rejected_count"`
	Warnings            []MalformedRecordWarning  `json:"warnings,omitempty"`
}

// Route returns the analysis of routeID, or nil.
func (r *AnalysisReport) Route(routeID string) *RouteAnalysis {
	if r == nil {
		return nil
	}
	return r.Routes[routeID]
}
