package services

import (
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"airfare-insights/models"
)

const reportWidth = 62

// PrintReport writes a terminal summary of report to w
func PrintReport(w io.Writer, report *models.AnalysisReport) {
	p := message.NewPrinter(language.English)
	border := strings.Repeat("═", reportWidth)
	thin := strings.Repeat("─", reportWidth)

	p.Fprintf(w, "\n╔%s╗\n", border)
	p.Fprintf(w, "║%s║\n", center("AIRFARE DEMAND INSIGHTS", reportWidth))
	p.Fprintf(w, "╚%s╝\n", border)

	p.Fprintf(w, "\n OVERVIEW\n%s\n", thin)
	p.Fprintf(w, "  Fare Records           : %d (%d rejected)\n", report.TotalRecords, report.RejectedCount)
	p.Fprintf(w, "  Routes Analyzed        : %d\n", len(report.Routes))
	p.Fprintf(w, "  Average Fare           : $%.2f\n", report.OverallMeanPrice)
	p.Fprintf(w, "  Fare Range             : $%.2f - $%.2f\n", report.OverallPriceRange.Min, report.OverallPriceRange.Max)

	if len(report.Ranking) > 0 {
		p.Fprintf(w, "\n ROUTE DEMAND RANKING\n%s\n", thin)
		for _, id := range report.Ranking {
			ra := report.Routes[id]
			bar := strings.Repeat("▓", int(ra.Demand.NormalizedScore/5))
			p.Fprintf(w, "  %2d. %-9s %5.1f  %-20s %s\n", ra.Demand.Rank, id, ra.Demand.NormalizedScore, bar, ra.Trend.Direction)
		}
	}

	if len(report.CheapestRoutes) > 0 {
		p.Fprintf(w, "\n CHEAPEST ROUTES\n%s\n", thin)
		for i, id := range report.CheapestRoutes {
			p.Fprintf(w, "  %d. %-9s $%.2f avg\n", i+1, id, report.Routes[id].Stats.MeanPrice)
		}
	}

	p.Fprintf(w, "\n BEST TIME TO BOOK\n%s\n", thin)
	for _, id := range report.RouteOrder {
		b := report.Routes[id].Booking
		note := ""
		if b.Fallback {
			note = " (insufficient data)"
		}
		p.Fprintf(w, "  %-9s %3d days ahead  ~$%.2f  confidence %.0f%%%s\n",
			id, b.RecommendedLeadTimeDays, b.ExpectedPrice, b.Confidence*100, note)
	}

	var anomalies []string
	for _, id := range report.RouteOrder {
		for _, a := range report.Routes[id].Trend.Anomalies {
			anomalies = append(anomalies, p.Sprintf("  %-9s %s  $%.2f (%+.1f sigma)",
				id, a.DepartureDate.Format("2006-01-02"), a.Price, a.DeviationSigma))
		}
	}
	if len(anomalies) > 0 {
		p.Fprintf(w, "\n PRICE ANOMALIES\n%s\n", thin)
		for _, line := range anomalies {
			p.Fprintf(w, "%s\n", truncate(line, reportWidth))
		}
	}

	p.Fprintf(w, "\n%s\n\n", border)
}

func center(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return s
	}
	pad := (width - len(runes)) / 2
	return strings.Repeat(" ", pad) + s + strings.Repeat(" ", width-len(runes)-pad)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
