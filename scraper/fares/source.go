package fares

import (
	"context"
	"fmt"
	"strings"

	"airfare-insights/config"
	"airfare-insights/models"
	"airfare-insights/utils"
)

// Source names accepted by NewSource.
const (
	SourceMock   = "mock"
	SourceCSV    = "csv"
	SourceChrome = "chrome"
)

// FetchRequest selects the routes and departure horizon to collect.
type FetchRequest struct {
	Routes    []string `json:"routes"`
	DaysAhead int      `json:"days_ahead"`
}

// Source produces raw fare observations. Implementations never validate
// records; that is left to the analysis normalizer.
type Source interface {
	Name() string
	Fetch(ctx context.Context, req FetchRequest) ([]models.RawFare, error)
}

// Route is one entry of the route catalogue.
type Route struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var catalogue = []Route{
	{Code: "SYD-MEL", Name: "Sydney to Melbourne"},
	{Code: "SYD-BNE", Name: "Sydney to Brisbane"},
	{Code: "MEL-BNE", Name: "Melbourne to Brisbane"},
	{Code: "SYD-PER", Name: "Sydney to Perth"},
	{Code: "MEL-PER", Name: "Melbourne to Perth"},
	{Code: "BNE-PER", Name: "Brisbane to Perth"},
	{Code: "SYD-ADL", Name: "Sydney to Adelaide"},
	{Code: "MEL-ADL", Name: "Melbourne to Adelaide"},
	{Code: "BNE-ADL", Name: "Brisbane to Adelaide"},
	{Code: "SYD-CBR", Name: "Sydney to Canberra"},
	{Code: "MEL-CBR", Name: "Melbourne to Canberra"},
	{Code: "BNE-CBR", Name: "Brisbane to Canberra"},
}

// Routes returns the known routes.
func Routes() []Route {
	return append([]Route(nil), catalogue...)
}

// NewSource builds the named source from cfg.
func NewSource(name string, cfg *config.Config, logger *utils.Logger) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case SourceMock, "mock_data", "":
		return NewMockSource(0, logger), nil
	case SourceCSV:
		return NewCSVSource(cfg.FareInputCSV, logger), nil
	case SourceChrome:
		if cfg.FareSearchURL == "" {
			return nil, fmt.Errorf("chrome source requires FARE_SEARCH_URL")
		}
		return NewChromeSource(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported fare source: %q", name)
	}
}

// splitRoute returns the origin and destination of "SYD-MEL".
func splitRoute(route string) (string, string, error) {
	parts := strings.Split(strings.ToUpper(strings.TrimSpace(route)), "-")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid route %q, expected ORIGIN-DEST", route)
	}
	return parts[0], parts[1], nil
}

func (r FetchRequest) withDefaults() FetchRequest {
	if len(r.Routes) == 0 {
		r.Routes = append([]string(nil), config.DefaultRoutes...)
	}
	if r.DaysAhead <= 0 {
		r.DaysAhead = 30
	}
	return r
}
