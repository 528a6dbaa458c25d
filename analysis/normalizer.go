package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"airfare-insights/models"
	"airfare-insights/utils"
)

var priceRegex = regexp.MustCompile(`^[^\d\-.]*(-?[\d,]*\.?\d+)[^\d]*$`)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
}

// fieldAliases lists the keys accepted for each canonical field, in lookup order.
var fieldAliases = map[string][]string{
	models.KeyRouteID:       {models.KeyRouteID, "route"},
	models.KeyPrice:         {models.KeyPrice},
	models.KeyDepartureDate: {models.KeyDepartureDate, "date"},
	models.KeyObservedAt:    {models.KeyObservedAt, "scraped_at"},
	models.KeyDemandSignal:  {models.KeyDemandSignal, "search_interest"},
	models.KeyAirline:       {models.KeyAirline, "carrier"},
}

// NormalizeResult is the outcome of one normalization pass.
type NormalizeResult struct {
	Records  []models.FareRecord
	Warnings []models.MalformedRecordWarning
}

// RejectedCount is the number of raw records that were excluded.
func (r *NormalizeResult) RejectedCount() int {
	return len(r.Warnings)
}

// RecordNormalizer validates raw fares into FareRecords. It is the single
// boundary where untyped input is coerced; nothing downstream reads RawFare.
type RecordNormalizer struct {
	opts   Options
	logger *utils.Logger
	now    func() time.Time
}

// NewRecordNormalizer creates a normalizer that stamps missing observation
// times with time.Now.
func NewRecordNormalizer(opts Options, logger *utils.Logger) *RecordNormalizer {
	return &RecordNormalizer{opts: opts.WithDefaults(), logger: logger, now: time.Now}
}

// WithClock returns a copy of n that reads the processing time from now.
func (n *RecordNormalizer) WithClock(now func() time.Time) *RecordNormalizer {
	c := *n
	c.now = now
	return &c
}

// Normalize converts raw records, skipping and counting the malformed ones.
// It fails only with *EmptyDatasetError.
func (n *RecordNormalizer) Normalize(raw []models.RawFare) (*NormalizeResult, error) {
	if len(raw) == 0 {
		return nil, &EmptyDatasetError{}
	}
	result := &NormalizeResult{Records: make([]models.FareRecord, 0, len(raw))}

	processedAt := n.now()
	for i, r := range raw {
		rec, warn := n.normalizeOne(i, r, processedAt)
		if warn != nil {
			n.logger.Debug("Skipping fare record %d: %s %s", i, warn.Field, warn.Reason)
			result.Warnings = append(result.Warnings, *warn)
			continue
		}
		result.Records = append(result.Records, rec)
	}

	n.logger.Info("Normalized %d fare records from %d raw records (%d rejected)",
		len(result.Records), len(raw), result.RejectedCount())

	if len(result.Records) == 0 {
		return nil, &EmptyDatasetError{Total: len(raw), Rejected: result.RejectedCount()}
	}
	return result, nil
}

func (n *RecordNormalizer) normalizeOne(i int, r models.RawFare, processedAt time.Time) (models.FareRecord, *models.MalformedRecordWarning) {
	reject := func(field, reason string) (models.FareRecord, *models.MalformedRecordWarning) {
		return models.FareRecord{}, &models.MalformedRecordWarning{Index: i, Field: field, Reason: reason}
	}
	if r == nil {
		return reject("record", "nil record")
	}

	routeVal, ok := lookup(r, models.KeyRouteID)
	if !ok {
		return reject(models.KeyRouteID, "missing")
	}
	routeStr, isStr := routeVal.(string)
	routeID := strings.ToUpper(strings.TrimSpace(routeStr))
	if !isStr || routeID == "" {
		return reject(models.KeyRouteID, "must be a non-empty string")
	}

	priceVal, ok := lookup(r, models.KeyPrice)
	if !ok {
		return reject(models.KeyPrice, "missing")
	}
	price, err := coerceFloat(priceVal)
	if err != nil {
		return reject(models.KeyPrice, err.Error())
	}
	switch {
	case math.IsNaN(price) || math.IsInf(price, 0):
		return reject(models.KeyPrice, "not a finite number")
	case price <= 0:
		return reject(models.KeyPrice, fmt.Sprintf("%.2f is not positive", price))
	case price > n.opts.MaxPrice:
		return reject(models.KeyPrice, fmt.Sprintf("%.2f exceeds max %.2f", price, n.opts.MaxPrice))
	}

	depVal, ok := lookup(r, models.KeyDepartureDate)
	if !ok {
		return reject(models.KeyDepartureDate, "missing")
	}
	departure, err := coerceTime(depVal)
	if err != nil {
		return reject(models.KeyDepartureDate, err.Error())
	}

	observedAt := processedAt
	if obsVal, ok := lookup(r, models.KeyObservedAt); ok {
		if observedAt, err = coerceTime(obsVal); err != nil {
			return reject(models.KeyObservedAt, err.Error())
		}
	}

	rec := models.FareRecord{
		RouteID:       routeID,
		ObservedAt:    observedAt,
		DepartureDate: departure,
		Price:         price,
	}
	if rec.LeadTimeDays() < 0 {
		return reject(models.KeyDepartureDate, "departs before the fare was observed")
	}
	if sigVal, ok := lookup(r, models.KeyDemandSignal); ok {
		sig, err := coerceFloat(sigVal)
		if err == nil && sig >= 0 && !math.IsInf(sig, 0) && !math.IsNaN(sig) {
			rec.DemandSignal = &sig
		} else {
			n.logger.Debug("Ignoring demand signal of record %d: %v", i, sigVal)
		}
	}
	if v, ok := lookup(r, models.KeyAirline); ok {
		if name, isStr := v.(string); isStr {
			rec.Airline = strings.TrimSpace(name)
		} else {
			n.logger.Debug("Ignoring airline of record %d: %v", i, v)
		}
	}
	return rec, nil
}

// lookup returns the first present, non-empty value under key or its aliases.
func lookup(r models.RawFare, key string) (any, bool) {
	for _, k := range fieldAliases[key] {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

func coerceFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case json.Number:
		return x.Float64()
	case string:
		m := priceRegex.FindStringSubmatch(strings.TrimSpace(x))
		if len(m) < 2 {
			return 0, fmt.Errorf("%q is not numeric", x)
		}
		return strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

func coerceTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return time.Time{}, fmt.Errorf("zero time")
		}
		return x, nil
	case *time.Time:
		if x == nil || x.IsZero() {
			return time.Time{}, fmt.Errorf("zero time")
		}
		return *x, nil
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognised date %q", x)
	default:
		return time.Time{}, fmt.Errorf("unsupported type %T", v)
	}
}
