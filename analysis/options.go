package analysis

// Price signal polarities.
const (
	PolarityLowerIsHigher  = "lower_is_higher"
	PolarityHigherIsHigher = "higher_is_higher"
)

// ScoreWeights are the demand score weights; they are re-normalised to sum to 1.
type ScoreWeights struct {
	Volume    float64 `yaml:"volume" json:"volume"`
	Price     float64 `yaml:"price" json:"price"`
	Auxiliary float64 `yaml:"auxiliary" json:"auxiliary"`
}

// Options tunes one analysis run. The zero value of any field means "use the
// default"; call WithDefaults before use. Unknown YAML/JSON keys are ignored.
type Options struct {
	SigmaThreshold   float64      `yaml:"sigma_threshold" json:"sigma_threshold"`
	LeadTimeBuckets  []int        `yaml:"lead_time_buckets" json:"lead_time_buckets"`
	MinTrendPoints   int          `yaml:"min_trend_points" json:"min_trend_points"`
	MinBucketSamples int          `yaml:"min_bucket_samples" json:"min_bucket_samples"`
	ScoreWeights     ScoreWeights `yaml:"score_weights" json:"score_weights"`
	TopN             int          `yaml:"top_n" json:"top_n"`
	ExtremesN        int          `yaml:"extremes_n" json:"extremes_n"`
	TrendEpsilon     float64      `yaml:"trend_epsilon" json:"trend_epsilon"`
	MaxPrice         float64      `yaml:"max_price" json:"max_price"`
	PricePolarity    string       `yaml:"price_polarity" json:"price_polarity"`
}

const (
	DefaultSigmaThreshold   = 2.0
	DefaultMinTrendPoints   = 3
	DefaultMinBucketSamples = 2
	DefaultTopN             = 5
	DefaultExtremesN        = 3
	DefaultTrendEpsilon     = 1.0
	DefaultMaxPrice         = 100000.0
)

// DefaultLeadTimeBuckets yields the buckets 0-7, 8-14, 15-30, 31-60 and 61-90 days.
func DefaultLeadTimeBuckets() []int {
	return []int{0, 7, 14, 30, 60, 90}
}

// DefaultScoreWeights returns volume 0.4, price 0.3, auxiliary 0.3.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{Volume: 0.4, Price: 0.3, Auxiliary: 0.3}
}

// DefaultOptions returns every option at its documented default.
func DefaultOptions() Options {
	return Options{}.WithDefaults()
}

// WithDefaults returns a copy of o with missing or invalid values replaced.
func (o Options) WithDefaults() Options {
	if o.SigmaThreshold <= 0 {
		o.SigmaThreshold = DefaultSigmaThreshold
	}
	if validBoundaries(o.LeadTimeBuckets) {
		o.LeadTimeBuckets = append([]int(nil), o.LeadTimeBuckets...)
	} else {
		o.LeadTimeBuckets = DefaultLeadTimeBuckets()
	}
	if o.MinTrendPoints <= 0 {
		o.MinTrendPoints = DefaultMinTrendPoints
	}
	// a regression line needs two points
	if o.MinTrendPoints < 2 {
		o.MinTrendPoints = 2
	}
	if o.MinBucketSamples <= 0 {
		o.MinBucketSamples = DefaultMinBucketSamples
	}
	o.ScoreWeights = o.ScoreWeights.normalized()
	if o.TopN <= 0 {
		o.TopN = DefaultTopN
	}
	if o.ExtremesN <= 0 {
		o.ExtremesN = DefaultExtremesN
	}
	if o.TrendEpsilon <= 0 {
		o.TrendEpsilon = DefaultTrendEpsilon
	}
	if o.MaxPrice <= 0 {
		o.MaxPrice = DefaultMaxPrice
	}
	if o.PricePolarity != PolarityHigherIsHigher {
		o.PricePolarity = PolarityLowerIsHigher
	}
	return o
}

func (w ScoreWeights) normalized() ScoreWeights {
	if w.Volume < 0 || w.Price < 0 || w.Auxiliary < 0 {
		return DefaultScoreWeights()
	}
	sum := w.Volume + w.Price + w.Auxiliary
	if sum <= 0 {
		return DefaultScoreWeights()
	}
	return ScoreWeights{
		Volume:    w.Volume / sum,
		Price:     w.Price / sum,
		Auxiliary: w.Auxiliary / sum,
	}
}

func validBoundaries(b []int) bool {
	if len(b) < 2 || b[0] < 0 {
		return false
	}
	for i := 1; i < len(b); i++ {
		if b[i] <= b[i-1] {
			return false
		}
	}
	return true
}
