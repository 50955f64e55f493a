package loader

import (
	"strconv"
	"strings"

	"github.com/transitlab/traffic-prep-go/internal/errs"
	"github.com/transitlab/traffic-prep-go/internal/feature"
)

// Config is the full construction surface of a NodeTrafficLoader.
// Zero values are not usable defaults; call DefaultConfig and override.
type Config struct {
	// DataRange selects a sub-range of the raw series: "all", a fraction
	// in (0,1] such as "0.5", or "start-end" in days.
	DataRange string `yaml:"data_range" json:"data_range"`

	// TrainDataLength truncates the train partition to its most recent
	// N days: "all" or an integer day count.
	TrainDataLength string `yaml:"train_data_length" json:"train_data_length"`

	TestRatio float64 `yaml:"test_ratio" json:"test_ratio"`

	ClosenessLen int `yaml:"closeness_len" json:"closeness_len"`
	PeriodLen    int `yaml:"period_len" json:"period_len"`
	TrendLen     int `yaml:"trend_len" json:"trend_len"`

	// TargetLength must currently be 1.
	TargetLength int `yaml:"target_length" json:"target_length"`

	// ExternalLSTMLen is the closeness-only window length for the recent
	// external history channel. Zero disables that channel.
	ExternalLSTMLen int `yaml:"external_lstm_len" json:"external_lstm_len"`

	// Graph is a dash-separated subset of
	// Correlation-Distance-Interaction-Line-Neighbor-Transfer.
	Graph string `yaml:"graph" json:"graph"`

	ThresholdDistance    float64 `yaml:"threshold_distance" json:"threshold_distance"`
	ThresholdCorrelation float64 `yaml:"threshold_correlation" json:"threshold_correlation"`
	ThresholdInteraction float64 `yaml:"threshold_interaction" json:"threshold_interaction"`

	Normalize bool `yaml:"normalize" json:"normalize"`

	// ExternalUse is a dash-separated subset of weather-holiday-tp-poi.
	ExternalUse string `yaml:"external_use" json:"external_use"`

	POIDistance int `yaml:"poi_distance" json:"poi_distance"`

	WithTPE bool `yaml:"with_tpe" json:"with_tpe"`
	WithLM  bool `yaml:"with_lm" json:"with_lm"`

	// Workday overrides the holiday-feature workday parser. Nil selects
	// the weekend-based default.
	Workday feature.WorkdayFunc `yaml:"-" json:"-"`
}

// DefaultConfig mirrors the defaults of the reference experiments.
func DefaultConfig() Config {
	return Config{
		DataRange:            "all",
		TrainDataLength:      "all",
		TestRatio:            0.1,
		ClosenessLen:         6,
		PeriodLen:            7,
		TrendLen:             4,
		TargetLength:         1,
		ExternalLSTMLen:      5,
		Graph:                "Correlation",
		ThresholdDistance:    1000,
		ThresholdCorrelation: 0,
		ThresholdInteraction: 500,
		Normalize:            true,
		ExternalUse:          "weather-holiday-tp",
		POIDistance:          1000,
		WithTPE:              false,
		WithLM:               true,
	}
}

func (c Config) validate() error {
	if c.TestRatio < 0 || c.TestRatio > 1 {
		return errs.Config("test_ratio", "must be in [0,1], got %v", c.TestRatio)
	}
	if c.ClosenessLen < 0 {
		return errs.Config("closeness_len", "must be non-negative, got %d", c.ClosenessLen)
	}
	if c.PeriodLen < 0 {
		return errs.Config("period_len", "must be non-negative, got %d", c.PeriodLen)
	}
	if c.TrendLen < 0 {
		return errs.Config("trend_len", "must be non-negative, got %d", c.TrendLen)
	}
	if c.TargetLength != 1 {
		return errs.Config("target_length", "only 1 is supported, got %d", c.TargetLength)
	}
	if c.ExternalLSTMLen < 0 {
		return errs.Config("external_lstm_len", "must be non-negative, got %d", c.ExternalLSTMLen)
	}
	for _, src := range c.externalSources() {
		switch src {
		case "", "weather", "holiday", "tp", "poi":
		default:
			return errs.Config("external_use", "unknown source %q", src)
		}
	}
	for _, g := range c.graphNames() {
		switch strings.ToLower(g) {
		case "", "correlation", "distance", "interaction", "line", "neighbor", "transfer":
		default:
			return errs.Config("graph", "unknown graph %q", g)
		}
	}
	return nil
}

func (c Config) externalSources() []string {
	if c.ExternalUse == "" {
		return nil
	}
	return strings.Split(c.ExternalUse, "-")
}

func (c Config) useExternal(name string) bool {
	for _, src := range c.externalSources() {
		if src == name {
			return true
		}
	}
	return false
}

// GraphNames returns the configured graph list in build order.
func (c Config) GraphNames() []string {
	return c.graphNames()
}

func (c Config) graphNames() []string {
	if c.Graph == "" {
		return nil
	}
	return strings.Split(c.Graph, "-")
}

// dataRange resolves the configured range into slot bounds [lo, hi)
// given the raw series length and slots per day.
func (c Config) dataRange(totalSlots int, dailySlots float64) (int, int, error) {
	s := strings.TrimSpace(strings.ToLower(c.DataRange))
	switch {
	case s == "" || s == "all":
		return 0, totalSlots, nil
	case strings.Contains(s, "-"):
		parts := strings.SplitN(s, "-", 2)
		startDay, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
		endDay, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err1 != nil || err2 != nil || startDay < 0 || endDay <= startDay {
			return 0, 0, errs.Config("data_range", "bad day range %q", c.DataRange)
		}
		lo := int(float64(startDay) * dailySlots)
		hi := int(float64(endDay) * dailySlots)
		if hi > totalSlots {
			hi = totalSlots
		}
		if lo >= hi {
			return 0, 0, errs.Config("data_range", "range %q is outside the series", c.DataRange)
		}
		return lo, hi, nil
	default:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f <= 0 || f > 1 {
			return 0, 0, errs.Config("data_range", "must be 'all', a fraction in (0,1] or 'start-end' days, got %q", c.DataRange)
		}
		return 0, int(f * float64(totalSlots)), nil
	}
}

// trainLength resolves TrainDataLength into a slot count, or -1 for all.
func (c Config) trainLength(dailySlots float64) (int, error) {
	s := strings.TrimSpace(strings.ToLower(c.TrainDataLength))
	if s == "" || s == "all" {
		return -1, nil
	}
	days, err := strconv.Atoi(s)
	if err != nil || days <= 0 {
		return 0, errs.Config("train_data_length", "must be 'all' or a positive day count, got %q", c.TrainDataLength)
	}
	return int(float64(days) * dailySlots), nil
}
