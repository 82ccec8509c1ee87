package burnout

// Trend classifies the change between two MBI snapshots.
type Trend string

// Trend values. TrendNone means no trend is known.
const (
	TrendNone      Trend = ""
	TrendImproving Trend = "improving"
	TrendWorsening Trend = "worsening"
	TrendStable    Trend = "stable"
)

// TrendOption configures CalculateTrend.
type TrendOption func(*trendConfig)

type trendConfig struct {
	mood MoodAverage
}

// WithMoodAverage overrides the neutral mood held fixed for both snapshots.
func WithMoodAverage(m MoodAverage) TrendOption {
	return func(c *trendConfig) {
		c.mood = m
	}
}

// CalculateTrend scores both snapshots with the micro-assessment held at the
// neutral midpoint and compares them with a ±TrendBand hysteresis band.
func CalculateTrend(current, previous MbiAssessment, opts ...TrendOption) (Trend, error) {
	cfg := trendConfig{mood: DefaultMoodAverage}
	for _, opt := range opts {
		opt(&cfg)
	}

	cur, err := Score(cfg.mood, NeutralMicro, current)
	if err != nil {
		return TrendNone, err
	}
	prev, err := Score(cfg.mood, NeutralMicro, previous)
	if err != nil {
		return TrendNone, err
	}
	return ClassifyTrend(cur.Score, prev.Score), nil
}

// ClassifyTrend compares two composite scores. Lower risk is improvement.
func ClassifyTrend(current, previous float64) Trend {
	switch {
	case current < previous-TrendBand:
		return TrendImproving
	case current > previous+TrendBand:
		return TrendWorsening
	default:
		return TrendStable
	}
}
