// Package burnout scores burnout risk from mood, micro-assessment and MBI signals.
//
// Every function in this package is pure: no I/O, no shared state, safe for
// concurrent use.
package burnout

// Composite weights. MBI is the primary signal and mood the weakest.
const (
	MoodWeight  = 0.2
	MicroWeight = 0.3
	MBIWeight   = 0.5
)

// Risk tier lower bounds (inclusive) on the 0-10 composite scale.
const (
	HighThreshold   = 7.0
	MediumThreshold = 4.0
)

// Conventional MBI sub-scale maxima.
const (
	MaxEE = 54
	MaxDP = 30
	MaxPA = 48
)

// Scale bounds for self-report inputs.
const (
	MinMood = 1.0
	MaxMood = 6.0

	MinRating = 1
	MaxRating = 5

	// ratingPivot inverts a 1-5 rating: 6 - r.
	ratingPivot = MaxRating + 1

	// scoreScale is the top of every normalized sub-score.
	scoreScale = 10.0
)

// Recommendation limits.
const (
	MaxRecommendations = 4
)

// Trend classification.
const (
	// TrendBand is the hysteresis band applied before calling a change a trend.
	TrendBand = 0.5

	// DefaultMoodAverage is the neutral "Okay" mood used when no mood is supplied.
	DefaultMoodAverage MoodAverage = 4
)

// NeutralMicro is the midpoint check-in used to isolate MBI-driven change.
var NeutralMicro = MicroAssessment{Fatigue: 3, Stress: 3, Satisfaction: 3, Sleep: 3}
