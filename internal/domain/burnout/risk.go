package burnout

import (
	"fmt"
	"math"
	"strconv"
)

// RiskLevel is the categorical tier derived from the composite score.
type RiskLevel string

// Risk tiers.
const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Breakdown carries the three normalized sub-scores, rounded to one decimal.
type Breakdown struct {
	Mood  float64 `json:"moodScore"`
	Micro float64 `json:"microScore"`
	MBI   float64 `json:"mbiScore"`
}

// Result is the outcome of a risk calculation.
type Result struct {
	// Score is the unrounded composite on the 0-10 scale.
	Score float64 `json:"score"`
	// CombinedScore is Score formatted with one decimal place.
	CombinedScore   string    `json:"combinedScore"`
	RiskLevel       RiskLevel `json:"riskLevel"`
	Breakdown       Breakdown `json:"breakdown"`
	Recommendations []string  `json:"recommendations"`
}

// subScores holds the unrounded components used by the rules.
type subScores struct {
	mood     float64
	micro    float64
	mbi      float64
	combined float64
}

// MoodScore maps a mood average onto the 0-10 risk scale: 1 -> 10, 6 -> 0.
func MoodScore(mood MoodAverage) float64 {
	return math.Max(0, scoreScale-((float64(mood)-MinMood)/(MaxMood-MinMood)*scoreScale))
}

// MicroScore averages the check-in with satisfaction and sleep inverted and
// scales the 1-5 average onto 0-10.
func MicroScore(m MicroAssessment) float64 {
	sum := m.Fatigue + m.Stress + (ratingPivot - m.Satisfaction) + (ratingPivot - m.Sleep)
	avg := float64(sum) / 4
	return avg / MaxRating * scoreScale
}

// MBIScore is the mean of the three sub-scales normalized to 0-10.
// PA is inverted: higher accomplishment means lower risk.
func MBIScore(m MbiAssessment) float64 {
	ee := math.Min(scoreScale, float64(m.EE)/MaxEE*scoreScale)
	dp := math.Min(scoreScale, float64(m.DP)/MaxDP*scoreScale)
	pa := math.Min(scoreScale, float64(MaxPA-m.PA)/MaxPA*scoreScale)
	return (ee + dp + pa) / 3
}

// Combine applies the fixed composite weights.
func Combine(mood, micro, mbi float64) float64 {
	return mood*MoodWeight + micro*MicroWeight + mbi*MBIWeight
}

// LevelFor tiers a composite score. Lower bounds are inclusive.
func LevelFor(combined float64) RiskLevel {
	switch {
	case combined >= HighThreshold:
		return RiskHigh
	case combined >= MediumThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

// CalculateRisk scores a validated input. It fails only when in was not
// built by NewInput.
func CalculateRisk(in Input) (Result, error) {
	if !in.valid {
		return Result{}, fmt.Errorf("%w: input was not built with NewInput", ErrInvalidInput)
	}

	s := computeSubScores(in)
	return Result{
		Score:         s.combined,
		CombinedScore: FormatScore(s.combined),
		RiskLevel:     LevelFor(s.combined),
		Breakdown: Breakdown{
			Mood:  roundTenth(s.mood),
			Micro: roundTenth(s.micro),
			MBI:   roundTenth(s.mbi),
		},
		Recommendations: recommend(in, s),
	}, nil
}

// Score validates raw signals and calculates the risk in one step.
func Score(mood MoodAverage, micro MicroAssessment, mbi MbiAssessment) (Result, error) {
	in, err := NewInput(mood, micro, mbi)
	if err != nil {
		return Result{}, err
	}
	return CalculateRisk(in)
}

func computeSubScores(in Input) subScores {
	mood := MoodScore(in.mood)
	micro := MicroScore(in.micro)
	mbi := MBIScore(in.mbi)
	return subScores{
		mood:     mood,
		micro:    micro,
		mbi:      mbi,
		combined: Combine(mood, micro, mbi),
	}
}

// FormatScore renders a score with exactly one decimal place.
func FormatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
