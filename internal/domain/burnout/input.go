package burnout

import (
	"fmt"
	"math"
)

// MicroAssessment is the four-question in-app check-in, each rated 1-5.
type MicroAssessment struct {
	Fatigue      int `json:"fatigue"`
	Stress       int `json:"stress"`
	Satisfaction int `json:"satisfaction"`
	Sleep        int `json:"sleep"`
}

// Validate reports the first rating outside [1,5].
func (m MicroAssessment) Validate() error {
	ratings := []struct {
		name  string
		value int
	}{
		{"fatigue", m.Fatigue},
		{"stress", m.Stress},
		{"satisfaction", m.Satisfaction},
		{"sleep", m.Sleep},
	}
	for _, r := range ratings {
		if r.value < MinRating || r.value > MaxRating {
			return fmt.Errorf("%w: %s=%d outside [%d,%d]", ErrInvalidInput, r.name, r.value, MinRating, MaxRating)
		}
	}
	return nil
}

// MbiAssessment holds the three Maslach Burnout Inventory sub-scale sums.
type MbiAssessment struct {
	EE int `json:"EE"`
	DP int `json:"DP"`
	PA int `json:"PA"`
}

// Validate reports the first sub-scale outside [0, max].
func (m MbiAssessment) Validate() error {
	scales := []struct {
		name       string
		value, max int
	}{
		{"EE", m.EE, MaxEE},
		{"DP", m.DP, MaxDP},
		{"PA", m.PA, MaxPA},
	}
	for _, s := range scales {
		if s.value < 0 || s.value > s.max {
			return fmt.Errorf("%w: %s=%d outside [0,%d]", ErrInvalidInput, s.name, s.value, s.max)
		}
	}
	return nil
}

// MoodAverage is the mean of mapped mood labels on the 1-6 scale.
type MoodAverage float64

// Validate rejects NaN, infinities and values outside [1,6].
func (m MoodAverage) Validate() error {
	v := float64(m)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: moodAverage is not a finite number", ErrInvalidInput)
	}
	if v < MinMood || v > MaxMood {
		return fmt.Errorf("%w: moodAverage=%g outside [%g,%g]", ErrInvalidInput, v, MinMood, MaxMood)
	}
	return nil
}

// Input is a range-checked scoring input. The zero value is not valid;
// build one with NewInput.
type Input struct {
	mood  MoodAverage
	micro MicroAssessment
	mbi   MbiAssessment
	valid bool
}

// NewInput validates the three signals and bundles them for CalculateRisk.
func NewInput(mood MoodAverage, micro MicroAssessment, mbi MbiAssessment) (Input, error) {
	if err := mood.Validate(); err != nil {
		return Input{}, err
	}
	if err := micro.Validate(); err != nil {
		return Input{}, err
	}
	if err := mbi.Validate(); err != nil {
		return Input{}, err
	}
	return Input{mood: mood, micro: micro, mbi: mbi, valid: true}, nil
}

// Mood returns the validated mood average.
func (in Input) Mood() MoodAverage { return in.mood }

// Micro returns the validated micro-assessment.
func (in Input) Micro() MicroAssessment { return in.micro }

// MBI returns the validated MBI snapshot.
func (in Input) MBI() MbiAssessment { return in.mbi }

// Valid reports whether the input was produced by NewInput.
func (in Input) Valid() bool { return in.valid }
