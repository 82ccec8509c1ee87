// Package mood maps mood labels onto the 1-6 scale and aggregates recent entries.
package mood

import (
	"errors"
	"time"

	"github.com/okian/wellmed/internal/domain/burnout"
)

// DefaultWindow is the number of most recent entries considered.
const DefaultWindow = 5

// unknownValue is used for labels outside the scale.
const unknownValue = 3

// minTrendValues is the smallest window that can show a trend.
const minTrendValues = 3

// ErrNoEntries is returned when there is nothing to average.
var ErrNoEntries = errors.New("no mood entries")

// Scale maps mood labels to their ordinal value.
var Scale = map[string]int{
	"Anxious":   1,
	"Tired":     2,
	"Stressed":  3,
	"Okay":      4,
	"Good":      5,
	"Excellent": 6,
}

// Entry is one logged mood.
type Entry struct {
	Mood      string    `json:"mood"`
	Timestamp time.Time `json:"timestamp"`
}

// Value returns the scale value for label and whether the label is known.
func Value(label string) (int, bool) {
	v, ok := Scale[label]
	if !ok {
		return unknownValue, false
	}
	return v, true
}

// Average returns the mean value of the last window entries. Entries are
// expected in chronological order; window <= 0 selects DefaultWindow.
func Average(entries []Entry, window int) (burnout.MoodAverage, error) {
	values := recentValues(entries, window)
	if len(values) == 0 {
		return 0, ErrNoEntries
	}
	return burnout.MoodAverage(mean(values)), nil
}

// RecentTrend compares the older and newer halves of the window. A rising
// mood is an improvement. Windows shorter than three entries are stable.
func RecentTrend(entries []Entry, window int) burnout.Trend {
	values := recentValues(entries, window)
	if len(values) < minTrendValues {
		return burnout.TrendStable
	}
	first := mean(values[:len(values)/2])
	second := mean(values[(len(values)+1)/2:])
	switch {
	case second > first+burnout.TrendBand:
		return burnout.TrendImproving
	case second < first-burnout.TrendBand:
		return burnout.TrendWorsening
	default:
		return burnout.TrendStable
	}
}

func recentValues(entries []Entry, window int) []float64 {
	if window <= 0 {
		window = DefaultWindow
	}
	if len(entries) > window {
		entries = entries[len(entries)-window:]
	}
	out := make([]float64, len(entries))
	for i, e := range entries {
		v, _ := Value(e.Mood)
		out[i] = float64(v)
	}
	return out
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
