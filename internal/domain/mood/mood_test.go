package mood_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/wellmed/internal/domain/burnout"
	"github.com/okian/wellmed/internal/domain/mood"
	. "github.com/smartystreets/goconvey/convey"
)

func entries(labels ...string) []mood.Entry {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	out := make([]mood.Entry, len(labels))
	for i, l := range labels {
		out[i] = mood.Entry{Mood: l, Timestamp: base.Add(time.Duration(i) * time.Hour)}
	}
	return out
}

func TestValue(t *testing.T) {
	Convey("Given the mood labels", t, func() {
		v, ok := mood.Value("Anxious")
		So(ok, ShouldBeTrue)
		So(v, ShouldEqual, 1)

		v, ok = mood.Value("Excellent")
		So(ok, ShouldBeTrue)
		So(v, ShouldEqual, 6)

		Convey("Then unknown labels should count as the midpoint", func() {
			v, ok := mood.Value("Confused")
			So(ok, ShouldBeFalse)
			So(v, ShouldEqual, 3)
		})
	})
}

func TestAverage(t *testing.T) {
	Convey("Given no entries", t, func() {
		_, err := mood.Average(nil, 0)

		Convey("Then ErrNoEntries should be returned", func() {
			So(errors.Is(err, mood.ErrNoEntries), ShouldBeTrue)
		})
	})

	Convey("Given more entries than the window", t, func() {
		avg, err := mood.Average(entries("Anxious", "Anxious", "Good", "Good", "Okay", "Excellent", "Good"), 0)

		Convey("Then only the last five should be averaged", func() {
			So(err, ShouldBeNil)
			// Good, Good, Okay, Excellent, Good = 5+5+4+6+5
			So(avg, ShouldAlmostEqual, 5.0, 1e-9)
		})
	})

	Convey("Given a custom window", t, func() {
		avg, err := mood.Average(entries("Tired", "Okay", "Excellent"), 2)

		Convey("Then the window should be honoured", func() {
			So(err, ShouldBeNil)
			So(avg, ShouldEqual, burnout.MoodAverage(5))
		})
	})

	Convey("Given an average fed into the scorer", t, func() {
		avg, err := mood.Average(entries("Anxious"), 0)
		So(err, ShouldBeNil)

		Convey("Then it should be a valid mood input", func() {
			So(avg.Validate(), ShouldBeNil)
			So(burnout.MoodScore(avg), ShouldEqual, 10)
		})
	})
}

func TestRecentTrend(t *testing.T) {
	Convey("Given fewer than three entries", t, func() {
		So(mood.RecentTrend(entries("Anxious", "Excellent"), 0), ShouldEqual, burnout.TrendStable)
	})

	Convey("Given a rising mood", t, func() {
		So(mood.RecentTrend(entries("Anxious", "Tired", "Okay", "Good", "Excellent"), 0), ShouldEqual, burnout.TrendImproving)
	})

	Convey("Given a falling mood", t, func() {
		So(mood.RecentTrend(entries("Excellent", "Good", "Okay", "Tired", "Anxious"), 0), ShouldEqual, burnout.TrendWorsening)
	})

	Convey("Given a flat mood", t, func() {
		So(mood.RecentTrend(entries("Okay", "Good", "Okay", "Good"), 0), ShouldEqual, burnout.TrendStable)
	})
}
