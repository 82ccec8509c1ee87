package burnout_test

import (
	"errors"
	"testing"

	"github.com/okian/wellmed/internal/domain/burnout"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCalculateTrend(t *testing.T) {
	better := burnout.MbiAssessment{EE: 10, DP: 2, PA: 45}
	worse := burnout.MbiAssessment{EE: 40, DP: 20, PA: 20}

	Convey("Given a current snapshot well below the previous one", t, func() {
		trend, err := burnout.CalculateTrend(better, worse)

		Convey("Then the trend should be improving", func() {
			So(err, ShouldBeNil)
			So(trend, ShouldEqual, burnout.TrendImproving)
		})
	})

	Convey("Given a current snapshot well above the previous one", t, func() {
		trend, err := burnout.CalculateTrend(worse, better)

		Convey("Then the trend should be worsening", func() {
			So(err, ShouldBeNil)
			So(trend, ShouldEqual, burnout.TrendWorsening)
		})
	})

	Convey("Given identical snapshots", t, func() {
		trend, err := burnout.CalculateTrend(better, better, burnout.WithMoodAverage(2))

		Convey("Then the trend should be stable", func() {
			So(err, ShouldBeNil)
			So(trend, ShouldEqual, burnout.TrendStable)
		})
	})

	Convey("Given snapshots that differ by less than the band", t, func() {
		// One EE point moves the composite by 0.5*10/54/3 ~= 0.03.
		trend, err := burnout.CalculateTrend(burnout.MbiAssessment{EE: 21, DP: 5, PA: 40}, burnout.MbiAssessment{EE: 20, DP: 5, PA: 40})

		Convey("Then the change should be treated as noise", func() {
			So(err, ShouldBeNil)
			So(trend, ShouldEqual, burnout.TrendStable)
		})
	})

	Convey("Given an invalid snapshot", t, func() {
		_, err := burnout.CalculateTrend(burnout.MbiAssessment{EE: 60}, better)

		Convey("Then an invalid-input error should be returned", func() {
			So(errors.Is(err, burnout.ErrInvalidInput), ShouldBeTrue)
		})
	})

	Convey("Given an invalid mood override", t, func() {
		_, err := burnout.CalculateTrend(better, worse, burnout.WithMoodAverage(9))

		Convey("Then an invalid-input error should be returned", func() {
			So(errors.Is(err, burnout.ErrInvalidInput), ShouldBeTrue)
		})
	})
}

func TestClassifyTrend(t *testing.T) {
	Convey("Given scores around the hysteresis band", t, func() {
		So(burnout.ClassifyTrend(5.0, 5.5), ShouldEqual, burnout.TrendStable)
		So(burnout.ClassifyTrend(4.9, 5.5), ShouldEqual, burnout.TrendImproving)
		So(burnout.ClassifyTrend(6.0, 5.5), ShouldEqual, burnout.TrendStable)
		So(burnout.ClassifyTrend(6.1, 5.5), ShouldEqual, burnout.TrendWorsening)
	})
}
