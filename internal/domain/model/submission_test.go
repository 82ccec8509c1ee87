package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/wellmed/internal/domain/burnout"
	model "github.com/okian/wellmed/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestSubmissionValidate(t *testing.T) {
	ts := time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)

	convey.Convey("Given well-formed submissions of every kind", t, func() {
		subs := []model.Submission{
			{SubmissionID: "s1", UserID: "u1", TS: ts, Kind: model.KindMood, Mood: "Good"},
			{SubmissionID: "s2", UserID: "u1", TS: ts, Kind: model.KindMicro, Micro: &burnout.MicroAssessment{Fatigue: 2, Stress: 3, Satisfaction: 4, Sleep: 4}},
			{SubmissionID: "s3", UserID: "u1", TS: ts, Kind: model.KindMBI, MBI: &burnout.MbiAssessment{EE: 20, DP: 8, PA: 36}},
			{SubmissionID: "s4", UserID: "u1", TS: ts, Kind: model.KindActivity, Activity: model.ActivityStretching},
		}

		convey.Convey("Then they should all validate", func() {
			for i := range subs {
				convey.So(subs[i].Validate(), convey.ShouldBeNil)
			}
		})
	})

	convey.Convey("Given malformed submissions", t, func() {
		cases := map[string]model.Submission{
			"submission_id":    {UserID: "u1", TS: ts, Kind: model.KindMood, Mood: "Good"},
			"user_id":          {SubmissionID: "s1", TS: ts, Kind: model.KindMood, Mood: "Good"},
			"ts":               {SubmissionID: "s1", UserID: "u1", Kind: model.KindMood, Mood: "Good"},
			"unknown mood":     {SubmissionID: "s1", UserID: "u1", TS: ts, Kind: model.KindMood, Mood: "Meh"},
			"missing micro":    {SubmissionID: "s1", UserID: "u1", TS: ts, Kind: model.KindMicro},
			"stress":           {SubmissionID: "s1", UserID: "u1", TS: ts, Kind: model.KindMicro, Micro: &burnout.MicroAssessment{Fatigue: 2, Stress: 9, Satisfaction: 4, Sleep: 4}},
			"missing mbi":      {SubmissionID: "s1", UserID: "u1", TS: ts, Kind: model.KindMBI},
			"unknown activity": {SubmissionID: "s1", UserID: "u1", TS: ts, Kind: model.KindActivity, Activity: "yoga"},
			"unknown kind":     {SubmissionID: "s1", UserID: "u1", TS: ts, Kind: "journal"},
		}

		for want, sub := range cases {
			err := sub.Validate()
			convey.So(errors.Is(err, model.ErrInvalidSubmission), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, want)
		}

		convey.Convey("And scorer validation errors should stay visible", func() {
			sub := model.Submission{SubmissionID: "s1", UserID: "u1", TS: ts, Kind: model.KindMBI, MBI: &burnout.MbiAssessment{EE: 99}}
			err := sub.Validate()
			convey.So(errors.Is(err, burnout.ErrInvalidInput), convey.ShouldBeTrue)
		})
	})
}
