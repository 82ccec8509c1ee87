package loadgen

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/okian/wellmed/internal/domain/burnout"
	"github.com/okian/wellmed/internal/domain/model"
)

// moodsPerUser is how many mood check-ins each synthetic user logs.
const moodsPerUser = 3

// profile shapes how strained a synthetic user is.
type profile int

const (
	profileThriving profile = iota
	profileCoping
	profileStrained
	profileBurnedOut
	profileCount
)

var moodLabels = []string{"Anxious", "Tired", "Stressed", "Okay", "Good", "Excellent"}

// Generate returns the submissions for users synthetic users, grouped by
// user and in submission order. Every user gets one MBI snapshot, so every
// user ends up with a risk profile.
func Generate(users int, seed uint64, now time.Time) ([]Submission, []string) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	subs := make([]Submission, 0, users*(moodsPerUser+4))
	ids := make([]string, 0, users)

	for range users {
		userID := uuid.NewString()
		ids = append(ids, userID)
		p := profile(rng.IntN(int(profileCount)))
		at := now.Add(-time.Hour)

		next := func(kind model.Kind) Submission {
			at = at.Add(time.Minute)
			return Submission{SubmissionID: uuid.NewString(), UserID: userID, Kind: kind, TS: at.UTC()}
		}

		for range moodsPerUser {
			s := next(model.KindMood)
			s.Mood = moodFor(rng, p)
			subs = append(subs, s)
		}
		micro := microFor(rng, p)
		s := next(model.KindMicro)
		s.Micro = &micro
		subs = append(subs, s)

		mbi := mbiFor(rng, p)
		s = next(model.KindMBI)
		s.MBI = &mbi
		subs = append(subs, s)

		for d := range rng.IntN(3) {
			s = next(model.KindActivity)
			s.TS = now.AddDate(0, 0, -d).UTC()
			s.Activity = model.ActivityBoxBreathing
			if rng.IntN(2) == 0 {
				s.Activity = model.ActivityStretching
			}
			subs = append(subs, s)
		}
	}
	return subs, ids
}

// between returns an int in [lo, hi].
func between(rng *rand.Rand, lo, hi int) int {
	return lo + rng.IntN(hi-lo+1)
}

func moodFor(rng *rand.Rand, p profile) string {
	// Thriving users sit high on the scale, burned out users low.
	hi := len(moodLabels) - 1 - int(p)
	lo := max(0, hi-2)
	return moodLabels[between(rng, lo, hi)]
}

func microFor(rng *rand.Rand, p profile) burnout.MicroAssessment {
	strain := int(p)
	return burnout.MicroAssessment{
		Fatigue:      between(rng, 1+strain, min(5, 2+strain)),
		Stress:       between(rng, 1+strain, min(5, 2+strain)),
		Satisfaction: between(rng, max(1, 4-strain), 5-strain),
		Sleep:        between(rng, max(1, 4-strain), 5-strain),
	}
}

func mbiFor(rng *rand.Rand, p profile) burnout.MbiAssessment {
	band := func(maxV int, inverted bool) int {
		step := maxV / int(profileCount)
		lo := step * int(p)
		hi := lo + step
		v := between(rng, lo, hi)
		if inverted {
			return maxV - v
		}
		return v
	}
	return burnout.MbiAssessment{
		EE: band(burnout.MaxEE, false),
		DP: band(burnout.MaxDP, false),
		PA: band(burnout.MaxPA, true),
	}
}
