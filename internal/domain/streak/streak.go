// Package streak computes consecutive-day wellness activity streaks and the
// messages and goals shown alongside them.
package streak

import (
	"fmt"
	"sort"
	"time"
)

// Streak milestones in days.
const (
	firstDay  = 1
	weekDays  = 7
	monthDays = 30
)

// Activity records whether any wellness activity happened on a day.
type Activity struct {
	Date        time.Time `json:"date"`
	HasActivity bool      `json:"hasActivity"`
}

// Goal is the next streak target to aim for.
type Goal struct {
	Target  int    `json:"target"`
	Message string `json:"message"`
}

// ActivityStreak counts consecutive active days ending today. Records are
// walked newest first and each must fall exactly streak days before today;
// a day without a record, an inactive day, or a second record for the same
// day ends the streak.
func ActivityStreak(activities []Activity, now time.Time) int {
	sorted := make([]Activity, len(activities))
	copy(sorted, activities)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})

	streak := 0
	for _, a := range sorted {
		if !a.HasActivity || daysBetween(now, a.Date) != streak {
			break
		}
		streak++
	}
	return streak
}

// LongestStreak returns the longest run of consecutive active calendar days.
func LongestStreak(activities []Activity) int {
	days := activeDays(activities)
	longest, run := 0, 0
	for i, d := range days {
		if i > 0 && daysBetween(d, days[i-1]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// LastActivityDate returns the recorded date of the newest active record.
func LastActivityDate(activities []Activity) (time.Time, bool) {
	var last time.Time
	found := false
	for _, a := range activities {
		if !a.HasActivity {
			continue
		}
		if !found || a.Date.After(last) {
			last, found = a.Date, true
		}
	}
	return last, found
}

// StreakMessage returns the encouragement shown for a streak length.
func StreakMessage(streak int) string {
	switch {
	case streak <= 0:
		return "Start your wellness journey today!"
	case streak == firstDay:
		return "Great start! Keep it up!"
	case streak < weekDays:
		return fmt.Sprintf("%d days strong! You're building a habit!", streak)
	case streak < monthDays:
		return fmt.Sprintf("Amazing! %d days of consistent self-care!", streak)
	default:
		return fmt.Sprintf("Incredible! %d days of dedication to your wellbeing!", streak)
	}
}

// WellnessGoal picks the next milestone for the current streak.
func WellnessGoal(currentStreak, longestStreak int) Goal {
	switch {
	case currentStreak <= 0:
		return Goal{Target: firstDay, Message: "Start with just one day of self-care!"}
	case currentStreak < weekDays:
		return Goal{Target: weekDays, Message: "Aim for a full week of wellness activities!"}
	case currentStreak < monthDays:
		return Goal{Target: monthDays, Message: "Challenge yourself to a 30-day streak!"}
	default:
		return Goal{
			Target:  max(longestStreak+weekDays, currentStreak+weekDays),
			Message: "Keep pushing your personal best!",
		}
	}
}

// activeDays returns the distinct active calendar days in ascending order.
func activeDays(activities []Activity) []time.Time {
	seen := make(map[time.Time]struct{}, len(activities))
	var days []time.Time
	for _, a := range activities {
		if !a.HasActivity {
			continue
		}
		d := civilDay(a.Date)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// daysBetween counts calendar days from earlier to later in later's location.
func daysBetween(later, earlier time.Time) int {
	a := civilDay(later)
	b := civilDay(earlier.In(later.Location()))
	return int(a.Sub(b).Hours() / 24)
}

// civilDay drops the clock so day arithmetic is immune to DST shifts.
func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
