package burnout

// rule pairs a predicate with the messages it contributes.
type rule struct {
	applies  func(in Input, s subScores) bool
	messages []string
}

// rules are evaluated top to bottom; earlier rules have higher priority.
var rules = []rule{
	{
		applies: func(_ Input, s subScores) bool { return s.combined >= HighThreshold },
		messages: []string{
			"Consider speaking with a mental health professional",
			"Take immediate steps to reduce workload if possible",
		},
	},
	{
		applies: func(in Input, _ subScores) bool { return in.mbi.EE > 27 },
		messages: []string{
			"Practice stress-reduction techniques such as mindfulness or deep breathing",
			"Ensure adequate rest between demanding tasks",
		},
	},
	{
		applies: func(in Input, _ subScores) bool { return in.mbi.DP > 10 },
		messages: []string{
			"Reconnect with the meaningful aspects of your work",
			"Seek peer support and professional community",
		},
	},
	{
		applies: func(in Input, _ subScores) bool { return in.mbi.PA < 32 },
		messages: []string{
			"Set small, achievable goals to rebuild a sense of accomplishment",
			"Celebrate your successes, however small",
		},
	},
	{
		applies:  func(in Input, _ subScores) bool { return in.micro.Fatigue >= 4 },
		messages: []string{"Prioritize sleep hygiene and energy management"},
	},
	{
		applies:  func(in Input, _ subScores) bool { return in.micro.Stress >= 4 },
		messages: []string{"Try our box breathing exercises to manage stress in the moment"},
	},
	{
		applies:  func(in Input, _ subScores) bool { return in.micro.Satisfaction <= 2 },
		messages: []string{"Reflect on what aspects of work bring you joy"},
	},
	{
		applies:  func(in Input, _ subScores) bool { return in.micro.Sleep <= 2 },
		messages: []string{"Establish a consistent sleep schedule"},
	},
	{
		applies: func(_ Input, s subScores) bool { return s.mood >= 6 },
		messages: []string{
			"Use our daily mood tracking to notice patterns in how you feel",
			"Consider regular physical exercise or stretching",
		},
	},
}

// fallbackRecommendations replaces the list when no rule fires.
var fallbackRecommendations = []string{
	"Continue maintaining a healthy work-life balance",
	"Keep checking in regularly to track your wellbeing",
}

// FallbackRecommendations returns a copy of the list used when no rule fires.
func FallbackRecommendations() []string {
	return append([]string(nil), fallbackRecommendations...)
}

func recommend(in Input, s subScores) []string {
	var out []string
	for _, r := range rules {
		if r.applies(in, s) {
			out = append(out, r.messages...)
		}
	}
	if len(out) == 0 {
		return FallbackRecommendations()
	}
	return truncate(out, MaxRecommendations)
}

// truncate keeps the first n messages.
func truncate(msgs []string, n int) []string {
	if len(msgs) <= n {
		return msgs
	}
	return msgs[:n:n]
}
