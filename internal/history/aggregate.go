package history

import (
	"sort"

	"github.com/VictorPerezCardoso/cotes/internal/model"
)

// TopicMinutes is the total study time recorded for one topic. Topic
// holds the display form of the first session seen for it.
type TopicMinutes struct {
	Topic   string
	Minutes int
}

// ScorePoint is one quiz outcome plotted on the dashboard.
type ScorePoint struct {
	Date    string // YYYY-MM-DD of the session start
	Topic   string
	Score   int
	Total   int
	Percent float64
}

// MinutesByTopic sums session durations per normalized topic. Output is
// sorted by minutes descending, ties broken by topic.
func MinutesByTopic(sessions []model.StudySession) []TopicMinutes {
	totals := make(map[string]int)
	display := make(map[string]string)
	for _, s := range sessions {
		key := model.NormalizeTopic(s.Topic)
		if key == "" {
			continue
		}
		if _, seen := display[key]; !seen {
			display[key] = s.Topic
		}
		totals[key] += s.DurationMinutes
	}

	out := make([]TopicMinutes, 0, len(totals))
	for key, minutes := range totals {
		out = append(out, TopicMinutes{Topic: display[key], Minutes: minutes})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Minutes != out[j].Minutes {
			return out[i].Minutes > out[j].Minutes
		}
		return out[i].Topic < out[j].Topic
	})
	return out
}

// QuizScores lists one point per session carrying a quiz result, in
// session order. Sessions archived after a failed generation show as
// 0 of 0 with a zero percentage.
func QuizScores(sessions []model.StudySession) []ScorePoint {
	var out []ScorePoint
	for _, s := range sessions {
		if s.QuizResult == nil {
			continue
		}
		p := ScorePoint{
			Date:  s.StartTime.Format("2006-01-02"),
			Topic: s.Topic,
			Score: s.QuizResult.Score,
			Total: s.QuizResult.TotalQuestions,
		}
		if p.Total > 0 {
			p.Percent = float64(p.Score) / float64(p.Total) * 100
		}
		out = append(out, p)
	}
	return out
}
