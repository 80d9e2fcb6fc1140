// Package model holds the domain types shared across the study tracker:
// users, resources, study sessions, quiz questions and quiz progress.
// JSON tags match the persisted blob layout, so a value round-trips the
// store unchanged.
package model

import (
	"strings"
	"time"
)

// User is a registered learner. Passwords are stored as entered; this is
// a single-machine personal tool, not a shared service.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Password string `json:"password,omitempty"`
}

// Resource is a reading suggestion attached to a session. The URI is the
// de-duplication key within a session.
type Resource struct {
	Title       string `json:"title"`
	URI         string `json:"uri"`
	Description string `json:"description"`
}

// QuizResult is the outcome attached to a session once its quiz resolves.
// A generation failure archives with {0, 0}.
type QuizResult struct {
	Score          int `json:"score"`
	TotalQuestions int `json:"totalQuestions"`
}

// StudySession is one timed study interval on a topic. While EndTime is
// nil the session is active and lives only in memory; it reaches the
// history ledger only after a QuizResult is attached.
type StudySession struct {
	ID              string      `json:"id"`
	Topic           string      `json:"topic"`
	StartTime       time.Time   `json:"startTime"`
	EndTime         *time.Time  `json:"endTime"`
	DurationMinutes int         `json:"durationMinutes"`
	Resources       []Resource  `json:"resources"`
	QuizResult      *QuizResult `json:"quizResult,omitempty"`
}

// Clone returns a deep copy. Ownership of a session moves between the
// session controller, quiz manager and ledger by value, never by shared
// pointer.
func (s StudySession) Clone() StudySession {
	out := s
	out.Resources = make([]Resource, len(s.Resources))
	copy(out.Resources, s.Resources)
	if s.EndTime != nil {
		t := *s.EndTime
		out.EndTime = &t
	}
	if s.QuizResult != nil {
		r := *s.QuizResult
		out.QuizResult = &r
	}
	return out
}

// HasResource reports whether a resource with the given URI is already
// attached.
func (s StudySession) HasResource(uri string) bool {
	for _, r := range s.Resources {
		if r.URI == uri {
			return true
		}
	}
	return false
}

// QuizQuestion is a single multiple-choice question. CorrectAnswer is the
// full text of one of the four options.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// QuizProgress is the durable mid-quiz snapshot: the question being
// viewed and the locked-in answer (or nil) per question. Persisted after
// every answer and navigation so a restart can resume.
type QuizProgress struct {
	CurrentQuestionIndex int       `json:"currentQuestionIndex"`
	Answers              []*string `json:"answers"`
}

// SavedQuiz is the full quiz-in-progress blob stored per user.
type SavedQuiz struct {
	Session   StudySession   `json:"session"`
	Questions []QuizQuestion `json:"questions"`
	Progress  QuizProgress   `json:"progress"`
}

// Difficulty selects how demanding generated quiz questions should be.
type Difficulty string

const (
	DifficultyNormal Difficulty = "normal"
	DifficultyHard   Difficulty = "hard"
)

// NormalizeTopic folds a topic for aggregation and comparison: trimmed
// and lower-cased.
func NormalizeTopic(topic string) string {
	return strings.ToLower(strings.TrimSpace(topic))
}
