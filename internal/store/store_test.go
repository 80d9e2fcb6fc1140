package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/VictorPerezCardoso/cotes/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)

	tests := []struct {
		pragma string
		want   string
	}{
		// journal_mode reports "memory" for in-memory databases, so it
		// is not asserted here.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		if err := s.DB().QueryRow("PRAGMA " + tt.pragma).Scan(&got); err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestUsersRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	users, err := s.Users().Load(ctx)
	if err != nil {
		t.Fatalf("load (empty): %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("expected empty user list, got %d", len(users))
	}

	want := []model.User{
		{ID: "u-1", Name: "Ana", Password: "pw"},
		{ID: "u-2", Name: "Bruno", Password: "pw2"},
	}
	if err := s.Users().Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	users, err = s.Users().Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(users) != 2 || users[0].Name != "Ana" || users[1].ID != "u-2" {
		t.Errorf("loaded users = %+v", users)
	}
}

func TestHistoryRoundTripPreservesDates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	start := time.Date(2026, 5, 2, 15, 30, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)
	sessions := []model.StudySession{{
		ID:              "s-1",
		Topic:           "Graphs",
		StartTime:       start,
		EndTime:         &end,
		DurationMinutes: 30,
		Resources:       []model.Resource{{Title: "BFS", URI: "https://x/bfs", Description: "d"}},
		QuizResult:      &model.QuizResult{Score: 9, TotalQuestions: 10},
	}}

	if err := s.History().Save(ctx, "u-1", sessions); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.History().Load(ctx, "u-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if !got[0].StartTime.Equal(start) || got[0].EndTime == nil || !got[0].EndTime.Equal(end) {
		t.Errorf("dates not rehydrated: start=%v end=%v", got[0].StartTime, got[0].EndTime)
	}
	if got[0].QuizResult == nil || got[0].QuizResult.Score != 9 {
		t.Errorf("quiz result lost: %+v", got[0].QuizResult)
	}

	// Histories are keyed per user.
	other, err := s.History().Load(ctx, "u-2")
	if err != nil {
		t.Fatalf("load other user: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected empty history for other user, got %d", len(other))
	}
}

func TestCorruptBlobIsDiscarded(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.DB().Exec(`INSERT INTO blobs (key, value) VALUES ('history_u-1', 'not json{')`)
	if err != nil {
		t.Fatalf("seed corrupt blob: %v", err)
	}

	_, err = s.History().Load(ctx, "u-1")
	var perr *PersistenceError
	if !errors.As(err, &perr) || !perr.Corrupt {
		t.Fatalf("expected corrupt PersistenceError, got %v", err)
	}

	// Blob is gone; the next load sees an empty collection.
	got, err := s.History().Load(ctx, "u-1")
	if err != nil {
		t.Fatalf("load after discard: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty history after discard, got %d", len(got))
	}
}

func TestProgressLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	saved, err := s.Progress().Load(ctx, "u-1")
	if err != nil {
		t.Fatalf("load (absent): %v", err)
	}
	if saved != nil {
		t.Fatal("expected nil saved quiz when none exists")
	}

	a := "Paris"
	want := model.SavedQuiz{
		Session:   model.StudySession{ID: "s-1", Topic: "Capitals", StartTime: time.Now().UTC()},
		Questions: []model.QuizQuestion{{Question: "Capital of France?", Options: []string{"Paris", "Rome", "Oslo", "Lima"}, CorrectAnswer: "Paris"}},
		Progress:  model.QuizProgress{CurrentQuestionIndex: 1, Answers: []*string{&a}},
	}
	if err := s.Progress().Save(ctx, "u-1", want); err != nil {
		t.Fatalf("save: %v", err)
	}

	saved, err = s.Progress().Load(ctx, "u-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if saved == nil {
		t.Fatal("expected saved quiz")
	}
	if saved.Progress.CurrentQuestionIndex != 1 {
		t.Errorf("currentQuestionIndex = %d, want 1", saved.Progress.CurrentQuestionIndex)
	}
	if len(saved.Progress.Answers) != 1 || saved.Progress.Answers[0] == nil || *saved.Progress.Answers[0] != "Paris" {
		t.Errorf("answers = %+v", saved.Progress.Answers)
	}

	if err := s.Progress().Clear(ctx, "u-1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	saved, err = s.Progress().Load(ctx, "u-1")
	if err != nil {
		t.Fatalf("load after clear: %v", err)
	}
	if saved != nil {
		t.Error("expected nil saved quiz after clear")
	}
}

func TestLLMEventLog(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.LLMEvents().Append(ctx, LLMRequestData{
		Provider: "gemini", Model: "gemini-2.0-flash", Purpose: "quiz-gen",
		InputTokens: 100, OutputTokens: 200, LatencyMs: 1234, Success: true,
		RequestBody: "[user]\nhi", ResponseBody: "[]",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	events, err := s.LLMEvents().List(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("len = %d, want 1", len(events))
	}
	if events[0].Purpose != "quiz-gen" || !events[0].Success {
		t.Errorf("event = %+v", events[0])
	}

	got, err := s.LLMEvents().Get(ctx, events[0].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.RequestBody == "" || got.ResponseBody == "" {
		t.Errorf("expected full bodies, got %+v", got)
	}

	missing, err := s.LLMEvents().Get(ctx, 9999)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown id")
	}
}
