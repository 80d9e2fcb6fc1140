package quizrun

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/VictorPerezCardoso/cotes/internal/model"
	"github.com/VictorPerezCardoso/cotes/internal/quiz"
	"github.com/VictorPerezCardoso/cotes/internal/screen"
	"github.com/VictorPerezCardoso/cotes/internal/store"
	"github.com/VictorPerezCardoso/cotes/internal/study"
)

type stubGateway struct {
	quizErr error
}

func (stubGateway) SuggestResources(_ context.Context, _ string) ([]model.Resource, error) {
	return nil, nil
}

func (g stubGateway) GenerateQuiz(_ context.Context, _ string, _ []model.Resource, _ model.Difficulty) ([]model.QuizQuestion, error) {
	if g.quizErr != nil {
		return nil, g.quizErr
	}
	qs := make([]model.QuizQuestion, 10)
	for i := range qs {
		qs[i] = model.QuizQuestion{
			Question:      "pick the first option",
			Options:       []string{"right", "wrong", "worse", "worst"},
			CorrectAnswer: "right",
		}
	}
	return qs, nil
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func testTracker(t *testing.T, gw stubGateway) *study.Tracker {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	tracker, err := study.New(context.Background(), st, gw)
	if err != nil {
		t.Fatalf("new tracker: %v", err)
	}
	if _, err := tracker.Register(context.Background(), "kim", "pw"); err != nil {
		t.Fatalf("register: %v", err)
	}
	return tracker
}

// startQuiz runs a study session to completion so the manager begins
// generating in the background.
func startQuiz(t *testing.T, tracker *study.Tracker) {
	t.Helper()
	ctx := context.Background()
	if err := tracker.StartSession(ctx, "sorting"); err != nil {
		t.Fatalf("start session: %v", err)
	}
	if _, err := tracker.StopSession(ctx); err != nil {
		t.Fatalf("stop session: %v", err)
	}
}

// pollUntilSettled feeds poll ticks until generation resolves one way
// or the other.
func pollUntilSettled(t *testing.T, scr screen.Screen) *QuizScreen {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		scr, _ = scr.Update(pollMsg{})
		qs := scr.(*QuizScreen)
		if qs.phase != phaseGenerating {
			return qs
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("quiz generation never settled")
	return nil
}

func TestQuizScreen_GenerationToAnswering(t *testing.T) {
	tracker := testTracker(t, stubGateway{})
	startQuiz(t, tracker)

	s := New(tracker)
	qs := pollUntilSettled(t, s)

	if qs.phase != phaseAnswering {
		t.Fatalf("phase = %d, want answering", qs.phase)
	}
	if len(qs.questions) != 10 {
		t.Errorf("questions = %d, want 10", len(qs.questions))
	}
}

func TestQuizScreen_AnswerAllShowsResults(t *testing.T) {
	tracker := testTracker(t, stubGateway{})
	startQuiz(t, tracker)

	var scr screen.Screen = pollUntilSettled(t, New(tracker))

	// The first option is always correct; answer every question with it.
	for i := 0; i < 10; i++ {
		scr, _ = scr.Update(specialKey(tea.KeyEnter))
		scr, _ = scr.Update(advanceMsg{})
	}

	qs := scr.(*QuizScreen)
	if qs.phase != phaseResults {
		t.Fatalf("phase = %d, want results", qs.phase)
	}
	if qs.score != 10 || qs.total != 10 {
		t.Errorf("score = %d/%d, want 10/10", qs.score, qs.total)
	}
	if !strings.Contains(qs.reviewLink, "google.com/calendar/render") {
		t.Errorf("reviewLink = %q, want a calendar URL", qs.reviewLink)
	}

	archived := tracker.Ledger().Sessions()
	if len(archived) != 1 {
		t.Fatalf("ledger entries = %d, want 1", len(archived))
	}
	if archived[0].QuizResult == nil || archived[0].QuizResult.Score != 10 {
		t.Errorf("archived result = %+v, want score 10", archived[0].QuizResult)
	}
}

func TestQuizScreen_GenerationFailure(t *testing.T) {
	tracker := testTracker(t, stubGateway{quizErr: errors.New("model offline")})
	startQuiz(t, tracker)

	qs := pollUntilSettled(t, New(tracker))

	if qs.phase != phaseFailed {
		t.Fatalf("phase = %d, want failed", qs.phase)
	}

	// The session still reaches history with a zero result.
	archived := tracker.Ledger().Sessions()
	if len(archived) != 1 {
		t.Fatalf("ledger entries = %d, want 1", len(archived))
	}
	if archived[0].QuizResult == nil || archived[0].QuizResult.TotalQuestions != 0 {
		t.Errorf("archived result = %+v, want {0 0}", archived[0].QuizResult)
	}

	view := qs.View(100, 40)
	if !strings.Contains(view, "still recorded") {
		t.Error("expected failure view to mention the recorded session")
	}
}

func TestQuizScreen_EscKeepsResumableState(t *testing.T) {
	tracker := testTracker(t, stubGateway{})
	startQuiz(t, tracker)

	var scr screen.Screen = pollUntilSettled(t, New(tracker))

	// Answer two questions, then leave mid-quiz.
	scr, _ = scr.Update(specialKey(tea.KeyEnter))
	scr, _ = scr.Update(advanceMsg{})
	scr, _ = scr.Update(specialKey(tea.KeyEnter))
	scr, _ = scr.Update(advanceMsg{})

	_, cmd := scr.Update(specialKey(tea.KeyEscape))
	if cmd == nil {
		t.Fatal("expected a pop command on escape")
	}
	if tracker.Quiz().State() != quiz.StateNone {
		t.Error("expected manager abandoned")
	}
}

func TestQuizScreen_ResumedQuizSkipsGeneration(t *testing.T) {
	tracker := testTracker(t, stubGateway{})
	startQuiz(t, tracker)

	var scr screen.Screen = pollUntilSettled(t, New(tracker))
	scr, _ = scr.Update(specialKey(tea.KeyEnter))
	scr, _ = scr.Update(advanceMsg{})
	scr.Update(specialKey(tea.KeyEscape))

	// A fresh login restores the saved quiz before the screen opens.
	tracker.Logout()
	if _, err := tracker.Login(context.Background(), "kim", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !tracker.ResumedQuiz() {
		t.Fatal("expected a resumed quiz after login")
	}

	s := New(tracker)
	if s.phase != phaseAnswering {
		t.Fatalf("phase = %d, want answering without polling", s.phase)
	}
	if !s.questions[0].Submitted {
		t.Error("expected the restored answer to be locked")
	}
	if s.questions[1].Submitted {
		t.Error("expected unanswered questions to stay open")
	}
}

func TestEncouragementTiers(t *testing.T) {
	cases := []struct {
		percent float64
		want    string
	}{
		{0, "Tough"},
		{0.49, "Tough"},
		{0.5, "Good base"},
		{0.69, "Good base"},
		{0.7, "Strong"},
		{0.99, "Strong"},
		{1, "Perfect"},
	}
	for _, tc := range cases {
		got := encouragement(tc.percent)
		if !strings.Contains(got, tc.want) {
			t.Errorf("encouragement(%v) = %q, want it to mention %q", tc.percent, got, tc.want)
		}
	}
}
