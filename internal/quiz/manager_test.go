package quiz

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/VictorPerezCardoso/cotes/internal/ai"
	"github.com/VictorPerezCardoso/cotes/internal/model"
	"github.com/VictorPerezCardoso/cotes/internal/store"
)

type stubGateway struct {
	questions []model.QuizQuestion
	err       error
	release   chan struct{}
}

func (g *stubGateway) SuggestResources(ctx context.Context, topic string) ([]model.Resource, error) {
	return nil, nil
}

func (g *stubGateway) GenerateQuiz(ctx context.Context, topic string, resources []model.Resource, difficulty model.Difficulty) ([]model.QuizQuestion, error) {
	if g.release != nil {
		<-g.release
	}
	return g.questions, g.err
}

var _ ai.Gateway = (*stubGateway)(nil)

type recordingArchiver struct {
	mu       sync.Mutex
	archived []model.StudySession
}

func (a *recordingArchiver) Append(ctx context.Context, session model.StudySession) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.archived = append(a.archived, session)
	return nil
}

func (a *recordingArchiver) sessions() []model.StudySession {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]model.StudySession(nil), a.archived...)
}

func tenQuestions() []model.QuizQuestion {
	qs := make([]model.QuizQuestion, 10)
	for i := range qs {
		qs[i] = model.QuizQuestion{
			Question:      fmt.Sprintf("Q%d?", i),
			Options:       []string{"a", "b", "c", "right"},
			CorrectAnswer: "right",
		}
	}
	return qs
}

func finishedSession(topic string) model.StudySession {
	end := time.Now().UTC()
	return model.StudySession{
		ID:              "s1",
		Topic:           topic,
		StartTime:       end.Add(-30 * time.Minute),
		EndTime:         &end,
		DurationMinutes: 30,
		Resources:       []model.Resource{},
	}
}

func newTestManager(t *testing.T, gw ai.Gateway) (*Manager, *recordingArchiver, *store.ProgressRepo) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	arch := &recordingArchiver{}
	return NewManager(gw, s.Progress(), arch, "u1"), arch, s.Progress()
}

func waitForState(t *testing.T, m *Manager, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("manager never reached state %d (at %d)", want, m.State())
}

func TestBeginGeneratesAndEntersAnswering(t *testing.T) {
	m, arch, progress := newTestManager(t, &stubGateway{questions: tenQuestions()})
	ctx := context.Background()

	if err := m.Begin(ctx, finishedSession("Graphs"), model.DifficultyNormal); err != nil {
		t.Fatalf("begin: %v", err)
	}
	waitForState(t, m, StateAnswering)

	if got := len(m.Questions()); got != 10 {
		t.Errorf("questions = %d, want 10", got)
	}
	if len(arch.sessions()) != 0 {
		t.Error("session archived before finish")
	}

	saved, err := progress.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if saved == nil || len(saved.Questions) != 10 {
		t.Errorf("resume snapshot not persisted: %+v", saved)
	}
}

func TestBeginWhilePendingRejected(t *testing.T) {
	m, _, _ := newTestManager(t, &stubGateway{questions: tenQuestions()})
	ctx := context.Background()

	if err := m.Begin(ctx, finishedSession("Graphs"), model.DifficultyNormal); err != nil {
		t.Fatalf("begin: %v", err)
	}
	err := m.Begin(ctx, finishedSession("Trees"), model.DifficultyNormal)
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("second begin: got %v, want ValidationError", err)
	}
}

func TestBeginClearsStaleSnapshot(t *testing.T) {
	gw := &stubGateway{questions: tenQuestions(), release: make(chan struct{})}
	m, _, progress := newTestManager(t, gw)
	ctx := context.Background()

	stale := model.SavedQuiz{
		Session:   finishedSession("Graphs"),
		Questions: tenQuestions(),
		Progress:  model.QuizProgress{CurrentQuestionIndex: 3},
	}
	if err := progress.Save(ctx, "u1", stale); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}

	if err := m.Begin(ctx, finishedSession("Trees"), model.DifficultyNormal); err != nil {
		t.Fatalf("begin: %v", err)
	}

	// The old snapshot is gone before generation completes.
	saved, err := progress.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if saved != nil {
		t.Errorf("stale snapshot survived begin: %+v", saved)
	}

	close(gw.release)
	waitForState(t, m, StateAnswering)
}

func TestGenerationFailureArchivesZeroResult(t *testing.T) {
	gw := &stubGateway{err: &ai.QuizGenerationError{Message: "model unavailable"}}
	m, arch, progress := newTestManager(t, gw)
	ctx := context.Background()

	if err := m.Begin(ctx, finishedSession("Graphs"), model.DifficultyNormal); err != nil {
		t.Fatalf("begin: %v", err)
	}
	waitForState(t, m, StateNone)

	got := arch.sessions()
	if len(got) != 1 {
		t.Fatalf("archived %d sessions, want exactly 1", len(got))
	}
	if got[0].QuizResult == nil || *got[0].QuizResult != (model.QuizResult{Score: 0, TotalQuestions: 0}) {
		t.Errorf("quizResult = %+v, want {0 0}", got[0].QuizResult)
	}

	var genErr *ai.QuizGenerationError
	if err := m.ConsumeError(); !errors.As(err, &genErr) {
		t.Errorf("ConsumeError = %v, want QuizGenerationError", err)
	}
	if err := m.ConsumeError(); err != nil {
		t.Errorf("error not cleared after consume: %v", err)
	}

	saved, err := progress.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if saved != nil {
		t.Error("resume snapshot left behind after failed generation")
	}
}

func TestFirstAnswerLocks(t *testing.T) {
	m, _, _ := newTestManager(t, &stubGateway{questions: tenQuestions()})
	ctx := context.Background()

	m.Begin(ctx, finishedSession("Graphs"), model.DifficultyNormal)
	waitForState(t, m, StateAnswering)

	if err := m.RecordAnswer(ctx, 0, "right"); err != nil {
		t.Fatalf("record: %v", err)
	}
	if m.Score() != 1 {
		t.Fatalf("score = %d, want 1", m.Score())
	}

	// Re-answering the same question changes nothing, in either
	// direction.
	if err := m.RecordAnswer(ctx, 0, "wrong"); err != nil {
		t.Fatalf("re-record: %v", err)
	}
	if m.Score() != 1 {
		t.Errorf("score changed on re-answer: %d", m.Score())
	}
	if err := m.RecordAnswer(ctx, 0, "right"); err != nil {
		t.Fatalf("re-record: %v", err)
	}
	if m.Score() != 1 {
		t.Errorf("score double-counted: %d", m.Score())
	}
	if got := m.Answer(0); got == nil || *got != "right" {
		t.Errorf("locked answer = %v, want right", got)
	}
}

func TestRecordAnswerValidatesIndex(t *testing.T) {
	m, _, _ := newTestManager(t, &stubGateway{questions: tenQuestions()})
	ctx := context.Background()

	m.Begin(ctx, finishedSession("Graphs"), model.DifficultyNormal)
	waitForState(t, m, StateAnswering)

	for _, index := range []int{-1, 10} {
		err := m.RecordAnswer(ctx, index, "right")
		var verr *model.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("index %d: got %v, want ValidationError", index, err)
		}
	}
}

func TestAnswersPersistAfterEachRecord(t *testing.T) {
	m, _, progress := newTestManager(t, &stubGateway{questions: tenQuestions()})
	ctx := context.Background()

	m.Begin(ctx, finishedSession("Graphs"), model.DifficultyNormal)
	waitForState(t, m, StateAnswering)

	m.RecordAnswer(ctx, 0, "right")
	m.Advance(ctx)
	m.RecordAnswer(ctx, 1, "a")

	saved, err := progress.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if saved == nil {
		t.Fatal("no snapshot")
	}
	if saved.Progress.CurrentQuestionIndex != 1 {
		t.Errorf("cursor = %d, want 1", saved.Progress.CurrentQuestionIndex)
	}
	if saved.Progress.Answers[0] == nil || *saved.Progress.Answers[0] != "right" {
		t.Errorf("answer[0] not persisted: %v", saved.Progress.Answers[0])
	}
	if saved.Progress.Answers[1] == nil || *saved.Progress.Answers[1] != "a" {
		t.Errorf("answer[1] not persisted: %v", saved.Progress.Answers[1])
	}
}

func TestFinishArchivesScoredSession(t *testing.T) {
	m, arch, progress := newTestManager(t, &stubGateway{questions: tenQuestions()})
	ctx := context.Background()

	m.Begin(ctx, finishedSession("Linear Algebra"), model.DifficultyNormal)
	waitForState(t, m, StateAnswering)

	for i := 0; i < 10; i++ {
		if err := m.RecordAnswer(ctx, i, "right"); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	archived, err := m.Finish(ctx)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if archived.QuizResult == nil || *archived.QuizResult != (model.QuizResult{Score: 10, TotalQuestions: 10}) {
		t.Errorf("quizResult = %+v, want {10 10}", archived.QuizResult)
	}
	if m.State() != StateNone {
		t.Error("manager not idle after finish")
	}
	if len(arch.sessions()) != 1 {
		t.Errorf("archived %d sessions, want 1", len(arch.sessions()))
	}

	saved, err := progress.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if saved != nil {
		t.Error("resume snapshot not cleared by finish")
	}
}

func TestRestoreRecomputesScore(t *testing.T) {
	m, _, _ := newTestManager(t, &stubGateway{})

	right := "right"
	wrong := "a"
	saved := model.SavedQuiz{
		Session:   finishedSession("Graphs"),
		Questions: tenQuestions(),
		Progress: model.QuizProgress{
			CurrentQuestionIndex: 3,
			Answers:              []*string{&right, &wrong, &right},
		},
	}

	if err := m.Restore(saved); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if m.State() != StateAnswering {
		t.Fatalf("state = %d, want answering", m.State())
	}
	if m.Score() != 2 {
		t.Errorf("score = %d, want 2 recomputed from answers", m.Score())
	}
	if m.Current() != 3 {
		t.Errorf("cursor = %d, want 3", m.Current())
	}
	if m.Answered() != 3 {
		t.Errorf("answered = %d, want 3", m.Answered())
	}
}

func TestRestoreRejectsEmptyQuiz(t *testing.T) {
	m, _, _ := newTestManager(t, &stubGateway{})
	err := m.Restore(model.SavedQuiz{Session: finishedSession("Graphs")})
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("got %v, want ValidationError", err)
	}
}

func TestRestoreClampsCursor(t *testing.T) {
	m, _, _ := newTestManager(t, &stubGateway{})
	saved := model.SavedQuiz{
		Session:   finishedSession("Graphs"),
		Questions: tenQuestions(),
		Progress:  model.QuizProgress{CurrentQuestionIndex: 99},
	}
	if err := m.Restore(saved); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if m.Current() != 0 {
		t.Errorf("cursor = %d, want 0", m.Current())
	}
}

func TestAbandonedGenerationIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	gw := &stubGateway{questions: tenQuestions(), release: release}
	m, arch, _ := newTestManager(t, gw)
	ctx := context.Background()

	m.Begin(ctx, finishedSession("Graphs"), model.DifficultyNormal)
	m.Abandon()
	close(release)

	time.Sleep(20 * time.Millisecond)
	if m.State() != StateNone {
		t.Errorf("late generation resurrected the manager: state %d", m.State())
	}
	if len(arch.sessions()) != 0 {
		t.Errorf("abandoned session archived: %d", len(arch.sessions()))
	}
}

func TestSetCurrentClamps(t *testing.T) {
	m, _, _ := newTestManager(t, &stubGateway{questions: tenQuestions()})
	ctx := context.Background()

	m.Begin(ctx, finishedSession("Graphs"), model.DifficultyNormal)
	waitForState(t, m, StateAnswering)

	m.SetCurrent(ctx, -5)
	if m.Current() != 0 {
		t.Errorf("cursor = %d, want 0", m.Current())
	}
	m.SetCurrent(ctx, 42)
	if m.Current() != 9 {
		t.Errorf("cursor = %d, want 9", m.Current())
	}
}
