// Package quiz owns the passage from a finished study session to a
// scored, archived one: asynchronous question generation, answer
// recording with a durable resume snapshot, and archival to history.
package quiz

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/VictorPerezCardoso/cotes/internal/ai"
	"github.com/VictorPerezCardoso/cotes/internal/model"
	"github.com/VictorPerezCardoso/cotes/internal/store"
)

// State is the manager's lifecycle position.
type State int

const (
	// StateNone means no pending session and no quiz.
	StateNone State = iota
	// StateGenerating means a finished session is waiting on questions.
	StateGenerating
	// StateAnswering means questions are available and answers are
	// being recorded.
	StateAnswering
)

// Archiver receives sessions once a quiz outcome is attached. The
// history ledger satisfies it.
type Archiver interface {
	Append(ctx context.Context, session model.StudySession) error
}

// Manager holds the pending session from stop time until it is scored.
// A session never reaches the archiver without a quiz result, even when
// generation fails.
type Manager struct {
	gateway  ai.Gateway
	progress *store.ProgressRepo
	archiver Archiver
	userID   string

	mu        sync.Mutex
	state     State
	session   model.StudySession
	questions []model.QuizQuestion
	answers   []*string
	current   int
	genErr    error

	// generation stamps each Begin. A result from a superseded
	// generation is dropped.
	generation int
}

// NewManager creates an idle manager for one user.
func NewManager(gateway ai.Gateway, progress *store.ProgressRepo, archiver Archiver, userID string) *Manager {
	return &Manager{
		gateway:  gateway,
		progress: progress,
		archiver: archiver,
		userID:   userID,
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Begin takes ownership of a finished session and starts question
// generation in the background. Any previous resume snapshot for the
// user is cleared first. Valid only from StateNone.
func (m *Manager) Begin(ctx context.Context, session model.StudySession, difficulty model.Difficulty) error {
	m.mu.Lock()
	if m.state != StateNone {
		m.mu.Unlock()
		return &model.ValidationError{Field: "state", Reason: "a quiz is already pending"}
	}
	m.state = StateGenerating
	m.session = session.Clone()
	m.questions = nil
	m.answers = nil
	m.current = 0
	m.genErr = nil
	m.generation++
	gen := m.generation
	m.mu.Unlock()

	if err := m.progress.Clear(ctx, m.userID); err != nil {
		fmt.Fprintf(os.Stderr, "warning: clearing stale quiz snapshot: %v\n", err)
	}

	go m.generate(ctx, session, difficulty, gen)
	return nil
}

func (m *Manager) generate(ctx context.Context, session model.StudySession, difficulty model.Difficulty, gen int) {
	questions, err := m.gateway.GenerateQuiz(ctx, session.Topic, session.Resources, difficulty)

	m.mu.Lock()
	if m.generation != gen || m.state != StateGenerating {
		m.mu.Unlock()
		return
	}

	if err != nil {
		// The session is still recorded: archive it with a zero
		// result instead of leaving it in limbo.
		m.session.QuizResult = &model.QuizResult{Score: 0, TotalQuestions: 0}
		archived := m.session.Clone()
		m.genErr = err
		m.resetLocked()
		m.mu.Unlock()

		if aerr := m.archiver.Append(ctx, archived); aerr != nil {
			fmt.Fprintf(os.Stderr, "warning: archiving unscored session: %v\n", aerr)
		}
		return
	}

	m.questions = questions
	m.answers = make([]*string, len(questions))
	m.current = 0
	m.state = StateAnswering
	m.mu.Unlock()

	m.persistSnapshot(ctx)
}

// ConsumeError returns and clears the last generation failure, if any.
// The session it belonged to has already been archived with {0, 0}.
func (m *Manager) ConsumeError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	err := m.genErr
	m.genErr = nil
	return err
}

// Session returns a copy of the pending session.
func (m *Manager) Session() model.StudySession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Clone()
}

// Questions returns the generated questions.
func (m *Manager) Questions() []model.QuizQuestion {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.QuizQuestion, len(m.questions))
	copy(out, m.questions)
	return out
}

// Current returns the index of the question being viewed.
func (m *Manager) Current() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Answer returns the locked-in answer for a question, or nil.
func (m *Manager) Answer(index int) *string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.answers) || m.answers[index] == nil {
		return nil
	}
	a := *m.answers[index]
	return &a
}

// RecordAnswer locks in the first answer for a question and persists
// the resume snapshot. A question that already has an answer keeps it;
// re-answering never changes the score contribution already counted.
func (m *Manager) RecordAnswer(ctx context.Context, index int, option string) error {
	m.mu.Lock()
	if m.state != StateAnswering {
		m.mu.Unlock()
		return &model.ValidationError{Field: "state", Reason: "no quiz in progress"}
	}
	if index < 0 || index >= len(m.questions) {
		m.mu.Unlock()
		return &model.ValidationError{Field: "index", Reason: "question index out of range"}
	}
	if m.answers[index] != nil {
		m.mu.Unlock()
		return nil
	}
	m.answers[index] = &option
	m.mu.Unlock()

	m.persistSnapshot(ctx)
	return nil
}

// SetCurrent moves the viewed-question cursor and persists the
// snapshot. Out-of-range values clamp.
func (m *Manager) SetCurrent(ctx context.Context, index int) {
	m.mu.Lock()
	if m.state != StateAnswering {
		m.mu.Unlock()
		return
	}
	if index < 0 {
		index = 0
	}
	if index >= len(m.questions) {
		index = len(m.questions) - 1
	}
	m.current = index
	m.mu.Unlock()

	m.persistSnapshot(ctx)
}

// Advance moves to the next question.
func (m *Manager) Advance(ctx context.Context) {
	m.SetCurrent(ctx, m.Current()+1)
}

// Score counts questions whose locked-in answer matches the correct
// option. Recomputed from the answers every time, so a restored quiz
// scores identically to one answered in a single run.
func (m *Manager) Score() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scoreLocked()
}

func (m *Manager) scoreLocked() int {
	score := 0
	for i, q := range m.questions {
		if m.answers[i] != nil && *m.answers[i] == q.CorrectAnswer {
			score++
		}
	}
	return score
}

// Answered counts questions with a locked-in answer.
func (m *Manager) Answered() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.answers {
		if a != nil {
			n++
		}
	}
	return n
}

// Finish attaches the score to the pending session, archives it and
// clears the resume snapshot. Returns the archived session.
func (m *Manager) Finish(ctx context.Context) (model.StudySession, error) {
	m.mu.Lock()
	if m.state != StateAnswering {
		m.mu.Unlock()
		return model.StudySession{}, &model.ValidationError{Field: "state", Reason: "no quiz to finish"}
	}
	m.session.QuizResult = &model.QuizResult{
		Score:          m.scoreLocked(),
		TotalQuestions: len(m.questions),
	}
	archived := m.session.Clone()
	m.resetLocked()
	m.mu.Unlock()

	if err := m.archiver.Append(ctx, archived); err != nil {
		return model.StudySession{}, err
	}
	if err := m.progress.Clear(ctx, m.userID); err != nil {
		fmt.Fprintf(os.Stderr, "warning: clearing quiz snapshot: %v\n", err)
	}
	return archived, nil
}

// Restore resumes a previously saved quiz. The cursor and answers come
// from the snapshot; the score is derived from the answers, never
// stored.
func (m *Manager) Restore(saved model.SavedQuiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateNone {
		return &model.ValidationError{Field: "state", Reason: "a quiz is already pending"}
	}
	if len(saved.Questions) == 0 {
		return &model.ValidationError{Field: "questions", Reason: "saved quiz has no questions"}
	}

	m.session = saved.Session.Clone()
	m.questions = saved.Questions
	m.answers = make([]*string, len(saved.Questions))
	for i, a := range saved.Progress.Answers {
		if i >= len(m.answers) {
			break
		}
		if a != nil {
			v := *a
			m.answers[i] = &v
		}
	}
	m.current = saved.Progress.CurrentQuestionIndex
	if m.current < 0 || m.current >= len(m.questions) {
		m.current = 0
	}
	m.generation++
	m.state = StateAnswering
	return nil
}

// Abandon drops the pending quiz without archiving. The resume
// snapshot stays in the store so the quiz can be picked up again.
func (m *Manager) Abandon() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateNone {
		return
	}
	m.resetLocked()
}

func (m *Manager) resetLocked() {
	m.state = StateNone
	m.session = model.StudySession{}
	m.questions = nil
	m.answers = nil
	m.current = 0
	m.generation++
}

// persistSnapshot writes the resume blob. Last write wins; a failed
// write only costs the ability to resume, so it is logged and ignored.
func (m *Manager) persistSnapshot(ctx context.Context) {
	m.mu.Lock()
	if m.state != StateAnswering {
		m.mu.Unlock()
		return
	}
	saved := model.SavedQuiz{
		Session:   m.session.Clone(),
		Questions: append([]model.QuizQuestion(nil), m.questions...),
		Progress: model.QuizProgress{
			CurrentQuestionIndex: m.current,
			Answers:              append([]*string(nil), m.answers...),
		},
	}
	m.mu.Unlock()

	if err := m.progress.Save(ctx, m.userID, saved); err != nil {
		fmt.Fprintf(os.Stderr, "warning: saving quiz snapshot: %v\n", err)
	}
}
