// Package quizrun presents the generated quiz: one question at a time,
// then the score summary with a calendar link for a review session.
package quizrun

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/VictorPerezCardoso/cotes/internal/calendar"
	"github.com/VictorPerezCardoso/cotes/internal/quiz"
	"github.com/VictorPerezCardoso/cotes/internal/router"
	"github.com/VictorPerezCardoso/cotes/internal/screen"
	"github.com/VictorPerezCardoso/cotes/internal/study"
	"github.com/VictorPerezCardoso/cotes/internal/ui/components"
	"github.com/VictorPerezCardoso/cotes/internal/ui/layout"
	"github.com/VictorPerezCardoso/cotes/internal/ui/theme"
)

type phase int

const (
	phaseGenerating phase = iota
	phaseFailed
	phaseAnswering
	phaseResults
)

// pollMsg checks whether background quiz generation finished.
type pollMsg struct{}

// advanceMsg moves to the next question after the answer reveal.
type advanceMsg struct{}

// QuizScreen walks the user through the ten questions of a quiz.
type QuizScreen struct {
	tracker *study.Tracker

	phase     phase
	questions []components.MultiChoice
	failMsg   string

	// Filled in when the quiz is finished.
	score      int
	total      int
	topic      string
	reviewLink string
}

var _ screen.Screen = (*QuizScreen)(nil)
var _ screen.KeyHintProvider = (*QuizScreen)(nil)

// New creates the quiz screen. The quiz manager may still be
// generating; the screen polls until questions are ready.
func New(tracker *study.Tracker) *QuizScreen {
	s := &QuizScreen{tracker: tracker}
	if tracker.Quiz().State() == quiz.StateAnswering {
		s.adoptQuestions()
	}
	return s
}

func (s *QuizScreen) Init() tea.Cmd {
	if s.phase == phaseGenerating {
		return poll()
	}
	return nil
}

func poll() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(time.Time) tea.Msg {
		return pollMsg{}
	})
}

func (s *QuizScreen) Title() string {
	if s.phase == phaseResults {
		return "Quiz results"
	}
	return "Quiz"
}

func (s *QuizScreen) KeyHints() []layout.KeyHint {
	switch s.phase {
	case phaseAnswering:
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Choose"},
			{Key: "Enter", Description: "Answer"},
			{Key: "←→", Description: "Question"},
			{Key: "Esc", Description: "Save & exit"},
		}
	case phaseResults, phaseFailed:
		return []layout.KeyHint{{Key: "Enter", Description: "Done"}}
	default:
		return []layout.KeyHint{{Key: "Esc", Description: "Back"}}
	}
}

// adoptQuestions mirrors the manager's questions into view components,
// pre-locking answers restored from a saved quiz.
func (s *QuizScreen) adoptQuestions() {
	mgr := s.tracker.Quiz()
	qs := mgr.Questions()
	s.questions = make([]components.MultiChoice, len(qs))
	for i, q := range qs {
		mc := components.NewMultiChoice(q.Question, q.Options, q.CorrectAnswer)
		if answer := mgr.Answer(i); answer != nil {
			mc.Lock(*answer)
		}
		s.questions[i] = mc
	}
	s.phase = phaseAnswering
}

func (s *QuizScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	mgr := s.tracker.Quiz()

	switch msg := msg.(type) {
	case pollMsg:
		if s.phase != phaseGenerating {
			return s, nil
		}
		if err := mgr.ConsumeError(); err != nil {
			s.phase = phaseFailed
			s.failMsg = "Quiz generation failed. Your study session was still recorded."
			return s, nil
		}
		if mgr.State() == quiz.StateAnswering {
			s.adoptQuestions()
			return s, nil
		}
		return s, poll()

	case advanceMsg:
		if s.phase == phaseAnswering {
			mgr.Advance(context.Background())
		}
		return s, nil

	case tea.KeyMsg:
		switch s.phase {
		case phaseFailed, phaseResults:
			switch msg.String() {
			case "enter", "esc":
				return s, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return s, nil
		case phaseAnswering:
			return s.updateAnswering(msg)
		default:
			if msg.String() == "esc" {
				mgr.Abandon()
				return s, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return s, nil
		}
	}
	return s, nil
}

func (s *QuizScreen) updateAnswering(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	mgr := s.tracker.Quiz()
	ctx := context.Background()
	cur := mgr.Current()

	switch msg.String() {
	case "esc":
		// Answers are already persisted; the quiz resumes at next login.
		mgr.Abandon()
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	case "left", "h":
		mgr.SetCurrent(ctx, cur-1)
		return s, nil
	case "right", "l":
		mgr.SetCurrent(ctx, cur+1)
		return s, nil
	}

	if cur >= len(s.questions) {
		return s, nil
	}

	wasSubmitted := s.questions[cur].Submitted
	var cmd tea.Cmd
	s.questions[cur], cmd = s.questions[cur].Update(msg)

	if !wasSubmitted && s.questions[cur].Submitted {
		if err := mgr.RecordAnswer(ctx, cur, s.questions[cur].Chosen); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not record answer: %v\n", err)
		}
		if mgr.Answered() == len(s.questions) {
			return s, s.finish()
		}
		return s, tea.Tick(600*time.Millisecond, func(time.Time) tea.Msg {
			return advanceMsg{}
		})
	}
	return s, cmd
}

func (s *QuizScreen) finish() tea.Cmd {
	mgr := s.tracker.Quiz()
	archived, err := mgr.Finish(context.Background())
	if err != nil {
		s.failMsg = "Could not save the quiz result."
		s.phase = phaseFailed
		return nil
	}
	s.topic = archived.Topic
	if archived.QuizResult != nil {
		s.score = archived.QuizResult.Score
		s.total = archived.QuizResult.TotalQuestions
	}
	s.reviewLink = calendar.ReviewEventLink(s.topic, time.Now().Add(24*time.Hour))
	s.phase = phaseResults
	return nil
}

func (s *QuizScreen) View(width, height int) string {
	cw := components.ContentWidth(width)

	switch s.phase {
	case phaseGenerating:
		content := theme.Title.Width(cw).Render("Preparing your quiz") + "\n\n" +
			theme.Hint.Render("Writing questions from what you just studied…")
		return components.CenteredFrame(content, width, height)

	case phaseFailed:
		content := theme.Title.Width(cw).Render("No quiz this time") + "\n\n" +
			theme.Body.Width(cw).Render(s.failMsg)
		return components.CenteredFrame(content, width, height)

	case phaseResults:
		return s.viewResults(width, height, cw)
	}

	mgr := s.tracker.Quiz()
	cur := mgr.Current()
	if cur >= len(s.questions) {
		cur = len(s.questions) - 1
	}

	progress := fmt.Sprintf("Question %d of %d", cur+1, len(s.questions))
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		theme.Subtitle.Render(progress),
		theme.Hint.Render(fmt.Sprintf("   %d answered", mgr.Answered())))

	content := header + "\n\n" + components.Panel(s.questions[cur].View(), cw)
	return components.CenteredFrame(content, width, height)
}

func (s *QuizScreen) viewResults(width, height, cw int) string {
	percent := 0.0
	if s.total > 0 {
		percent = float64(s.score) / float64(s.total)
	}

	var sections []string
	sections = append(sections, theme.Title.Width(cw).Render(
		fmt.Sprintf("You scored %d / %d", s.score, s.total)))
	sections = append(sections,
		components.NewProgressBar("", percent, true, cw).View())
	sections = append(sections, theme.Body.Width(cw).Render(encouragement(percent)))
	sections = append(sections, components.Panel(
		theme.Subtitle.Render("schedule a review")+"\n"+
			theme.Hint.Width(cw-6).Render(s.reviewLink), cw))

	return components.CenteredFrame(strings.Join(sections, "\n\n"), width, height)
}

func encouragement(percent float64) string {
	switch {
	case percent >= 1:
		return "Perfect score. You clearly own this topic."
	case percent >= 0.7:
		return "Strong result. A quick review will lock it in."
	case percent >= 0.5:
		return "Good base. Revisit the questions you missed."
	default:
		return "Tough one. Book the review session and try again soon."
	}
}
