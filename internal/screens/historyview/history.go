// Package historyview lists past study sessions, newest first, with a
// topic filter and per-entry or full deletion.
package historyview

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/VictorPerezCardoso/cotes/internal/model"
	"github.com/VictorPerezCardoso/cotes/internal/router"
	"github.com/VictorPerezCardoso/cotes/internal/screen"
	"github.com/VictorPerezCardoso/cotes/internal/screens/learn"
	"github.com/VictorPerezCardoso/cotes/internal/study"
	"github.com/VictorPerezCardoso/cotes/internal/ui/components"
	"github.com/VictorPerezCardoso/cotes/internal/ui/layout"
	"github.com/VictorPerezCardoso/cotes/internal/ui/theme"
)

// HistoryScreen browses the archived session ledger.
type HistoryScreen struct {
	tracker *study.Tracker

	filter    components.TextInput
	filtering bool
	selected  int
	confirm   bool // pending delete-all confirmation
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

func New(tracker *study.Tracker) *HistoryScreen {
	return &HistoryScreen{
		tracker: tracker,
		filter:  components.NewTextInput("Filter by topic", false, 40),
	}
}

func (s *HistoryScreen) Init() tea.Cmd { return nil }

func (s *HistoryScreen) Title() string { return "History" }

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	if s.confirm {
		return []layout.KeyHint{
			{Key: "Y", Description: "Delete everything"},
			{Key: "N", Description: "Keep"},
		}
	}
	if s.filtering {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Apply"},
			{Key: "Esc", Description: "Clear"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Browse"},
		{Key: "Enter", Description: "Study again"},
		{Key: "/", Description: "Filter"},
		{Key: "D", Description: "Delete"},
		{Key: "X", Description: "Delete all"},
		{Key: "Esc", Description: "Back"},
	}
}

// visible returns the filtered session list, newest first.
func (s *HistoryScreen) visible() []model.StudySession {
	sessions := s.tracker.Ledger().FilterByTopic(s.filter.Value())
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].StartTime.After(sessions[j].StartTime)
	})
	return sessions
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}

	if s.confirm {
		switch key.String() {
		case "y", "Y":
			if err := s.tracker.Ledger().DeleteAll(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "warning: could not clear history: %v\n", err)
			}
			s.selected = 0
		}
		s.confirm = false
		return s, nil
	}

	if s.filtering {
		switch key.String() {
		case "enter":
			s.filtering = false
			s.selected = 0
			return s, nil
		case "esc":
			s.filtering = false
			s.filter = components.NewTextInput("Filter by topic", false, 40)
			s.selected = 0
			return s, nil
		}
		var cmd tea.Cmd
		s.filter, cmd = s.filter.Update(msg)
		return s, cmd
	}

	sessions := s.visible()
	switch key.String() {
	case "esc":
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	case "/":
		s.filtering = true
		return s, s.filter.Init()
	case "enter":
		if s.selected < len(sessions) {
			topic := sessions[s.selected].Topic
			return s, func() tea.Msg {
				return router.PushScreenMsg{Screen: learn.NewWithTopic(s.tracker, topic)}
			}
		}
	case "up", "k":
		if s.selected > 0 {
			s.selected--
		}
	case "down", "j":
		if s.selected < len(sessions)-1 {
			s.selected++
		}
	case "d":
		if s.selected < len(sessions) {
			if err := s.tracker.Ledger().Delete(context.Background(), sessions[s.selected].ID); err != nil {
				fmt.Fprintf(os.Stderr, "warning: could not delete session: %v\n", err)
			}
			if s.selected > 0 {
				s.selected--
			}
		}
	case "x", "X":
		if len(sessions) > 0 {
			s.confirm = true
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	sessions := s.visible()

	var sections []string
	sections = append(sections, theme.Title.Width(cw).Render("Study history"))

	if s.filtering || s.filter.Value() != "" {
		sections = append(sections, components.Panel(s.filter.View(), cw))
	}

	if s.confirm {
		sections = append(sections, components.Panel(
			lipgloss.NewStyle().Foreground(theme.Error).Bold(true).
				Render("Delete the entire history? y/n"), cw))
	}

	if len(sessions) == 0 {
		sections = append(sections, theme.Hint.Render("No sessions recorded yet."))
		return components.CenteredFrame(strings.Join(sections, "\n\n"), width, height)
	}

	if s.selected >= len(sessions) {
		s.selected = len(sessions) - 1
	}

	// Keep the selection on screen in long histories.
	const window = 6
	start := 0
	if s.selected >= window {
		start = s.selected - window + 1
	}
	end := start + window
	if end > len(sessions) {
		end = len(sessions)
	}

	var rows []string
	for i := start; i < end; i++ {
		rows = append(rows, s.renderRow(sessions[i], i == s.selected, cw))
	}
	sections = append(sections, strings.Join(rows, "\n"))
	sections = append(sections, theme.Hint.Render(
		fmt.Sprintf("%d of %d sessions", s.selected+1, len(sessions))))

	return components.CenteredFrame(strings.Join(sections, "\n\n"), width, height)
}

func (s *HistoryScreen) renderRow(sess model.StudySession, selected bool, cw int) string {
	score := "no quiz"
	if sess.QuizResult != nil {
		score = fmt.Sprintf("%d/%d", sess.QuizResult.Score, sess.QuizResult.TotalQuestions)
	}
	line := fmt.Sprintf("%s  %s  %d min  %s",
		sess.StartTime.Format("2006-01-02"), sess.Topic, sess.DurationMinutes, score)

	if !selected {
		return theme.Unselected.Render("  " + line)
	}

	detail := fmt.Sprintf("  %d saved resource(s)", len(sess.Resources))
	for _, r := range sess.Resources {
		detail += "\n    • " + r.Title
	}
	return theme.Selected.Render("▸ "+line) + "\n" + theme.Hint.Render(detail)
}
