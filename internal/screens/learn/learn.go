// Package learn is the study screen: topic entry, the running timer,
// and the suggested-resource list for the active session.
package learn

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/VictorPerezCardoso/cotes/internal/model"
	"github.com/VictorPerezCardoso/cotes/internal/router"
	"github.com/VictorPerezCardoso/cotes/internal/screen"
	quizscreen "github.com/VictorPerezCardoso/cotes/internal/screens/quizrun"
	"github.com/VictorPerezCardoso/cotes/internal/study"
	"github.com/VictorPerezCardoso/cotes/internal/ui/components"
	"github.com/VictorPerezCardoso/cotes/internal/ui/layout"
	"github.com/VictorPerezCardoso/cotes/internal/ui/theme"
)

type phase int

const (
	phaseTopic phase = iota
	phaseActive
)

// tickMsg drives the on-screen timer and suggestion polling.
type tickMsg time.Time

// LearnScreen runs one study session from topic entry to stop.
type LearnScreen struct {
	tracker *study.Tracker

	phase    phase
	input    components.TextInput
	selected int
	errMsg   string
}

var _ screen.Screen = (*LearnScreen)(nil)
var _ screen.KeyHintProvider = (*LearnScreen)(nil)

// New creates the learn screen in topic-entry mode.
func New(tracker *study.Tracker) *LearnScreen {
	return &LearnScreen{
		tracker: tracker,
		input:   components.NewTextInput("What are you studying?", false, 80),
	}
}

// NewWithTopic pre-fills the topic entry, for continuing a topic from
// the history screen.
func NewWithTopic(tracker *study.Tracker, topic string) *LearnScreen {
	s := New(tracker)
	s.input.Model.SetValue(topic)
	return s
}

func (s *LearnScreen) Init() tea.Cmd {
	return s.input.Init()
}

func (s *LearnScreen) Title() string {
	if s.phase == phaseActive {
		return "Studying"
	}
	return "New session"
}

func (s *LearnScreen) KeyHints() []layout.KeyHint {
	if s.phase == phaseTopic {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Start"},
			{Key: "Esc", Description: "Back"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Suggestions"},
		{Key: "A", Description: "Save resource"},
		{Key: "P", Description: "Pause"},
		{Key: "S", Description: "Stop & quiz"},
		{Key: "Esc", Description: "Discard"},
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (s *LearnScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if s.phase != phaseActive {
			return s, nil
		}
		// The controller advances its own clock; the tick only
		// refreshes the view and re-polls suggestions.
		return s, tick()

	case tea.KeyMsg:
		if s.phase == phaseTopic {
			return s.updateTopicEntry(msg)
		}
		return s.updateActive(msg)
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *LearnScreen) updateTopicEntry(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	case "enter":
		if err := s.tracker.StartSession(context.Background(), s.input.Value()); err != nil {
			s.errMsg = userMessage(err)
			return s, nil
		}
		s.phase = phaseActive
		s.errMsg = ""
		return s, tick()
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *LearnScreen) updateActive(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	ctrl := s.tracker.Session()
	suggestions, _, _ := ctrl.Suggestions()

	switch msg.String() {
	case "esc":
		ctrl.Cancel()
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	case "p":
		if ctrl.Paused() {
			ctrl.Resume()
		} else {
			ctrl.Pause()
		}
		return s, nil
	case "up", "k":
		if s.selected > 0 {
			s.selected--
		}
		return s, nil
	case "down", "j":
		if s.selected < len(suggestions)-1 {
			s.selected++
		}
		return s, nil
	case "a", "enter":
		if s.selected < len(suggestions) {
			ctrl.AddResource(suggestions[s.selected])
		}
		return s, nil
	case "s":
		if _, err := s.tracker.StopSession(context.Background()); err != nil {
			s.errMsg = userMessage(err)
			return s, nil
		}
		return s, func() tea.Msg {
			return router.ReplaceScreenMsg{Screen: quizscreen.New(s.tracker)}
		}
	}
	return s, nil
}

func (s *LearnScreen) View(width, height int) string {
	cw := components.ContentWidth(width)

	if s.phase == phaseTopic {
		content := theme.Title.Width(cw).Render("Start a study session") + "\n\n" +
			components.Panel(s.input.View(), cw)
		if s.errMsg != "" {
			content += "\n\n" + lipgloss.NewStyle().Foreground(theme.Error).Render(s.errMsg)
		}
		return components.CenteredFrame(content, width, height)
	}

	ctrl := s.tracker.Session()

	var sections []string
	sections = append(sections, theme.Title.Width(cw).Render(ctrl.Topic()))

	timer := formatElapsed(ctrl.Elapsed())
	if ctrl.Paused() {
		timer += "  " + theme.Hint.Render("(paused)")
	}
	sections = append(sections, components.Panel(
		lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).Render(timer), cw))

	sections = append(sections, s.renderSuggestions(cw))

	if saved := ctrl.SavedResources(); len(saved) > 0 {
		var lines []string
		for _, r := range saved {
			lines = append(lines, theme.Body.Render("✓ "+r.Title))
		}
		sections = append(sections, components.Panel(
			theme.Subtitle.Render("saved for the quiz")+"\n"+strings.Join(lines, "\n"), cw))
	}

	if s.errMsg != "" {
		sections = append(sections, lipgloss.NewStyle().Foreground(theme.Error).Render(s.errMsg))
	}

	return components.CenteredFrame(strings.Join(sections, "\n\n"), width, height)
}

func (s *LearnScreen) renderSuggestions(cw int) string {
	suggestions, pending, err := s.tracker.Session().Suggestions()

	header := theme.Subtitle.Render("suggested reading")
	switch {
	case pending:
		return components.Panel(header+"\n\n"+theme.Hint.Render("searching…"), cw)
	case err != nil:
		return components.Panel(header+"\n\n"+theme.Hint.Render("no suggestions available"), cw)
	case len(suggestions) == 0:
		return components.Panel(header+"\n\n"+theme.Hint.Render("nothing found"), cw)
	}

	var lines []string
	for i, r := range suggestions {
		line := r.Title
		if s.tracker.Session().SavedResources() != nil && hasURI(s.tracker.Session().SavedResources(), r.URI) {
			line = "✓ " + line
		}
		if i == s.selected {
			lines = append(lines, theme.Selected.Render("▸ "+line))
			lines = append(lines, theme.Hint.Render("  "+truncate(r.Description, cw-8)))
		} else {
			lines = append(lines, theme.Unselected.Render("  "+line))
		}
	}
	return components.Panel(header+"\n\n"+strings.Join(lines, "\n"), cw)
}

func hasURI(resources []model.Resource, uri string) bool {
	for _, r := range resources {
		if r.URI == uri {
			return true
		}
	}
	return false
}

func truncate(s string, max int) string {
	r := []rune(s)
	if max <= 1 || len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

func formatElapsed(d time.Duration) string {
	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// userMessage keeps validation reasons readable and hides everything
// else behind a generic line.
func userMessage(err error) string {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		return verr.Reason
	}
	return "something went wrong, try again"
}
