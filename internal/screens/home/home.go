// Package home is the signed-in landing screen.
package home

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/VictorPerezCardoso/cotes/internal/history"
	"github.com/VictorPerezCardoso/cotes/internal/quiz"
	"github.com/VictorPerezCardoso/cotes/internal/router"
	"github.com/VictorPerezCardoso/cotes/internal/screen"
	"github.com/VictorPerezCardoso/cotes/internal/screens/dashboard"
	historyscreen "github.com/VictorPerezCardoso/cotes/internal/screens/historyview"
	"github.com/VictorPerezCardoso/cotes/internal/screens/learn"
	quizscreen "github.com/VictorPerezCardoso/cotes/internal/screens/quizrun"
	"github.com/VictorPerezCardoso/cotes/internal/study"
	"github.com/VictorPerezCardoso/cotes/internal/ui/components"
	"github.com/VictorPerezCardoso/cotes/internal/ui/theme"
)

// LoggedOutMsg tells the app to drop back to the auth screen.
type LoggedOutMsg struct{}

// HomeScreen shows the main menu and a short summary of the user's
// recent study activity.
type HomeScreen struct {
	tracker    *study.Tracker
	menu       components.Menu
	menuLabels []string
}

var _ screen.Screen = (*HomeScreen)(nil)

// New creates the home screen.
func New(tracker *study.Tracker) *HomeScreen {
	resumable := tracker.Quiz() != nil && tracker.Quiz().State() == quiz.StateAnswering

	menuLabels := []string{"START STUDYING", "HISTORY", "DASHBOARD", "SIGN OUT", "EXIT"}
	if resumable {
		menuLabels = append([]string{"RESUME QUIZ"}, menuLabels...)
	}

	var items []components.MenuItem
	if resumable {
		items = append(items, components.MenuItem{Label: "RESUME QUIZ", Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: quizscreen.New(tracker)}
			}
		}})
	}
	items = append(items,
		components.MenuItem{Label: "START STUDYING", Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: learn.New(tracker)}
			}
		}},
		components.MenuItem{Label: "HISTORY", Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: historyscreen.New(tracker)}
			}
		}},
		components.MenuItem{Label: "DASHBOARD", Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: dashboard.New(tracker)}
			}
		}},
		components.MenuItem{Label: "SIGN OUT", Action: func() tea.Cmd {
			return func() tea.Msg { return LoggedOutMsg{} }
		}},
		components.MenuItem{Label: "EXIT", Action: func() tea.Cmd {
			return tea.Quit
		}},
	)

	return &HomeScreen{
		tracker:    tracker,
		menu:       components.NewMenu(items),
		menuLabels: menuLabels,
	}
}

func (h *HomeScreen) Init() tea.Cmd { return nil }

func (h *HomeScreen) Title() string { return "Home" }

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	cw := components.ContentWidth(width)

	var sections []string

	sections = append(sections,
		theme.Title.Width(cw).Render("cotes")+"\n"+
			theme.Subtitle.Width(cw).Render("hello, "+h.tracker.CurrentUser().Name))

	sections = append(sections, h.renderSummary(cw))

	var buttons []string
	for i, label := range h.menuLabels {
		buttons = append(buttons, components.PanelButton(label, i == h.menu.Selected, cw-4))
	}
	sections = append(sections, strings.Join(buttons, "\n"))

	return components.CenteredFrame(strings.Join(sections, "\n\n"), width, height)
}

func (h *HomeScreen) renderSummary(cw int) string {
	sessions := h.tracker.Ledger().Sessions()
	totalMinutes := 0
	for _, s := range sessions {
		totalMinutes += s.DurationMinutes
	}
	topics := len(history.MinutesByTopic(sessions))

	line := fmt.Sprintf("%d sessions   %d min studied   %d topics",
		len(sessions), totalMinutes, topics)
	return components.Panel(theme.Body.Render(line), cw)
}
