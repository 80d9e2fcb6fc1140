package app

import (
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/VictorPerezCardoso/cotes/internal/router"
	"github.com/VictorPerezCardoso/cotes/internal/screen"
	"github.com/VictorPerezCardoso/cotes/internal/screens/auth"
	"github.com/VictorPerezCardoso/cotes/internal/screens/home"
	quizscreen "github.com/VictorPerezCardoso/cotes/internal/screens/quizrun"
	"github.com/VictorPerezCardoso/cotes/internal/study"
	"github.com/VictorPerezCardoso/cotes/internal/ui/layout"
)

// Options configures the TUI.
type Options struct {
	Tracker *study.Tracker
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	tracker *study.Tracker
	router  *router.Router
	width   int
	height  int
}

// newAppModel starts on the sign-in screen.
func newAppModel(opts Options) AppModel {
	return AppModel{
		tracker: opts.Tracker,
		router:  router.New(auth.New(opts.Tracker)),
	}
}

func (m AppModel) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case auth.LoggedInMsg:
		// Replace rather than push: signing out must land back on
		// the auth screen, not unwind through stale screens.
		cmd := m.router.Replace(home.New(m.tracker))
		if msg.Resumed {
			push := m.router.Push(quizscreen.New(m.tracker))
			return m, tea.Batch(cmd, push)
		}
		return m, cmd

	case home.LoggedOutMsg:
		m.tracker.Logout()
		return m, m.router.Replace(auth.New(m.tracker))

	case router.PopScreenMsg:
		cmd := m.router.Update(msg)
		// Screens below the popped one may show stale state; rebuild
		// the home screen when it becomes active again.
		if m.router.Depth() == 1 && m.tracker.LoggedIn() {
			return m, tea.Batch(cmd, m.router.Replace(home.New(m.tracker)))
		}
		return m, cmd
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	userName := ""
	if m.tracker.LoggedIn() {
		userName = m.tracker.CurrentUser().Name
	}
	header := layout.RenderHeader(title, userName, m.width)

	footerHints := []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
	if hp, ok := active.(screen.KeyHintProvider); ok {
		footerHints = append(hp.KeyHints(), layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
	}
	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	p := tea.NewProgram(newAppModel(opts))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
