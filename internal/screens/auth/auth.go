// Package auth is the login and registration screen. It is the only
// screen on the stack until a user is signed in.
package auth

import (
	"context"
	"errors"
	"fmt"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/VictorPerezCardoso/cotes/internal/model"
	"github.com/VictorPerezCardoso/cotes/internal/screen"
	"github.com/VictorPerezCardoso/cotes/internal/study"
	"github.com/VictorPerezCardoso/cotes/internal/ui/components"
	"github.com/VictorPerezCardoso/cotes/internal/ui/layout"
	"github.com/VictorPerezCardoso/cotes/internal/ui/theme"
	"github.com/VictorPerezCardoso/cotes/internal/user"
)

// LoggedInMsg tells the app a user signed in and whether a saved quiz
// was restored.
type LoggedInMsg struct {
	User    model.User
	Resumed bool
}

type mode int

const (
	modePickUser mode = iota
	modePassword
	modeRegisterName
	modeRegisterPassword
)

// AuthScreen walks through user selection and password entry, or
// first-run registration.
type AuthScreen struct {
	tracker *study.Tracker

	mode     mode
	users    []model.User
	selected int

	name     string
	input    components.TextInput
	errMsg   string
}

var _ screen.Screen = (*AuthScreen)(nil)
var _ screen.KeyHintProvider = (*AuthScreen)(nil)

// New creates the auth screen.
func New(tracker *study.Tracker) *AuthScreen {
	s := &AuthScreen{tracker: tracker}
	s.users = tracker.Registry().Users()
	if len(s.users) == 0 {
		s.enterMode(modeRegisterName)
	}
	return s
}

func (s *AuthScreen) enterMode(m mode) {
	s.mode = m
	s.errMsg = ""
	switch m {
	case modeRegisterName:
		s.input = components.NewTextInput("Your name", false, 40)
	case modePassword, modeRegisterPassword:
		s.input = components.NewTextInput("Password", false, 64)
		s.input.Model.EchoMode = textinput.EchoPassword
	}
}

func (s *AuthScreen) Init() tea.Cmd {
	return s.input.Init()
}

func (s *AuthScreen) Title() string { return "Sign in" }

func (s *AuthScreen) KeyHints() []layout.KeyHint {
	switch s.mode {
	case modePickUser:
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "Enter", Description: "Select"},
			{Key: "N", Description: "New user"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	default:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Confirm"},
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}
}

func (s *AuthScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}

	switch s.mode {
	case modePickUser:
		return s.updatePickUser(kmsg)
	case modePassword:
		return s.updatePassword(kmsg)
	case modeRegisterName:
		return s.updateRegisterName(kmsg)
	case modeRegisterPassword:
		return s.updateRegisterPassword(kmsg)
	}
	return s, nil
}

func (s *AuthScreen) updatePickUser(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if s.selected > 0 {
			s.selected--
		}
	case "down", "j":
		if s.selected < len(s.users)-1 {
			s.selected++
		}
	case "n":
		s.enterMode(modeRegisterName)
		return s, s.input.Init()
	case "enter":
		if s.selected < len(s.users) {
			s.name = s.users[s.selected].Name
			s.enterMode(modePassword)
			return s, s.input.Init()
		}
	}
	return s, nil
}

func (s *AuthScreen) updatePassword(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "esc":
		s.mode = modePickUser
		s.errMsg = ""
		return s, nil
	case "enter":
		u, err := s.tracker.Login(context.Background(), s.name, s.input.Value())
		if err != nil {
			s.errMsg = loginMessage(err)
			s.enterMode(modePassword)
			return s, s.input.Init()
		}
		resumed := s.tracker.ResumedQuiz()
		return s, func() tea.Msg { return LoggedInMsg{User: u, Resumed: resumed} }
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *AuthScreen) updateRegisterName(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if len(s.users) > 0 {
			s.mode = modePickUser
			s.errMsg = ""
		}
		return s, nil
	case "enter":
		s.name = s.input.Value()
		s.enterMode(modeRegisterPassword)
		return s, s.input.Init()
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *AuthScreen) updateRegisterPassword(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "esc":
		s.enterMode(modeRegisterName)
		return s, s.input.Init()
	case "enter":
		u, err := s.tracker.Register(context.Background(), s.name, s.input.Value())
		if err != nil {
			s.errMsg = loginMessage(err)
			s.enterMode(modeRegisterName)
			return s, s.input.Init()
		}
		return s, func() tea.Msg { return LoggedInMsg{User: u} }
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

// loginMessage turns auth failures into short prompts, never raw error
// chains.
func loginMessage(err error) string {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		return verr.Reason
	}
	if errors.Is(err, user.ErrBadCredentials) {
		return "invalid name or password"
	}
	return "sign-in failed, try again"
}

func (s *AuthScreen) View(width, height int) string {
	cw := components.ContentWidth(width)

	title := theme.Title.Width(cw).Render("cotes") + "\n" +
		theme.Subtitle.Width(cw).Render("track what you study")

	var body string
	switch s.mode {
	case modePickUser:
		var lines string
		for i, u := range s.users {
			if i == s.selected {
				lines += theme.Selected.Render("  ▸ "+u.Name) + "\n"
			} else {
				lines += theme.Unselected.Render("    "+u.Name) + "\n"
			}
		}
		body = components.Panel("Who is studying?\n\n"+lines, cw)
	case modePassword:
		body = components.Panel(fmt.Sprintf("Password for %s\n\n%s", s.name, s.input.View()), cw)
	case modeRegisterName:
		body = components.Panel("Create a profile\n\n"+s.input.View(), cw)
	case modeRegisterPassword:
		body = components.Panel(fmt.Sprintf("Choose a password for %s\n\n%s", s.name, s.input.View()), cw)
	}

	content := title + "\n\n" + body
	if s.errMsg != "" {
		content += "\n\n" + lipgloss.NewStyle().Foreground(theme.Error).Render(s.errMsg)
	}

	return components.CenteredFrame(content, width, height)
}
