package auth

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/VictorPerezCardoso/cotes/internal/model"
	"github.com/VictorPerezCardoso/cotes/internal/screen"
	"github.com/VictorPerezCardoso/cotes/internal/store"
	"github.com/VictorPerezCardoso/cotes/internal/study"
)

type stubGateway struct{}

func (stubGateway) SuggestResources(_ context.Context, _ string) ([]model.Resource, error) {
	return nil, nil
}

func (stubGateway) GenerateQuiz(_ context.Context, _ string, _ []model.Resource, _ model.Difficulty) ([]model.QuizQuestion, error) {
	return nil, nil
}

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func newTracker(t *testing.T) *study.Tracker {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	tracker, err := study.New(context.Background(), st, stubGateway{})
	if err != nil {
		t.Fatalf("new tracker: %v", err)
	}
	return tracker
}

func typeString(scr screen.Screen, text string) screen.Screen {
	for _, r := range text {
		scr, _ = scr.Update(keyPress(r))
	}
	return scr
}

func drain(scr screen.Screen, cmd tea.Cmd) (screen.Screen, tea.Msg) {
	if cmd == nil {
		return scr, nil
	}
	return scr, cmd()
}

func TestAuthScreen_FirstRunStartsInRegistration(t *testing.T) {
	s := New(newTracker(t))
	if s.mode != modeRegisterName {
		t.Errorf("mode = %d, want registration when no users exist", s.mode)
	}
}

func TestAuthScreen_RegisterFlow(t *testing.T) {
	tracker := newTracker(t)
	var scr screen.Screen = New(tracker)

	scr = typeString(scr, "maria")
	scr, _ = scr.Update(specialKey(tea.KeyEnter))
	scr = typeString(scr, "secret")
	scr, cmd := scr.Update(specialKey(tea.KeyEnter))

	_, msg := drain(scr, cmd)
	login, ok := msg.(LoggedInMsg)
	if !ok {
		t.Fatalf("msg = %T, want LoggedInMsg", msg)
	}
	if login.User.Name != "maria" {
		t.Errorf("user = %q, want maria", login.User.Name)
	}
	if login.User.Password != "" {
		t.Error("password must not leave the registry")
	}
	if !tracker.LoggedIn() {
		t.Error("expected tracker logged in")
	}
}

func TestAuthScreen_ExistingUsersStartInPicker(t *testing.T) {
	tracker := newTracker(t)
	if _, err := tracker.Register(context.Background(), "maria", "secret"); err != nil {
		t.Fatalf("register: %v", err)
	}
	tracker.Logout()

	s := New(tracker)
	if s.mode != modePickUser {
		t.Errorf("mode = %d, want user picker", s.mode)
	}
	if len(s.users) != 1 {
		t.Errorf("users = %d, want 1", len(s.users))
	}
}

func TestAuthScreen_WrongPasswordShowsError(t *testing.T) {
	tracker := newTracker(t)
	if _, err := tracker.Register(context.Background(), "maria", "secret"); err != nil {
		t.Fatalf("register: %v", err)
	}
	tracker.Logout()

	var scr screen.Screen = New(tracker)
	scr, _ = scr.Update(specialKey(tea.KeyEnter)) // pick maria
	scr = typeString(scr, "nope")
	scr, _ = scr.Update(specialKey(tea.KeyEnter))

	as := scr.(*AuthScreen)
	if as.errMsg == "" {
		t.Fatal("expected an error message")
	}
	if !strings.Contains(as.errMsg, "invalid") {
		t.Errorf("errMsg = %q, want credential failure text", as.errMsg)
	}
	if tracker.LoggedIn() {
		t.Error("expected tracker still logged out")
	}
}

func TestAuthScreen_LoginReportsResumedQuiz(t *testing.T) {
	tracker := newTracker(t)
	if _, err := tracker.Register(context.Background(), "maria", "secret"); err != nil {
		t.Fatalf("register: %v", err)
	}
	tracker.Logout()

	var scr screen.Screen = New(tracker)
	scr, _ = scr.Update(specialKey(tea.KeyEnter))
	scr = typeString(scr, "secret")
	scr, cmd := scr.Update(specialKey(tea.KeyEnter))

	_, msg := drain(scr, cmd)
	login, ok := msg.(LoggedInMsg)
	if !ok {
		t.Fatalf("msg = %T, want LoggedInMsg", msg)
	}
	if login.Resumed {
		t.Error("no saved quiz, Resumed must be false")
	}
}
