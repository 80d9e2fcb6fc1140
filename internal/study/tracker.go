// Package study assembles the per-user machinery: the user registry,
// the session controller, the quiz manager and the history ledger, all
// backed by one store.
package study

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/VictorPerezCardoso/cotes/internal/ai"
	"github.com/VictorPerezCardoso/cotes/internal/history"
	"github.com/VictorPerezCardoso/cotes/internal/model"
	"github.com/VictorPerezCardoso/cotes/internal/quiz"
	"github.com/VictorPerezCardoso/cotes/internal/session"
	"github.com/VictorPerezCardoso/cotes/internal/store"
	"github.com/VictorPerezCardoso/cotes/internal/user"
)

// Tracker is the application facade. One user is logged in at a time;
// login loads that user's ledger and any saved quiz, logout drops them.
type Tracker struct {
	st       *store.Store
	gateway  ai.Gateway
	registry *user.Registry

	current    model.User
	ledger     *history.Ledger
	controller *session.Controller
	quiz       *quiz.Manager
	resumed    bool
}

// New loads the user registry and returns a tracker with nobody logged
// in.
func New(ctx context.Context, st *store.Store, gateway ai.Gateway) (*Tracker, error) {
	registry, err := user.Load(ctx, st.Users())
	if err != nil {
		return nil, fmt.Errorf("load user registry: %w", err)
	}
	return &Tracker{st: st, gateway: gateway, registry: registry}, nil
}

// Registry exposes the user collection for the auth screen.
func (t *Tracker) Registry() *user.Registry { return t.registry }

// Register creates the user and logs them straight in.
func (t *Tracker) Register(ctx context.Context, name, password string) (model.User, error) {
	u, err := t.registry.Register(ctx, name, password)
	if err != nil {
		return model.User{}, err
	}
	if err := t.loadUserState(ctx, u); err != nil {
		return model.User{}, err
	}
	return t.CurrentUser(), nil
}

// Login authenticates and loads the user's ledger and saved quiz.
func (t *Tracker) Login(ctx context.Context, name, password string) (model.User, error) {
	u, err := t.registry.Login(name, password)
	if err != nil {
		return model.User{}, err
	}
	if err := t.loadUserState(ctx, u); err != nil {
		return model.User{}, err
	}
	return t.CurrentUser(), nil
}

func (t *Tracker) loadUserState(ctx context.Context, u model.User) error {
	ledger, err := history.Load(ctx, t.st.History(), u.ID)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	t.current = u
	t.ledger = ledger
	t.controller = session.NewController(t.gateway, ledger)
	t.quiz = quiz.NewManager(t.gateway, t.st.Progress(), ledger, u.ID)
	t.resumed = false

	saved, err := t.st.Progress().Load(ctx, u.ID)
	if err != nil {
		// A corrupt snapshot only costs the resume; drop it.
		var perr *store.PersistenceError
		if errors.As(err, &perr) && perr.Corrupt {
			fmt.Fprintf(os.Stderr, "warning: discarding corrupt quiz snapshot: %v\n", err)
			return nil
		}
		return fmt.Errorf("load quiz snapshot: %w", err)
	}
	if saved != nil {
		if rerr := t.quiz.Restore(*saved); rerr != nil {
			fmt.Fprintf(os.Stderr, "warning: unusable quiz snapshot: %v\n", rerr)
			if cerr := t.st.Progress().Clear(ctx, u.ID); cerr != nil {
				fmt.Fprintf(os.Stderr, "warning: clearing quiz snapshot: %v\n", cerr)
			}
			return nil
		}
		t.resumed = true
	}
	return nil
}

// Logout drops the per-user state. An active session is discarded; a
// quiz in progress keeps its durable snapshot for the next login.
func (t *Tracker) Logout() {
	if t.controller != nil {
		t.controller.Cancel()
	}
	if t.quiz != nil {
		t.quiz.Abandon()
	}
	t.current = model.User{}
	t.ledger = nil
	t.controller = nil
	t.quiz = nil
	t.resumed = false
}

// LoggedIn reports whether a user is active.
func (t *Tracker) LoggedIn() bool { return t.current.ID != "" }

// CurrentUser returns the logged-in user, password blanked.
func (t *Tracker) CurrentUser() model.User {
	u := t.current
	u.Password = ""
	return u
}

// Ledger returns the logged-in user's history.
func (t *Tracker) Ledger() *history.Ledger { return t.ledger }

// Session returns the session controller.
func (t *Tracker) Session() *session.Controller { return t.controller }

// Quiz returns the quiz manager.
func (t *Tracker) Quiz() *quiz.Manager { return t.quiz }

// ResumedQuiz reports whether login restored a saved quiz. The TUI
// jumps straight to the quiz screen when it did.
func (t *Tracker) ResumedQuiz() bool { return t.resumed }

// StartSession begins a timed session on the topic. A pending quiz
// blocks new sessions: stopping one would have no quiz slot to hand
// the finished session to.
func (t *Tracker) StartSession(ctx context.Context, topic string) error {
	if t.quiz.State() != quiz.StateNone {
		return &model.ValidationError{Field: "quiz", Reason: "finish or abandon the saved quiz before studying again"}
	}
	return t.controller.Start(ctx, topic)
}

// StopSession ends the active session and hands it to the quiz manager,
// which starts generating questions immediately. The quiz slot is
// checked before the controller is touched: a rejected stop leaves the
// session active instead of dropping it.
func (t *Tracker) StopSession(ctx context.Context) (model.Difficulty, error) {
	if t.quiz.State() != quiz.StateNone {
		return "", &model.ValidationError{Field: "quiz", Reason: "a quiz is already pending"}
	}
	finished, difficulty, err := t.controller.Stop()
	if err != nil {
		return "", err
	}
	if err := t.quiz.Begin(ctx, finished, difficulty); err != nil {
		return "", err
	}
	return difficulty, nil
}
