// Package history keeps the per-user record of completed study sessions
// and the aggregate views the dashboard reads from it.
package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/VictorPerezCardoso/cotes/internal/model"
	"github.com/VictorPerezCardoso/cotes/internal/store"
)

// Ledger is the ordered sequence of archived sessions for one user.
// Sessions arrive in completion order and only carry a quiz result.
type Ledger struct {
	repo   *store.HistoryRepo
	userID string

	// mu guards sessions: the quiz manager appends from its
	// generation goroutine while screens read.
	mu       sync.Mutex
	sessions []model.StudySession
}

// Load reads the user's history from the store. A corrupt blob is
// discarded by the store layer; the ledger then starts empty, which is
// the documented recovery path.
func Load(ctx context.Context, repo *store.HistoryRepo, userID string) (*Ledger, error) {
	sessions, err := repo.Load(ctx, userID)
	if err != nil {
		var perr *store.PersistenceError
		if errors.As(err, &perr) && perr.Corrupt {
			fmt.Fprintf(os.Stderr, "warning: discarding corrupt history for user %s: %v\n", userID, err)
			sessions = nil
		} else {
			return nil, err
		}
	}
	return &Ledger{repo: repo, userID: userID, sessions: sessions}, nil
}

// Sessions returns the archived sessions in completion order.
func (l *Ledger) Sessions() []model.StudySession {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.StudySession, len(l.sessions))
	for i, s := range l.sessions {
		out[i] = s.Clone()
	}
	return out
}

// Len reports the number of archived sessions.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sessions)
}

// Append archives a completed session at the end of the sequence and
// persists the ledger.
func (l *Ledger) Append(ctx context.Context, session model.StudySession) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sessions = append(l.sessions, session.Clone())
	return l.save(ctx)
}

// Delete removes the session with the given id. Deleting an unknown id
// leaves the ledger unchanged.
func (l *Ledger) Delete(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, s := range l.sessions {
		if s.ID == id {
			l.sessions = append(l.sessions[:i], l.sessions[i+1:]...)
			return l.save(ctx)
		}
	}
	return nil
}

// DeleteAll clears the entire ledger.
func (l *Ledger) DeleteAll(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sessions = nil
	return l.repo.Reset(ctx, l.userID)
}

// HasTopic reports whether any archived session matches the topic
// case-insensitively. Drives quiz difficulty selection.
func (l *Ledger) HasTopic(topic string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	want := model.NormalizeTopic(topic)
	for _, s := range l.sessions {
		if model.NormalizeTopic(s.Topic) == want {
			return true
		}
	}
	return false
}

// FilterByTopic returns sessions whose topic contains the substring,
// case-insensitively. An empty substring matches everything.
func (l *Ledger) FilterByTopic(substring string) []model.StudySession {
	l.mu.Lock()
	defer l.mu.Unlock()
	want := strings.ToLower(substring)
	var out []model.StudySession
	for _, s := range l.sessions {
		if strings.Contains(strings.ToLower(s.Topic), want) {
			out = append(out, s.Clone())
		}
	}
	return out
}

// FilterByRecency returns sessions started within the last windowDays
// days. A windowDays of zero or less means no window: everything.
func (l *Ledger) FilterByRecency(now time.Time, windowDays int) []model.StudySession {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []model.StudySession
	for _, s := range l.sessions {
		if windowDays > 0 && now.Sub(s.StartTime) > time.Duration(windowDays)*24*time.Hour {
			continue
		}
		out = append(out, s.Clone())
	}
	return out
}

func (l *Ledger) save(ctx context.Context) error {
	return l.repo.Save(ctx, l.userID, l.sessions)
}
