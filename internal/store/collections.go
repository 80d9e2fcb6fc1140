package store

import (
	"context"

	"github.com/VictorPerezCardoso/cotes/internal/model"
)

const usersKey = "users"

func historyKey(userID string) string {
	return "history_" + userID
}

func progressKey(userID string) string {
	return "quizProgress_" + userID
}

// UserRepo stores the global user collection.
type UserRepo struct {
	s *Store
}

// Load returns all registered users. A corrupt blob loads as empty with
// the PersistenceError returned alongside for logging.
func (r *UserRepo) Load(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if _, err := r.s.getBlob(ctx, usersKey, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Save replaces the user collection.
func (r *UserRepo) Save(ctx context.Context, users []model.User) error {
	return r.s.setBlob(ctx, usersKey, users)
}

// HistoryRepo stores one completed-session sequence per user.
type HistoryRepo struct {
	s *Store
}

// Load returns the user's archived sessions in completion order.
func (r *HistoryRepo) Load(ctx context.Context, userID string) ([]model.StudySession, error) {
	var sessions []model.StudySession
	if _, err := r.s.getBlob(ctx, historyKey(userID), &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Save replaces the user's history.
func (r *HistoryRepo) Save(ctx context.Context, userID string, sessions []model.StudySession) error {
	return r.s.setBlob(ctx, historyKey(userID), sessions)
}

// Reset removes the user's history blob entirely.
func (r *HistoryRepo) Reset(ctx context.Context, userID string) error {
	return r.s.deleteBlob(ctx, historyKey(userID))
}

// ProgressRepo stores the per-user quiz-in-progress snapshot.
type ProgressRepo struct {
	s *Store
}

// Load returns the saved quiz for the user, or nil if none exists.
func (r *ProgressRepo) Load(ctx context.Context, userID string) (*model.SavedQuiz, error) {
	var saved model.SavedQuiz
	ok, err := r.s.getBlob(ctx, progressKey(userID), &saved)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &saved, nil
}

// Save writes the quiz-in-progress snapshot for the user.
func (r *ProgressRepo) Save(ctx context.Context, userID string, saved model.SavedQuiz) error {
	return r.s.setBlob(ctx, progressKey(userID), saved)
}

// Clear removes the user's quiz-in-progress snapshot.
func (r *ProgressRepo) Clear(ctx context.Context, userID string) error {
	return r.s.deleteBlob(ctx, progressKey(userID))
}
