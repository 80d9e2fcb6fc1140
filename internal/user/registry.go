// Package user manages the registered-learner list and login checks.
package user

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/VictorPerezCardoso/cotes/internal/model"
	"github.com/VictorPerezCardoso/cotes/internal/store"
)

// ErrBadCredentials is returned by Login when the name or password does
// not match. The caller shows a plain message and re-prompts.
var ErrBadCredentials = errors.New("invalid name or password")

// Registry holds the user collection backed by the store.
type Registry struct {
	repo  *store.UserRepo
	users []model.User
}

// Load reads the registered users. A corrupt blob starts the registry
// empty; existing histories stay untouched under their old user ids.
func Load(ctx context.Context, repo *store.UserRepo) (*Registry, error) {
	users, err := repo.Load(ctx)
	if err != nil {
		var perr *store.PersistenceError
		if errors.As(err, &perr) && perr.Corrupt {
			fmt.Fprintf(os.Stderr, "warning: discarding corrupt user registry: %v\n", err)
			users = nil
		} else {
			return nil, err
		}
	}
	return &Registry{repo: repo, users: users}, nil
}

// Users returns the registered users, passwords blanked.
func (r *Registry) Users() []model.User {
	out := make([]model.User, len(r.users))
	for i, u := range r.users {
		u.Password = ""
		out[i] = u
	}
	return out
}

// Register adds a new user and returns it. Names are unique
// case-insensitively.
func (r *Registry) Register(ctx context.Context, name, password string) (model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.User{}, &model.ValidationError{Field: "name", Reason: "name must not be empty"}
	}
	if password == "" {
		return model.User{}, &model.ValidationError{Field: "password", Reason: "password must not be empty"}
	}
	for _, u := range r.users {
		if strings.EqualFold(u.Name, name) {
			return model.User{}, &model.ValidationError{Field: "name", Reason: "name already taken"}
		}
	}

	u := model.User{ID: uuid.NewString(), Name: name, Password: password}
	r.users = append(r.users, u)
	if err := r.repo.Save(ctx, r.users); err != nil {
		r.users = r.users[:len(r.users)-1]
		return model.User{}, err
	}
	return u, nil
}

// Login matches name and password against the registry. Passwords are
// compared as entered; this tool runs on the owner's machine only.
func (r *Registry) Login(name, password string) (model.User, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Name, strings.TrimSpace(name)) && u.Password == password {
			return u, nil
		}
	}
	return model.User{}, ErrBadCredentials
}

// FindByName locates a user by name alone. Used by headless commands
// that operate on a user's stored data without a password prompt.
func (r *Registry) FindByName(name string) (model.User, bool) {
	for _, u := range r.users {
		if strings.EqualFold(u.Name, strings.TrimSpace(name)) {
			return u, true
		}
	}
	return model.User{}, false
}
