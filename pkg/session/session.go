// Package session resolves the agent session CLI conversations run in:
// the one saved in the .adam directory when it still belongs to the
// configured agent, or a freshly created one.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/papercomputeco/adam/pkg/adk"
	"github.com/papercomputeco/adam/pkg/dotdir"
)

// Agent creates sessions on the agent service.
type Agent interface {
	BaseURL() string
	AppName() string
	CreateSession(ctx context.Context, userID string) (*adk.Session, error)
}

// Store persists session state between commands.
type Store interface {
	LoadSessionState(overrideDir string) (*dotdir.SessionState, error)
	SaveSession(state *dotdir.SessionState, overrideDir string) error
	ClearSession(overrideDir string) error
}

// Resolver hands out the session for one agent.
type Resolver struct {
	Agent Agent
	Store Store

	// ConfigDir overrides the .adam directory lookup.
	ConfigDir string

	// UserID pins the user id. Empty reuses the saved one or generates one.
	UserID string
}

// Ensure returns the saved session when it matches the agent and user,
// creating and saving a new one otherwise. created reports which happened.
func (r *Resolver) Ensure(ctx context.Context) (state *dotdir.SessionState, created bool, err error) {
	saved, err := r.Store.LoadSessionState(r.ConfigDir)
	if err != nil {
		return nil, false, fmt.Errorf("loading session: %w", err)
	}

	if saved.Matches(r.Agent.BaseURL(), r.Agent.AppName()) && saved.SessionID != "" &&
		(r.UserID == "" || r.UserID == saved.UserID) {
		return saved, false, nil
	}

	userID := r.UserID
	if userID == "" && saved.Matches(r.Agent.BaseURL(), r.Agent.AppName()) {
		userID = saved.UserID
	}

	state, err = r.create(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	return state, true, nil
}

// Renew discards any saved session and creates a new one, keeping the
// saved user id when it belongs to the same agent.
func (r *Resolver) Renew(ctx context.Context) (*dotdir.SessionState, error) {
	userID := r.UserID
	if userID == "" {
		saved, err := r.Store.LoadSessionState(r.ConfigDir)
		if err != nil {
			return nil, fmt.Errorf("loading session: %w", err)
		}
		if saved.Matches(r.Agent.BaseURL(), r.Agent.AppName()) {
			userID = saved.UserID
		}
	}

	return r.create(ctx, userID)
}

// Clear forgets the saved session.
func (r *Resolver) Clear() error {
	return r.Store.ClearSession(r.ConfigDir)
}

func (r *Resolver) create(ctx context.Context, userID string) (*dotdir.SessionState, error) {
	if userID == "" {
		userID = adk.NewUserID()
	}

	s, err := r.Agent.CreateSession(ctx, userID)
	if err != nil {
		return nil, err
	}

	state := &dotdir.SessionState{
		BaseURL:   r.Agent.BaseURL(),
		AppName:   r.Agent.AppName(),
		UserID:    userID,
		SessionID: s.ID,
		CreatedAt: time.Now().UTC(),
	}

	if err := r.Store.SaveSession(state, r.ConfigDir); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	return state, nil
}
