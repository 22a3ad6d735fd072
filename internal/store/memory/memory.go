// Package memory implementa core.Repository en un map en memoria.
// Útil para desarrollo y testing; no es durable.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dropDatabas3/plazita/internal/store/core"
)

type Store struct {
	mu       sync.Mutex
	users    map[string]*core.User    // id -> user
	sessions map[string]*core.Session // token_hash -> session
	states   map[string]*core.OAuthState
}

func New() *Store {
	return &Store{
		users:    make(map[string]*core.User),
		sessions: make(map[string]*core.Session),
		states:   make(map[string]*core.OAuthState),
	}
}

func (s *Store) Ping(ctx context.Context) error { return nil }
func (s *Store) Close()                         {}

// ------- Users -------

func (s *Store) FindUserByPlatformID(ctx context.Context, platform core.Platform, platformUserID string) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Platform == platform && u.PlatformUserID == platformUserID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (s *Store) CreateUser(ctx context.Context, u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ex := range s.users {
		if ex.Platform == u.Platform && ex.PlatformUserID == u.PlatformUserID {
			return core.ErrDuplicateIdentity
		}
	}
	for _, ex := range s.users {
		if ex.Platform == u.Platform && ex.Username == u.Username {
			return core.ErrDuplicateUsername
		}
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *Store) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.LastLogin = at
	}
	return nil
}

// ------- Sessions -------

func (s *Store) ReplaceSessionsForUser(ctx context.Context, sess *core.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for h, ex := range s.sessions {
		if ex.UserID == sess.UserID {
			delete(s.sessions, h)
		}
	}
	cp := *sess
	s.sessions[sess.TokenHash] = &cp
	return nil
}

func (s *Store) FindActiveSession(ctx context.Context, tokenHash string, now time.Time) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[tokenHash]
	if !ok || !sess.ExpiresAt.After(now) {
		return nil, core.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *Store) DeleteSession(ctx context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, tokenHash)
	return nil
}

func (s *Store) DeleteSessionsForUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for h, ex := range s.sessions {
		if ex.UserID == userID {
			delete(s.sessions, h)
		}
	}
	return nil
}

// ------- OAuth state -------

func (s *Store) InsertOAuthState(ctx context.Context, st *core.OAuthState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *st
	s.states[st.State] = &cp
	return nil
}

func (s *Store) ConsumeOAuthState(ctx context.Context, state string, platform core.Platform, now time.Time) (*core.OAuthState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[state]
	if !ok || st.Platform != platform {
		return nil, core.ErrNotFound
	}
	delete(s.states, state)
	if !st.ExpiresAt.After(now) {
		return nil, core.ErrExpired
	}
	cp := *st
	return &cp, nil
}

func (s *Store) SweepExpiredStates(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, st := range s.states {
		if !st.ExpiresAt.After(now) {
			delete(s.states, k)
			n++
		}
	}
	return n, nil
}
