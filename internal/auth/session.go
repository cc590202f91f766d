// Copyright (c) 2025 ClinicCare
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package auth provides the session store for the ClinicCare CLI.
// A Session is the single source of truth for who is logged in: it performs
// login, registration and identity refresh against the API, mirrors the
// resulting identity into persistent storage, and restores it on start-up.
//
// A Session is an owned object. Commands receive it from the root command and
// the API client reads the bearer token from it on every request.
package auth

import (
	"context"
	"sync"

	"github.com/pterm/pterm"

	"clinicare/cli/internal/backend"
	apperr "clinicare/cli/internal/errors"
	"clinicare/cli/internal/logging"
)

// API is the subset of the backend the session needs.
type API interface {
	Login(ctx context.Context, creds backend.Credentials) (backend.AuthResponse, error)
	Register(ctx context.Context, reg backend.Registration) (backend.AuthResponse, error)
	Me(ctx context.Context, accessToken string) (backend.Doctor, error)
}

// Storage is a string key-value store. *keychain.Manager implements it.
type Storage interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// Session holds the current identity. The zero value is not usable; call New.
type Session struct {
	mu    sync.RWMutex
	api   API
	store Storage
	log   *pterm.Logger

	id *Identity
	// seq numbers operations as they are issued. applied is the number of the
	// operation that produced the current state; a result numbered at or below
	// it was overtaken and is discarded. Failed operations never advance applied.
	seq     uint64
	applied uint64

	listeners map[int]func(bool)
	nextSub   int
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the diagnostic logger.
func WithLogger(l *pterm.Logger) Option { return func(s *Session) { s.log = l } }

// New creates a session and restores any identity found in store.
// A nil store disables persistence entirely.
func New(api API, store Storage, opts ...Option) *Session {
	s := &Session{
		api:       api,
		store:     store,
		log:       logging.Discard(),
		listeners: map[int]func(bool){},
	}
	for _, opt := range opts {
		opt(s)
	}

	id, err := s.restore()
	if err != nil {
		s.log.Warn("could not restore session", s.log.Args("error", logging.Mask(err.Error())))
	}
	s.id = id
	return s
}

// IsAuthenticated reports whether a token is present.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id != nil
}

// Identity returns the current identity, if any.
func (s *Session) Identity() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.id == nil {
		return Identity{}, false
	}
	return *s.id, true
}

// Token returns the bearer token, or "" when logged out. It makes Session a backend.TokenSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.id == nil {
		return ""
	}
	return s.id.Token
}

// Doctor returns the cached profile of the logged-in doctor.
func (s *Session) Doctor() (backend.Doctor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.id == nil {
		return backend.Doctor{}, false
	}
	return s.id.Doctor, true
}

// Subscribe registers fn to be called synchronously after every token change
// with the new authentication state. The returned func removes the listener.
func (s *Session) Subscribe(fn func(authenticated bool)) (cancel func()) {
	s.mu.Lock()
	key := s.nextSub
	s.nextSub++
	s.listeners[key] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, key)
			s.mu.Unlock()
		})
	}
}

// Login exchanges credentials for a new identity. On success the identity is
// persisted and then installed; on any failure the session is left as it was.
func (s *Session) Login(ctx context.Context, username, password string) (Identity, error) {
	n := s.issue()
	resp, err := s.api.Login(ctx, backend.Credentials{Username: username, Password: password})
	if err != nil {
		s.log.Error("login failed", s.log.Args("username", username, "error", logging.Mask(err.Error())))
		return Identity{}, err
	}
	return s.establish(n, "login", resp)
}

// Register creates an account and logs in as it.
func (s *Session) Register(ctx context.Context, reg backend.Registration) (Identity, error) {
	n := s.issue()
	resp, err := s.api.Register(ctx, reg)
	if err != nil {
		s.log.Error("registration failed", s.log.Args("username", reg.Username, "error", logging.Mask(err.Error())))
		return Identity{}, err
	}
	return s.establish(n, "register", resp)
}

func (s *Session) establish(n uint64, op string, resp backend.AuthResponse) (Identity, error) {
	if resp.AccessToken == "" {
		err := apperr.New(apperr.Decode, op+" response carried no access token")
		s.log.Error(op+" failed", s.log.Args("error", err.Error()))
		return Identity{}, err
	}
	id := Identity{Token: resp.AccessToken, Doctor: resp.Doctor}
	if err := s.commit(n, op, &id, ""); err != nil {
		return Identity{}, err
	}
	return id, nil
}

// Logout clears the identity from memory and storage. It makes no network call
// and always leaves the session logged out. A storage failure is logged and
// returned for callers that want to report it.
func (s *Session) Logout() error {
	_, err := s.clear(0, "")
	return err
}

// clear logs out. With n == 0 it is a fresh logout; otherwise it applies the
// outcome of operation n, and only if n is still current for token.
func (s *Session) clear(n uint64, token string) (bool, error) {
	s.mu.Lock()
	if n == 0 {
		s.seq++
		n = s.seq
	} else if !s.isCurrent(n, token) {
		s.mu.Unlock()
		return false, nil
	}
	s.applied = n
	was := s.id != nil
	s.id = nil
	err := s.persist(nil)
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	if err != nil {
		s.log.Error("could not clear stored session", s.log.Args("error", err.Error()))
	}
	if was {
		notify(listeners, false)
	}
	return true, err
}

// RefreshIdentity fetches the profile for the current token and stores it.
// Without a token it fails with errors.Unauthenticated and makes no request.
// A 401 from the server logs the session out before the error is returned.
func (s *Session) RefreshIdentity(ctx context.Context) (backend.Doctor, error) {
	s.mu.Lock()
	if s.id == nil {
		s.mu.Unlock()
		return backend.Doctor{}, apperr.New(apperr.Unauthenticated, "not logged in")
	}
	s.seq++
	n, token := s.seq, s.id.Token
	s.mu.Unlock()

	doc, err := s.api.Me(ctx, token)
	if err != nil {
		s.log.Error("refreshing identity failed", s.log.Args("error", logging.Mask(err.Error())))
		if apperr.IsUnauthorized(err) {
			cleared, _ := s.clear(n, token)
			if !cleared {
				s.log.Debug("ignoring 401 for a replaced session")
			}
		}
		return backend.Doctor{}, err
	}

	if err := s.commit(n, "refresh identity", &Identity{Token: token, Doctor: doc}, token); err != nil {
		return backend.Doctor{}, err
	}
	return doc, nil
}

// CheckValidity reports whether the stored token is still accepted by the
// server. It never returns an error; use Validate for the reason.
func (s *Session) CheckValidity(ctx context.Context) bool {
	ok, _ := s.Validate(ctx)
	return ok
}

// Validate is CheckValidity with the underlying failure exposed.
func (s *Session) Validate(ctx context.Context) (bool, error) {
	if _, err := s.RefreshIdentity(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// issue numbers a new operation.
func (s *Session) issue() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// isCurrent reports whether no operation issued after n has been applied and,
// for a non-empty token, whether the session still holds it. Callers must hold s.mu.
func (s *Session) isCurrent(n uint64, token string) bool {
	if n <= s.applied {
		return false
	}
	if token != "" {
		return s.id != nil && s.id.Token == token
	}
	return true
}

// commit persists id and then installs it, unless an operation issued after n
// has already been applied. A non-empty token marks a profile refresh: it also
// requires the session to still hold that token and does not advance applied,
// so it never overtakes a login in flight.
// If persisting fails, storage is rolled back to the previous identity and the
// in-memory state is left untouched.
func (s *Session) commit(n uint64, op string, id *Identity, token string) error {
	s.mu.Lock()
	if !s.isCurrent(n, token) {
		s.mu.Unlock()
		s.log.Debug("discarding stale result", s.log.Args("op", op))
		return apperr.New(apperr.Superseded, op+" was superseded by a later session change")
	}

	if err := s.persist(id); err != nil {
		if rbErr := s.persist(s.id); rbErr != nil {
			s.log.Warn("rolling back stored session failed", s.log.Args("op", op, "error", rbErr.Error()))
		}
		s.mu.Unlock()
		s.log.Error(op+" could not be saved", s.log.Args("error", err.Error()))
		return err
	}

	was := s.id != nil
	changed := !was || s.id.Token != id.Token
	s.id = id
	if token == "" {
		s.applied = n
	}
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	s.log.Debug(op+" succeeded", s.log.Args("doctor", id.Doctor.Username))
	if changed {
		notify(listeners, true)
	}
	return nil
}

// snapshotListeners copies the listener set. Callers must hold s.mu.
func (s *Session) snapshotListeners() []func(bool) {
	out := make([]func(bool), 0, len(s.listeners))
	for _, fn := range s.listeners {
		out = append(out, fn)
	}
	return out
}

func notify(listeners []func(bool), authenticated bool) {
	for _, fn := range listeners {
		fn(authenticated)
	}
}
