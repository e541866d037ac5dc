// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/bureau-foundation/taiga/lib/clock"
	"github.com/bureau-foundation/taiga/lib/kvstore"
	"github.com/bureau-foundation/taiga/lib/sealed"
	"github.com/bureau-foundation/taiga/lib/secret"
	"github.com/bureau-foundation/taiga/lib/taiga"
)

// Store keys.
const (
	KeyAuthToken   = "taiga_auth_token"
	KeyUserInfo    = "taiga_user_info"
	KeyProjects    = "taiga_projects"
	KeyCredentials = "taiga_credentials"
)

// UserInfo is the persisted profile of the logged-in user.
type UserInfo struct {
	taiga.User
	LoggedInAt time.Time `json:"logged_in_at"`
}

// ChangeKind identifies what a Change altered.
type ChangeKind int

const (
	// LoggedIn means a token and profile were established.
	LoggedIn ChangeKind = iota
	// LoggedOut means the session was cleared by the user.
	LoggedOut
	// Expired means the server rejected the token.
	Expired
	// ProjectsChanged means the cached project list was replaced.
	ProjectsChanged
)

func (kind ChangeKind) String() string {
	switch kind {
	case LoggedIn:
		return "logged-in"
	case LoggedOut:
		return "logged-out"
	case Expired:
		return "expired"
	case ProjectsChanged:
		return "projects-changed"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(kind))
	}
}

// Change is delivered to subscribers after a mutation is persisted.
type Change struct {
	Kind ChangeKind
}

// Config configures a Session.
type Config struct {
	// Store persists the session. Required.
	Store kvstore.Store

	// Sealer seals the token and remembered credentials. Required.
	Sealer sealed.Sealer

	// Clock stamps logins. Defaults to clock.Real().
	Clock clock.Clock

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Session is the authentication state. It is safe for concurrent use.
// It implements taiga.TokenSource.
type Session struct {
	store  kvstore.Store
	sealer sealed.Sealer
	clock  clock.Clock
	logger *slog.Logger

	mu          sync.Mutex
	token       string
	user        *UserInfo
	projects    []taiga.Project
	subscribers map[int]func(Change)
	nextID      int
}

// Open loads the session from the store. A stored token that cannot be
// unsealed is discarded with a warning rather than failing.
func Open(config Config) (*Session, error) {
	if config.Store == nil {
		return nil, fmt.Errorf("session: store is required")
	}
	if config.Sealer == nil {
		return nil, fmt.Errorf("session: sealer is required")
	}
	s := &Session{
		store:       config.Store,
		sealer:      config.Sealer,
		clock:       config.Clock,
		logger:      config.Logger,
		subscribers: make(map[int]func(Change)),
	}
	if s.clock == nil {
		s.clock = clock.Real()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	var sealedToken string
	found, err := s.store.Get(KeyAuthToken, &sealedToken)
	if err != nil {
		return nil, fmt.Errorf("session: loading token: %w", err)
	}
	if found && sealedToken != "" {
		token, err := s.unseal(sealedToken)
		if err != nil {
			s.logger.Warn("stored auth token cannot be unsealed, treating session as logged out", "error", err)
		} else {
			s.token = token
		}
	}

	var user UserInfo
	if found, err := s.store.Get(KeyUserInfo, &user); err != nil {
		return nil, fmt.Errorf("session: loading user: %w", err)
	} else if found {
		s.user = &user
	}

	if _, err := s.store.Get(KeyProjects, &s.projects); err != nil {
		return nil, fmt.Errorf("session: loading projects: %w", err)
	}
	return s, nil
}

func (s *Session) unseal(ciphertext string) (string, error) {
	buffer, err := s.sealer.Open(ciphertext)
	if err != nil {
		return "", err
	}
	defer buffer.Close()
	return buffer.String(), nil
}

// Token returns the auth token. The second result is false when no user
// is logged in.
func (s *Session) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

// LoggedIn reports whether a token is present.
func (s *Session) LoggedIn() bool {
	_, ok := s.Token()
	return ok
}

// User returns a copy of the logged-in user's profile, or nil.
func (s *Session) User() *UserInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	user := *s.user
	return &user
}

// CachedProjects returns a copy of the cached project list in server
// order. Empty (never nil) when nothing is cached.
func (s *Session) CachedProjects() []taiga.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.projects == nil {
		return []taiga.Project{}
	}
	return slices.Clone(s.projects)
}

// CachedProject looks up a cached project by id.
func (s *Session) CachedProject(id int64) (taiga.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, project := range s.projects {
		if project.ID == id {
			return project, true
		}
	}
	return taiga.Project{}, false
}

// Establish records a successful login: the token and the profile are
// persisted together, so a failure leaves the previous session intact.
// When user differs from the previous profile, the project cache is
// emptied in the same write; it belonged to someone else.
func (s *Session) Establish(token string, user taiga.User) error {
	if token == "" {
		return fmt.Errorf("session: empty token")
	}
	sealedToken, err := s.sealer.Seal([]byte(token))
	if err != nil {
		return fmt.Errorf("session: sealing token: %w", err)
	}
	info := UserInfo{User: user, LoggedInAt: s.clock.Now().UTC()}

	s.mu.Lock()
	changes := map[string]any{
		KeyAuthToken: sealedToken,
		KeyUserInfo:  info,
	}
	switched := s.user != nil && s.user.ID != user.ID
	if switched {
		changes[KeyProjects] = []taiga.Project{}
	}
	err = s.store.Apply(changes)
	if err == nil {
		s.token = token
		s.user = &info
		if switched {
			s.projects = []taiga.Project{}
		}
	}
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("session: persisting login: %w", err)
	}
	s.logger.Info("session established", "username", user.Username)
	s.notify(Change{Kind: LoggedIn})
	return nil
}

// SetToken replaces the token without touching the profile.
func (s *Session) SetToken(token string) error {
	var value any
	if token != "" {
		sealedToken, err := s.sealer.Seal([]byte(token))
		if err != nil {
			return fmt.Errorf("session: sealing token: %w", err)
		}
		value = sealedToken
	}

	s.mu.Lock()
	err := kvstore.Update(s.store, KeyAuthToken, value)
	if err == nil {
		s.token = token
	}
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("session: persisting token: %w", err)
	}
	return nil
}

// SetCachedProjects replaces the cached project list.
func (s *Session) SetCachedProjects(projects []taiga.Project) error {
	projects = slices.Clone(projects)
	if projects == nil {
		projects = []taiga.Project{}
	}

	s.mu.Lock()
	err := kvstore.Update(s.store, KeyProjects, projects)
	if err == nil {
		s.projects = projects
	}
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("session: persisting projects: %w", err)
	}
	s.notify(Change{Kind: ProjectsChanged})
	return nil
}

// Clear logs out: the token and profile are removed and the project
// cache is emptied. Remembered credentials are kept; use
// ForgetCredentials to remove them.
func (s *Session) Clear() error {
	s.mu.Lock()
	err := s.store.Apply(map[string]any{
		KeyAuthToken: nil,
		KeyUserInfo:  nil,
		KeyProjects:  []taiga.Project{},
	})
	if err == nil {
		s.token = ""
		s.user = nil
		s.projects = []taiga.Project{}
	}
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("session: clearing: %w", err)
	}
	s.logger.Info("session cleared")
	s.notify(Change{Kind: LoggedOut})
	return nil
}

// Expire drops a token the server rejected. The profile and project
// cache are kept so views can still show what was there; the next login
// replaces them.
func (s *Session) Expire() error {
	s.mu.Lock()
	if s.token == "" {
		s.mu.Unlock()
		return nil
	}
	err := kvstore.Update(s.store, KeyAuthToken, nil)
	if err == nil {
		s.token = ""
	}
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("session: expiring token: %w", err)
	}
	s.logger.Warn("taiga rejected the auth token; log in again")
	s.notify(Change{Kind: Expired})
	return nil
}

// Subscribe registers fn to be called after every change. The returned
// function unregisters it. fn is called without the session lock held
// and may call back into the session.
func (s *Session) Subscribe(fn func(Change)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Session) notify(change Change) {
	s.mu.Lock()
	ids := make([]int, 0, len(s.subscribers))
	for id := range s.subscribers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	subscribers := make([]func(Change), 0, len(ids))
	for _, id := range ids {
		subscribers = append(subscribers, s.subscribers[id])
	}
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(change)
	}
}

// credentials is the plaintext shape sealed under KeyCredentials.
type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RememberCredentials seals username and password into the store for
// later Relogin. The password buffer is borrowed.
func (s *Session) RememberCredentials(username string, password *secret.Buffer) error {
	plaintext, err := json.Marshal(credentials{Username: username, Password: password.String()})
	if err != nil {
		return fmt.Errorf("session: encoding credentials: %w", err)
	}
	defer secret.Zero(plaintext)

	sealedCredentials, err := s.sealer.Seal(plaintext)
	if err != nil {
		return fmt.Errorf("session: sealing credentials: %w", err)
	}
	if err := kvstore.Update(s.store, KeyCredentials, sealedCredentials); err != nil {
		return fmt.Errorf("session: persisting credentials: %w", err)
	}
	return nil
}

// Credentials returns remembered credentials. ok is false when none are
// stored. The caller must Close the password.
func (s *Session) Credentials() (username string, password *secret.Buffer, ok bool, err error) {
	var sealedCredentials string
	found, err := s.store.Get(KeyCredentials, &sealedCredentials)
	if err != nil || !found {
		return "", nil, false, err
	}
	plaintext, err := s.sealer.Open(sealedCredentials)
	if err != nil {
		return "", nil, false, fmt.Errorf("session: opening credentials: %w", err)
	}
	defer plaintext.Close()

	var decoded credentials
	if err := json.Unmarshal(plaintext.Bytes(), &decoded); err != nil {
		return "", nil, false, fmt.Errorf("session: decoding credentials: %w", err)
	}
	password, err = secret.NewFromString(decoded.Password)
	if err != nil {
		return "", nil, false, fmt.Errorf("session: protecting password: %w", err)
	}
	return decoded.Username, password, true, nil
}

// ForgetCredentials removes remembered credentials.
func (s *Session) ForgetCredentials() error {
	return kvstore.Update(s.store, KeyCredentials, nil)
}
