package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/client/credentials"
	"github.com/dmitrijs2005/gophdrive/internal/client/models"
	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrLoginInProgress = errors.New("login already in progress")
	ErrNotInitialized  = errors.New("session is not initialized")
	ErrEmptyToken      = errors.New("login response carries no token")
)

// CredentialStore is the durable home of the token and user record.
type CredentialStore interface {
	Load(ctx context.Context) (credentials.Entries, error)
	Save(ctx context.Context, token string, user []byte) error
	Clear(ctx context.Context) error
}

// Authenticator performs the remote login call.
type Authenticator interface {
	Login(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error)
}

// Manager owns the session state and is the only writer of the
// credential store.
type Manager struct {
	store CredentialStore
	auth  Authenticator
	log   logging.Logger

	mu        sync.RWMutex
	state     State
	loggingIn bool

	initOnce sync.Once
	ready    chan struct{}
}

func NewManager(store CredentialStore, auth Authenticator, log logging.Logger) *Manager {
	return &Manager{
		store: store,
		auth:  auth,
		log:   log.With("component", "session"),
		state: InitialState(),
		ready: make(chan struct{}),
	}
}

func (m *Manager) dispatch(a Action) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Transition(m.state, a)
	return m.state.clone()
}

// Initialize restores the session from the store. It runs once; later
// calls return the current state. Unusable stored data is cleared and the
// session resolves unauthenticated.
func (m *Manager) Initialize(ctx context.Context) State {
	m.initOnce.Do(func() {
		defer close(m.ready)
		user, token, err := m.restore(ctx)
		if err != nil {
			m.log.Warn(ctx, "discarding stored credentials", "error", err)
		}
		m.dispatch(Initialize{User: user, Token: token})
	})
	return m.State()
}

func (m *Manager) restore(ctx context.Context) (*models.User, string, error) {
	e, err := m.store.Load(ctx)
	if err != nil {
		// Unreadable entries are treated like corrupt ones.
		m.clearStore(ctx)
		return nil, "", fmt.Errorf("%w: %v", ErrCorruptCredentials, err)
	}
	if e.Empty() {
		return nil, "", nil
	}

	if e.Token == "" {
		m.clearStore(ctx)
		return nil, "", fmt.Errorf("%w: token is missing", ErrCorruptCredentials)
	}
	if !e.HasUser {
		m.clearStore(ctx)
		return nil, "", fmt.Errorf("%w: user record is missing", ErrCorruptCredentials)
	}
	user, err := DecodeUser(e.User)
	if err != nil {
		m.clearStore(ctx)
		return nil, "", err
	}
	return &user, e.Token, nil
}

func (m *Manager) clearStore(ctx context.Context) {
	if err := m.store.Clear(ctx); err != nil {
		m.log.Warn(ctx, "failed to clear credential store", "error", err)
	}
}

// Wait blocks until Initialize has completed or ctx is done.
func (m *Manager) Wait(ctx context.Context) error {
	select {
	case <-m.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) initialized() bool {
	select {
	case <-m.ready:
		return true
	default:
		return false
	}
}

// Login authenticates against the service and persists the issued
// credentials. A failed call leaves the state as it was, with IsLoading
// cleared, and returns the error unchanged.
func (m *Manager) Login(ctx context.Context, creds models.Credentials) (models.User, error) {
	if !m.initialized() {
		return models.User{}, ErrNotInitialized
	}

	m.mu.Lock()
	if m.loggingIn {
		m.mu.Unlock()
		return models.User{}, ErrLoginInProgress
	}
	m.loggingIn = true
	m.state = Transition(m.state, SetLoading{Loading: true})
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.loggingIn = false
		m.mu.Unlock()
	}()

	user, token, err := m.login(ctx, creds)
	if err != nil {
		m.dispatch(SetLoading{Loading: false})
		m.log.Info(ctx, "login failed", "username", creds.Username, "error", err)
		return models.User{}, err
	}

	m.dispatch(LoginSuccess{User: user, Token: token})
	m.log.Info(ctx, "logged in", "username", user.Username, "id", user.ID)
	return user, nil
}

func (m *Manager) login(ctx context.Context, creds models.Credentials) (models.User, string, error) {
	resp, err := m.auth.Login(ctx, creds)
	if err != nil {
		return models.User{}, "", err
	}
	if resp.Token == "" {
		return models.User{}, "", ErrEmptyToken
	}

	user := resp.User()
	if err := validateUser(user); err != nil {
		return models.User{}, "", err
	}
	record, err := EncodeUser(user)
	if err != nil {
		return models.User{}, "", err
	}
	if err := m.store.Save(ctx, resp.Token, record); err != nil {
		return models.User{}, "", fmt.Errorf("save credentials: %w", err)
	}
	return user, resp.Token, nil
}

// Logout clears the stored credentials and the in-memory session. It has
// no network effect and never fails.
func (m *Manager) Logout(ctx context.Context) {
	m.clearStore(ctx)
	m.dispatch(Logout{})
	m.log.Info(ctx, "logged out")
}

// State returns a snapshot of the current session.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.clone()
}

// Token returns the bearer token of the current session, or "" when
// unauthenticated. Its signature matches client.TokenProvider.
func (m *Manager) Token(context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Token, nil
}

// TokenExpiry reports the exp claim of the current token when it is a JWT.
// The signature is not verified.
func (m *Manager) TokenExpiry() (time.Time, bool) {
	token, _ := m.Token(context.Background())
	if token == "" {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
