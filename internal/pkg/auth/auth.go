// Package auth owns the bearer token: it logs in, keeps the token fresh on a
// fixed schedule, persists it between runs and tells subscribers whenever it
// changes.
package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/anicoll/fleetsync/internal/pkg/api"
)

var ErrNoCredentials = errors.New("no stored token and no credentials configured")

// Client is the token endpoint surface of the REST API.
type Client interface {
	Login(ctx context.Context, username, password string) (api.TokenResponse, error)
	RefreshToken(ctx context.Context, token string) (api.TokenResponse, error)
	Logout(ctx context.Context, token string) error
}

type Manager struct {
	client   Client
	store    Store
	logger   *zap.Logger
	interval time.Duration
	username string
	password string

	// op serializes login, refresh and logout.
	op sync.Mutex

	mu    sync.RWMutex
	token string
	subs  []func(string)
}

type Option func(*Manager)

func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

func WithStore(s Store) Option {
	return func(m *Manager) {
		m.store = s
	}
}

func WithCredentials(username, password string) Option {
	return func(m *Manager) {
		m.username = username
		m.password = password
	}
}

// WithRefreshInterval sets the fixed period between token refreshes.
func WithRefreshInterval(d time.Duration) Option {
	return func(m *Manager) {
		m.interval = d
	}
}

func New(client Client, opts ...Option) *Manager {
	m := &Manager{
		client:   client,
		store:    &MemoryStore{},
		logger:   zap.L(), // returns the global logger.
		interval: time.Hour,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

func (m *Manager) LoggedIn() bool {
	return m.Token() != ""
}

// Subscribe registers f to receive every new token. An empty token means the
// session was logged out. f runs on the goroutine that changed the token.
func (m *Manager) Subscribe(f func(token string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, f)
}

func (m *Manager) set(token string) {
	m.mu.Lock()
	changed := m.token != token
	m.token = token
	subs := slices.Clone(m.subs)
	m.mu.Unlock()

	if !changed {
		return
	}
	for _, f := range subs {
		f(token)
	}
}

func (m *Manager) Login(ctx context.Context, username, password string) error {
	m.op.Lock()
	defer m.op.Unlock()

	res, err := m.client.Login(ctx, username, password)
	if err != nil {
		return err
	}
	m.persist(res.AccessToken)
	m.set(res.AccessToken)
	m.logger.Info("logged in", zap.String("username", username))
	return nil
}

// Refresh trades the current token for a new one. Without a token it is a no-op.
func (m *Manager) Refresh(ctx context.Context) error {
	m.op.Lock()
	defer m.op.Unlock()

	current := m.Token()
	if current == "" {
		return nil
	}
	res, err := m.client.RefreshToken(ctx, current)
	if err != nil {
		return err
	}
	m.persist(res.AccessToken)
	m.set(res.AccessToken)
	if exp, ok := ExpiresAt(res.AccessToken); ok {
		m.logger.Debug("token refreshed", zap.Time("expires_at", exp))
		if time.Until(exp) < m.interval {
			m.logger.Warn("token expires before the next scheduled refresh",
				zap.Time("expires_at", exp), zap.Duration("interval", m.interval))
		}
	}
	return nil
}

// Logout ends the session. The server call is best effort; the local token
// and the stored copy are always cleared.
func (m *Manager) Logout(ctx context.Context) error {
	m.op.Lock()
	defer m.op.Unlock()

	current := m.Token()
	var err error
	if current != "" {
		if err = m.client.Logout(ctx, current); err != nil {
			m.logger.Warn("server logout failed", zap.Error(err))
		}
	}
	if rerr := m.store.Remove(); rerr != nil {
		m.logger.Error("failed to remove stored token", zap.Error(rerr))
	}
	m.set("")
	m.logger.Info("logged out")
	return err
}

// Restore refreshes a token left by a previous run. A stored token the server
// no longer accepts is discarded.
func (m *Manager) Restore(ctx context.Context) (bool, error) {
	m.op.Lock()
	defer m.op.Unlock()

	stored, err := m.store.Load()
	if err != nil {
		m.logger.Warn("ignoring unreadable token cache", zap.Error(err))
		return false, m.store.Remove()
	}
	if stored == "" {
		return false, nil
	}
	res, err := m.client.RefreshToken(ctx, stored)
	if err != nil {
		m.logger.Info("stored token rejected", zap.Error(err))
		return false, m.store.Remove()
	}
	m.persist(res.AccessToken)
	m.set(res.AccessToken)
	return true, nil
}

func (m *Manager) persist(token string) {
	if err := m.store.Save(token); err != nil {
		m.logger.Error("failed to store token", zap.Error(err))
	}
}

// Start restores or establishes a session.
func (m *Manager) Start(ctx context.Context) error {
	restored, err := m.Restore(ctx)
	if err != nil {
		return err
	}
	if restored {
		return nil
	}
	if m.username == "" {
		return ErrNoCredentials
	}
	return m.Login(ctx, m.username, m.password)
}

// Run refreshes the token every interval until ctx is done.
func (m *Manager) Run(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", m.interval), func() {
		if err := m.Refresh(ctx); err != nil {
			m.logger.Error("token refresh failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// ExpiresAt reads the exp claim without verifying the signature. The token
// is only inspected here; the server remains the one that validates it.
func ExpiresAt(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
