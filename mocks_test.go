package access_test

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-access"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockIdentityClient implements access.IdentityClient
type MockIdentityClient struct {
	mock.Mock
}

func (m *MockIdentityClient) ExchangeCode(ctx context.Context, code string) (*access.TokenPair, error) {
	args := m.Called(ctx, code)
	pair, _ := args.Get(0).(*access.TokenPair)
	return pair, args.Error(1)
}

func (m *MockIdentityClient) ResendConfirmationEmail(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockIdentityClient) SignOut(ctx context.Context, accessToken string) error {
	args := m.Called(ctx, accessToken)
	return args.Error(0)
}

// MockProfileStore implements access.ProfileStore
type MockProfileStore struct {
	mock.Mock
}

func (m *MockProfileStore) FindByID(ctx context.Context, id uuid.UUID) (*access.Profile, error) {
	args := m.Called(ctx, id)
	profile, _ := args.Get(0).(*access.Profile)
	return profile, args.Error(1)
}

func (m *MockProfileStore) MarkEmailConfirmed(ctx context.Context, id uuid.UUID) (*access.Profile, error) {
	args := m.Called(ctx, id)
	profile, _ := args.Get(0).(*access.Profile)
	return profile, args.Error(1)
}

func (m *MockProfileStore) MarkConfirmationComplete(ctx context.Context, id uuid.UUID, at time.Time) (*access.Profile, error) {
	args := m.Called(ctx, id, at)
	profile, _ := args.Get(0).(*access.Profile)
	return profile, args.Error(1)
}

// MockGrantStore implements access.GrantStore
type MockGrantStore struct {
	mock.Mock
}

func (m *MockGrantStore) FindByUserID(ctx context.Context, userID uuid.UUID) (*access.PermissionGrant, error) {
	args := m.Called(ctx, userID)
	grant, _ := args.Get(0).(*access.PermissionGrant)
	return grant, args.Error(1)
}

// capturingSink records every activity event it receives
type capturingSink struct {
	mu     sync.Mutex
	events []access.ActivityEvent
}

func (s *capturingSink) Record(_ context.Context, event access.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *capturingSink) Events() []access.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]access.ActivityEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *capturingSink) EventsOfType(t access.ActivityEventType) []access.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []access.ActivityEvent
	for _, e := range s.events {
		if e.EventType == t {
			out = append(out, e)
		}
	}
	return out
}

// testConfig implements access.Config with portal-like defaults
type testConfig struct {
	origin        string
	locales       []string
	defaultLocale string
	attempts      int
	retryDelay    time.Duration
	secure        bool
	tokenExp      int
}

func newTestConfig() *testConfig {
	return &testConfig{
		origin:        "https://portal.example.com",
		locales:       access.DefaultLocales,
		defaultLocale: access.LocaleEnglish,
	}
}

func (c *testConfig) GetOrigin() string                    { return c.origin }
func (c *testConfig) GetSupportedLocales() []string        { return c.locales }
func (c *testConfig) GetDefaultLocale() string             { return c.defaultLocale }
func (c *testConfig) GetLocaleCookieName() string          { return "locale-preference" }
func (c *testConfig) GetPersistenceCookieName() string     { return "keep-signed-in" }
func (c *testConfig) GetAccessCookieName() string          { return "portal-access-token" }
func (c *testConfig) GetRefreshCookieName() string         { return "portal-refresh-token" }
func (c *testConfig) GetSecureCookies() bool               { return c.secure }
func (c *testConfig) GetTokenExpiration() int              { return c.tokenExp }
func (c *testConfig) GetExchangeAttempts() int             { return c.attempts }
func (c *testConfig) GetExchangeRetryDelay() time.Duration { return c.retryDelay }
func (c *testConfig) GetJWKSetURLs() []string              { return nil }

// countingSleep records inter-attempt delays without blocking the test
type countingSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *countingSleep) Sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return nil
}

func (s *countingSleep) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.delays)
}

func (s *countingSleep) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, len(s.delays))
	copy(out, s.delays)
	return out
}

// staticValidator returns the same claims for any token
func staticValidator(subject, email string) access.TokenValidatorFunc {
	return func(string) (*access.SessionClaims, error) {
		claims := &access.SessionClaims{Email: email}
		claims.Subject = subject
		return claims, nil
	}
}

type silentLogger struct{}

func (silentLogger) Debug(string, ...any) {}
func (silentLogger) Info(string, ...any)  {}
func (silentLogger) Warn(string, ...any)  {}
func (silentLogger) Error(string, ...any) {}
