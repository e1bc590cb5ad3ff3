package access

import (
	"context"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// TokenPair is the access/refresh token pair issued by the identity exchange.
// The tokens are opaque to this package except for the claims the access token
// carries (see TokenValidator).
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// IdentityClient is the external identity exchange. Implementations must
// classify exchange failures by returning an *ExchangeError with the Transient
// flag set for network-layer faults; any other error is treated as terminal.
type IdentityClient interface {
	ExchangeCode(ctx context.Context, code string) (*TokenPair, error)
	ResendConfirmationEmail(ctx context.Context, email string) error
	SignOut(ctx context.Context, accessToken string) error
}

// Config holds portal access options
type Config interface {
	GetOrigin() string
	GetSupportedLocales() []string
	GetDefaultLocale() string
	GetLocaleCookieName() string
	GetPersistenceCookieName() string
	GetAccessCookieName() string
	GetRefreshCookieName() string
	GetSecureCookies() bool
	GetTokenExpiration() int
	GetExchangeAttempts() int
	GetExchangeRetryDelay() time.Duration
	GetJWKSetURLs() []string
}

const (
	// DefaultExchangeAttempts is the total number of exchange calls made for a
	// code whose failures keep classifying as transient.
	DefaultExchangeAttempts = 3

	// DefaultExchangeRetryDelay is the fixed pause between exchange attempts.
	DefaultExchangeRetryDelay = 250 * time.Millisecond
)

// ValidateConfig checks the values a Config implementation must provide before
// any component is constructed from it.
func ValidateConfig(cfg Config) error {
	if cfg == nil {
		return validation.NewInternalError(fmt.Errorf("config is nil"))
	}

	origin := cfg.GetOrigin()
	if err := validation.Validate(origin, validation.Required, is.URL); err != nil {
		return fmt.Errorf("config origin %q: %w", origin, err)
	}

	locales := cfg.GetSupportedLocales()
	if len(locales) == 0 {
		return fmt.Errorf("config must list at least one supported locale")
	}

	def := cfg.GetDefaultLocale()
	for _, l := range locales {
		if l == def {
			return nil
		}
	}

	return fmt.Errorf("config default locale %q is not in the supported set", def)
}

func exchangeAttempts(cfg Config) int {
	if cfg != nil && cfg.GetExchangeAttempts() > 0 {
		return cfg.GetExchangeAttempts()
	}
	return DefaultExchangeAttempts
}

func exchangeRetryDelay(cfg Config) time.Duration {
	if cfg != nil && cfg.GetExchangeRetryDelay() > 0 {
		return cfg.GetExchangeRetryDelay()
	}
	return DefaultExchangeRetryDelay
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] ACCESS "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] ACCESS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] ACCESS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] ACCESS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
