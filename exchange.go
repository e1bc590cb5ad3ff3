package access

import (
	"context"
	"net/http"
	"time"
)

// Intent hints how the callback should route after the exchange.
type Intent string

const (
	// IntentNone is the regular sign-in flow
	IntentNone Intent = ""
	// IntentRecovery marks a password-recovery callback
	IntentRecovery Intent = "recovery"
)

// ParseIntent maps a callback `type` query value to an Intent.
func ParseIntent(value string) Intent {
	if Intent(value) == IntentRecovery {
		return IntentRecovery
	}
	return IntentNone
}

// ExchangeRequest is the inbound callback state the coordinator acts on.
type ExchangeRequest struct {
	Code   string
	Intent Intent
	Locale Locale
}

// Redirect is the coordinator's terminal instruction. Status defaults to a
// temporary redirect when unset.
type Redirect struct {
	Location string
	Status   int
}

// StatusOr returns the redirect status, defaulting when unset.
func (r Redirect) StatusOr(def int) int {
	if r.Status != 0 {
		return r.Status
	}
	if def != 0 {
		return def
	}
	return http.StatusTemporaryRedirect
}

// SleepFunc blocks for the given duration or until the context is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// CoordinatorOption customizes coordinator behavior.
type CoordinatorOption func(*ExchangeCoordinator)

// WithCoordinatorLogger overrides the logger.
func WithCoordinatorLogger(logger Logger) CoordinatorOption {
	return func(c *ExchangeCoordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCoordinatorActivitySink sets the sink used to publish session events.
func WithCoordinatorActivitySink(sink ActivitySink) CoordinatorOption {
	return func(c *ExchangeCoordinator) {
		c.activitySink = normalizeActivitySink(sink)
	}
}

// WithCoordinatorSleep injects the inter-attempt pause (useful for tests).
func WithCoordinatorSleep(sleep SleepFunc) CoordinatorOption {
	return func(c *ExchangeCoordinator) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// WithCoordinatorRetry overrides the attempt count and fixed delay.
func WithCoordinatorRetry(attempts int, delay time.Duration) CoordinatorOption {
	return func(c *ExchangeCoordinator) {
		if attempts > 0 {
			c.attempts = attempts
		}
		if delay > 0 {
			c.delay = delay
		}
	}
}

// ExchangeCoordinator completes sign-in by exchanging an opaque code for a
// session with bounded fixed-delay retry. Every outcome is a redirect; no
// failure propagates past it.
type ExchangeCoordinator struct {
	client       IdentityClient
	tokens       TokenValidator
	confirmer    *ConfirmationStateMachine
	redirects    *RedirectResolver
	attempts     int
	delay        time.Duration
	sleep        SleepFunc
	logger       Logger
	activitySink ActivitySink
}

// NewExchangeCoordinator wires the coordinator from config. Attempts and delay
// fall back to the package defaults when the config leaves them unset.
func NewExchangeCoordinator(client IdentityClient, tokens TokenValidator, confirmer *ConfirmationStateMachine, redirects *RedirectResolver, cfg Config, opts ...CoordinatorOption) *ExchangeCoordinator {
	c := &ExchangeCoordinator{
		client:       client,
		tokens:       tokens,
		confirmer:    confirmer,
		redirects:    redirects,
		attempts:     exchangeAttempts(cfg),
		delay:        exchangeRetryDelay(cfg),
		sleep:        defaultSleep,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// Complete runs the callback state machine and returns the terminal redirect
// plus the established token pair, nil when no session was established.
func (c *ExchangeCoordinator) Complete(ctx context.Context, req ExchangeRequest) (Redirect, *TokenPair) {
	locale := c.redirects.ResolveLocale(req.Locale)

	// Recovery intent takes precedence for final routing: the confirmation
	// machine is bypassed entirely and no profile read ever happens. Without a
	// code there is nothing to exchange either.
	if req.Intent == IntentRecovery {
		if req.Code == "" {
			return Redirect{Location: c.redirects.Resolve(locale, DestinationRecovery)}, nil
		}

		pair, err := c.exchange(ctx, req.Code)
		if err != nil {
			c.logger.Warn("recovery exchange failed", "error", err)
			c.recordFailure(ctx, err)
			return Redirect{Location: c.redirects.Resolve(locale, DestinationRecovery,
				WithErrorParam(redirectErrorMessage(err)))}, nil
		}

		return Redirect{Location: c.redirects.Resolve(locale, DestinationRecovery)}, pair
	}

	if req.Code == "" {
		return Redirect{Location: c.redirects.Resolve(locale, DestinationDashboard)}, nil
	}

	pair, err := c.exchange(ctx, req.Code)
	if err != nil {
		c.logger.Warn("code exchange failed", "error", err)
		c.recordFailure(ctx, err)
		return Redirect{Location: c.redirects.Resolve(locale, DestinationLogin,
			WithErrorParam(redirectErrorMessage(err)))}, nil
	}

	claims, err := c.tokens.Validate(pair.AccessToken)
	if err != nil {
		c.logger.Error("exchanged token failed validation", "error", err)
		c.recordFailure(ctx, err)
		return Redirect{Location: c.redirects.Resolve(locale, DestinationLogin,
			WithErrorParam(ErrSessionInvalid.Message))}, nil
	}

	userID, err := claims.UserUUID()
	if err != nil {
		c.logger.Error("exchanged token has no usable subject", "error", err)
		c.recordFailure(ctx, err)
		return Redirect{Location: c.redirects.Resolve(locale, DestinationLogin,
			WithErrorParam(ErrSessionInvalid.Message))}, nil
	}

	recordActivity(ctx, c.activitySink, c.logger, ActivityEvent{
		EventType: ActivityEventSessionEstablished,
		UserID:    userID.String(),
	})

	return c.confirmer.Advance(ctx, userID, claims.Email, locale), pair
}

// exchange performs up to c.attempts exchange calls separated by the fixed
// delay. Only failures the client classifies as transient are retried; a
// terminal failure aborts immediately.
func (c *ExchangeCoordinator) exchange(ctx context.Context, code string) (*TokenPair, error) {
	var lastErr error

	for attempt := 1; attempt <= c.attempts; attempt++ {
		pair, err := c.client.ExchangeCode(ctx, code)
		if err == nil {
			return pair, nil
		}

		lastErr = err

		if !IsTransientExchangeError(err) {
			return nil, err
		}

		if attempt == c.attempts {
			break
		}

		c.logger.Debug("transient exchange failure, retrying", "attempt", attempt, "error", err)

		if serr := c.sleep(ctx, c.delay); serr != nil {
			return nil, serr
		}
	}

	return nil, lastErr
}

func (c *ExchangeCoordinator) recordFailure(ctx context.Context, err error) {
	recordActivity(ctx, c.activitySink, c.logger, ActivityEvent{
		EventType: ActivityEventExchangeFailed,
		Metadata:  map[string]any{"error": err.Error()},
	})
}
