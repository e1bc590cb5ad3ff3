package access

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// ConfirmationOption customizes the state machine.
type ConfirmationOption func(*ConfirmationStateMachine)

// WithConfirmationClock injects a custom clock (useful for tests).
func WithConfirmationClock(clock func() time.Time) ConfirmationOption {
	return func(m *ConfirmationStateMachine) {
		if clock != nil {
			m.now = clock
		}
	}
}

// WithConfirmationLogger overrides the logger.
func WithConfirmationLogger(logger Logger) ConfirmationOption {
	return func(m *ConfirmationStateMachine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithConfirmationActivitySink sets the sink used to publish confirmation events.
func WithConfirmationActivitySink(sink ActivitySink) ConfirmationOption {
	return func(m *ConfirmationStateMachine) {
		m.activitySink = normalizeActivitySink(sink)
	}
}

// ConfirmationStateMachine advances a profile's email-confirmation status.
// The machine never regresses a state: each transition is a conditional
// update, so re-running it from FullyConfirmed performs zero writes.
type ConfirmationStateMachine struct {
	profiles     ProfileStore
	resend       *ResendConfirmationHandler
	redirects    *RedirectResolver
	now          func() time.Time
	logger       Logger
	activitySink ActivitySink
}

// NewConfirmationStateMachine returns the default implementation backed by the
// provided profile store.
func NewConfirmationStateMachine(profiles ProfileStore, resend *ResendConfirmationHandler, redirects *RedirectResolver, opts ...ConfirmationOption) *ConfirmationStateMachine {
	m := &ConfirmationStateMachine{
		profiles:     profiles,
		resend:       resend,
		redirects:    redirects,
		now:          time.Now,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m
}

// Messages carried on the dashboard redirect after a confirmation step.
const (
	MessageFirstConfirmation = "Thanks for signing in. Check your inbox to confirm your email."
	MessageFullyConfirmed    = "Your email address is fully confirmed."
)

// Advance reads the profile, applies at most one confirmation transition, and
// returns the redirect for the resulting state.
func (m *ConfirmationStateMachine) Advance(ctx context.Context, userID uuid.UUID, email string, locale Locale) Redirect {
	profile, err := m.profiles.FindByID(ctx, userID)
	if err != nil {
		if goerrors.IsNotFound(err) {
			// profile creation happens outside this subsystem
			return Redirect{Location: m.redirects.Resolve(locale, DestinationProfileSetup)}
		}

		m.logger.Error("confirmation profile read failed", "user_id", userID.String(), "error", err)
		return Redirect{Location: m.redirects.Resolve(locale, DestinationLogin,
			WithErrorParam("unable to load your profile"))}
	}

	from := ClassifyConfirmation(profile)

	switch from {
	case ConfirmationUnconfirmed:
		if _, err := m.profiles.MarkEmailConfirmed(ctx, userID); err != nil {
			m.logger.Error("mark email confirmed failed", "user_id", userID.String(), "error", err)
			return Redirect{Location: m.redirects.Resolve(locale, DestinationDashboard,
				WithErrorParam("unable to update your confirmation status"))}
		}

		m.record(ctx, userID, from, ConfirmationFirst)
		m.resendConfirmationEmail(ctx, userID, m.resendAddress(profile, email))

		return Redirect{Location: m.redirects.Resolve(locale, DestinationDashboard,
			WithMessageParam(MessageFirstConfirmation))}

	case ConfirmationFirst:
		if _, err := m.profiles.MarkConfirmationComplete(ctx, userID, m.now()); err != nil {
			m.logger.Error("mark confirmation complete failed", "user_id", userID.String(), "error", err)
			return Redirect{Location: m.redirects.Resolve(locale, DestinationDashboard,
				WithErrorParam("unable to update your confirmation status"))}
		}

		m.record(ctx, userID, from, ConfirmationFull)

		return Redirect{Location: m.redirects.Resolve(locale, DestinationDashboard,
			WithMessageParam(MessageFullyConfirmed))}

	default:
		// fully confirmed: no writes, plain redirect
		return Redirect{Location: m.redirects.Resolve(locale, DestinationDashboard)}
	}
}

// resendConfirmationEmail triggers the external resend best-effort. A failure
// is deliberately non-fatal: the redirect outcome stays identical, but we log
// a warning and emit a distinct activity event so the masking is observable.
func (m *ConfirmationStateMachine) resendConfirmationEmail(ctx context.Context, userID uuid.UUID, email string) {
	if m.resend == nil || email == "" {
		return
	}

	if err := m.resend.Execute(ctx, ResendConfirmationMessage{Email: email}); err != nil {
		m.logger.Warn("confirmation email resend failed", "user_id", userID.String(), "error", err)
		recordActivity(ctx, m.activitySink, m.logger, ActivityEvent{
			EventType: ActivityEventResendFailed,
			UserID:    userID.String(),
			Metadata:  map[string]any{"error": err.Error()},
		})
	}
}

func (m *ConfirmationStateMachine) resendAddress(profile *Profile, fallback string) string {
	if profile != nil && profile.Email != "" {
		return profile.Email
	}
	return fallback
}

func (m *ConfirmationStateMachine) record(ctx context.Context, userID uuid.UUID, from, to ConfirmationState) {
	recordActivity(ctx, m.activitySink, m.logger, ActivityEvent{
		EventType: ActivityEventConfirmationStep,
		UserID:    userID.String(),
		FromState: from,
		ToState:   to,
	})
}
