package access_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-access"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestConfirmer(client *MockIdentityClient, profiles *MockProfileStore, opts ...access.ConfirmationOption) (*access.ConfirmationStateMachine, *capturingSink) {
	sink := &capturingSink{}

	var resend *access.ResendConfirmationHandler
	if client != nil {
		resend = access.NewResendConfirmationHandler(client).WithLogger(silentLogger{})
	}

	base := []access.ConfirmationOption{
		access.WithConfirmationLogger(silentLogger{}),
		access.WithConfirmationActivitySink(sink),
	}

	machine := access.NewConfirmationStateMachine(
		profiles,
		resend,
		access.NewRedirectResolver(newTestConfig()),
		append(base, opts...)...,
	)

	return machine, sink
}

func TestAdvanceMissingProfile(t *testing.T) {
	profiles := new(MockProfileStore)
	profiles.On("FindByID", mock.Anything, mock.Anything).
		Return(nil, repository.NewRecordNotFound())

	machine, _ := newTestConfirmer(nil, profiles)

	redirect := machine.Advance(context.Background(), uuid.New(), "ada@example.com", access.LocaleEnglish)

	assert.Equal(t, "https://portal.example.com/en/profile?setup=true", redirect.Location)
	profiles.AssertNotCalled(t, "MarkEmailConfirmed", mock.Anything, mock.Anything)
}

func TestAdvanceProfileReadFailure(t *testing.T) {
	profiles := new(MockProfileStore)
	profiles.On("FindByID", mock.Anything, mock.Anything).
		Return(nil, assert.AnError)

	machine, _ := newTestConfirmer(nil, profiles)

	redirect := machine.Advance(context.Background(), uuid.New(), "ada@example.com", access.LocaleEnglish)

	assert.Equal(t, "https://portal.example.com/en/login?error=unable%20to%20load%20your%20profile", redirect.Location)
}

func TestAdvanceUnconfirmedMarksAndResends(t *testing.T) {
	userID := uuid.New()
	client := new(MockIdentityClient)
	profiles := new(MockProfileStore)

	profiles.On("FindByID", mock.Anything, userID).
		Return(&access.Profile{ID: userID, Email: "ada@example.com", Role: access.RoleUser}, nil)
	profiles.On("MarkEmailConfirmed", mock.Anything, userID).
		Return(&access.Profile{ID: userID, Email: "ada@example.com", EmailConfirmed: true}, nil).
		Once()
	client.On("ResendConfirmationEmail", mock.Anything, "ada@example.com").
		Return(nil).
		Once()

	machine, sink := newTestConfirmer(client, profiles)

	redirect := machine.Advance(context.Background(), userID, "ada@example.com", access.LocaleSpanish)

	assert.Contains(t, redirect.Location, "https://portal.example.com/es/dashboard?message=")
	profiles.AssertExpectations(t)
	client.AssertExpectations(t)

	steps := sink.EventsOfType(access.ActivityEventConfirmationStep)
	require.Len(t, steps, 1)
	assert.Equal(t, access.ConfirmationUnconfirmed, steps[0].FromState)
	assert.Equal(t, access.ConfirmationFirst, steps[0].ToState)
}

func TestAdvanceResendFailureDoesNotChangeOutcome(t *testing.T) {
	userID := uuid.New()
	client := new(MockIdentityClient)
	profiles := new(MockProfileStore)

	profiles.On("FindByID", mock.Anything, userID).
		Return(&access.Profile{ID: userID, Email: "ada@example.com", Role: access.RoleUser}, nil)
	profiles.On("MarkEmailConfirmed", mock.Anything, userID).
		Return(&access.Profile{ID: userID, Email: "ada@example.com", EmailConfirmed: true}, nil).
		Once()
	client.On("ResendConfirmationEmail", mock.Anything, "ada@example.com").
		Return(assert.AnError).
		Once()

	machine, sink := newTestConfirmer(client, profiles)

	redirect := machine.Advance(context.Background(), userID, "ada@example.com", access.LocaleEnglish)

	assert.Contains(t, redirect.Location, "https://portal.example.com/en/dashboard?message=")
	require.Len(t, sink.EventsOfType(access.ActivityEventResendFailed), 1)
}

func TestAdvanceFirstConfirmedCompletes(t *testing.T) {
	userID := uuid.New()
	profiles := new(MockProfileStore)
	frozen := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	profiles.On("FindByID", mock.Anything, userID).
		Return(&access.Profile{ID: userID, Email: "ada@example.com", EmailConfirmed: true}, nil)
	profiles.On("MarkConfirmationComplete", mock.Anything, userID, frozen).
		Return(&access.Profile{ID: userID, EmailConfirmed: true, EmailConfirmedAt: &frozen}, nil).
		Once()

	machine, sink := newTestConfirmer(nil, profiles,
		access.WithConfirmationClock(func() time.Time { return frozen }))

	redirect := machine.Advance(context.Background(), userID, "ada@example.com", access.LocaleGerman)

	assert.Contains(t, redirect.Location, "https://portal.example.com/de/dashboard?message=")
	profiles.AssertExpectations(t)

	steps := sink.EventsOfType(access.ActivityEventConfirmationStep)
	require.Len(t, steps, 1)
	assert.Equal(t, access.ConfirmationFirst, steps[0].FromState)
	assert.Equal(t, access.ConfirmationFull, steps[0].ToState)
}

func TestAdvanceFullyConfirmedWritesNothing(t *testing.T) {
	userID := uuid.New()
	profiles := new(MockProfileStore)

	profiles.On("FindByID", mock.Anything, userID).
		Return(fullyConfirmedProfile(userID), nil)

	machine, sink := newTestConfirmer(nil, profiles)

	redirect := machine.Advance(context.Background(), userID, "ada@example.com", access.LocaleEnglish)

	assert.Equal(t, "https://portal.example.com/en/dashboard", redirect.Location)
	profiles.AssertNotCalled(t, "MarkEmailConfirmed", mock.Anything, mock.Anything)
	profiles.AssertNotCalled(t, "MarkConfirmationComplete", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, sink.EventsOfType(access.ActivityEventConfirmationStep))
}

func TestAdvanceWriteFailureStillLandsOnDashboard(t *testing.T) {
	userID := uuid.New()
	profiles := new(MockProfileStore)

	profiles.On("FindByID", mock.Anything, userID).
		Return(&access.Profile{ID: userID, Email: "ada@example.com"}, nil)
	profiles.On("MarkEmailConfirmed", mock.Anything, userID).
		Return(nil, assert.AnError).
		Once()

	machine, _ := newTestConfirmer(nil, profiles)

	redirect := machine.Advance(context.Background(), userID, "ada@example.com", access.LocaleEnglish)

	assert.Contains(t, redirect.Location, "https://portal.example.com/en/dashboard?error=")
}

func TestResendConfirmationHandlerRequiresEmail(t *testing.T) {
	client := new(MockIdentityClient)
	handler := access.NewResendConfirmationHandler(client).WithLogger(silentLogger{})

	err := handler.Execute(context.Background(), access.ResendConfirmationMessage{})
	require.Error(t, err)
	client.AssertNotCalled(t, "ResendConfirmationEmail", mock.Anything, mock.Anything)
}

func TestResendConfirmationHandlerCancelledContext(t *testing.T) {
	client := new(MockIdentityClient)
	handler := access.NewResendConfirmationHandler(client).WithLogger(silentLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := handler.Execute(ctx, access.ResendConfirmationMessage{Email: "ada@example.com"})
	require.Error(t, err)
	client.AssertNotCalled(t, "ResendConfirmationEmail", mock.Anything, mock.Anything)
}
