package access_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/goliatone/go-access"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrorCodes(t *testing.T) {
	assert.Equal(t, access.TextCodeExchangeFailed, access.ErrExchangeFailed.TextCode)
	assert.Equal(t, goerrors.CategoryAuth, access.ErrExchangeFailed.Category)

	assert.Equal(t, access.TextCodeSessionInvalid, access.ErrSessionInvalid.TextCode)

	assert.Equal(t, access.TextCodePermissionDenied, access.ErrPermissionDenied.TextCode)
	assert.Equal(t, goerrors.CategoryAuthz, access.ErrPermissionDenied.Category)

	assert.Equal(t, access.TextCodeUnknownFlag, access.ErrUnknownPermissionFlag.TextCode)
}

func TestExchangeErrorMessage(t *testing.T) {
	assert.Equal(t, "fetch failed", access.NewTransientExchangeError("fetch failed", nil).Error())
	assert.Equal(t, "invalid code", access.NewTerminalExchangeError("invalid code", nil).Error())

	withCode := &access.ExchangeError{Code: "invalid_grant"}
	assert.Equal(t, "exchange failed: invalid_grant", withCode.Error())

	wrapped := &access.ExchangeError{Err: errors.New("conn refused")}
	assert.Equal(t, "exchange failed: conn refused", wrapped.Error())

	assert.Equal(t, "exchange failed", (&access.ExchangeError{}).Error())
}

func TestExchangeErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: i/o timeout")
	err := access.NewTransientExchangeError("fetch failed", cause)

	assert.True(t, errors.Is(err, cause))
}

func TestIsTransientExchangeError(t *testing.T) {
	assert.True(t, access.IsTransientExchangeError(access.NewTransientExchangeError("timeout", nil)))
	assert.False(t, access.IsTransientExchangeError(access.NewTerminalExchangeError("expired", nil)))
	assert.False(t, access.IsTransientExchangeError(errors.New("plain error")))
	assert.False(t, access.IsTransientExchangeError(nil))
}

func TestIsTransientExchangeErrorSeesThroughWrapping(t *testing.T) {
	inner := access.NewTransientExchangeError("timeout", nil)
	wrapped := fmt.Errorf("calling identity provider: %w", inner)

	assert.True(t, access.IsTransientExchangeError(wrapped))
}

func TestExchangeErrorMetadata(t *testing.T) {
	err := &access.ExchangeError{
		Operation: "exchange_code",
		Status:    503,
		Code:      "unavailable",
		Transient: true,
	}

	meta := err.Metadata()
	require.NotNil(t, meta)
	assert.Equal(t, true, meta["transient"])
	assert.Equal(t, "exchange_code", meta["operation"])
	assert.Equal(t, 503, meta["status"])
	assert.Equal(t, "unavailable", meta["code"])
}
