package access

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeExchangeTransient = "access_exchange_transient"
	TextCodeExchangeFailed    = "access_exchange_failed"
	TextCodeSessionInvalid    = "access_session_invalid"
	TextCodePermissionDenied  = "access_permission_denied"
	TextCodeUnknownFlag       = "access_unknown_permission_flag"
	TextCodeProfileNotFound   = "access_profile_not_found"
	TextCodeGrantNotFound     = "access_grant_not_found"
)

// ErrExchangeFailed is returned when the code exchange fails terminally or
// after retries for transient failures are exhausted.
var ErrExchangeFailed = goerrors.New("code exchange failed", goerrors.CategoryAuth).
	WithTextCode(TextCodeExchangeFailed).
	WithCode(goerrors.CodeUnauthorized)

// ErrSessionInvalid is returned when the exchanged access token cannot be
// validated or carries no usable subject.
var ErrSessionInvalid = goerrors.New("invalid session token", goerrors.CategoryAuth).
	WithTextCode(TextCodeSessionInvalid).
	WithCode(goerrors.CodeUnauthorized)

// ErrPermissionDenied is raised by RequirePermission and RequireAdmin. Callers
// must treat it as a hard stop before any mutation proceeds.
var ErrPermissionDenied = goerrors.New("permission denied", goerrors.CategoryAuthz).
	WithTextCode(TextCodePermissionDenied).
	WithCode(goerrors.CodeForbidden)

// ErrUnknownPermissionFlag is returned for a flag name outside the closed set.
var ErrUnknownPermissionFlag = goerrors.New("unknown permission flag", goerrors.CategoryBadInput).
	WithTextCode(TextCodeUnknownFlag).
	WithCode(goerrors.CodeBadRequest)

// permissionDenied attaches per-request metadata to a copy of the sentinel so
// concurrent denials never write to the shared instance.
func permissionDenied(meta map[string]any) error {
	clone := ErrPermissionDenied.Clone()
	if clone == nil {
		return ErrPermissionDenied
	}
	return clone.WithMetadata(meta)
}

func unknownPermissionFlag(flag PermissionFlag) error {
	clone := ErrUnknownPermissionFlag.Clone()
	if clone == nil {
		return ErrUnknownPermissionFlag
	}
	return clone.WithMetadata(map[string]any{"flag": flag})
}

// ExchangeError captures normalized identity-exchange failure details. The
// Transient flag is the classification contract: transports set it for
// network-layer faults, everything else (invalid or expired codes) stays
// terminal.
type ExchangeError struct {
	Operation string
	Status    int
	Code      string
	Message   string
	Transient bool
	Err       error
}

func (e *ExchangeError) Error() string {
	if e == nil {
		return "exchange error"
	}

	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return fmt.Sprintf("exchange failed: %s", e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("exchange failed: %v", e.Err)
	}

	return "exchange failed"
}

func (e *ExchangeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *ExchangeError) Metadata() map[string]any {
	if e == nil {
		return nil
	}

	meta := map[string]any{"transient": e.Transient}
	if e.Operation != "" {
		meta["operation"] = e.Operation
	}
	if e.Status != 0 {
		meta["status"] = e.Status
	}
	if e.Code != "" {
		meta["code"] = e.Code
	}

	return meta
}

// NewTransientExchangeError builds an exchange failure that the coordinator
// will retry.
func NewTransientExchangeError(message string, err error) *ExchangeError {
	return &ExchangeError{
		Operation: "exchange_code",
		Message:   message,
		Transient: true,
		Err:       err,
	}
}

// NewTerminalExchangeError builds an exchange failure that aborts immediately.
func NewTerminalExchangeError(message string, err error) *ExchangeError {
	return &ExchangeError{
		Operation: "exchange_code",
		Message:   message,
		Err:       err,
	}
}

// IsTransientExchangeError reports whether err carries the transient
// classification. Unclassified errors are terminal.
func IsTransientExchangeError(err error) bool {
	var xerr *ExchangeError
	if errors.As(err, &xerr) && xerr != nil {
		return xerr.Transient
	}
	return false
}

// redirectErrorMessage extracts the human-readable message carried on the
// redirect's error parameter.
func redirectErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var xerr *ExchangeError
	if errors.As(err, &xerr) && xerr != nil {
		return xerr.Error()
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.Message
	}

	return err.Error()
}
