package access

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type ResendConfirmationMessage struct {
	Email string `json:"email" example:"ada@example.com" doc:"Address the confirmation email is resent to"`
}

// ResendConfirmationHandler triggers the external confirmation-email resend.
// Callers treat failures as a non-fatal side effect.
type ResendConfirmationHandler struct {
	client IdentityClient
	logger Logger
}

// NewResendConfirmationHandler creates a handler with sane defaults.
func NewResendConfirmationHandler(client IdentityClient) *ResendConfirmationHandler {
	return &ResendConfirmationHandler{
		client: client,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *ResendConfirmationHandler) WithLogger(logger Logger) *ResendConfirmationHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ResendConfirmationHandler) Execute(ctx context.Context, event ResendConfirmationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during confirmation resend")
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResendConfirmationHandler) execute(ctx context.Context, event ResendConfirmationMessage) error {
	if event.Email == "" {
		return goerrors.New("resend requires an email address", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := h.client.ResendConfirmationEmail(ctx, event.Email); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "confirmation email resend failed")
	}

	return nil
}
