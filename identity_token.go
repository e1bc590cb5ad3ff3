package access

import (
	"fmt"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// SessionClaims are the claims this package reads from the exchanged access
// token. Everything else on the token stays opaque.
type SessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// UserUUID resolves the token subject to a profile id. Providers whose
// subjects are not UUIDs get a deterministic hashid-derived one, matching how
// profile rows are keyed at signup.
func (c *SessionClaims) UserUUID() (uuid.UUID, error) {
	subject := c.RegisteredClaims.Subject
	if subject == "" {
		return uuid.Nil, ErrSessionInvalid
	}

	if id, err := uuid.Parse(subject); err == nil {
		return id, nil
	}

	return hashid.NewUUID(subject)
}

// TokenValidator validates exchanged access tokens and extracts session
// claims without tying callers to a specific key source.
type TokenValidator interface {
	Validate(tokenString string) (*SessionClaims, error)
}

// TokenValidatorFunc adapts a function into a TokenValidator.
type TokenValidatorFunc func(tokenString string) (*SessionClaims, error)

// Validate satisfies the TokenValidator interface.
func (f TokenValidatorFunc) Validate(tokenString string) (*SessionClaims, error) {
	if f == nil {
		return nil, ErrSessionInvalid
	}
	return f(tokenString)
}

// RemoteTokenValidator validates tokens against the identity provider's JWK
// sets.
type RemoteTokenValidator struct {
	keyFunc jwt.Keyfunc
	logger  Logger
}

// NewRemoteTokenValidator fetches the JWK sets and keeps them refreshed in the
// background.
func NewRemoteTokenValidator(jwkSetURLs []string, logger Logger) (*RemoteTokenValidator, error) {
	if logger == nil {
		logger = defLogger{}
	}

	if len(jwkSetURLs) == 0 {
		return nil, fmt.Errorf("at least one JWK set URL is required")
	}

	opts := keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			logger.Warn("failed to do a background refresh of JWK set: %v", err)
		},
	}

	m := make(map[string]keyfunc.Options, len(jwkSetURLs))
	for _, u := range jwkSetURLs {
		m[u] = opts
	}

	multi, err := keyfunc.GetMultiple(m, keyfunc.MultipleOptions{
		KeySelector: keyfunc.KeySelectorFirst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get JWK set URLs: %w", err)
	}

	return &RemoteTokenValidator{
		keyFunc: multi.Keyfunc,
		logger:  logger,
	}, nil
}

// Validate satisfies the TokenValidator interface.
func (v *RemoteTokenValidator) Validate(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, v.keyFunc)
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, ErrSessionInvalid
	}

	return claims, nil
}

var _ TokenValidator = (*RemoteTokenValidator)(nil)
