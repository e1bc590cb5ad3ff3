package access_test

import (
	"testing"

	"github.com/goliatone/go-access"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserUUIDParsesUUIDSubject(t *testing.T) {
	id := uuid.New()
	claims := &access.SessionClaims{}
	claims.Subject = id.String()

	got, err := claims.UserUUID()
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestUserUUIDDerivesStableIDFromOpaqueSubject(t *testing.T) {
	claims := &access.SessionClaims{}
	claims.Subject = "auth0|64fd2a1b8c"

	first, err := claims.UserUUID()
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, first)

	second, err := claims.UserUUID()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other := &access.SessionClaims{}
	other.Subject = "auth0|different"
	third, err := other.UserUUID()
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
}

func TestUserUUIDRejectsEmptySubject(t *testing.T) {
	claims := &access.SessionClaims{}

	_, err := claims.UserUUID()
	require.Error(t, err)
}

func TestTokenValidatorFunc(t *testing.T) {
	validator := staticValidator(uuid.NewString(), "ada@example.com")

	claims, err := validator.Validate("any-token")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", claims.Email)

	var nilValidator access.TokenValidatorFunc
	_, err = nilValidator.Validate("any-token")
	require.Error(t, err)
}

func TestNewRemoteTokenValidatorRequiresURLs(t *testing.T) {
	_, err := access.NewRemoteTokenValidator(nil, silentLogger{})
	require.Error(t, err)
}
