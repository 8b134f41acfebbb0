package security_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secret-tech/aag-backend-go/internal/domain"
	"github.com/secret-tech/aag-backend-go/internal/security"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := security.NewTokenService("test-secret", time.Hour)

	token, err := svc.CreateForLogin("alice@example.com")
	require.NoError(t, err)

	result, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", result.Login)
}

func TestVerifyFailures(t *testing.T) {
	svc := security.NewTokenService("test-secret", time.Hour)

	t.Run("Garbage", func(t *testing.T) {
		_, err := svc.Verify("not-a-token")
		assert.ErrorIs(t, err, domain.ErrAuthenticationFailed)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		other := security.NewTokenService("other-secret", time.Hour)
		token, err := other.CreateForLogin("alice@example.com")
		require.NoError(t, err)

		_, err = svc.Verify(token)
		assert.ErrorIs(t, err, domain.ErrAuthenticationFailed)
	})

	t.Run("Expired", func(t *testing.T) {
		short := security.NewTokenService("test-secret", -time.Minute)
		token, err := short.CreateForLogin("alice@example.com")
		require.NoError(t, err)

		_, err = svc.Verify(token)
		assert.ErrorIs(t, err, domain.ErrAuthenticationFailed)
	})
}
