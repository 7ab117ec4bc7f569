package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashingRoundTrip(t *testing.T) {
	u := &User{}
	require.NoError(t, u.SetPassword("pass1234"))

	assert.NotEqual(t, "pass1234", u.Password)
	assert.True(t, u.CheckPassword("pass1234"))
	assert.False(t, u.CheckPassword("wrong-password"))
}

func TestHasChangedPasswordAfter(t *testing.T) {
	issuedAt := time.Now()

	u := &User{}
	assert.False(t, u.HasChangedPasswordAfter(issuedAt), "never-changed password cannot invalidate tokens")

	u.PasswordChangedAt = issuedAt.Add(-time.Hour)
	assert.False(t, u.HasChangedPasswordAfter(issuedAt), "change before issue keeps the token valid")

	u.PasswordChangedAt = issuedAt.Add(time.Hour)
	assert.True(t, u.HasChangedPasswordAfter(issuedAt), "change after issue invalidates the token")
}

func TestNewPasswordResetToken(t *testing.T) {
	u := &User{}

	token, err := u.NewPasswordResetToken()
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// only the hash is stored
	assert.NotEqual(t, token, u.PasswordResetToken)
	assert.Equal(t, HashResetToken(token), u.PasswordResetToken)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), u.PasswordResetExpires, time.Minute)

	// tokens are single-use and unique per request
	second, err := u.NewPasswordResetToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, second)
}
