package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/phillip/tour-booking-go/config"
)

func testConfig(validity time.Duration) *config.Config {
	return &config.Config{
		JWTSecret:   "test-secret",
		JWTValidity: validity,
	}
}

func TestSignAndVerifyToken(t *testing.T) {
	cfg := testConfig(time.Hour)

	token, err := SignToken(cfg, "64f0c2a1b3e4d5f60718293a")
	require.NoError(t, err)

	claims, err := VerifyToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, "64f0c2a1b3e4d5f60718293a", claims.UserID)
	require.NotNil(t, claims.IssuedAt)
	assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, time.Minute)
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	token, err := SignToken(testConfig(time.Hour), "64f0c2a1b3e4d5f60718293a")
	require.NoError(t, err)

	other := &config.Config{JWTSecret: "another-secret", JWTValidity: time.Hour}
	_, err = VerifyToken(other, token)
	assert.Error(t, err)
}

func TestVerifyTokenExpired(t *testing.T) {
	cfg := testConfig(-time.Hour)

	token, err := SignToken(cfg, "64f0c2a1b3e4d5f60718293a")
	require.NoError(t, err)

	_, err = VerifyToken(cfg, token)
	assert.Error(t, err)
}

func TestVerifyTokenGarbage(t *testing.T) {
	_, err := VerifyToken(testConfig(time.Hour), "not-a-token")
	assert.Error(t, err)
}
