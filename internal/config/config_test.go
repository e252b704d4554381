package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "0", cfg.InitialMintAmount)
	assert.NotEmpty(t, cfg.PhoneHashSalt)
	assert.Greater(t, cfg.BcryptCost, 0)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("INITIAL_MINT_AMOUNT", "1000000000000000000000000")
	t.Setenv("BCRYPT_COST", "12")
	t.Setenv("RATE_LIMIT_RPS", "5.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, "1000000000000000000000000", cfg.InitialMintAmount)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, 5.5, cfg.RateLimitRPS)
}

func TestLoad_BadNumbersFallBack(t *testing.T) {
	t.Setenv("BCRYPT_COST", "not-a-number")
	t.Setenv("RATE_LIMIT_BURST", "also-bad")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Greater(t, cfg.BcryptCost, 0)
	assert.Equal(t, 100, cfg.RateLimitBurst)
}
