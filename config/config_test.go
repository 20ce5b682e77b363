package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_TYPE", "memory")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "memory", cfg.UserStore)
	assert.Equal(t, 5*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 30, cfg.DocumentExpiryDays)
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.StorageConfigured())
}

func TestLoadConfig_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_PostgresUserStoreNeedsURL(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("USER_STORE", "postgres")
	t.Setenv("POSTGRES_URL", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}
