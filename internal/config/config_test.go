package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DATABASE_URI", "")
	t.Setenv("MONGO_URI", "")
	t.Setenv("REDIS_URL", "")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "localhost:3000", cfg.RunAddress)
	assert.Equal(t, defaultDatabaseURI, cfg.DatabaseURI)
	assert.Equal(t, "bookshelf", cfg.MongoDatabase)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.LoanPeriod())
	assert.Equal(t, 5, cfg.LoginBurst)
	assert.Empty(t, cfg.RedisURL)
	assert.False(t, cfg.IsProduction())
}

func TestLoadEnvAndFlags(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("RUN_ADDRESS", ":9000")
	t.Setenv("APP_ENV", "production")
	t.Setenv("TOKEN_TTL", "15m")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")

	cfg, err := Load([]string{"-s", "from-flag", "-r", "redis://localhost:6379/0"})
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.RunAddress)
	assert.Equal(t, "from-flag", cfg.JWTSecret)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, "mongodb://localhost:27017", cfg.DatabaseURI)
	assert.Equal(t, 15*time.Minute, cfg.TokenTTL)
	assert.True(t, cfg.IsProduction())
}

func TestLoadDatabaseURIWinsOverMongoURI(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DATABASE_URI", "postgres://db/app")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres://db/app", cfg.DatabaseURI)
}

func TestLoadRejects(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		_, err := Load(nil)
		assert.Error(t, err)
	})

	t.Run("bad loan days", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("LOAN_DAYS", "0")
		_, err := Load(nil)
		assert.Error(t, err)
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("TOKEN_TTL", "soon")
		_, err := Load(nil)
		assert.Error(t, err)
	})

	t.Run("unknown flag", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s3cret")
		_, err := Load([]string{"-x"})
		assert.Error(t, err)
	})
}
