package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(env(nil))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, BackendMemory, cfg.ChallengeBackend)
	assert.Equal(t, BackendMemory, cfg.UserBackend)
	assert.Equal(t, 5*time.Minute, cfg.ChallengeTTL)
	assert.Equal(t, 5*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 5*24*time.Hour, cfg.RefreshTTL)
	assert.Equal(t, HasherBcrypt, cfg.PasswordHasher)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.False(t, cfg.EventsEnabled)
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"HTTP_ADDR":         ":8080",
		"CHALLENGE_BACKEND": "Redis",
		"REDIS_URL":         "redis://localhost:6379/0",
		"USER_BACKEND":      "postgres",
		"DATABASE_URL":      "postgres://localhost/auth",
		"CHALLENGE_TTL":     "90s",
		"PASSWORD_HASHER":   "argon2id",
		"EVENTS_ENABLED":    "true",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, BackendRedis, cfg.ChallengeBackend)
	assert.Equal(t, BackendPostgres, cfg.UserBackend)
	assert.Equal(t, 90*time.Second, cfg.ChallengeTTL)
	assert.Equal(t, HasherArgon2id, cfg.PasswordHasher)
	assert.True(t, cfg.EventsEnabled)
}

func TestFromEnvInvalid(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
		want string
	}{
		{"bad duration", map[string]string{"ACCESS_TTL": "soon"}, "ACCESS_TTL"},
		{"negative ttl", map[string]string{"CHALLENGE_TTL": "-1m"}, "CHALLENGE_TTL must be positive"},
		{"bad cost", map[string]string{"BCRYPT_COST": "twelve"}, "BCRYPT_COST"},
		{"unknown backend", map[string]string{"CHALLENGE_BACKEND": "etcd"}, "CHALLENGE_BACKEND"},
		{"redis without url", map[string]string{"CHALLENGE_BACKEND": "redis"}, "REDIS_URL is required"},
		{"postgres without url", map[string]string{"USER_BACKEND": "postgres"}, "DATABASE_URL is required"},
		{"unknown hasher", map[string]string{"PASSWORD_HASHER": "md5"}, "PASSWORD_HASHER"},
		{"events without redis", map[string]string{"EVENTS_ENABLED": "1"}, "EVENTS_ENABLED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(env(tt.vars))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
