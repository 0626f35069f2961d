package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", testSecret)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "HS256", cfg.JWT.Algorithm)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessExpiry)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshExpiry)
	assert.Equal(t, 12*time.Hour, cfg.JWT.RevocationTTL)
	assert.Equal(t, []string{"admin"}, cfg.Auth.AdminRoles)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", testSecret)
	t.Setenv("JWT_ALGORITHM", "HS512")
	t.Setenv("JWT_ACCESS_EXPIRY", "5m")
	t.Setenv("REVOCATION_TTL", "1h")
	t.Setenv("ADMIN_ROLES", "admin, owner ,,")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "HS512", cfg.JWT.Algorithm)
	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessExpiry)
	assert.Equal(t, time.Hour, cfg.JWT.RevocationTTL)
	assert.Equal(t, []string{"admin", "owner"}, cfg.Auth.AdminRoles)
	assert.Equal(t, 3, cfg.Redis.DB)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"JWT_SECRET_KEY": ""}},
		{"short secret", map[string]string{"JWT_SECRET_KEY": "too-short"}},
		{"asymmetric algorithm", map[string]string{"JWT_SECRET_KEY": testSecret, "JWT_ALGORITHM": "RS256"}},
		{"refresh not longer than access", map[string]string{
			"JWT_SECRET_KEY":     testSecret,
			"JWT_ACCESS_EXPIRY":  "1h",
			"JWT_REFRESH_EXPIRY": "30m",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
		})
	}
}
