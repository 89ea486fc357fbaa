package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Server.Addr)
		assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
		assert.Equal(t, 15*time.Minute, cfg.Auth.RegistrationTTL)
		assert.True(t, cfg.People.PropagateToSiblings)
		assert.Equal(t, "mugs", cfg.Mongo.Database)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("MUGS_ADDR", ":9090")
		t.Setenv("TOKEN_TTL", "30m")
		t.Setenv("PROPAGATE_TO_SIBLINGS", "false")
		t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, ":9090", cfg.Server.Addr)
		assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
		assert.False(t, cfg.People.PropagateToSiblings)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	})

	t.Run("registration tokens must expire", func(t *testing.T) {
		t.Setenv("REGISTRATION_TOKEN_TTL", "0s")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("invalid bcrypt cost", func(t *testing.T) {
		t.Setenv("BCRYPT_COST", "2")
		_, err := Load()
		assert.Error(t, err)
	})
}
