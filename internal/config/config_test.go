package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("API_TIMEOUT", "")
	t.Setenv("SESSION_STORE", "")

	cfg := Load()

	assert.Equal(t, "http://localhost:5000/api", cfg.APIBaseURL)
	assert.Equal(t, 10*time.Second, cfg.APITimeout)
	assert.Equal(t, "cookie", cfg.SessionStore)
	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://tasks.example.com/api/")
	t.Setenv("API_TIMEOUT", "3")
	t.Setenv("BOARD_IDLE_TTL", "5m")
	t.Setenv("SESSION_MAX_AGE", "not-a-number")
	t.Setenv("GIN_MODE", "release")

	cfg := Load()

	assert.Equal(t, "https://tasks.example.com/api", cfg.APIBaseURL)
	assert.Equal(t, 3*time.Second, cfg.APITimeout)
	assert.Equal(t, 5*time.Minute, cfg.BoardIdleTTL)
	assert.Equal(t, 86400*7, cfg.SessionMaxAge)
	assert.True(t, cfg.IsProduction())
}
