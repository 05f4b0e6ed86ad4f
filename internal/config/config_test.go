package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_Defaults(t *testing.T) {
	cfg := New()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "bantayani", cfg.PostgresCfg.DBname)
	assert.Equal(t, "detection-images", cfg.MinioCfg.ImageBucket)
	assert.Equal(t, 24*time.Hour, cfg.JWTCfg.SessionTTL)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("GEMINI_KEYS", "k1, k2 ,,k3")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("REDIS_DB", "3")

	cfg := New()

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, []string{"k1", "k2", "k3"}, cfg.GeminiAPICfg.APIKeys)
	assert.Equal(t, 2*time.Hour, cfg.JWTCfg.SessionTTL)
	assert.Equal(t, 3, cfg.RedisCfg.DB)
}

func TestNew_FallsBackToSingleGeminiKey(t *testing.T) {
	t.Setenv("GEMINI_KEY", "solo")

	cfg := New()

	assert.Equal(t, []string{"solo"}, cfg.GeminiAPICfg.APIKeys)
}

func TestNewNotifier_BadIntUsesDefault(t *testing.T) {
	t.Setenv("NOTIFIER_WORKERS", "many")

	cfg := NewNotifier()

	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 587, cfg.EmailCfg.Port)
}
