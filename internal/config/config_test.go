package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProfile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "generation.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadGenerationProfile_MissingFileUsesDefaults(t *testing.T) {
	profile, err := LoadGenerationProfile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultGenerationProfile(), profile)
}

func TestLoadGenerationProfile_OverridesDefaults(t *testing.T) {
	path := writeProfile(t, "model: llama-3.1-8b-instant\nsystem_instruction: Be concise.\n")

	profile, err := LoadGenerationProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "llama-3.1-8b-instant", profile.Model)
	assert.Equal(t, "Be concise.", profile.SystemInstruction)
	assert.Equal(t, 4096, profile.MaxTokens)
	assert.InDelta(t, 0.5, profile.Temperature, 0.0001)
}

func TestLoadGenerationProfile_Invalid(t *testing.T) {
	_, err := LoadGenerationProfile(writeProfile(t, "temperature: 5\n"))
	assert.Error(t, err)

	_, err = LoadGenerationProfile(writeProfile(t, "model: [unterminated\n"))
	assert.Error(t, err)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("GENERATION_PROFILE_PATH", writeProfile(t, "model: from-profile\n"))
	t.Setenv("AI_MODEL", "")
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("DRAFT_CACHE_TTL", "")
	os.Unsetenv("DRAFT_CACHE_TTL")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 720*time.Hour, cfg.DraftCacheTTL)
	assert.Equal(t, "gsk_test", cfg.AI.APIKey)
	assert.Equal(t, "from-profile", cfg.AI.Model)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvModelOverridesProfile(t *testing.T) {
	t.Setenv("GENERATION_PROFILE_PATH", writeProfile(t, "model: from-profile\n"))
	t.Setenv("AI_MODEL", "from-env")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Generation.Model)
	assert.Equal(t, "from-env", cfg.AI.Model)
}

func TestLoad_ProductionRequiresSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "short")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("CORS_ALLOWED_ORIGINS", "https://grants.example.org, https://app.example.org")
	t.Setenv("GENERATION_PROFILE_PATH", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://grants.example.org", "https://app.example.org"}, cfg.AllowedOrigins)
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("GENERATION_PROFILE_PATH", "")
	t.Setenv("DRAFT_CACHE_TTL", "forever")

	_, err := Load()
	assert.Error(t, err)
}
