package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CODENEST_CONFIG", "CODENEST_API_URL", "EXPO_PUBLIC_API_URL", "CODENEST_HTTP_TIMEOUT",
		"CODENEST_RATE_LIMIT", "CODENEST_TOKEN_STORE", "CODENEST_TOKEN_PATH", "CODENEST_LOG_LEVEL",
		"CODENEST_MOCK_PORT", "CODENEST_MOCK_ACCESS_TTL",
	} {
		t.Setenv(key, "")
	}
	// godotenv.Load reads .env from the working directory.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, TokenStoreAuto, cfg.TokenStore.Backend)
	assert.NotEmpty(t, cfg.TokenStore.Path)
	assert.Zero(t, cfg.HTTPTimeout)
	assert.Equal(t, 8081, cfg.MockServer.Port)
	assert.Equal(t, 15*time.Minute, cfg.MockServer.AccessTTL)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("EXPO_PUBLIC_API_URL", "https://expo.example.com/api")
	t.Setenv("CODENEST_HTTP_TIMEOUT", "5s")
	t.Setenv("CODENEST_TOKEN_STORE", "memory")
	t.Setenv("CODENEST_RATE_LIMIT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://expo.example.com/api", cfg.APIURL)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, TokenStoreMemory, cfg.TokenStore.Backend)
	assert.Zero(t, cfg.RateLimit)

	t.Setenv("CODENEST_API_URL", "https://api.example.com")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.APIURL)
}

func TestLoadYAMLFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "codenest.yaml")
	contents := "apiUrl: https://yaml.example.com/api\nrateLimit: 4\ntokenStore:\n  backend: postgres\n  databaseUrl: postgres://localhost/tokens\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	t.Setenv("CODENEST_CONFIG", path)
	t.Setenv("CODENEST_RATE_LIMIT", "9")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://yaml.example.com/api", cfg.APIURL)
	assert.Equal(t, TokenStorePostgres, cfg.TokenStore.Backend)
	assert.Equal(t, "postgres://localhost/tokens", cfg.TokenStore.DatabaseURL)
	assert.Equal(t, 9, cfg.RateLimit)
}

func TestLoadMissingYAMLFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CODENEST_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	require.Error(t, err)
}

func TestLoadFileIgnoresConfigVariable(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "explicit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("apiUrl: https://explicit.example.com/api\n"), 0o600))
	t.Setenv("CODENEST_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://explicit.example.com/api", cfg.APIURL)

	cfg, err = LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
}

func TestLoadReadsDotEnvOnce(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.WriteFile(".env", []byte("CODENEST_TOKEN_PROFILE=from-dotenv\n"), 0o600))

	t.Setenv("CODENEST_TOKEN_PROFILE", "")
	require.NoError(t, os.Unsetenv("CODENEST_TOKEN_PROFILE"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.TokenStore.Profile)

	cfg, err = LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.TokenStore.Profile)
}
