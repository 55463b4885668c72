package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultAPIURL is the local development address of the platform API.
const DefaultAPIURL = "http://localhost:8081/api"

// Token store backends.
const (
	TokenStoreAuto     = "auto"
	TokenStoreMemory   = "memory"
	TokenStoreSQLite   = "sqlite"
	TokenStorePostgres = "postgres"
)

// Config captures the runtime configuration for the CodeNest client.
type Config struct {
	APIURL      string        `yaml:"apiUrl"`
	HTTPTimeout time.Duration `yaml:"httpTimeout"`
	RateLimit   int           `yaml:"rateLimit"`
	RateBurst   int           `yaml:"rateBurst"`
	LogLevel    string        `yaml:"logLevel"`
	LogFormat   string        `yaml:"logFormat"`

	TokenStore TokenStoreConfig  `yaml:"tokenStore"`
	Avatars    ObjectStoreConfig `yaml:"avatars"`
	MockServer MockServerConfig  `yaml:"mockServer"`
}

// TokenStoreConfig selects where the access/refresh pair is persisted.
type TokenStoreConfig struct {
	Backend      string `yaml:"backend"`
	Path         string `yaml:"path"`
	DatabaseURL  string `yaml:"databaseUrl"`
	Profile      string `yaml:"profile"`
	MigrationDir string `yaml:"migrationDir"`
}

// ObjectStoreConfig describes the S3-compatible bucket used for avatar uploads.
type ObjectStoreConfig struct {
	Bucket        string `yaml:"bucket"`
	Endpoint      string `yaml:"endpoint"`
	Region        string `yaml:"region"`
	PublicBaseURL string `yaml:"publicBaseUrl"`
}

// MockServerConfig controls the local mock backend.
type MockServerConfig struct {
	Port       int           `yaml:"port"`
	AccessTTL  time.Duration `yaml:"accessTtl"`
	RefreshTTL time.Duration `yaml:"refreshTtl"`
}

// Load reads configuration from an optional .env file, an optional YAML file named by
// CODENEST_CONFIG and environment variables, in increasing order of precedence.
func Load() (Config, error) {
	return LoadFile(os.Getenv("CODENEST_CONFIG"))
}

// LoadFile is Load with an explicit YAML path. An empty path skips the file.
func LoadFile(path string) (Config, error) {
	_ = godotenv.Load()

	var file Config
	if path != "" {
		loaded, err := loadFile(path)
		if err != nil {
			return Config{}, err
		}
		file = loaded
	}

	cfg := Config{
		APIURL:      getString("CODENEST_API_URL", getString("EXPO_PUBLIC_API_URL", orString(file.APIURL, DefaultAPIURL))),
		HTTPTimeout: getDuration("CODENEST_HTTP_TIMEOUT", file.HTTPTimeout),
		RateLimit:   getInt("CODENEST_RATE_LIMIT", file.RateLimit),
		RateBurst:   getInt("CODENEST_RATE_BURST", orInt(file.RateBurst, 1)),
		LogLevel:    getString("CODENEST_LOG_LEVEL", orString(file.LogLevel, "warn")),
		LogFormat:   getString("CODENEST_LOG_FORMAT", orString(file.LogFormat, "text")),
		TokenStore: TokenStoreConfig{
			Backend:      getString("CODENEST_TOKEN_STORE", orString(file.TokenStore.Backend, TokenStoreAuto)),
			Path:         getString("CODENEST_TOKEN_PATH", orString(file.TokenStore.Path, defaultTokenPath())),
			DatabaseURL:  getString("CODENEST_DATABASE_URL", file.TokenStore.DatabaseURL),
			Profile:      getString("CODENEST_TOKEN_PROFILE", orString(file.TokenStore.Profile, "default")),
			MigrationDir: getString("CODENEST_MIGRATIONS", file.TokenStore.MigrationDir),
		},
		Avatars: ObjectStoreConfig{
			Bucket:        getString("CODENEST_AVATAR_BUCKET", file.Avatars.Bucket),
			Endpoint:      getString("CODENEST_AVATAR_ENDPOINT", file.Avatars.Endpoint),
			Region:        getString("CODENEST_AVATAR_REGION", orString(file.Avatars.Region, "us-east-1")),
			PublicBaseURL: getString("CODENEST_AVATAR_PUBLIC_URL", file.Avatars.PublicBaseURL),
		},
		MockServer: MockServerConfig{
			Port:       getInt("CODENEST_MOCK_PORT", orInt(file.MockServer.Port, 8081)),
			AccessTTL:  getDuration("CODENEST_MOCK_ACCESS_TTL", orDuration(file.MockServer.AccessTTL, 15*time.Minute)),
			RefreshTTL: getDuration("CODENEST_MOCK_REFRESH_TTL", orDuration(file.MockServer.RefreshTTL, 7*24*time.Hour)),
		},
	}

	return cfg, nil
}

func loadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal yaml: %w", err)
	}
	return cfg, nil
}

func defaultTokenPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "codenest-tokens.db"
	}
	return filepath.Join(dir, "codenest", "tokens.db")
}

func getString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func orString(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func orInt(value, fallback int) int {
	if value != 0 {
		return value
	}
	return fallback
}

func orDuration(value, fallback time.Duration) time.Duration {
	if value != 0 {
		return value
	}
	return fallback
}
