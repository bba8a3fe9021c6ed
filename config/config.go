package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr      string
	DatabaseURL   string
	SessionDBPath string
	LogFile       string
	LogLevel      string
	SeedTypesPath string
	S3            S3Config
	Redis         RedisConfig
	Auth          AuthConfig
	Drafts        DraftConfig
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // Optional: for DO Spaces, R2, MinIO
	AccessKeyID     string
	SecretAccessKey string
}

type RedisConfig struct {
	Addr     string
	Password string
	TTL      time.Duration
}

type AuthConfig struct {
	JWTSecret string
	Expiry    time.Duration
}

type DraftConfig struct {
	TTL              time.Duration
	SweepCron        string
	MaxRegistrations int
}

// SeedTypes is the shape of config/property_types.yaml.
type SeedTypes struct {
	PropertyTypes []string `yaml:"property_types"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		SessionDBPath: getEnv("SESSION_DB_PATH", "session.db"),
		LogFile:       getEnv("LOG_FILE", "estate_hub.log"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		SeedTypesPath: getEnv("SEED_TYPES_PATH", "config/property_types.yaml"),
		S3: S3Config{
			Bucket:          os.Getenv("S3_BUCKET"),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			TTL:      getEnvDuration("CACHE_TTL", 2*time.Minute),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
			Expiry:    time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
		},
		Drafts: DraftConfig{
			TTL:              getEnvDuration("DRAFT_TTL", 30*time.Minute),
			SweepCron:        getEnv("SWEEP_CRON", "*/5 * * * *"),
			MaxRegistrations: getEnvInt("DRAFT_MAX_REGISTRATIONS", 1000),
		},
	}

	return cfg, nil
}

// RequireSecret checks the settings needed to issue or verify session tokens.
func (c *Config) RequireSecret() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

// RequireBackend checks the settings needed to reach the remote backend.
// Commands that only touch the local session store skip it.
func (c *Config) RequireBackend() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return c.RequireSecret()
}

// LoadSeedTypes reads the default property type names. A missing file yields no seeds.
func LoadSeedTypes(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var seeds SeedTypes
	if err := yaml.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return seeds.PropertyTypes, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
