package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"coursepilot-documents"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// TermStart anchors the conductor's week arithmetic. Format: 2006-01-02.
	TermStart string `envconfig:"TERM_START"`
	// DemoWeek overrides the computed week when positive (demo installs).
	DemoWeek int `envconfig:"DEMO_WEEK" default:"0"`
	// ConductorInterval is how often the background conductor sweep runs.
	ConductorInterval time.Duration `envconfig:"CONDUCTOR_INTERVAL" default:"1h"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("COURSEPILOT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasSentry() bool {
	return c.SentryDSN != ""
}

// TermStartTime parses TermStart, falling back to the given default when
// unset or malformed.
func (c *Config) TermStartTime(fallback time.Time) time.Time {
	if c.TermStart == "" {
		return fallback
	}
	t, err := time.Parse("2006-01-02", c.TermStart)
	if err != nil {
		log.Printf("invalid COURSEPILOT_TERM_START %q, using fallback: %v", c.TermStart, err)
		return fallback
	}
	return t
}
