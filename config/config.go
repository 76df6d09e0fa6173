package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Env  string `env:"GO_ENV" envDefault:"production"`
	Port string `env:"PORT" envDefault:"8080"`

	MongoURI            string `env:"MONGO_URI,required"`
	MongoDB             string `env:"MONGO_DB" envDefault:"interviews"`
	MongoCollection     string `env:"MONGO_COLLECTION" envDefault:"interviews"`
	MongoForceTLSConfig bool   `env:"MONGO_FORCE_TLS_CONFIG" envDefault:"false"`
	MongoInsecureTLS    bool   `env:"MONGO_INSECURE_TLS" envDefault:"false"`

	PostgresURI string `env:"POSTGRES_URI"`
	RedisAddr   string `env:"REDIS_ADDR"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	JWTSecret           string            `env:"JWT_SECRET"`
	JWTTTL              time.Duration     `env:"JWT_TTL" envDefault:"2h"`
	RespondentPasswords map[string]string `env:"RESPONDENT_PASSWORDS"`
	DashboardPassword   string            `env:"DASHBOARD_PASSWORD"`
	RepeatableUsernames []string          `env:"REPEATABLE_USERNAMES" envDefault:"testaccount"`

	VertexProjectID    string  `env:"VERTEX_PROJECT_ID"`
	VertexLocation     string  `env:"VERTEX_LOCATION" envDefault:"us-central1"`
	LLMModel           string  `env:"LLM_MODEL" envDefault:"gemini-1.5-flash"`
	LLMTemperature     float32 `env:"LLM_TEMPERATURE" envDefault:"0.7"`
	LLMMaxOutputTokens int32   `env:"LLM_MAX_OUTPUT_TOKENS" envDefault:"1024"`
	SystemPromptFile   string  `env:"SYSTEM_PROMPT_FILE"`

	STTEnabled  bool   `env:"STT_ENABLED" envDefault:"false"`
	STTLanguage string `env:"STT_LANGUAGE" envDefault:"en-US"`

	ExportBucket string `env:"EXPORT_BUCKET"`

	WSAllowedOrigins []string `env:"WS_ALLOWED_ORIGINS"`

	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"2h"`
	DashboardCacheTTL  time.Duration `env:"DASHBOARD_CACHE_TTL" envDefault:"1m"`
}

// Load parses the process environment. Call godotenv.Load first to pick up a .env file.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.MongoURI == "" {
		return errors.New("MONGO_URI is required")
	}
	if c.MongoDB == "" || c.MongoCollection == "" {
		return errors.New("MONGO_DB and MONGO_COLLECTION must not be empty")
	}
	if c.LLMTemperature < 0 || c.LLMTemperature > 2 {
		return fmt.Errorf("LLM_TEMPERATURE must be between 0 and 2, got %v", c.LLMTemperature)
	}
	if c.SessionIdleTimeout <= 0 {
		return errors.New("SESSION_IDLE_TIMEOUT must be positive")
	}
	if c.DashboardCacheTTL < 0 {
		return errors.New("DASHBOARD_CACHE_TTL must not be negative")
	}
	return nil
}

// ValidateServer checks the settings only the HTTP server needs.
func (c *Config) ValidateServer() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.DashboardPassword == "" {
		return errors.New("DASHBOARD_PASSWORD is required")
	}
	if c.VertexProjectID == "" {
		return errors.New("VERTEX_PROJECT_ID is required")
	}
	return nil
}

func (c *Config) IsRepeatable(username string) bool {
	for _, u := range c.RepeatableUsernames {
		if u == username {
			return true
		}
	}
	return false
}
