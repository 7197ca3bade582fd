package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"quizbot/internal/llm"
)

type Config struct {
	// Ops HTTP server
	Port string
	Env  string

	// Discord
	DiscordToken   string
	DiscordGuildID string
	CommandGroup   string

	// Database
	DatabaseURL   string
	MigrationsDir string

	// Redis
	RedisURL string

	// Language model
	LLM              llm.Config
	LLMTimeout       time.Duration
	ResponseLanguage string

	// Per-user command rate limit
	CommandRateLimit  int
	CommandRateWindow time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:              getEnvOrDefault("PORT", "8080"),
		Env:               getEnvOrDefault("ENV", "development"),
		DiscordToken:      mustGetEnv("DISCORD_TOKEN"),
		DiscordGuildID:    getEnvOrDefault("DISCORD_GUILD_ID", ""),
		CommandGroup:      getEnvOrDefault("COMMAND_GROUP", "ilham"),
		DatabaseURL:       mustGetEnv("DATABASE_URL"),
		MigrationsDir:     getEnvOrDefault("MIGRATIONS_DIR", "migrations"),
		RedisURL:          mustGetEnv("REDIS_URL"),
		LLM:               loadLLM(),
		LLMTimeout:        time.Duration(getEnvAsIntOrDefault("LLM_TIMEOUT_SECONDS", 60)) * time.Second,
		ResponseLanguage:  getEnvOrDefault("RESPONSE_LANGUAGE", "Indonesian"),
		CommandRateLimit:  getEnvAsIntOrDefault("COMMAND_RATE_LIMIT", 10),
		CommandRateWindow: time.Duration(getEnvAsIntOrDefault("COMMAND_RATE_WINDOW_SECONDS", 60)) * time.Second,
	}

	return cfg
}

func loadLLM() llm.Config {
	c := llm.DefaultConfig()

	c.Provider = getEnvOrDefault("LLM_PROVIDER", c.Provider)

	c.Groq.APIKey = os.Getenv("GROQ_API_KEY")
	c.Groq.Model = getEnvOrDefault("GROQ_MODEL", c.Groq.Model)

	c.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	c.OpenAI.Model = getEnvOrDefault("OPENAI_MODEL", c.OpenAI.Model)
	c.OpenAI.BaseURL = os.Getenv("OPENAI_BASE_URL")

	c.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	c.Gemini.Model = getEnvOrDefault("GEMINI_MODEL", c.Gemini.Model)

	c.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	c.Anthropic.Model = getEnvOrDefault("ANTHROPIC_MODEL", c.Anthropic.Model)

	c.ConcurrentRequests = getEnvAsIntOrDefault("LLM_CONCURRENT_REQUESTS", c.ConcurrentRequests)
	c.Retry.MaxAttempts = getEnvAsIntOrDefault("LLM_MAX_ATTEMPTS", c.Retry.MaxAttempts)

	return c
}

// Validate reports settings that are present but unusable.
func (c *Config) Validate() error {
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	if c.CommandRateLimit < 1 {
		return fmt.Errorf("COMMAND_RATE_LIMIT must be positive, got %d", c.CommandRateLimit)
	}
	if c.CommandRateWindow <= 0 {
		return fmt.Errorf("COMMAND_RATE_WINDOW_SECONDS must be positive")
	}
	return nil
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// LoadDatabase reads only what the migrate command needs.
func LoadDatabase() (databaseURL, migrationsDir string) {
	godotenv.Load()
	return mustGetEnv("DATABASE_URL"), getEnvOrDefault("MIGRATIONS_DIR", "migrations")
}
