// Package config loads session credentials from .env and the environment.
package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the credentials and model selection for one client session.
type Config struct {
	GitHubToken string
	Provider    string
	Model       string
	GeminiKey   string
	GroqKey     string
}

// ConfigError reports a missing required credential. It is fatal and is
// raised before any network activity.
type ConfigError struct {
	Missing string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s is not set", e.Missing)
}

// Load reads .env (if present) and then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment. The model-provider
// credential is required; the GitHub token only degrades rate limits.
func FromEnv() (*Config, error) {
	cfg := &Config{
		GitHubToken: os.Getenv("GITHUB_TOKEN"),
		Provider:    strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER"))),
		Model:       strings.TrimSpace(os.Getenv("LLM_MODEL")),
		GeminiKey:   os.Getenv("GEMINI_API_KEY"),
		GroqKey:     os.Getenv("GROQ_API_KEY"),
	}
	if cfg.Provider == "" {
		cfg.Provider = "gemini"
	}
	switch cfg.Provider {
	case "gemini":
		if cfg.GeminiKey == "" {
			return nil, &ConfigError{Missing: "GEMINI_API_KEY"}
		}
	case "groq":
		if cfg.GroqKey == "" {
			return nil, &ConfigError{Missing: "GROQ_API_KEY"}
		}
	default:
		return nil, fmt.Errorf("config: unknown LLM_PROVIDER %q", cfg.Provider)
	}
	if cfg.GitHubToken == "" {
		log.Println("config: GITHUB_TOKEN not set; GitHub API rate limits will be lower (60/hour vs 5000/hour)")
	}
	return cfg, nil
}

// ModelKey returns the credential for the selected provider.
func (c *Config) ModelKey() string {
	if c.Provider == "groq" {
		return c.GroqKey
	}
	return c.GeminiKey
}
