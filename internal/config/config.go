// Package config loads application configuration from an optional YAML
// file with environment-variable overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

type ResendConfig struct {
	APIKey string `yaml:"api_key"`
	From   string `yaml:"from"`
}

type DigestConfig struct {
	MaxItems int `yaml:"max_items"`
	// Fallbacks applied when the model response names no recognizable
	// urgency or action.
	DefaultUrgency string `yaml:"default_urgency"`
	DefaultAction  string `yaml:"default_action"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Google   GoogleConfig   `yaml:"google"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Resend   ResendConfig   `yaml:"resend"`
	Digest   DigestConfig   `yaml:"digest"`
}

// Load reads the YAML file at path (skipped if path is empty or the file
// does not exist), then applies environment overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// No file is fine; env and defaults carry the config.
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	overrideEnv(&cfg.Server.Host, "HOST")
	overrideEnv(&cfg.Server.Port, "PORT")
	overrideEnv(&cfg.Database.Path, "DATABASE_PATH")
	overrideEnv(&cfg.Google.ClientID, "GMAIL_CLIENT_ID")
	overrideEnv(&cfg.Google.ClientSecret, "GMAIL_CLIENT_SECRET")
	overrideEnv(&cfg.Google.RedirectURL, "GMAIL_REDIRECT_URI")
	overrideEnv(&cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	overrideEnv(&cfg.OpenAI.Model, "OPENAI_MODEL")
	overrideEnv(&cfg.Resend.APIKey, "RESEND_API_KEY")
	overrideEnv(&cfg.Resend.From, "DIGEST_FROM")

	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "inboxpilot.db"
	}
	if cfg.Resend.From == "" {
		cfg.Resend.From = "AI Email Assistant <digest@inboxpilot.dev>"
	}

	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

func overrideEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
