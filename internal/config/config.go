// Package config loads the application configuration from a YAML file with
// environment overrides for secrets.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	LLM struct {
		Model   string `yaml:"model"`
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"llm"`

	Places struct {
		APIKey string `yaml:"api_key"`
	} `yaml:"places"`

	LogLevel string `yaml:"log_level"`
}

// Load reads the config file, then applies .env and environment overrides.
// A missing file yields the defaults; a malformed one is an error.
func Load(path string) (*Config, error) {
	// .env is optional, matching local-development setups.
	_ = godotenv.Load()

	cfg := defaults()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}
	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}
	if key := os.Getenv("SERPAPI_KEY"); key != "" {
		cfg.Places.APIKey = key
	}

	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.LLM.Model = "llama3-8b-8192"
	cfg.LLM.BaseURL = "https://api.groq.com/openai/v1"
	cfg.LogLevel = "info"
	return cfg
}
