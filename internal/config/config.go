package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type Config struct {
	DataDir  string `json:"data_dir"`
	LogLevel string `json:"log_level"`
	Listen   string `json:"listen"`
	LLM      struct {
		BaseURL     string  `json:"base_url"`
		APIKey      string  `json:"api_key"`
		Model       string  `json:"model"`
		MaxTokens   int     `json:"max_tokens"`
		Temperature float32 `json:"temperature"`

		MaxContextTokens int `json:"max_context_tokens"`
		OutputReserve    int `json:"output_reserve"`
	} `json:"llm"`
	CreatorIQ struct {
		BaseURL string `json:"base_url"`
		APIKey  string `json:"api_key"`
	} `json:"creator_iq"`
	Brave struct {
		APIKey string `json:"api_key"`
	} `json:"brave"`
	DocStore struct {
		BaseURL string `json:"base_url"`
	} `json:"doc_store"`
	Messaging struct {
		BaseURL string `json:"base_url"`
		Token   string `json:"token"`
	} `json:"messaging"`
	Catalog struct {
		BaseURL string `json:"base_url"`
	} `json:"catalog"`
	Agent struct {
		MaxIterations  int    `json:"max_iterations"`
		ReasoningLevel string `json:"reasoning_level"`
	} `json:"agent"`
}

// Load reads the config file at path, writing defaults on first run.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	cfg := &Config{
		DataDir:  filepath.Join(os.Getenv("HOME"), ".creatordesk"),
		LogLevel: "info",
		Listen:   "127.0.0.1:8486",
	}
	cfg.LLM.BaseURL = "https://api.openai.com/v1"
	cfg.LLM.Model = "gpt-4o-mini"
	cfg.LLM.MaxTokens = 2000
	cfg.LLM.Temperature = 0.5
	cfg.LLM.MaxContextTokens = 128000
	cfg.LLM.OutputReserve = 4096
	cfg.CreatorIQ.BaseURL = "https://apis.creatoriq.com/crm/v1/api"
	cfg.Agent.MaxIterations = 5
	cfg.Agent.ReasoningLevel = "medium"

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if os.IsNotExist(err) {
		if err := writeDefaults(path, cfg); err != nil {
			return nil, err
		}
	}

	// Env overrides (highest precedence)
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("CREATOR_IQ_API_KEY"); v != "" {
		cfg.CreatorIQ.APIKey = v
	}
	if v := os.Getenv("BRAVE_API_KEY"); v != "" {
		cfg.Brave.APIKey = v
	}
	if v := os.Getenv("MESSAGING_TOKEN"); v != "" {
		cfg.Messaging.Token = v
	}

	return cfg, nil
}

// StateDBPath returns the sqlite file used by the durable state store.
func (c *Config) StateDBPath() string {
	return filepath.Join(c.DataDir, "state.db")
}

func writeDefaults(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename default config: %w", err)
	}
	return nil
}
