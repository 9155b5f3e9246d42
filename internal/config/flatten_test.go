package config

import (
	"path/filepath"
	"testing"
)

func TestFlattenRoundTrip(t *testing.T) {
	nested := map[string]any{
		"llm": map[string]any{
			"model":   "gpt-4o-mini",
			"api_key": "sk-secret",
		},
		"log_level": "info",
	}

	flat := Flatten(nested)
	if flat["llm.model"] != "gpt-4o-mini" {
		t.Errorf("flat = %v", flat)
	}
	if flat["log_level"] != "info" {
		t.Errorf("flat = %v", flat)
	}

	back := Unflatten(flat)
	llm, ok := back["llm"].(map[string]any)
	if !ok || llm["model"] != "gpt-4o-mini" {
		t.Errorf("unflatten = %v", back)
	}
}

func TestMaskSecrets(t *testing.T) {
	flat := map[string]any{
		"llm.api_key":   "sk-abcdef123456",
		"llm.model":     "gpt-4o-mini",
		"brave.api_key": "",
	}
	masked := MaskSecrets(flat)
	if masked["llm.api_key"] != "***3456" {
		t.Errorf("masked key = %v", masked["llm.api_key"])
	}
	if masked["llm.model"] != "gpt-4o-mini" {
		t.Errorf("non-secret changed: %v", masked["llm.model"])
	}
	if masked["brave.api_key"] != "" {
		t.Errorf("empty secret changed: %v", masked["brave.api_key"])
	}
}

func TestGetSetValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if _, err := Load(path); err != nil {
		t.Fatal(err)
	}

	if err := SetValue(path, "llm.model", "gpt-4o"); err != nil {
		t.Fatal(err)
	}
	val, err := GetValue(path, "llm.model")
	if err != nil {
		t.Fatal(err)
	}
	if val != "gpt-4o" {
		t.Errorf("value = %v", val)
	}

	// Numbers and booleans are coerced.
	if err := SetValue(path, "agent.max_iterations", "7"); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Agent.MaxIterations != 7 {
		t.Errorf("max iterations = %d", cfg.Agent.MaxIterations)
	}

	// Secrets come back masked.
	if err := SetValue(path, "creator_iq.api_key", "key-12345678"); err != nil {
		t.Fatal(err)
	}
	val, err = GetValue(path, "creator_iq.api_key")
	if err != nil {
		t.Fatal(err)
	}
	if val != "***5678" {
		t.Errorf("secret = %v", val)
	}

	if _, err := GetValue(path, "no.such.key"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestListValues(t *testing.T) {
	cfg := &Config{}
	cfg.LLM.APIKey = "sk-abcdef123456"
	cfg.LLM.Model = "gpt-4o-mini"

	values, err := ListValues(cfg, true)
	if err != nil {
		t.Fatal(err)
	}
	if values["llm.model"] != "gpt-4o-mini" {
		t.Errorf("values = %v", values)
	}
	if values["llm.api_key"] != "***3456" {
		t.Errorf("secret not masked: %v", values["llm.api_key"])
	}
}
