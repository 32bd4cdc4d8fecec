package config

import (
	"os"
	"path/filepath"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AGENTCORD_DISCORD_TOKEN", "test-token")
	t.Setenv("AGENTCORD_LLM_API_KEY", "test-key")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("expected default model gpt-4o-mini, got %s", cfg.LLM.Model)
	}
	if cfg.LLM.Temperature != 0.3 {
		t.Errorf("expected default temperature 0.3, got %v", cfg.LLM.Temperature)
	}
	if cfg.Agent.HistoryLimit != 20 {
		t.Errorf("expected default history_limit 20, got %d", cfg.Agent.HistoryLimit)
	}
	if cfg.Agent.MaxRounds != 8 {
		t.Errorf("expected default max_rounds 8, got %d", cfg.Agent.MaxRounds)
	}
	if cfg.Reply.MaxChars != 1900 {
		t.Errorf("expected default max_chars 1900, got %d", cfg.Reply.MaxChars)
	}
	if cfg.Tools.AllowCommands {
		t.Error("expected run_command to be disabled by default")
	}
}

func TestLoadMissingToken(t *testing.T) {
	t.Setenv("AGENTCORD_DISCORD_TOKEN", "")
	t.Setenv("AGENTCORD_LLM_API_KEY", "test-key")

	if _, err := Load(""); err == nil {
		t.Fatal("expected error for missing discord token")
	}
}

func TestLoadMissingAPIKey(t *testing.T) {
	t.Setenv("AGENTCORD_DISCORD_TOKEN", "test-token")
	t.Setenv("AGENTCORD_LLM_API_KEY", "")

	if _, err := Load(""); err == nil {
		t.Fatal("expected error for missing llm api key")
	}
}

func TestLoadReplyLimitBounds(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AGENTCORD_REPLY_MAX_CHARS", "2001")

	if _, err := Load(""); err == nil {
		t.Fatal("expected error for max_chars beyond transport limit")
	}
}

func TestLoadConfigFile(t *testing.T) {
	setRequiredEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "agentcord.yaml")
	content := `
agent:
  max_rounds: 4
reply:
  max_chars: 500
tools:
  allow_commands: true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Agent.MaxRounds != 4 {
		t.Errorf("expected max_rounds 4 from file, got %d", cfg.Agent.MaxRounds)
	}
	if cfg.Reply.MaxChars != 500 {
		t.Errorf("expected max_chars 500 from file, got %d", cfg.Reply.MaxChars)
	}
	if !cfg.Tools.AllowCommands {
		t.Error("expected allow_commands true from file")
	}
}

func TestToolEnabled(t *testing.T) {
	cfg := &Config{Tools: ToolsConfig{Enabled: []string{"fetch_url", "describe_channel"}}}

	if !cfg.ToolEnabled("fetch_url") {
		t.Error("expected fetch_url to be enabled")
	}
	if cfg.ToolEnabled("run_command") {
		t.Error("expected run_command to be disabled")
	}
}
