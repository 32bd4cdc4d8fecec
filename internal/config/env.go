package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// LoadEnvFiles loads .env files from the working directory and the user's
// config locations. Already-set environment variables are never overridden.
func LoadEnvFiles() error {
	envPaths := []string{
		"./.env",
	}

	if home, err := os.UserHomeDir(); err == nil {
		envPaths = append(envPaths,
			filepath.Join(home, ".agentcord", ".env"),
			filepath.Join(home, ".config", "agentcord", ".env"),
		)
	}

	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			if err := loadEnvFile(path); err != nil {
				return err
			}
		}
	}

	return nil
}

func loadEnvFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
			value = strings.Trim(value, `"`)
		} else if strings.HasPrefix(value, "'") && strings.HasSuffix(value, "'") {
			value = strings.Trim(value, `'`)
		}

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}

	return scanner.Err()
}

func GetEnvWithFallback(keys ...string) string {
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	return ""
}

var envAliases = map[string][]string{
	"AGENTCORD_DISCORD_TOKEN": {"DISCORD_BOT_TOKEN", "DISCORD_TOKEN"},
	"AGENTCORD_LLM_API_KEY":   {"OPENAI_API_KEY"},
	"AGENTCORD_LLM_MODEL":     {"OPENAI_CHAT_MODEL"},
}

// ResolveEnvAliases copies well-known plain env vars (DISCORD_BOT_TOKEN,
// OPENAI_API_KEY, ...) into their canonical AGENTCORD_ names so viper's
// AutomaticEnv picks them up.
func ResolveEnvAliases() {
	for canonical, aliases := range envAliases {
		if os.Getenv(canonical) != "" {
			continue
		}
		for _, alias := range aliases {
			if val := os.Getenv(alias); val != "" {
				os.Setenv(canonical, val)
				break
			}
		}
	}
}
