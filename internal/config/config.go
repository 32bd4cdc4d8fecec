package config

import (
	"strings"

	"github.com/spf13/viper"

	apperrors "github.com/gmsas95/agentcord/internal/errors"
)

// Config holds all configuration for agentcord
type Config struct {
	Discord DiscordConfig `mapstructure:"discord"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Agent   AgentConfig   `mapstructure:"agent"`
	Reply   ReplyConfig   `mapstructure:"reply"`
	Tools   ToolsConfig   `mapstructure:"tools"`
	Server  ServerConfig  `mapstructure:"server"`
}

// DiscordConfig holds Discord gateway settings
type DiscordConfig struct {
	Token    string   `mapstructure:"token"`
	GuildID  string   `mapstructure:"guild_id"`  // optional: restrict to one server
	Channels []string `mapstructure:"channels"`  // optional: whitelist channel IDs
	ReplyRPS float64  `mapstructure:"reply_rps"` // per-channel replies per second
}

// LLMConfig holds inference endpoint settings
type LLMConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	Timeout     int     `mapstructure:"timeout"` // seconds
}

// AgentConfig holds agent loop settings
type AgentConfig struct {
	HistoryLimit int `mapstructure:"history_limit"` // raw messages fetched per run
	MaxRounds    int `mapstructure:"max_rounds"`    // inference rounds before giving up
}

// ReplyConfig holds outbound reply settings
type ReplyConfig struct {
	MaxChars int `mapstructure:"max_chars"`
}

// ToolsConfig holds tool availability settings
type ToolsConfig struct {
	Enabled         []string `mapstructure:"enabled"`
	AllowCommands   bool     `mapstructure:"allow_commands"`
	CommandTimeout  int      `mapstructure:"command_timeout"` // seconds, upper bound
	SearchMaxResult int      `mapstructure:"search_max_results"`
}

// ServerConfig holds the status HTTP server settings
type ServerConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Address      string `mapstructure:"address"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// Load loads configuration from file, env, and defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, apperrors.Wrap(err, "CONFIG_001", "failed to read config file")
		}
	}

	// Environment variables (AGENTCORD_DISCORD_TOKEN, AGENTCORD_LLM_API_KEY, ...)
	v.SetEnvPrefix("AGENTCORD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.Wrap(err, "CONFIG_002", "failed to unmarshal config")
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Discord defaults. Empty defaults keep the keys visible to
	// AutomaticEnv during Unmarshal.
	v.SetDefault("discord.token", "")
	v.SetDefault("discord.guild_id", "")
	v.SetDefault("discord.channels", []string{})
	v.SetDefault("discord.reply_rps", 0.5)

	// LLM defaults
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.timeout", 60)

	// Agent defaults
	v.SetDefault("agent.history_limit", 20)
	v.SetDefault("agent.max_rounds", 8)

	// Reply defaults
	v.SetDefault("reply.max_chars", 1900)

	// Tools defaults
	v.SetDefault("tools.enabled", []string{
		"describe_channel", "clear_channel_messages",
		"fetch_url", "search_internet",
		"list_directory", "send_file",
	})
	v.SetDefault("tools.allow_commands", false)
	v.SetDefault("tools.command_timeout", 60)
	v.SetDefault("tools.search_max_results", 5)

	// Status server defaults
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.address", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)
}

func validate(cfg *Config) error {
	if cfg.Discord.Token == "" {
		return apperrors.New("CONFIG_002", "discord.token is required")
	}
	if cfg.LLM.APIKey == "" {
		return apperrors.New("CONFIG_002", "llm.api_key is required")
	}
	if cfg.LLM.Model == "" {
		return apperrors.New("CONFIG_002", "llm.model is required")
	}
	if cfg.Reply.MaxChars < 1 || cfg.Reply.MaxChars > 2000 {
		return apperrors.New("CONFIG_002", "reply.max_chars must be between 1 and 2000")
	}
	if cfg.Agent.HistoryLimit < 1 || cfg.Agent.HistoryLimit > 100 {
		return apperrors.New("CONFIG_002", "agent.history_limit must be between 1 and 100")
	}
	if cfg.Agent.MaxRounds < 1 {
		return apperrors.New("CONFIG_002", "agent.max_rounds must be positive")
	}
	return nil
}

// ToolEnabled reports whether a tool name appears in tools.enabled.
func (c *Config) ToolEnabled(name string) bool {
	for _, t := range c.Tools.Enabled {
		if t == name {
			return true
		}
	}
	return false
}
