package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/gmsas95/agentcord/internal/agent"
	"github.com/gmsas95/agentcord/internal/api"
	"github.com/gmsas95/agentcord/internal/channels/discord"
	"github.com/gmsas95/agentcord/internal/config"
	"github.com/gmsas95/agentcord/internal/llm"
	"github.com/gmsas95/agentcord/internal/metrics"
	"github.com/gmsas95/agentcord/internal/security"
	"github.com/gmsas95/agentcord/internal/tools"
)

var (
	configPath = flag.String("config", "", "Path to config file")
	version    = "dev"
)

func main() {
	flag.Parse()

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting agentcord",
		zap.String("version", version),
	)

	// Load .env files and map legacy variable names before viper reads
	// the environment.
	config.LoadEnvFiles()
	config.ResolveEnvAliases()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	m := metrics.New()

	registry := buildRegistry(cfg)
	client := llm.NewClient(cfg.LLM)
	loop := agent.NewLoop(client, logger, m, cfg.Agent.MaxRounds)

	bot, err := discord.NewBot(discord.Config{
		Token:        cfg.Discord.Token,
		GuildID:      cfg.Discord.GuildID,
		Channels:     cfg.Discord.Channels,
		ReplyRPS:     cfg.Discord.ReplyRPS,
		HistoryLimit: cfg.Agent.HistoryLimit,
		MaxChars:     cfg.Reply.MaxChars,
	}, loop, registry, m, logger)
	if err != nil {
		logger.Fatal("Failed to create discord bot", zap.Error(err))
	}

	if err := bot.Start(); err != nil {
		logger.Fatal("Failed to start discord bot", zap.Error(err))
	}

	var server *api.Server
	if cfg.Server.Enabled {
		server = api.New(cfg.Server, m, logger)
		go func() {
			if err := server.Start(); err != nil {
				logger.Error("Status API error", zap.Error(err))
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	if server != nil {
		if err := server.Shutdown(); err != nil {
			logger.Error("Status API shutdown error", zap.Error(err))
		}
	}
	if err := bot.Stop(); err != nil {
		logger.Error("Discord shutdown error", zap.Error(err))
	}
}

// buildRegistry registers every enabled tool. Registration order is the
// order tools are presented to the model.
func buildRegistry(cfg *config.Config) *tools.Registry {
	registry := tools.NewRegistry()

	register := func(name string, tool tools.Tool) {
		if cfg.ToolEnabled(name) {
			registry.MustRegister(tool)
		}
	}

	register("describe_channel", &tools.DescribeChannelTool{})
	register("fetch_url", tools.NewFetchURLTool())
	register("search_internet", tools.NewSearchTool(cfg.Tools.SearchMaxResult))
	register("run_command", tools.NewRunCommandTool(
		security.NewShellGuard(),
		cfg.Tools.AllowCommands,
		cfg.Tools.CommandTimeout,
	))
	register("list_directory", &tools.ListDirectoryTool{})
	register("send_file", &tools.SendFileTool{})
	register("clear_channel_messages", &tools.ClearChannelTool{})

	return registry
}
