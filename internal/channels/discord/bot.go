// Package discord connects the agent loop to Discord: it gates incoming
// messages, builds the history window and invocation context, and
// delivers the bounded reply.
package discord

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/gmsas95/agentcord/internal/agent"
	"github.com/gmsas95/agentcord/internal/llm"
	"github.com/gmsas95/agentcord/internal/metrics"
	"github.com/gmsas95/agentcord/internal/tools"
)

// apologyText is sent when a tool fault aborts a run. Internals are
// logged, never surfaced to the channel.
const apologyText = "I ran into an error while replying — please try again in a moment."

// Config holds Discord bot configuration
type Config struct {
	Token        string
	GuildID      string   // Optional: restrict to specific server
	Channels     []string // Optional: whitelist channels
	ReplyRPS     float64  // Per-channel reply rate limit, 0 disables
	HistoryLimit int
	MaxChars     int
}

// Bot represents a Discord bot instance
type Bot struct {
	session  *discordgo.Session
	loop     *agent.Loop
	registry *tools.Registry
	metrics  *metrics.Metrics
	config   Config
	logger   *zap.Logger

	limitersMu sync.Mutex
	limiters   map[string]*rate.Limiter
}

// NewBot creates a new Discord bot
func NewBot(cfg Config, loop *agent.Loop, registry *tools.Registry, m *metrics.Metrics, logger *zap.Logger) (*Bot, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("discord token is required")
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 20
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = 1900
	}

	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	bot := &Bot{
		session:  session,
		loop:     loop,
		registry: registry,
		metrics:  m,
		config:   cfg,
		logger:   logger,
		limiters: make(map[string]*rate.Limiter),
	}

	session.AddHandler(bot.ready)
	session.AddHandler(bot.messageCreate)

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent

	return bot, nil
}

// Start starts the Discord bot
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord connection: %w", err)
	}

	b.logger.Info("Discord bot started",
		zap.String("username", b.session.State.User.Username),
	)

	return nil
}

// Stop stops the Discord bot
func (b *Bot) Stop() error {
	return b.session.Close()
}

func (b *Bot) ready(s *discordgo.Session, event *discordgo.Ready) {
	b.logger.Info("Discord bot ready",
		zap.String("username", s.State.User.Username),
		zap.Int("guilds", len(event.Guilds)),
	)
}

// messageCreate handles one triggering event: one mention in, one agent
// run, one bounded reply out.
func (b *Bot) messageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if !b.shouldHandle(s, m) {
		return
	}

	if !b.allowReply(m.ChannelID) {
		b.logger.Debug("Reply rate limit hit", zap.String("channel_id", m.ChannelID))
		return
	}

	channel, err := b.resolveChannel(s, m.ChannelID)
	if err != nil {
		b.logger.Warn("Failed to resolve channel",
			zap.String("channel_id", m.ChannelID),
			zap.Error(err))
		return
	}
	if !textSendable(channel) {
		return
	}

	if b.metrics != nil {
		b.metrics.RecordMessage()
	}

	s.ChannelTyping(m.ChannelID)

	history, err := b.buildHistory(s, m)
	if err != nil {
		b.logger.Error("Failed to fetch channel history",
			zap.String("channel_id", m.ChannelID),
			zap.Error(err))
		return
	}
	if len(history) == 0 {
		return
	}

	ac := b.buildAgentContext(s, m, channel)
	toolset := b.registry.Resolve(&tools.Context{
		Session: s,
		Message: m.Message,
		Channel: channel,
	})

	reply, err := b.loop.Run(context.Background(), history, ac, toolset)
	if err != nil {
		b.logger.Error("Agent run faulted",
			zap.String("channel_id", m.ChannelID),
			zap.Error(err))
		b.safeReply(s, m, apologyText)
		return
	}

	b.safeReply(s, m, agent.BoundReply(reply, b.config.MaxChars))
}

// shouldHandle applies the gating rules: guild messages only, optional
// guild and channel allowlists, no bots, and the bot must be mentioned
// directly in the message body.
func (b *Bot) shouldHandle(s *discordgo.Session, m *discordgo.MessageCreate) bool {
	if s.State.User == nil || m.Author == nil {
		return false
	}
	if m.Author.ID == s.State.User.ID || m.Author.Bot {
		return false
	}
	if m.GuildID == "" {
		return false
	}
	if b.config.GuildID != "" && m.GuildID != b.config.GuildID {
		return false
	}
	if len(b.config.Channels) > 0 {
		allowed := false
		for _, ch := range b.config.Channels {
			if m.ChannelID == ch {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}

	return mentionsUser(m.Message, s.State.User.ID)
}

// mentionsUser requires an explicit mention token in the content, which
// excludes @everyone, role pings, and reply notifications.
func mentionsUser(m *discordgo.Message, userID string) bool {
	mentioned := false
	for _, user := range m.Mentions {
		if user.ID == userID {
			mentioned = true
			break
		}
	}
	if !mentioned {
		return false
	}

	return strings.Contains(m.Content, "<@"+userID+">") ||
		strings.Contains(m.Content, "<@!"+userID+">")
}

// buildHistory fetches the recent message window and normalizes it into
// chat turns, oldest first.
func (b *Bot) buildHistory(s *discordgo.Session, m *discordgo.MessageCreate) ([]llm.Message, error) {
	fetched, err := s.ChannelMessages(m.ChannelID, b.config.HistoryLimit, "", "", "")
	if err != nil {
		return nil, err
	}

	// ChannelMessages returns newest first.
	sort.Slice(fetched, func(i, j int) bool {
		return fetched[i].Timestamp.Before(fetched[j].Timestamp)
	})

	raw := make([]agent.RawMessage, 0, len(fetched))
	for _, msg := range fetched {
		if msg.Author == nil {
			continue
		}

		rm := agent.RawMessage{
			AuthorID:       msg.Author.ID,
			AuthorUsername: msg.Author.Username,
			AuthorGlobal:   msg.Author.GlobalName,
			Content:        msg.ContentWithMentionsReplaced(),
		}
		if msg.Member != nil {
			rm.AuthorNick = msg.Member.Nick
		}
		for _, a := range msg.Attachments {
			rm.Attachments = append(rm.Attachments, a.Filename)
		}

		raw = append(raw, rm)
	}

	return agent.NormalizeHistory(raw, b.selfIdentity(s, m.GuildID)), nil
}

func (b *Bot) selfIdentity(s *discordgo.Session, guildID string) agent.Identity {
	self := agent.Identity{
		ID:       s.State.User.ID,
		Username: s.State.User.Username,
	}
	if member, err := s.State.Member(guildID, self.ID); err == nil && member != nil && member.Nick != "" {
		self.DisplayName = member.Nick
	}
	return self
}

func (b *Bot) buildAgentContext(s *discordgo.Session, m *discordgo.MessageCreate, channel *discordgo.Channel) *agent.Context {
	ac := agent.NewContext()

	if guild, err := s.State.Guild(m.GuildID); err == nil {
		ac.GuildName = guild.Name
	}
	ac.ChannelName = b.resolveChannelName(s, channel)
	ac.TriggeredBy = memberDisplayName(m.Message)

	self := b.selfIdentity(s, m.GuildID)
	if self.DisplayName != "" {
		ac.AssistantName = self.DisplayName
	} else {
		ac.AssistantName = self.Username
	}

	return ac
}

func (b *Bot) resolveChannel(s *discordgo.Session, channelID string) (*discordgo.Channel, error) {
	if channel, err := s.State.Channel(channelID); err == nil {
		return channel, nil
	}
	return s.Channel(channelID)
}

func (b *Bot) resolveChannelName(s *discordgo.Session, channel *discordgo.Channel) string {
	if channel.IsThread() {
		if parent, err := s.State.Channel(channel.ParentID); err == nil && parent.Name != "" {
			return parent.Name + " › " + channel.Name
		}
		return channel.Name
	}
	if channel.Name != "" {
		return channel.Name
	}
	return channel.ID
}

// safeReply delivers content as a reply with mention expansion disabled.
// An unsendable destination is skipped, never retried.
func (b *Bot) safeReply(s *discordgo.Session, m *discordgo.MessageCreate, content string) {
	if content == "" {
		return
	}

	channel, err := b.resolveChannel(s, m.ChannelID)
	if err != nil || !textSendable(channel) {
		b.logger.Warn("Reply destination no longer sendable",
			zap.String("channel_id", m.ChannelID))
		return
	}

	_, err = s.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Content:         content,
		Reference:       m.Reference(),
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	})
	if err != nil {
		b.logger.Error("Failed to send reply",
			zap.String("channel_id", m.ChannelID),
			zap.Error(err))
		return
	}

	if b.metrics != nil {
		b.metrics.RecordReply()
	}
}

func (b *Bot) allowReply(channelID string) bool {
	if b.config.ReplyRPS <= 0 {
		return true
	}

	b.limitersMu.Lock()
	limiter, ok := b.limiters[channelID]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(b.config.ReplyRPS), 1)
		b.limiters[channelID] = limiter
	}
	b.limitersMu.Unlock()

	return limiter.Allow()
}

func textSendable(channel *discordgo.Channel) bool {
	switch channel.Type {
	case discordgo.ChannelTypeGuildText,
		discordgo.ChannelTypeGuildNews,
		discordgo.ChannelTypeGuildNewsThread,
		discordgo.ChannelTypeGuildPublicThread,
		discordgo.ChannelTypeGuildPrivateThread:
		return true
	default:
		return false
	}
}

func memberDisplayName(m *discordgo.Message) string {
	if m.Member != nil && m.Member.Nick != "" {
		return m.Member.Nick
	}
	if m.Author.GlobalName != "" {
		return m.Author.GlobalName
	}
	return m.Author.Username
}
