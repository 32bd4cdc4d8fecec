package tools

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// DescribeChannelTool summarizes metadata about the current channel and can
// list a bounded sample of member display names.
type DescribeChannelTool struct{}

func (t *DescribeChannelTool) Name() string { return "describe_channel" }

func (t *DescribeChannelTool) Description() string {
	return "Summarizes metadata about the current channel and can list a limited set of member display names."
}

func (t *DescribeChannelTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"includeMembers": map[string]any{
				"type":        "boolean",
				"description": "Include member display names who currently have access to the channel.",
			},
			"memberLimit": map[string]any{
				"type":        "integer",
				"minimum":     1,
				"maximum":     25,
				"description": "Maximum number of member names to list when includeMembers is true.",
			},
		},
		"additionalProperties": false,
	}
}

func (t *DescribeChannelTool) CanUse(tc *Context) bool {
	return tc.InGuild() && tc.TextChannel()
}

func (t *DescribeChannelTool) Execute(ctx context.Context, tc *Context, args map[string]any) (Result, error) {
	if tc.Channel == nil {
		return failure("Channel is not available."), nil
	}

	includeMembers := argBool(args, "includeMembers")
	memberLimit := clamp(argInt(args, "memberLimit", 10), 1, 25)

	payload := map[string]any{
		"id":               tc.Channel.ID,
		"name":             channelName(tc.Session, tc.Channel),
		"type":             channelTypeName(tc.Channel.Type),
		"topic":            nullableString(tc.Channel.Topic),
		"nsfw":             tc.Channel.NSFW,
		"rateLimitSeconds": tc.Channel.RateLimitPerUser,
		"parent":           parentChannelName(tc.Session, tc.Channel),
		"createdAt":        channelCreatedAt(tc.Channel.ID),
	}

	if includeMembers {
		members, err := tc.Session.GuildMembers(tc.Message.GuildID, "", memberLimit)
		if err != nil {
			return failure("Failed to list channel members."), nil
		}
		names := make([]string, 0, len(members))
		for _, m := range members {
			names = append(names, memberDisplayName(m))
		}
		payload["memberCount"] = len(members)
		payload["members"] = names
	}

	return success(payload), nil
}

func channelName(s *discordgo.Session, ch *discordgo.Channel) string {
	if ch.Name != "" {
		return ch.Name
	}
	return ch.ID
}

func parentChannelName(s *discordgo.Session, ch *discordgo.Channel) any {
	if ch.ParentID == "" {
		return nil
	}
	if parent, err := s.State.Channel(ch.ParentID); err == nil && parent.Name != "" {
		return parent.Name
	}
	return nil
}

func channelTypeName(t discordgo.ChannelType) string {
	switch t {
	case discordgo.ChannelTypeGuildText:
		return "GuildText"
	case discordgo.ChannelTypeDM:
		return "DM"
	case discordgo.ChannelTypeGuildVoice:
		return "GuildVoice"
	case discordgo.ChannelTypeGuildCategory:
		return "GuildCategory"
	case discordgo.ChannelTypeGuildNews:
		return "GuildNews"
	case discordgo.ChannelTypeGuildNewsThread:
		return "GuildNewsThread"
	case discordgo.ChannelTypeGuildPublicThread:
		return "GuildPublicThread"
	case discordgo.ChannelTypeGuildPrivateThread:
		return "GuildPrivateThread"
	case discordgo.ChannelTypeGuildForum:
		return "GuildForum"
	default:
		return "Unknown"
	}
}

func channelCreatedAt(id string) any {
	ts, err := discordgo.SnowflakeTimestamp(id)
	if err != nil {
		return nil
	}
	return ts.UTC().Format("2006-01-02T15:04:05Z07:00")
}

func memberDisplayName(m *discordgo.Member) string {
	if m.Nick != "" {
		return m.Nick
	}
	if m.User != nil {
		if m.User.GlobalName != "" {
			return m.User.GlobalName
		}
		return m.User.Username
	}
	return ""
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
