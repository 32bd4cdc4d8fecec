package tools

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

const maxBulkDelete = 50

// ClearChannelTool bulk-deletes recent unpinned messages. Gated on both the
// bot and the requesting member holding Manage Messages in the channel.
type ClearChannelTool struct{}

func (t *ClearChannelTool) Name() string { return "clear_channel_messages" }

func (t *ClearChannelTool) Description() string {
	return "Clears up to fifty recent, unpinned messages in the current channel when moderators request a cleanup."
}

func (t *ClearChannelTool) Schema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           map[string]any{},
		"additionalProperties": false,
	}
}

func (t *ClearChannelTool) CanUse(tc *Context) bool {
	if !tc.InGuild() || !tc.TextChannel() {
		return false
	}
	if tc.Session == nil || tc.Session.State == nil || tc.Session.State.User == nil {
		return false
	}

	botPerms, err := tc.Session.State.UserChannelPermissions(tc.Session.State.User.ID, tc.Channel.ID)
	if err != nil || botPerms&discordgo.PermissionManageMessages == 0 {
		return false
	}

	actorPerms, err := tc.Session.State.UserChannelPermissions(tc.Message.Author.ID, tc.Channel.ID)
	if err != nil || actorPerms&discordgo.PermissionManageMessages == 0 {
		return false
	}

	return true
}

func (t *ClearChannelTool) Execute(ctx context.Context, tc *Context, args map[string]any) (Result, error) {
	fetched, err := tc.Session.ChannelMessages(tc.Channel.ID, maxBulkDelete, "", "", "")
	if err != nil {
		return failure("Failed to fetch messages for deletion."), nil
	}

	ids := make([]string, 0, len(fetched))
	for _, msg := range fetched {
		if msg.Pinned || msg.Type != discordgo.MessageTypeDefault && msg.Type != discordgo.MessageTypeReply {
			continue
		}
		ids = append(ids, msg.ID)
	}

	if len(ids) == 0 {
		return success(map[string]any{"deletedCount": 0}), nil
	}

	if err := tc.Session.ChannelMessagesBulkDelete(tc.Channel.ID, ids); err != nil {
		return failure("Failed to clear messages. Ensure they are newer than fourteen days."), nil
	}

	return success(map[string]any{
		"deletedCount":           len(ids),
		"requestedBy":            tc.Message.Author.Username,
		"requestedByDisplayName": authorDisplayName(tc.Message),
	}), nil
}

func authorDisplayName(m *discordgo.Message) string {
	if m.Member != nil && m.Member.Nick != "" {
		return m.Member.Nick
	}
	if m.Author != nil {
		if m.Author.GlobalName != "" {
			return m.Author.GlobalName
		}
		return m.Author.Username
	}
	return ""
}
