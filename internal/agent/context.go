package agent

import (
	"strings"
	"time"
)

const baseSystemPrompt = "You are a channel-aware assistant embedded directly inside Discord. " +
	"Answer thoroughly yet succinctly, never prepend role labels, and rely on the provided " +
	"channel history plus any metadata. Always respond in the same language as the user's " +
	"request. If the conversation shows you were mentioned directly, respond in-channel; " +
	"otherwise stay silent."

// Context carries per-run metadata folded into the system turn. It is
// built once per triggering event and never mutated mid-run.
type Context struct {
	Timestamp     time.Time
	Timezone      string
	GuildName     string
	ChannelName   string
	TriggeredBy   string
	AssistantName string
}

// NewContext captures the current wall clock and local timezone.
func NewContext() *Context {
	now := time.Now()
	zone, _ := now.Zone()
	if zone == "" {
		zone = "UTC"
	}
	return &Context{Timestamp: now, Timezone: zone}
}

// SystemPrompt renders the system turn, appending context metadata when
// a Context is present.
func SystemPrompt(ac *Context) string {
	if ac == nil {
		return baseSystemPrompt
	}

	lines := []string{
		"Current ISO timestamp: " + ac.Timestamp.UTC().Format(time.RFC3339),
		"Local time (" + ac.Timezone + "): " + ac.Timestamp.Format("Monday, January 2, 2006 at 3:04:05 PM MST"),
	}
	if ac.GuildName != "" {
		lines = append(lines, "Guild: "+ac.GuildName)
	}
	if ac.ChannelName != "" {
		lines = append(lines, "Channel: "+ac.ChannelName)
	}
	if ac.TriggeredBy != "" {
		lines = append(lines, "Mentioned by: "+ac.TriggeredBy)
	}
	if ac.AssistantName != "" {
		lines = append(lines, "Assistant display name: "+ac.AssistantName)
	}

	return baseSystemPrompt + "\n\nContext metadata:\n" + strings.Join(lines, "\n") +
		"\n\nWhen asked about the current date/time or channel, use the metadata above."
}
