// Package tools defines the capability contract offered to the model and
// the concrete capabilities the bot can execute on its behalf.
package tools

import (
	"context"
	"encoding/json"

	"github.com/bwmarrin/discordgo"

	"github.com/gmsas95/agentcord/internal/llm"
)

// StatusSuccess and StatusError are the only result statuses a tool may
// report back into the conversation.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is the only information a tool threads back to the model.
type Result struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Context is the scope a tool executes against: the triggering message and
// the channel it arrived on. Built fresh per run, never shared.
type Context struct {
	Session *discordgo.Session
	Message *discordgo.Message
	Channel *discordgo.Channel
}

// InGuild reports whether the triggering message arrived in a guild.
func (c *Context) InGuild() bool {
	return c.Message != nil && c.Message.GuildID != ""
}

// TextChannel reports whether the resolved channel accepts text messages.
func (c *Context) TextChannel() bool {
	if c.Channel == nil {
		return false
	}
	switch c.Channel.Type {
	case discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews,
		discordgo.ChannelTypeGuildNewsThread, discordgo.ChannelTypeGuildPublicThread,
		discordgo.ChannelTypeGuildPrivateThread:
		return true
	}
	return false
}

// Tool is the contract every capability satisfies. CanUse must be pure and
// evaluate from the context alone; Execute may perform arbitrary external
// effects. An error returned from Execute is an unrecovered fault and
// aborts the whole run; expected failures are reported in-band through a
// Result with StatusError.
type Tool interface {
	Name() string
	Description() string
	Schema() map[string]any
	CanUse(tc *Context) bool
	Execute(ctx context.Context, tc *Context, args map[string]any) (Result, error)
}

// Declaration renders a tool in the inference endpoint's function format.
func Declaration(t Tool) llm.Tool {
	return llm.Tool{
		Type: "function",
		Function: llm.ToolFunction{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Schema(),
		},
	}
}

// ParseArguments parses the model's raw argument text. A parse failure or a
// non-object result degrades to an empty argument object rather than an
// error; schema validation decides whether the run may proceed.
func ParseArguments(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return map[string]any{}
	}
	if obj, ok := parsed.(map[string]any); ok {
		return obj
	}
	return map[string]any{}
}

func success(payload map[string]any) Result {
	data, err := json.Marshal(payload)
	if err != nil {
		return Result{Status: StatusError, Message: `{"error":"failed to encode result"}`}
	}
	return Result{Status: StatusSuccess, Message: string(data)}
}

func failure(message string) Result {
	data, _ := json.Marshal(map[string]any{"error": message})
	return Result{Status: StatusError, Message: string(data)}
}

func argString(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func argInt(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}

func argBool(args map[string]any, key string) bool {
	v, _ := args[key].(bool)
	return v
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
