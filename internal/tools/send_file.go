package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bwmarrin/discordgo"
)

const maxSendFileSize = 25 * 1024 * 1024

// SendFileTool uploads a local file to the originating channel.
type SendFileTool struct{}

func (t *SendFileTool) Name() string { return "send_file" }

func (t *SendFileTool) Description() string {
	return "Sends a file from the local filesystem to the Discord channel. Use this to share files, logs, images, or any local files with users."
}

func (t *SendFileTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"filePath": map[string]any{
				"type":        "string",
				"description": "The local file path to send (relative or absolute path)",
				"minLength":   1,
				"maxLength":   1000,
			},
			"message": map[string]any{
				"type":        "string",
				"description": "Optional message to include with the file (max 2000 characters)",
				"maxLength":   2000,
			},
		},
		"required":             []string{"filePath"},
		"additionalProperties": false,
	}
}

func (t *SendFileTool) CanUse(tc *Context) bool {
	return tc.TextChannel()
}

func (t *SendFileTool) Execute(ctx context.Context, tc *Context, args map[string]any) (Result, error) {
	rawPath := argString(args, "filePath")
	message := argString(args, "message")
	expanded := expandPath(rawPath)

	info, err := os.Stat(expanded)
	if err != nil {
		return failure(fmt.Sprintf("File not found: %s (expanded: %s)", rawPath, expanded)), nil
	}
	if info.IsDir() {
		return failure("Path is a directory, not a file: " + rawPath), nil
	}
	if info.Size() > maxSendFileSize {
		return failure(fmt.Sprintf("File too large: %d bytes (max %d bytes)", info.Size(), maxSendFileSize)), nil
	}

	file, err := os.Open(expanded)
	if err != nil {
		return failure("Failed to open file: " + err.Error()), nil
	}
	defer file.Close()

	fileName := filepath.Base(expanded)

	_, err = tc.Session.ChannelMessageSendComplex(tc.Channel.ID, &discordgo.MessageSend{
		Content: message,
		Files: []*discordgo.File{{
			Name:   fileName,
			Reader: file,
		}},
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	})
	if err != nil {
		return failure("Failed to send file: " + err.Error()), nil
	}

	payload := map[string]any{
		"filePath": rawPath,
		"fileName": fileName,
		"fileSize": info.Size(),
	}
	if message != "" {
		payload["message"] = message
	}

	return success(payload), nil
}
