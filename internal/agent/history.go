// Package agent implements the tool-augmented chat loop: it normalizes
// channel history into role-tagged turns, drives the exchange with the
// model, dispatches requested tool calls, and bounds the final reply.
package agent

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gmsas95/agentcord/internal/llm"
)

// RawMessage is a transport-neutral view of one channel message, ordered
// oldest-first by the caller.
type RawMessage struct {
	AuthorID       string
	AuthorUsername string
	AuthorGlobal   string
	AuthorNick     string
	Content        string
	Attachments    []string
}

// Identity describes the assistant's own account so history normalization
// can recognize its messages and strip its mention labels.
type Identity struct {
	ID          string
	Username    string
	DisplayName string
}

// DisplayName resolves the speaker name shown to the model. Server
// nickname wins, then the account display name, then the username.
func (m *RawMessage) DisplayName() string {
	if m.AuthorNick != "" {
		return m.AuthorNick
	}
	if m.AuthorGlobal != "" {
		return m.AuthorGlobal
	}
	return m.AuthorUsername
}

// NormalizeHistory converts a window of raw messages into chat turns.
// The assistant's own messages become assistant turns; everyone else
// becomes a user turn prefixed with their display name. Messages that
// reduce to empty content are dropped. An empty result means there is
// nothing to answer and the loop must not run.
func NormalizeHistory(messages []RawMessage, self Identity) []llm.Message {
	labels := mentionLabels(self)

	turns := make([]llm.Message, 0, len(messages))
	for i := range messages {
		msg := &messages[i]

		content := formatMessageContent(msg, labels)
		if content == "" {
			continue
		}

		if msg.AuthorID == self.ID {
			turns = append(turns, llm.Message{Role: llm.RoleAssistant, Content: content})
			continue
		}

		turns = append(turns, llm.Message{
			Role:    llm.RoleUser,
			Content: fmt.Sprintf("%s: %s", msg.DisplayName(), content),
		})
	}

	return turns
}

func mentionLabels(self Identity) []*regexp.Regexp {
	names := []string{self.Username}
	if self.DisplayName != "" && !strings.EqualFold(self.DisplayName, self.Username) {
		names = append(names, self.DisplayName)
	}

	labels := make([]*regexp.Regexp, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		labels = append(labels, regexp.MustCompile("(?i)"+regexp.QuoteMeta("@"+name)))
	}
	return labels
}

func formatMessageContent(msg *RawMessage, labels []*regexp.Regexp) string {
	clean := strings.TrimSpace(msg.Content)
	if clean != "" {
		for _, label := range labels {
			clean = strings.TrimSpace(label.ReplaceAllString(clean, ""))
		}
	}

	if clean == "" && len(msg.Attachments) > 0 {
		placeholders := make([]string, 0, len(msg.Attachments))
		for _, name := range msg.Attachments {
			if name == "" {
				name = "file"
			}
			placeholders = append(placeholders, fmt.Sprintf("[attachment: %s]", name))
		}
		clean = strings.Join(placeholders, ", ")
	}

	return clean
}
