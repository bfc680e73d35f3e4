package service

import (
	"strings"
	"unicode/utf8"

	"github.com/coralises/guildflow/internal/platform"
)

// transcriptPlaceholder is rendered when a space closed without messages.
const transcriptPlaceholder = "No messages"

// RenderTranscript renders messages oldest-first as "author: content" lines,
// truncated to fieldLimit so the result fits a platform message field.
func RenderTranscript(messages []platform.ChannelMessage, fieldLimit int) string {
	if len(messages) == 0 {
		return transcriptPlaceholder
	}

	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		lines = append(lines, msg.AuthorName+": "+msg.Content)
	}
	text := strings.Join(lines, "\n")

	if fieldLimit > 5 && len(text) > fieldLimit {
		cut := fieldLimit - 5
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "..."
	}
	return text
}
