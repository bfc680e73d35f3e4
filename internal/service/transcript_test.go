package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/coralises/guildflow/internal/platform"
)

func TestRenderTranscriptOrdersLines(t *testing.T) {
	messages := []platform.ChannelMessage{
		{AuthorName: "alice#1", Content: "hello"},
		{AuthorName: "bob#2", Content: "hi there"},
		{AuthorName: "alice#1", Content: "bye"},
	}

	got := RenderTranscript(messages, 1020)
	assert.Equal(t, "alice#1: hello\nbob#2: hi there\nalice#1: bye", got)
}

func TestRenderTranscriptEmpty(t *testing.T) {
	assert.Equal(t, "No messages", RenderTranscript(nil, 1020))
}

func TestRenderTranscriptTruncates(t *testing.T) {
	messages := []platform.ChannelMessage{
		{AuthorName: "alice#1", Content: strings.Repeat("x", 2000)},
	}

	got := RenderTranscript(messages, 1020)
	assert.Len(t, got, 1018)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestRenderTranscriptTruncatesOnRuneBoundary(t *testing.T) {
	messages := []platform.ChannelMessage{
		{AuthorName: "alice#1", Content: strings.Repeat("héllo wörld ", 200)},
	}

	got := RenderTranscript(messages, 1020)
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, len(got), 1020)
}
