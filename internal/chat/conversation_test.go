package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationAppendAndModelMessages(t *testing.T) {
	conv := NewConversation("You are terse.", "gemma3")
	conv.Append("user", "hello")
	conv.Append("assistant", "hi")

	msgs := conv.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.NotEmpty(t, msgs[0].Timestamp)

	model := conv.ModelMessages()
	require.Len(t, model, 3)
	assert.Equal(t, "system", model[0].Role)
	assert.Equal(t, "You are terse.", model[0].Content)
	assert.Equal(t, "hello", model[1].Content)
	assert.Equal(t, "hi", model[2].Content)
}

func TestConversationNoSystemPrompt(t *testing.T) {
	conv := NewConversation("", "gemma3")
	conv.Append("user", "hello")

	model := conv.ModelMessages()
	require.Len(t, model, 1)
	assert.Equal(t, "user", model[0].Role)
}

func TestConversationClearResetsSession(t *testing.T) {
	conv := NewConversation("sys", "gemma3")
	before := conv.ID()
	conv.Append("user", "hello")
	conv.Clear()

	assert.Zero(t, conv.Len())
	assert.NotEqual(t, before, conv.ID())
}

func TestConversationRestore(t *testing.T) {
	conv := NewConversation("sys", "gemma3")
	conv.Restore("session-1", []Message{
		{Role: "user", Content: "a", Timestamp: "2025-01-02 03:04:05"},
		{Role: "assistant", Content: "b", Timestamp: "2025-01-02 03:04:06"},
	})

	assert.Equal(t, "session-1", conv.ID())
	require.Equal(t, 2, conv.Len())
	assert.Equal(t, "2025-01-02 03:04:05", conv.Messages()[0].Timestamp)
}

func TestManagerLifecycle(t *testing.T) {
	m := NewManager()
	conv := m.Create("", "gemma3")
	assert.Equal(t, DefaultSystemPrompt, conv.SystemPrompt())

	got, err := m.Get(conv.ID())
	require.NoError(t, err)
	assert.Same(t, conv, got)

	_, err = m.Get("nope")
	assert.Error(t, err)

	m.Delete(conv.ID())
	_, err = m.Get(conv.ID())
	assert.Error(t, err)
	assert.Empty(t, m.List())
}

func TestComposeModelInputInlinesText(t *testing.T) {
	got := ComposeModelInput("summarize this", []Attachment{
		{Name: "notes.txt", MediaType: "text/plain", Content: "line one\nline two"},
		{Name: "photo.png", MediaType: "image/png", Size: 2048},
	})

	assert.Contains(t, got, "summarize this")
	assert.Contains(t, got, "--- notes.txt ---")
	assert.Contains(t, got, "line one")
	assert.Contains(t, got, "photo.png (image/png, 2048 bytes)")
}

func TestComposeModelInputTruncates(t *testing.T) {
	big := strings.Repeat("x", maxAttachmentChars+500)
	got := ComposeModelInput("q", []Attachment{
		{Name: "big.txt", MediaType: "text/plain", Content: big},
	})

	assert.Contains(t, got, "[content truncated]")
	assert.Less(t, len(got), len(big))
}

func TestComposeModelInputNoAttachments(t *testing.T) {
	assert.Equal(t, "plain", ComposeModelInput("plain", nil))
}

func TestSuggestionsTopAndShuffle(t *testing.T) {
	qs := []string{"q1", "q2", "q3", "q4", "q5"}
	s := NewSuggestions(qs)

	top := s.Top(DefaultSuggestionCount)
	require.Len(t, top, 3)
	assert.Equal(t, []string{"q1", "q2", "q3"}, top)

	s.Shuffle()
	assert.Equal(t, 5, s.Len())
	top = s.Top(10)
	assert.ElementsMatch(t, qs, top)
}
