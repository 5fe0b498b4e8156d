package calllog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nchauhan/lmdesk/internal/providers"
)

func TestFromChatResult(t *testing.T) {
	temp := 0.6
	result := &providers.ChatResult{
		Content:          "answer",
		ModelUsed:        "gemma3",
		Provider:         "ollama",
		PromptTokens:     10,
		CompletionTokens: 5,
		ExecutionTime:    1500 * time.Millisecond,
		Success:          true,
	}

	call := FromChatResult(result, RecordOptions{
		App:         "notes",
		PromptKey:   "apps.notes.user",
		Temperature: &temp,
	})
	require.NotNil(t, call)
	assert.NotEmpty(t, call.ID)
	assert.Equal(t, 1500, call.LatencyMs)
	assert.Equal(t, "notes", call.App)
	assert.Equal(t, "gemma3", call.Model)
	assert.Equal(t, 10, call.InputTokens)
	require.NotNil(t, call.Temperature)
	assert.Equal(t, 0.6, *call.Temperature)
	assert.Empty(t, call.Error)

	assert.Nil(t, FromChatResult(nil, RecordOptions{}))
}

func TestFromChatResultFailure(t *testing.T) {
	result := &providers.ChatResult{
		Success:      false,
		ErrorMessage: "backend down",
	}
	call := FromChatResult(result, RecordOptions{})
	require.NotNil(t, call)
	assert.Equal(t, "backend down", call.Error)
}

func TestRecorderWritesAndStoreReads(t *testing.T) {
	dir := t.TempDir()
	rec, err := NewRecorder(dir, nil)
	require.NoError(t, err)

	rec.Record(&providers.ChatResult{
		Content:   "one",
		ModelUsed: "gemma3",
		Provider:  "ollama",
		Success:   true,
	}, RecordOptions{App: "chat", PromptKey: "apps.chat.system"})
	rec.Record(&providers.ChatResult{
		Content:   "two",
		ModelUsed: "qwen3:latest",
		Provider:  "ollama",
		Success:   false,
	}, RecordOptions{App: "quiz", PromptKey: "apps.quiz.user"})
	rec.Close()

	store := NewStore(dir)
	all, err := store.List(QueryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	quizOnly, err := store.List(QueryFilter{App: "quiz"})
	require.NoError(t, err)
	require.Len(t, quizOnly, 1)
	assert.Equal(t, "apps.quiz.user", quizOnly[0].PromptKey)

	ok := true
	succeeded, err := store.List(QueryFilter{Success: &ok})
	require.NoError(t, err)
	require.Len(t, succeeded, 1)
	assert.Equal(t, "one", succeeded[0].Response)

	counts, err := store.CountByPromptKey()
	require.NoError(t, err)
	assert.Equal(t, 1, counts["apps.chat.system"])
	assert.Equal(t, 1, counts["apps.quiz.user"])
}

func TestStoreMissingDir(t *testing.T) {
	store := NewStore(t.TempDir() + "/nope")
	calls, err := store.List(QueryFilter{})
	require.NoError(t, err)
	assert.Empty(t, calls)
}

func TestRecorderNilCall(t *testing.T) {
	rec, err := NewRecorder(t.TempDir(), nil)
	require.NoError(t, err)
	rec.RecordCall(nil)
	rec.Close()
}
