// Package chat holds in-memory conversation state for the chat apps.
package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nchauhan/lmdesk/internal/providers"
)

// timestampLayout matches the format used in saved session files.
const timestampLayout = "2006-01-02 15:04:05"

// Message is one turn in a conversation.
type Message struct {
	Role      string   `json:"role"`
	Content   string   `json:"content"`
	Timestamp string   `json:"timestamp,omitempty"`
	Files     []string `json:"files,omitempty"` // Attachment IDs
}

// Conversation is a mutable message history for one session.
type Conversation struct {
	mu           sync.RWMutex
	id           string
	systemPrompt string
	model        string
	messages     []Message
}

// NewConversation creates a conversation with a fresh session ID.
func NewConversation(systemPrompt, model string) *Conversation {
	return &Conversation{
		id:           uuid.New().String(),
		systemPrompt: systemPrompt,
		model:        model,
	}
}

// NewConversationWithID creates a conversation under a caller-chosen ID.
func NewConversationWithID(id, systemPrompt, model string) *Conversation {
	return &Conversation{
		id:           id,
		systemPrompt: systemPrompt,
		model:        model,
	}
}

// ID returns the session ID.
func (c *Conversation) ID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.id
}

// Model returns the model the conversation is pinned to.
func (c *Conversation) Model() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

// SetModel changes the model for subsequent turns.
func (c *Conversation) SetModel(model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.model = model
}

// SetSystemPrompt changes the system prompt for subsequent turns.
func (c *Conversation) SetSystemPrompt(prompt string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.systemPrompt = prompt
}

// SystemPrompt returns the current system prompt.
func (c *Conversation) SystemPrompt() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.systemPrompt
}

// Append adds a message to the history.
func (c *Conversation) Append(role, content string) {
	c.AppendWithFiles(role, content, nil)
}

// AppendWithFiles adds a message that references uploaded files.
func (c *Conversation) AppendWithFiles(role, content string, fileIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().Format(timestampLayout),
		Files:     fileIDs,
	})
}

// Messages returns a copy of the history.
func (c *Conversation) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// Clear drops the history and assigns a new session ID.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
	c.id = uuid.New().String()
}

// Restore replaces the history and session ID, used when loading a saved
// session.
func (c *Conversation) Restore(sessionID string, messages []Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.id = sessionID
	c.messages = make([]Message, len(messages))
	copy(c.messages, messages)
}

// ModelMessages builds the provider message list: the system prompt first,
// then the full history. Attachment annotations are already part of the
// stored content.
func (c *Conversation) ModelMessages() []providers.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]providers.Message, 0, len(c.messages)+1)
	if c.systemPrompt != "" {
		out = append(out, providers.Message{Role: "system", Content: c.systemPrompt})
	}
	for _, m := range c.messages {
		out = append(out, providers.Message{Role: m.Role, Content: m.Content})
	}
	return out
}
