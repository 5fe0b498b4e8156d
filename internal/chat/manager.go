package chat

import (
	"fmt"
	"sort"
	"sync"
)

// DefaultSystemPrompt seeds new conversations when no prompt is given.
const DefaultSystemPrompt = "You are a helpful assistant."

// Manager owns the set of live conversations.
type Manager struct {
	mu    sync.RWMutex
	convs map[string]*Conversation
}

// NewManager creates an empty conversation manager.
func NewManager() *Manager {
	return &Manager{convs: make(map[string]*Conversation)}
}

// Create starts a new conversation and registers it under its session ID.
func (m *Manager) Create(systemPrompt, model string) *Conversation {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	conv := NewConversation(systemPrompt, model)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.convs[conv.ID()] = conv
	return conv
}

// GetOrCreate returns the conversation for a caller-chosen session ID,
// creating it on first use.
func (m *Manager) GetOrCreate(id, systemPrompt, model string) *Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	if conv, ok := m.convs[id]; ok {
		return conv
	}
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	conv := NewConversationWithID(id, systemPrompt, model)
	m.convs[id] = conv
	return conv
}

// Get returns the conversation for a session ID.
func (m *Manager) Get(id string) (*Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	conv, ok := m.convs[id]
	if !ok {
		return nil, fmt.Errorf("unknown session %q", id)
	}
	return conv, nil
}

// Adopt registers an externally built conversation, e.g. one restored from
// a saved session file.
func (m *Manager) Adopt(conv *Conversation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.convs[conv.ID()] = conv
}

// Delete removes a conversation.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.convs, id)
}

// List returns the registered session IDs, sorted.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.convs))
	for id := range m.convs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
