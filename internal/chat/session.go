package chat

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/nchauhan/lmdesk/internal/dataset"
)

// DataSession is the state for one CSV analysis session: the uploaded
// dataset, its derived context, the running conversation, and the cached
// suggested questions. Zero values: no suggestions until generated, empty
// conversation until the first turn.
type DataSession struct {
	mu          sync.Mutex
	id          string
	datasetPath string
	context     *dataset.Context
	conv        *Conversation
	suggestions *Suggestions
}

// ID returns the session ID.
func (s *DataSession) ID() string {
	return s.id
}

// DatasetPath returns the stored CSV path.
func (s *DataSession) DatasetPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.datasetPath
}

// SetDatasetPath records where the uploaded CSV was stored. The path is
// assigned after session creation because the layout keys upload paths by
// session ID.
func (s *DataSession) SetDatasetPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.datasetPath = path
}

// Context returns the derived dataset context.
func (s *DataSession) Context() *dataset.Context {
	return s.context
}

// Conversation returns the session's conversation.
func (s *DataSession) Conversation() *Conversation {
	return s.conv
}

// Suggestions returns the cached suggestion pool, or false when none have
// been generated yet.
func (s *DataSession) Suggestions() (*Suggestions, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.suggestions == nil {
		return nil, false
	}
	return s.suggestions, true
}

// SetSuggestions caches the generated suggestion pool.
func (s *DataSession) SetSuggestions(questions []string) *Suggestions {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suggestions = NewSuggestions(questions)
	return s.suggestions
}

// DataSessionManager owns the live CSV analysis sessions.
type DataSessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*DataSession
}

// NewDataSessionManager creates an empty manager.
func NewDataSessionManager() *DataSessionManager {
	return &DataSessionManager{sessions: make(map[string]*DataSession)}
}

// Create registers a new session for an uploaded dataset.
func (m *DataSessionManager) Create(datasetPath string, ctx *dataset.Context) *DataSession {
	s := &DataSession{
		id:          uuid.New().String(),
		datasetPath: datasetPath,
		context:     ctx,
		conv:        NewConversation("", ""),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.id] = s
	return s
}

// Get returns a session by ID.
func (m *DataSessionManager) Get(id string) (*DataSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("unknown data session %q", id)
	}
	return s, nil
}

// Delete removes a session.
func (m *DataSessionManager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}
