// Package quiz holds generated multiple choice quizzes and their play state.
package quiz

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	promptquiz "github.com/nchauhan/lmdesk/internal/prompts/quiz"
)

// ErrNoValidQuestions is returned when every generated question failed
// validation.
var ErrNoValidQuestions = errors.New("no valid quiz questions generated")

// Question is one validated multiple choice question. Options map option
// text to correctness; exactly one entry is true.
type Question struct {
	Question     string          `json:"question"`
	ExtraContent string          `json:"extra_content,omitempty"`
	ImageLink    string          `json:"image_link,omitempty"`
	Options      map[string]bool `json:"-"`
}

// OptionTexts returns the option texts, sorted for stable presentation.
func (q Question) OptionTexts() []string {
	out := make([]string, 0, len(q.Options))
	for opt := range q.Options {
		out = append(out, opt)
	}
	sort.Strings(out)
	return out
}

// CorrectOption returns the option text marked true.
func (q Question) CorrectOption() string {
	for opt, correct := range q.Options {
		if correct {
			return opt
		}
	}
	return ""
}

// ValidateQuestions filters generated questions down to the usable ones:
// a question must have at least two options with exactly one marked
// correct. Dropped questions are logged.
func ValidateQuestions(items []promptquiz.QuestionItem, logger *slog.Logger) ([]Question, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var out []Question
	for i, item := range items {
		trueCount := 0
		for _, correct := range item.Options {
			if correct {
				trueCount++
			}
		}
		if len(item.Options) < 2 || trueCount != 1 {
			logger.Warn("dropping invalid quiz question",
				"index", i,
				"options", len(item.Options),
				"correct_options", trueCount)
			continue
		}
		out = append(out, Question{
			Question:     item.Question,
			ExtraContent: item.ExtraContent,
			ImageLink:    item.ImageLink,
			Options:      item.Options,
		})
	}

	if len(out) == 0 {
		return nil, ErrNoValidQuestions
	}
	return out, nil
}

// Session is the play state for one quiz. It is mutated only by Advance.
type Session struct {
	mu        sync.Mutex
	id        string
	questions []Question
	current   int
	score     int
	attempted map[int]bool
}

// Progress is a snapshot of the session state.
type Progress struct {
	ID        string `json:"id"`
	Current   int    `json:"current"`
	Total     int    `json:"total"`
	Score     int    `json:"score"`
	Attempted int    `json:"attempted"`
	Completed bool   `json:"completed"`
}

// AdvanceResult reports what happened on one answered question.
type AdvanceResult struct {
	Correct       bool     `json:"correct"`
	CorrectOption string   `json:"correct_option"`
	Progress      Progress `json:"progress"`
}

// NewSession creates a session over validated questions.
func NewSession(questions []Question) *Session {
	return &Session{
		id:        uuid.New().String(),
		questions: questions,
		attempted: make(map[int]bool),
	}
}

// ID returns the quiz session ID.
func (s *Session) ID() string {
	return s.id
}

// Questions returns the quiz questions.
func (s *Session) Questions() []Question {
	return s.questions
}

// Current returns the question at the current index, or false when the
// quiz is completed.
func (s *Session) Current() (Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current >= len(s.questions) {
		return Question{}, false
	}
	return s.questions[s.current], true
}

// Advance records the chosen option for the current question, scores it,
// and moves to the next question. After the last question the session is
// completed and further calls are no-ops.
func (s *Session) Advance(choice string) (AdvanceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current >= len(s.questions) {
		return AdvanceResult{Progress: s.progressLocked()}, nil
	}

	q := s.questions[s.current]
	correct, ok := q.Options[choice]
	if !ok {
		return AdvanceResult{}, fmt.Errorf("unknown option %q for question %d", choice, s.current)
	}

	s.attempted[s.current] = true
	if correct {
		s.score++
	}
	s.current++

	return AdvanceResult{
		Correct:       correct,
		CorrectOption: q.CorrectOption(),
		Progress:      s.progressLocked(),
	}, nil
}

// Progress returns a snapshot of the session state.
func (s *Session) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progressLocked()
}

func (s *Session) progressLocked() Progress {
	return Progress{
		ID:        s.id,
		Current:   s.current,
		Total:     len(s.questions),
		Score:     s.score,
		Attempted: len(s.attempted),
		Completed: s.current >= len(s.questions),
	}
}

// Registry tracks live quiz sessions by ID.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty quiz registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Add registers a session.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = s
}

// Get returns a session by ID.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("unknown quiz %q", id)
	}
	return s, nil
}

// Delete removes a session.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}
