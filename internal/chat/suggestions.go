package chat

import (
	"math/rand"
	"sync"
)

// DefaultSuggestionCount is how many suggested questions are surfaced at a
// time.
const DefaultSuggestionCount = 3

// Suggestions holds the pool of suggested follow-up questions for a data
// session. The pool is reshuffled after every answered turn so repeated
// visits surface different questions.
type Suggestions struct {
	mu    sync.Mutex
	items []string
}

// NewSuggestions creates a pool from the given questions.
func NewSuggestions(questions []string) *Suggestions {
	s := &Suggestions{items: make([]string, len(questions))}
	copy(s.items, questions)
	return s
}

// Set replaces the pool.
func (s *Suggestions) Set(questions []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make([]string, len(questions))
	copy(s.items, questions)
}

// Top returns up to n questions from the front of the pool.
func (s *Suggestions) Top(n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > len(s.items) {
		n = len(s.items)
	}
	out := make([]string, n)
	copy(out, s.items[:n])
	return out
}

// Shuffle reorders the pool in place.
func (s *Suggestions) Shuffle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	rand.Shuffle(len(s.items), func(i, j int) {
		s.items[i], s.items[j] = s.items[j], s.items[i]
	})
}

// Len returns the pool size.
func (s *Suggestions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
