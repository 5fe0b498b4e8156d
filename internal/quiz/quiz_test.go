package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	promptquiz "github.com/nchauhan/lmdesk/internal/prompts/quiz"
)

func twoQuestions() []Question {
	return []Question{
		{Question: "2+2?", Options: map[string]bool{"3": false, "4": true}},
		{Question: "capital of France?", Options: map[string]bool{"Paris": true, "Lyon": false}},
	}
}

func TestValidateQuestionsDropsInvalid(t *testing.T) {
	items := []promptquiz.QuestionItem{
		{Question: "ok", Options: map[string]bool{"a": true, "b": false}},
		{Question: "no correct", Options: map[string]bool{"a": false, "b": false}},
		{Question: "two correct", Options: map[string]bool{"a": true, "b": true}},
		{Question: "one option", Options: map[string]bool{"a": true}},
	}

	qs, err := ValidateQuestions(items, nil)
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, "ok", qs[0].Question)
	assert.Equal(t, "a", qs[0].CorrectOption())
}

func TestValidateQuestionsAllInvalid(t *testing.T) {
	items := []promptquiz.QuestionItem{
		{Question: "bad", Options: map[string]bool{"a": false, "b": false}},
	}
	_, err := ValidateQuestions(items, nil)
	assert.ErrorIs(t, err, ErrNoValidQuestions)
}

func TestSessionAdvanceScoring(t *testing.T) {
	s := NewSession(twoQuestions())

	q, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "2+2?", q.Question)

	res, err := s.Advance("4")
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.Equal(t, 1, res.Progress.Score)
	assert.Equal(t, 1, res.Progress.Current)
	assert.False(t, res.Progress.Completed)

	res, err = s.Advance("Lyon")
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.Equal(t, "Paris", res.CorrectOption)
	assert.True(t, res.Progress.Completed)
	assert.Equal(t, 1, res.Progress.Score)
	assert.Equal(t, 2, res.Progress.Attempted)
}

func TestSessionAdvanceUnknownOption(t *testing.T) {
	s := NewSession(twoQuestions())
	_, err := s.Advance("42")
	assert.Error(t, err)

	// A rejected choice does not advance or count as attempted.
	p := s.Progress()
	assert.Equal(t, 0, p.Current)
	assert.Equal(t, 0, p.Attempted)
}

func TestCompletedSessionIsIdempotent(t *testing.T) {
	s := NewSession(twoQuestions()[:1])
	_, err := s.Advance("4")
	require.NoError(t, err)

	res, err := s.Advance("4")
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.True(t, res.Progress.Completed)
	assert.Equal(t, 1, res.Progress.Score)

	_, ok := s.Current()
	assert.False(t, ok)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	s := NewSession(twoQuestions())
	r.Add(s)

	got, err := r.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)

	r.Delete(s.ID())
	_, err = r.Get(s.ID())
	assert.Error(t, err)
}

func TestOptionTextsSorted(t *testing.T) {
	q := Question{Options: map[string]bool{"c": false, "a": true, "b": false}}
	assert.Equal(t, []string{"a", "b", "c"}, q.OptionTexts())
}
