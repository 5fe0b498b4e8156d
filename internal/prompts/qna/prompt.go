// Package qna builds the question-generation and answer prompts for the
// notes workflow.
package qna

import (
	_ "embed"
	"encoding/json"

	"github.com/nchauhan/lmdesk/internal/prompts"
	"github.com/nchauhan/lmdesk/internal/providers"
)

//go:embed questions.tmpl
var questionsPrompt string

//go:embed answer.tmpl
var answerPrompt string

// Prompt keys for this package.
const (
	QuestionsPromptKey = "apps.qna.questions"
	AnswerPromptKey    = "apps.qna.answer"
)

// RegisterPrompts registers the qna prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         QuestionsPromptKey,
		Text:        questionsPrompt,
		Description: "Question generation prompt - test questions for given topics, structured output",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         AnswerPromptKey,
		Text:        answerPrompt,
		Description: "Answer prompt - detailed answer to a generated question",
	})
}

// QuestionsInput contains the topics for a question-generation request.
type QuestionsInput struct {
	Topics string

	PromptOverride string
}

// CreateQuestionsRequest builds the structured chat request for question
// generation.
func CreateQuestionsRequest(input QuestionsInput) (*providers.ChatRequest, error) {
	text := input.PromptOverride
	if text == "" {
		text = questionsPrompt
	}

	rendered, err := prompts.Render(text, input)
	if err != nil {
		return nil, err
	}

	return &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: "user", Content: rendered},
		},
		ResponseFormat: buildQuestionsFormat(),
	}, nil
}

// AnswerInput contains one question for an answer request.
type AnswerInput struct {
	Question string

	PromptOverride string
}

// CreateAnswerRequest builds the chat request for answering one question.
func CreateAnswerRequest(input AnswerInput) (*providers.ChatRequest, error) {
	text := input.PromptOverride
	if text == "" {
		text = answerPrompt
	}

	rendered, err := prompts.Render(text, input)
	if err != nil {
		return nil, err
	}

	return &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: "user", Content: rendered},
		},
	}, nil
}

func buildQuestionsFormat() *providers.ResponseFormat {
	jsonSchema, _ := json.Marshal(QuestionsSchema["json_schema"])
	return &providers.ResponseFormat{
		Type:       "json_schema",
		JSONSchema: jsonSchema,
	}
}
