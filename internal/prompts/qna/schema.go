package qna

import "encoding/json"

// QuestionsSchema is the JSON schema for the question list output. The
// thinking_content field soaks up reasoning so response_content stays clean.
var QuestionsSchema = map[string]any{
	"type": "json_schema",
	"json_schema": map[string]any{
		"name":   "questions_output",
		"strict": true,
		"schema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"thinking_content": map[string]any{
					"type":        "string",
					"description": "All the reasoning/thinking content here",
				},
				"response_content": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "string",
					},
					"description": "Generate questions in the format of list of strings",
				},
			},
			"required":             []string{"thinking_content", "response_content"},
			"additionalProperties": false,
		},
	},
}

// QuestionsOutput is the parsed structured response.
type QuestionsOutput struct {
	ThinkingContent string   `json:"thinking_content"`
	ResponseContent []string `json:"response_content"`
}

// ParseQuestions parses the structured LLM response.
func ParseQuestions(parsedJSON json.RawMessage) (*QuestionsOutput, error) {
	var out QuestionsOutput
	if err := json.Unmarshal(parsedJSON, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
