package quiz

import "encoding/json"

// QuizSchema is the JSON schema for the quiz output.
var QuizSchema = map[string]any{
	"type": "json_schema",
	"json_schema": map[string]any{
		"name":   "quiz_output",
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
						"type": "object",
						"properties": map[string]any{
							"question": map[string]any{
								"type":        "string",
								"description": "Question to be asked",
							},
							"extra_content": map[string]any{
								"type":        "string",
								"description": "Optionally any extra content such as markdown formula etc",
							},
							"image_link": map[string]any{
								"type":        "string",
								"description": "Optionally and image link related to the question",
							},
							"options": map[string]any{
								"type": "object",
								"additionalProperties": map[string]any{
									"type": "boolean",
								},
								"description": "A dictionary with string options each pointing to a bool, True if the option is correct and false otherwise",
							},
						},
						"required":             []string{"question", "options"},
						"additionalProperties": false,
					},
					"description": "A list containing questions items",
				},
			},
			"required":             []string{"thinking_content", "response_content"},
			"additionalProperties": false,
		},
	},
}

// QuestionItem is one generated multiple choice question. Options map each
// option text to whether it is the correct answer.
type QuestionItem struct {
	Question     string          `json:"question"`
	ExtraContent string          `json:"extra_content,omitempty"`
	ImageLink    string          `json:"image_link,omitempty"`
	Options      map[string]bool `json:"options"`
}

// Output is the parsed structured response.
type Output struct {
	ThinkingContent string         `json:"thinking_content"`
	ResponseContent []QuestionItem `json:"response_content"`
}

// ParseOutput parses the structured LLM response.
func ParseOutput(parsedJSON json.RawMessage) (*Output, error) {
	var out Output
	if err := json.Unmarshal(parsedJSON, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
