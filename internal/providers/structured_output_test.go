package providers

import (
	"context"
	"encoding/json"
	"testing"
)

func TestParseStructuredJSON_StripsCodeFence(t *testing.T) {
	content := "```json\n{\"ok\":true}\n```"
	got, err := parseStructuredJSON(content)
	if err != nil {
		t.Fatalf("parseStructuredJSON() error = %v", err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(got, &parsed); err != nil {
		t.Fatalf("failed to unmarshal parsed JSON: %v", err)
	}
	if ok, _ := parsed["ok"].(bool); !ok {
		t.Fatalf("expected ok=true, got %#v", parsed)
	}
}

func TestParseStructuredJSON_RecoversEmbeddedObject(t *testing.T) {
	content := "Here is the quiz you asked for:\n{\"response_content\":\"done\"}\nEnjoy!"
	got, err := parseStructuredJSON(content)
	if err != nil {
		t.Fatalf("parseStructuredJSON() error = %v", err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(got, &parsed); err != nil {
		t.Fatalf("failed to unmarshal parsed JSON: %v", err)
	}
	if parsed["response_content"] != "done" {
		t.Fatalf("expected response_content=done, got %#v", parsed)
	}
}

func TestParseStructuredJSON_Empty(t *testing.T) {
	if _, err := parseStructuredJSON("   "); err == nil {
		t.Fatal("expected error for empty content")
	}
	if _, err := parseStructuredJSON("no json here"); err == nil {
		t.Fatal("expected error for non-JSON content")
	}
}

func TestValidateStructuredJSON_EnforcesCanonicalBounds(t *testing.T) {
	schema := json.RawMessage(`{
		"name":"quiz_questions",
		"strict":true,
		"schema":{
			"type":"object",
			"properties":{
				"count":{"type":"integer","minimum":1,"maximum":10}
			},
			"required":["count"],
			"additionalProperties":false
		}
	}`)

	valid := json.RawMessage(`{"count":5}`)
	if err := validateStructuredJSON(schema, valid); err != nil {
		t.Fatalf("validateStructuredJSON(valid) error = %v", err)
	}

	invalid := json.RawMessage(`{"count":50}`)
	if err := validateStructuredJSON(schema, invalid); err == nil {
		t.Fatal("validateStructuredJSON(invalid) expected error, got nil")
	}
}

func TestExtractValidationSchema_Wrappers(t *testing.T) {
	inner := `{"type":"object"}`

	got, err := extractValidationSchema(json.RawMessage(`{"name":"x","schema":` + inner + `}`))
	if err != nil {
		t.Fatalf("extractValidationSchema() error = %v", err)
	}
	if string(got) != inner {
		t.Errorf("schema wrapper: got %s", got)
	}

	got, err = extractValidationSchema(json.RawMessage(`{"type":"json_schema","json_schema":{"schema":` + inner + `}}`))
	if err != nil {
		t.Fatalf("extractValidationSchema() error = %v", err)
	}
	if string(got) != inner {
		t.Errorf("json_schema wrapper: got %s", got)
	}

	raw := json.RawMessage(inner)
	got, err = extractValidationSchema(raw)
	if err != nil {
		t.Fatalf("extractValidationSchema() error = %v", err)
	}
	if string(got) != inner {
		t.Errorf("bare schema: got %s", got)
	}
}

func quizSchema() *ResponseFormat {
	return &ResponseFormat{
		Type: "json_schema",
		JSONSchema: json.RawMessage(`{
			"name":"answer",
			"schema":{
				"type":"object",
				"properties":{
					"response_content":{"type":"string"}
				},
				"required":["response_content"],
				"additionalProperties":false
			}
		}`),
	}
}

func TestChatStructured_ValidFirstTry(t *testing.T) {
	mock := NewMockClient()
	mock.ResponseJSON = json.RawMessage(`{"response_content":"hello"}`)

	result, err := ChatStructured(context.Background(), mock, &ChatRequest{
		Messages:       []Message{{Role: "user", Content: "go"}},
		ResponseFormat: quizSchema(),
	})
	if err != nil {
		t.Fatalf("ChatStructured() error = %v", err)
	}
	if result.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", result.Attempts)
	}
	var parsed map[string]any
	if err := json.Unmarshal(result.ParsedJSON, &parsed); err != nil {
		t.Fatalf("failed to unmarshal ParsedJSON: %v", err)
	}
	if parsed["response_content"] != "hello" {
		t.Errorf("unexpected parsed content: %#v", parsed)
	}
}

func TestChatStructured_RepairsInvalidOutput(t *testing.T) {
	mock := NewMockClient()
	mock.Responses = []string{
		"sorry, no JSON today",
		`{"response_content":"fixed"}`,
	}

	result, err := ChatStructured(context.Background(), mock, &ChatRequest{
		Messages:       []Message{{Role: "user", Content: "go"}},
		ResponseFormat: quizSchema(),
	})
	if err != nil {
		t.Fatalf("ChatStructured() error = %v", err)
	}
	if result.Attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", result.Attempts)
	}
	if !result.Success {
		t.Error("expected success after repair")
	}
}

func TestChatStructured_FailsAfterMaxAttempts(t *testing.T) {
	mock := NewMockClient()
	mock.ResponseText = "still not JSON"

	result, err := ChatStructured(context.Background(), mock, &ChatRequest{
		Messages:       []Message{{Role: "user", Content: "go"}},
		ResponseFormat: quizSchema(),
	})
	if err == nil {
		t.Fatal("expected error after exhausting repair attempts")
	}
	if result == nil {
		t.Fatal("expected last result alongside error")
	}
	if result.Success {
		t.Error("result should not be marked successful")
	}
	if result.ErrorType != "structured_output" {
		t.Errorf("unexpected error type: %s", result.ErrorType)
	}
	if got := mock.RequestCount(); got != int64(maxStructuredRepairAttempts+1) {
		t.Errorf("expected %d requests, got %d", maxStructuredRepairAttempts+1, got)
	}
}

func TestChatStructured_RequiresFormat(t *testing.T) {
	mock := NewMockClient()
	if _, err := ChatStructured(context.Background(), mock, &ChatRequest{
		Messages: []Message{{Role: "user", Content: "go"}},
	}); err == nil {
		t.Fatal("expected error when response format missing")
	}
}
