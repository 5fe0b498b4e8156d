package analysis

import (
	"strings"
	"testing"
)

func TestCreateChatRequest_Interpolation(t *testing.T) {
	req, err := CreateChatRequest(Input{
		Columns:            "['name', 'age', 'city']",
		NumericalColumns:   "['age']",
		CategoricalColumns: "['name', 'city']",
		DTypes:             "{'name': dtype('O'), 'age': dtype('int64')}",
		Question:           "What is the average age?",
	})
	if err != nil {
		t.Fatalf("CreateChatRequest() error = %v", err)
	}

	if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
		t.Fatalf("expected single user message, got %#v", req.Messages)
	}

	prompt := req.Messages[0].Content
	for _, want := range []string{
		"['name', 'age', 'city']",
		"['age']",
		"dtype('int64')",
		"What is the average age?",
		"loaded in the variable df",
		"exec()",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "{{") {
		t.Error("prompt contains unrendered template syntax")
	}
}

func TestCreateChatRequest_Override(t *testing.T) {
	req, err := CreateChatRequest(Input{
		Question:       "any",
		PromptOverride: "Just answer: {{.Question}}",
	})
	if err != nil {
		t.Fatalf("CreateChatRequest() error = %v", err)
	}
	if req.Messages[0].Content != "Just answer: any" {
		t.Errorf("override not used: %q", req.Messages[0].Content)
	}
}
