package prompts

import (
	"reflect"
	"testing"
)

func TestExtractVariables(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "simple variables",
			text: "Hello {{.Name}}, you have {{.Count}} items",
			want: []string{"Count", "Name"},
		},
		{
			name: "nested fields",
			text: "{{.Dataset.Columns}} and {{.Question}}",
			want: []string{"Dataset.Columns", "Question"},
		},
		{
			name: "duplicates collapsed",
			text: "{{.Topics}} then {{.Topics}} again",
			want: []string{"Topics"},
		},
		{
			name: "no variables",
			text: "plain text with {braces} but no templates",
			want: nil,
		},
		{
			name: "spaced syntax",
			text: "{{ .Text }}",
			want: []string{"Text"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractVariables(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractVariables() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHashText(t *testing.T) {
	h1 := HashText("some prompt")
	h2 := HashText("some prompt")
	h3 := HashText("different prompt")

	if h1 != h2 {
		t.Error("same text should hash identically")
	}
	if h1 == h3 {
		t.Error("different text should hash differently")
	}
	if len(h1) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(h1))
	}
}

func TestRender(t *testing.T) {
	got, err := Render("Translate to {{.TargetLanguage}}: {{.Text}}", map[string]string{
		"TargetLanguage": "French",
		"Text":           "hello",
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got != "Translate to French: hello" {
		t.Errorf("Render() = %q", got)
	}
}

func TestRender_MissingKey(t *testing.T) {
	if _, err := Render("{{.Missing}}", map[string]string{}); err == nil {
		t.Error("expected error for missing template key")
	}
}

func TestRender_BadTemplate(t *testing.T) {
	if _, err := Render("{{.Unclosed", nil); err == nil {
		t.Error("expected error for malformed template")
	}
}
