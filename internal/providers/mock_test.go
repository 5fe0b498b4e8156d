package providers

import (
	"context"
	"strings"
	"testing"
)

func TestMockClient_StreamMatchesContent(t *testing.T) {
	mock := NewMockClient()
	mock.ResponseText = "streamed mock reply"
	mock.FragmentSize = 4

	var fragments []string
	result, err := mock.ChatStream(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	}, func(fragment string) error {
		fragments = append(fragments, fragment)
		return nil
	})
	if err != nil {
		t.Fatalf("ChatStream() error = %v", err)
	}

	if len(fragments) < 2 {
		t.Errorf("expected multiple fragments, got %d", len(fragments))
	}
	if joined := strings.Join(fragments, ""); joined != result.Content {
		t.Errorf("fragments %q should concatenate to content %q", joined, result.Content)
	}
}

func TestMockClient_FailAfter(t *testing.T) {
	mock := NewMockClient()
	mock.FailAfter = 1

	ctx := context.Background()
	req := &ChatRequest{Messages: []Message{{Role: "user", Content: "hi"}}}

	if _, err := mock.Chat(ctx, req); err != nil {
		t.Fatalf("first request should succeed: %v", err)
	}
	if _, err := mock.Chat(ctx, req); err == nil {
		t.Fatal("second request should fail")
	}
	if got := mock.RequestCount(); got != 2 {
		t.Errorf("expected 2 requests recorded, got %d", got)
	}
}
