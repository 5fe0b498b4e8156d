package prompts

import (
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "prompt_overrides.json"), nil)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return store
}

func TestResolver_EmbeddedDefault(t *testing.T) {
	r := NewResolver(nil, nil)
	r.Register(EmbeddedPrompt{
		Key:  "apps.test.user",
		Text: "Answer about {{.Topic}}",
	})

	resolved, err := r.Resolve("apps.test.user")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if resolved.IsOverride {
		t.Error("embedded default should not be marked as override")
	}
	if resolved.Text != "Answer about {{.Topic}}" {
		t.Errorf("unexpected text: %q", resolved.Text)
	}
	if len(resolved.Variables) != 1 || resolved.Variables[0] != "Topic" {
		t.Errorf("unexpected variables: %v", resolved.Variables)
	}
}

func TestResolver_UnknownKey(t *testing.T) {
	r := NewResolver(nil, nil)
	if _, err := r.Resolve("apps.nothing.user"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestResolver_OverrideWins(t *testing.T) {
	store := newTestStore(t)
	r := NewResolver(store, nil)
	r.Register(EmbeddedPrompt{Key: "apps.test.user", Text: "default text"})

	if err := store.SetOverride("apps.test.user", "custom {{.Thing}}", "tweak"); err != nil {
		t.Fatalf("SetOverride() error = %v", err)
	}

	resolved, err := r.Resolve("apps.test.user")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !resolved.IsOverride {
		t.Error("expected override to win")
	}
	if resolved.Text != "custom {{.Thing}}" {
		t.Errorf("unexpected text: %q", resolved.Text)
	}

	// Deleting the override restores the embedded default.
	if err := store.DeleteOverride("apps.test.user"); err != nil {
		t.Fatalf("DeleteOverride() error = %v", err)
	}
	resolved, err = r.Resolve("apps.test.user")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if resolved.IsOverride || resolved.Text != "default text" {
		t.Errorf("expected embedded default back, got %+v", resolved)
	}
}

func TestResolver_RenderPrompt(t *testing.T) {
	r := NewResolver(nil, nil)
	r.Register(EmbeddedPrompt{Key: "apps.test.user", Text: "Hello {{.Name}}"})

	got, err := r.RenderPrompt("apps.test.user", map[string]string{"Name": "Ada"})
	if err != nil {
		t.Fatalf("RenderPrompt() error = %v", err)
	}
	if got != "Hello Ada" {
		t.Errorf("RenderPrompt() = %q", got)
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt_overrides.json")

	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if err := store.SetOverride("apps.notes.user", "new notes prompt", ""); err != nil {
		t.Fatalf("SetOverride() error = %v", err)
	}

	reopened, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("NewStore() reopen error = %v", err)
	}
	o, err := reopened.GetOverride("apps.notes.user")
	if err != nil {
		t.Fatalf("GetOverride() error = %v", err)
	}
	if o == nil || o.Text != "new notes prompt" {
		t.Errorf("override not persisted: %+v", o)
	}

	if got := len(reopened.ListOverrides()); got != 1 {
		t.Errorf("expected 1 override, got %d", got)
	}
}

func TestStore_InvalidKey(t *testing.T) {
	store := newTestStore(t)
	if err := store.SetOverride("bad key!", "text", ""); err == nil {
		t.Error("expected error for invalid key")
	}
	if _, err := store.GetOverride("1leading-digit"); err == nil {
		t.Error("expected error for invalid key")
	}
}
