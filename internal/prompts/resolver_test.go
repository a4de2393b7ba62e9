package prompts

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestResolver_Resolve(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver(dir, slog.Default())
	r.Register(EmbeddedPrompt{
		Key:  "stages.test.system",
		Text: "Extract {{.Thing}} from the page",
	})

	t.Run("embedded default", func(t *testing.T) {
		resolved, err := r.Resolve("stages.test.system")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resolved.IsOverride {
			t.Error("expected embedded default, got override")
		}
		if len(resolved.Variables) != 1 || resolved.Variables[0] != "Thing" {
			t.Errorf("unexpected variables: %v", resolved.Variables)
		}
	})

	t.Run("override file wins", func(t *testing.T) {
		path := filepath.Join(dir, "stages.test.system.tmpl")
		if err := os.WriteFile(path, []byte("custom prompt"), 0o644); err != nil {
			t.Fatal(err)
		}
		defer os.Remove(path)

		resolved, err := r.Resolve("stages.test.system")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !resolved.IsOverride {
			t.Error("expected override")
		}
		if resolved.Text != "custom prompt" {
			t.Errorf("unexpected text: %q", resolved.Text)
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		if _, err := r.Resolve("stages.missing.system"); err == nil {
			t.Error("expected error for unknown key")
		}
	})
}

func TestExtractVariables(t *testing.T) {
	vars := ExtractVariables("Hello {{.Name}}, you have {{ .Count }} items and {{.Name}} again")
	if len(vars) != 2 || vars[0] != "Count" || vars[1] != "Name" {
		t.Errorf("unexpected variables: %v", vars)
	}
}

func TestHashText(t *testing.T) {
	if HashText("a") == HashText("b") {
		t.Error("different texts should hash differently")
	}
	if len(HashText("a")) != 64 {
		t.Error("expected hex sha256")
	}
}
