package agent

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePrompt(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestGetSystemPrompt_OrderAndExclusion(t *testing.T) {
	dir := t.TempDir()
	writePrompt(t, dir, "user.md", "USER")
	writePrompt(t, dir, "identity.md", "IDENTITY")
	writePrompt(t, dir, "executor.md", "EXECUTOR")
	writePrompt(t, dir, "capabilities.md", "CAPABILITIES")
	writePrompt(t, dir, "planner.md", "PLANNER")
	writePrompt(t, dir, "extras.md", "EXTRAS")
	writePrompt(t, dir, "notes.txt", "IGNORED")

	got := NewPromptManager(dir).GetSystemPrompt()

	want := []string{"IDENTITY", "CAPABILITIES", "EXECUTOR", "USER", "EXTRAS"}
	last := -1
	for _, frag := range want {
		idx := strings.Index(got, frag)
		if idx < 0 {
			t.Fatalf("fragment %q missing from prompt", frag)
		}
		if idx < last {
			t.Errorf("fragment %q out of order", frag)
		}
		last = idx
	}
	if strings.Contains(got, "PLANNER") {
		t.Error("planner.md leaked into the system prompt")
	}
	if strings.Contains(got, "IGNORED") {
		t.Error("non-markdown file included")
	}
}

func TestGetSystemPrompt_MissingDirFallsBack(t *testing.T) {
	got := NewPromptManager(filepath.Join(t.TempDir(), "nope")).GetSystemPrompt()
	if got != defaultSystemPrompt {
		t.Errorf("got %q, want the built-in default", got)
	}
}

func TestGetPlannerPrompt(t *testing.T) {
	dir := t.TempDir()
	writePrompt(t, dir, "planner.md", "PLANNER")

	pm := NewPromptManager(dir)
	if got := pm.GetPlannerPrompt(); got != "PLANNER" {
		t.Errorf("got %q", got)
	}
	if got := NewPromptManager(t.TempDir()).GetPlannerPrompt(); got != defaultPlannerPrompt {
		t.Errorf("missing planner.md should fall back, got %q", got)
	}
}
