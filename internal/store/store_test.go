package store

import (
	"path/filepath"
	"testing"

	"github.com/rahul/kestrel/internal/plan"
	"github.com/tmc/langchaingo/llms"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "kestrel.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.DB.Close() })
	return s
}

func TestSavePlan_Roundtrip(t *testing.T) {
	s := newTestStore(t)

	pl := &plan.Plan{
		ID:       "plan-1",
		Title:    "Weather",
		Goal:     "get the forecast",
		Language: "en",
		Steps: []*plan.Step{
			{ID: "1", Description: "first", Status: plan.StatusCompleted, Success: true, Result: "done", Attachments: []string{"a.txt"}},
			{ID: "2", Description: "second", Status: plan.StatusPending},
		},
	}
	if err := s.SavePlan("chat-9", pl); err != nil {
		t.Fatal(err)
	}

	got, err := s.LoadPlan("chat-9")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("plan not found")
	}
	if got.ID != "plan-1" || got.Title != "Weather" || got.Goal != "get the forecast" || got.Language != "en" {
		t.Errorf("plan header = %+v", got)
	}
	if len(got.Steps) != 2 {
		t.Fatalf("steps = %d, want 2", len(got.Steps))
	}
	first := got.Steps[0]
	if first.Status != plan.StatusCompleted || !first.Success || first.Result != "done" {
		t.Errorf("step 0 = %+v", first)
	}
	if len(first.Attachments) != 1 || first.Attachments[0] != "a.txt" {
		t.Errorf("attachments = %v", first.Attachments)
	}
	if got.Steps[1].Status != plan.StatusPending {
		t.Errorf("step 1 = %+v", got.Steps[1])
	}
}

func TestSavePlan_ReplacesPrevious(t *testing.T) {
	s := newTestStore(t)

	old := &plan.Plan{ID: "plan-1", Steps: []*plan.Step{
		{ID: "1", Description: "a", Status: plan.StatusPending},
		{ID: "2", Description: "b", Status: plan.StatusPending},
	}}
	if err := s.SavePlan("chat-9", old); err != nil {
		t.Fatal(err)
	}

	// Same chat, revised plan with fewer steps.
	revised := &plan.Plan{ID: "plan-2", Steps: []*plan.Step{
		{ID: "1", Description: "only", Status: plan.StatusPending},
	}}
	if err := s.SavePlan("chat-9", revised); err != nil {
		t.Fatal(err)
	}

	got, err := s.LoadPlan("chat-9")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "plan-2" || len(got.Steps) != 1 || got.Steps[0].Description != "only" {
		t.Errorf("got %+v", got)
	}

	// The superseded plan's step rows must not linger.
	var orphans int
	if err := s.DB.QueryRow(`SELECT COUNT(*) FROM steps WHERE plan_id = ?`, "plan-1").Scan(&orphans); err != nil {
		t.Fatal(err)
	}
	if orphans != 0 {
		t.Errorf("%d step rows left behind for the replaced plan", orphans)
	}
}

func TestLoadPlan_Missing(t *testing.T) {
	s := newTestStore(t)
	got, err := s.LoadPlan("nobody")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}

func TestGetHistory_ChronologicalWindow(t *testing.T) {
	s := newTestStore(t)

	for _, m := range []struct{ role, text string }{
		{"human", "one"},
		{"ai", "two"},
		{"human", "three"},
		{"ai", "four"},
	} {
		if err := s.AddMessage("chat-9", m.role, m.text); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.AddMessage("other", "human", "noise"); err != nil {
		t.Fatal(err)
	}

	history, err := s.GetHistory("chat-9", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 3 {
		t.Fatalf("history = %d messages, want 3", len(history))
	}

	wantText := []string{"two", "three", "four"}
	wantRole := []llms.ChatMessageType{llms.ChatMessageTypeAI, llms.ChatMessageTypeHuman, llms.ChatMessageTypeAI}
	for i, msg := range history {
		if msg.Role != wantRole[i] {
			t.Errorf("message %d role = %v, want %v", i, msg.Role, wantRole[i])
		}
		part, ok := msg.Parts[0].(llms.TextContent)
		if !ok || part.Text != wantText[i] {
			t.Errorf("message %d = %#v, want %q", i, msg.Parts[0], wantText[i])
		}
	}
}
