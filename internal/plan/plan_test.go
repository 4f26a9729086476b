package plan

import "testing"

func TestSanitize(t *testing.T) {
	steps := Sanitize([]Candidate{
		{ID: " 1 ", Description: "  first step  "},
		{ID: "2", Description: "   "},
		{Description: "third step"},
	})

	if len(steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(steps))
	}
	if steps[0].ID != "1" || steps[0].Description != "first step" {
		t.Errorf("first step not trimmed: %+v", steps[0])
	}
	if steps[1].ID != "2" {
		t.Errorf("expected ordinal id 2, got %q", steps[1].ID)
	}
	for _, s := range steps {
		if s.Status != StatusPending {
			t.Errorf("step %s not pending: %s", s.ID, s.Status)
		}
	}
}

func TestIsDone(t *testing.T) {
	cases := map[Status]bool{
		StatusPending:   false,
		StatusRunning:   false,
		StatusCompleted: true,
		StatusFailed:    true,
	}
	for status, want := range cases {
		s := &Step{Status: status}
		if s.IsDone() != want {
			t.Errorf("IsDone(%s) = %v, want %v", status, s.IsDone(), want)
		}
	}
}

func TestFirstPending(t *testing.T) {
	p := &Plan{Steps: []*Step{
		{ID: "1", Status: StatusCompleted},
		{ID: "2", Status: StatusFailed},
		{ID: "3", Status: StatusPending},
	}}
	if got := p.FirstPending(); got != 2 {
		t.Errorf("FirstPending = %d, want 2", got)
	}

	p.Steps[2].Status = StatusCompleted
	if got := p.FirstPending(); got != -1 {
		t.Errorf("FirstPending on all-done plan = %d, want -1", got)
	}
}
