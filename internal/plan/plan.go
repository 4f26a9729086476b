// Package plan holds the persistent task list the agent works through.
package plan

import (
	"strconv"
	"strings"
)

// Status is the lifecycle state of a single step.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Step is one unit of plan work with an independent lifecycle. A step
// transitions to completed or failed exactly once; a done step is never
// re-executed or rewritten by reconciliation.
type Step struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Status      Status   `json:"status"`
	Success     bool     `json:"success,omitempty"`
	Result      string   `json:"result,omitempty"`
	Error       string   `json:"error,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
}

// IsDone reports whether the step has reached a terminal state.
func (s *Step) IsDone() bool {
	return s.Status == StatusCompleted || s.Status == StatusFailed
}

// Plan is an ordered sequence of steps pursuing one goal. Sequence order
// is execution order. The goal is fixed at creation; reconciliation only
// touches the step list.
type Plan struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Goal     string  `json:"goal"`
	Language string  `json:"language,omitempty"`
	Steps    []*Step `json:"steps"`
}

// FirstPending returns the index of the first step that is not done,
// or -1 when every step is terminal.
func (p *Plan) FirstPending() int {
	for i, s := range p.Steps {
		if !s.IsDone() {
			return i
		}
	}
	return -1
}

// Candidate is one entry of a step list proposed by the planner before
// sanitization.
type Candidate struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// Sanitize drops candidates without a usable description, trims text and
// assigns ordinal ids where the planner left them blank. The resulting
// steps are all pending.
func Sanitize(candidates []Candidate) []*Step {
	steps := make([]*Step, 0, len(candidates))
	for _, c := range candidates {
		desc := strings.TrimSpace(c.Description)
		if desc == "" {
			continue
		}
		id := strings.TrimSpace(c.ID)
		if id == "" {
			id = strconv.Itoa(len(steps) + 1)
		}
		steps = append(steps, &Step{
			ID:          id,
			Description: desc,
			Status:      StatusPending,
		})
	}
	return steps
}

// StepResult is the structured payload the execution loop is asked to
// produce when it finishes a step.
type StepResult struct {
	Success     bool     `json:"success"`
	Result      string   `json:"result"`
	Attachments []string `json:"attachments"`
}
