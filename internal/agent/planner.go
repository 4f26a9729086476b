package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rahul/kestrel/internal/observability"
	"github.com/rahul/kestrel/internal/parse"
	"github.com/rahul/kestrel/internal/plan"
	"github.com/tmc/langchaingo/llms"
)

// Reviser produces candidate step lists from planning prompts. The
// production implementation talks to the LLM; tests substitute a canned
// one.
type Reviser interface {
	Revise(ctx context.Context, prompt string) (string, error)
}

// LLMReviser asks a langchaingo model for a plan, without tools.
type LLMReviser struct {
	Model  llms.Model
	System string
}

func (r *LLMReviser) Revise(ctx context.Context, prompt string) (string, error) {
	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(r.System)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(prompt)},
		},
	}
	resp, err := r.Model.GenerateContent(ctx, messages, llms.WithJSONMode())
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

// Planner creates plans and reconciles them against step outcomes.
type Planner struct {
	Reviser Reviser
	Log     *observability.Logger
}

func NewPlanner(reviser Reviser, log *observability.Logger) *Planner {
	return &Planner{Reviser: reviser, Log: log}
}

// planDraft is the shape the planning model is asked to reply with.
type planDraft struct {
	Title    string           `json:"title"`
	Goal     string           `json:"goal"`
	Language string           `json:"language"`
	Steps    []plan.Candidate `json:"steps"`
}

// CreatePlan builds a fresh plan for an inbound message. A recognized
// forecast request overrides whatever the model proposed with a single
// canonical step.
func (p *Planner) CreatePlan(ctx context.Context, msg Message) (*plan.Plan, error) {
	prompt := fmt.Sprintf(createPlanPromptTmpl, msg.Text, strings.Join(msg.Attachments, "\n"))
	raw, err := p.Reviser.Revise(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}

	var draft planDraft
	if err := parse.Into(raw, &draft); err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}

	steps := plan.Sanitize(draft.Steps)
	steps = applyForecastOverride(steps, msg.Text)

	goal := strings.TrimSpace(draft.Goal)
	if goal == "" {
		goal = msg.Text
	}

	pl := &plan.Plan{
		ID:       uuid.NewString(),
		Title:    strings.TrimSpace(draft.Title),
		Goal:     goal,
		Language: strings.TrimSpace(draft.Language),
		Steps:    steps,
	}
	p.Log.LogPlan("", pl.ID, "created", len(pl.Steps))
	return pl, nil
}

// applyForecastOverride collapses the step list into the single
// canonical forecast step when the inbound message is a forecast
// request. The city defaults to a well-known token when inextractable.
func applyForecastOverride(steps []*plan.Step, inbound string) []*plan.Step {
	if !isForecastQuery(inbound) {
		return steps
	}
	city := ExtractCity(inbound)
	if city == "" {
		city = defaultCity
	}
	return []*plan.Step{{
		ID:          "1",
		Description: forecastStepDescription(city),
		Status:      plan.StatusPending,
	}}
}

// UpdatePlan reconciles the plan after a step finished: the planner
// proposes revised steps, which replace everything from the first
// not-done step onward. Done steps are never touched; a plan with no
// pending step is returned unchanged.
func (p *Planner) UpdatePlan(ctx context.Context, pl *plan.Plan, st *plan.Step) (*plan.Plan, error) {
	planJSON, err := json.Marshal(pl)
	if err != nil {
		return pl, err
	}
	stepJSON, err := json.Marshal(st)
	if err != nil {
		return pl, err
	}

	prompt := fmt.Sprintf(updatePlanPromptTmpl, planJSON, stepJSON)
	raw, err := p.Reviser.Revise(ctx, prompt)
	if err != nil {
		return pl, fmt.Errorf("update plan: %w", err)
	}

	var draft planDraft
	if err := parse.Into(raw, &draft); err != nil {
		return pl, fmt.Errorf("update plan: %w", err)
	}
	newSteps := plan.Sanitize(draft.Steps)

	idx := pl.FirstPending()
	if idx < 0 {
		return pl, nil
	}
	pl.Steps = append(pl.Steps[:idx:idx], newSteps...)
	p.Log.LogPlan("", pl.ID, "updated", len(pl.Steps))
	return pl, nil
}
