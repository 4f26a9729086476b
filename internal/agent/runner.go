package agent

import (
	"context"
	"log"
	"sync"

	"github.com/rahul/kestrel/internal/event"
	"github.com/rahul/kestrel/internal/observability"
	"github.com/rahul/kestrel/internal/plan"
	"github.com/rahul/kestrel/internal/tools"
)

// PlanStore persists plan state across messages.
type PlanStore interface {
	SavePlan(chatID string, pl *plan.Plan) error
	AddMessage(chatID string, role string, content string) error
}

// Runner drives a plan to completion one step at a time: plan, execute,
// reconcile, repeat. A step that suspends on user input parks the whole
// session; the next inbound message from that chat resumes it.
type Runner struct {
	Planner  *Planner
	Executor *Executor
	Out      tools.Sender
	Store    PlanStore
	Log      *observability.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	plan    *plan.Plan
	waiting bool
}

func NewRunner(planner *Planner, executor *Executor, out tools.Sender, store PlanStore, logger *observability.Logger) *Runner {
	return &Runner{
		Planner:  planner,
		Executor: executor,
		Out:      out,
		Store:    store,
		Log:      logger,
		sessions: make(map[string]*session),
	}
}

// HandleMessage processes one inbound user message: either it resumes a
// parked session with the user's reply, or it creates a fresh plan and
// starts executing it.
func (r *Runner) HandleMessage(ctx context.Context, chatID string, msg Message) {
	if err := r.Store.AddMessage(chatID, "human", msg.Text); err != nil {
		log.Printf("failed to record message: %v", err)
	}

	r.mu.Lock()
	sess := r.sessions[chatID]
	resuming := sess != nil && sess.waiting
	if resuming {
		sess.waiting = false
	}
	r.mu.Unlock()

	if !resuming {
		observability.SetStatus(observability.PhasePlanning, "")
		pl, err := r.Planner.CreatePlan(ctx, msg)
		if err != nil {
			log.Printf("planning failed: %v", err)
			r.send(chatID, "I could not work out a plan for that request.")
			observability.SetStatus(observability.PhaseIdle, "")
			return
		}
		sess = &session{plan: pl}
		r.mu.Lock()
		r.sessions[chatID] = sess
		r.mu.Unlock()
		r.savePlan(chatID, pl)
	}

	r.runPlan(ctx, chatID, sess, msg)
}

// runPlan executes pending steps in order until the plan is done or a
// step suspends.
func (r *Runner) runPlan(ctx context.Context, chatID string, sess *session, msg Message) {
	ctx = tools.WithChatID(ctx, chatID)
	pl := sess.plan

	for {
		idx := pl.FirstPending()
		if idx < 0 {
			break
		}
		st := pl.Steps[idx]
		observability.SetStatus(observability.PhaseExecuting, st.Description)

		suspended := false
		for ev := range r.Executor.ExecuteStep(ctx, pl, st, msg) {
			switch ev := ev.(type) {
			case event.StepEvent:
				r.Log.LogStep(chatID, pl.ID, ev.Step.ID, string(ev.Step.Status))
			case event.MessageEvent:
				r.send(chatID, ev.Text)
			case event.ErrorEvent:
				r.send(chatID, ev.Message)
			case event.WaitEvent:
				suspended = true
			}
		}
		r.savePlan(chatID, pl)

		if suspended {
			r.mu.Lock()
			sess.waiting = true
			r.mu.Unlock()
			observability.SetStatus(observability.PhaseWaiting, st.Description)
			return
		}

		if _, err := r.Planner.UpdatePlan(ctx, pl, st); err != nil {
			// The current plan remains valid; keep executing it.
			log.Printf("plan reconciliation failed: %v", err)
		}
		r.savePlan(chatID, pl)
	}

	observability.SetStatus(observability.PhaseIdle, "")
	if last := lastResult(pl); last != "" {
		if err := r.Store.AddMessage(chatID, "ai", last); err != nil {
			log.Printf("failed to record result: %v", err)
		}
	}
}

func (r *Runner) send(chatID, text string) {
	if text == "" {
		return
	}
	if err := r.Out.Send(chatID, text); err != nil {
		log.Printf("failed to send message: %v", err)
	}
}

func (r *Runner) savePlan(chatID string, pl *plan.Plan) {
	if err := r.Store.SavePlan(chatID, pl); err != nil {
		log.Printf("failed to persist plan: %v", err)
	}
}

func lastResult(pl *plan.Plan) string {
	for i := len(pl.Steps) - 1; i >= 0; i-- {
		if pl.Steps[i].Status == plan.StatusCompleted && pl.Steps[i].Result != "" {
			return pl.Steps[i].Result
		}
	}
	return ""
}
