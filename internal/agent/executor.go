package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rahul/kestrel/internal/event"
	"github.com/rahul/kestrel/internal/governance"
	"github.com/rahul/kestrel/internal/observability"
	"github.com/rahul/kestrel/internal/parse"
	"github.com/rahul/kestrel/internal/plan"
	"github.com/rahul/kestrel/internal/weather"
)

// Message is one inbound user message.
type Message struct {
	Text        string
	Attachments []string
}

// Executor turns one step of a plan into a stream of lifecycle events.
//
// Every stream starts with StepEvent(started) and ends in exactly one of
// three ways: a terminal StepEvent (completed or failed), or a WaitEvent
// that parks the step until the user replies. Events are emitted in
// order; abandoning the stream is signalled by cancelling ctx.
type Executor struct {
	Loop    Loop
	Weather *weather.Pipeline
	Gate    *governance.Gate
	Log     *observability.Logger
}

func NewExecutor(loop Loop, pipeline *weather.Pipeline, gate *governance.Gate, log *observability.Logger) *Executor {
	return &Executor{Loop: loop, Weather: pipeline, Gate: gate, Log: log}
}

// restrictedFamily is the tool family hidden while a forecast step runs
// through the generic loop, so the model follows the browser procedure
// instead of searching.
const restrictedFamily = "search"

// ExecuteStep runs one step and returns its lazy event stream. The step
// snapshot inside each StepEvent reflects the step at emission time.
func (e *Executor) ExecuteStep(ctx context.Context, pl *plan.Plan, st *plan.Step, msg Message) <-chan event.Event {
	ch := make(chan event.Event)

	go func() {
		defer close(ch)
		emit := func(ev event.Event) bool {
			select {
			case ch <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		description := st.Description
		cls := Classify(st.Description, msg.Text)
		switch cls.Kind {
		case ClassForecastWithCity:
			e.runForecast(ctx, st, msg.Text, cls.City, emit)
			return
		case ClassForecastNoCity:
			description = canonicalForecastInstruction
			release := e.Gate.Restrict(restrictedFamily)
			// The restriction lives exactly as long as this step,
			// whatever the exit path.
			defer release()
		}

		prompt := buildExecutionPrompt(description, msg, pl.Language)

		st.Status = plan.StatusRunning
		if !emit(event.StepEvent{Status: event.StepStarted, Step: *st}) {
			return
		}

		// The loop runs under a per-step context so every early return
		// below releases its producer goroutine; otherwise it would
		// block forever sending events this step no longer reads.
		loopCtx, cancelLoop := context.WithCancel(ctx)
		defer cancelLoop()

		for ev := range e.Loop.Run(loopCtx, prompt) {
			switch ev := ev.(type) {
			case event.ErrorEvent:
				st.Status = plan.StatusFailed
				st.Error = ev.Message
				if !emit(event.StepEvent{Status: event.StepFailed, Step: *st}) {
					return
				}
				emit(ev)
				return

			case event.MessageEvent:
				res := parseStepResult(ev.Text)
				st.Status = plan.StatusCompleted
				st.Success = res.Success
				st.Result = res.Result
				st.Attachments = res.Attachments
				if !emit(event.StepEvent{Status: event.StepCompleted, Step: *st}) {
					return
				}
				if st.Result != "" {
					if !emit(event.MessageEvent{Text: st.Result, Attachments: st.Attachments}) {
						return
					}
				}
				return

			case event.ToolEvent:
				if ev.FunctionName == "message_ask_user" {
					switch ev.Status {
					case event.ToolCalling:
						if !emit(event.MessageEvent{Text: askText(ev.Arguments)}) {
							return
						}
					case event.ToolCalled:
						emit(event.WaitEvent{})
						return
					}
					continue
				}
				if !emit(ev) {
					return
				}

			case event.DoneEvent:
				// End-of-stream marker of the underlying loop; the
				// terminal fallback below owns the step's close.

			default:
				if !emit(ev) {
					return
				}
			}
		}

		// Terminal fallback: the loop's stream is exhausted without an
		// outcome, so the step is forced completed.
		st.Status = plan.StatusCompleted
		emit(event.StepEvent{Status: event.StepCompleted, Step: *st})
	}()

	return ch
}

// runForecast short-circuits a recognized forecast step into the
// retrieval pipeline, bypassing the tool loop entirely.
func (e *Executor) runForecast(ctx context.Context, st *plan.Step, userText, city string, emit func(event.Event) bool) {
	st.Status = plan.StatusRunning
	if !emit(event.StepEvent{Status: event.StepStarted, Step: *st}) {
		return
	}

	res := e.Weather.Lookup(ctx, city, userText, emit)
	if !res.OK() {
		st.Status = plan.StatusFailed
		st.Error = res.Err
		if !emit(event.StepEvent{Status: event.StepFailed, Step: *st}) {
			return
		}
		emit(event.ErrorEvent{Message: res.Err})
		return
	}

	st.Status = plan.StatusCompleted
	st.Success = true
	st.Result = res.Summary
	if !emit(event.StepEvent{Status: event.StepCompleted, Step: *st}) {
		return
	}
	emit(event.MessageEvent{Text: res.Summary})
}

func buildExecutionPrompt(description string, msg Message, language string) string {
	if language == "" {
		language = "en"
	}
	return fmt.Sprintf(executionPromptTmpl, description, msg.Text, strings.Join(msg.Attachments, "\n"), language)
}

// parseStepResult repairs the loop's final message into the structured
// step outcome. Text with no recoverable structure is kept verbatim as a
// successful free-form result rather than failing the step.
func parseStepResult(text string) plan.StepResult {
	var res plan.StepResult
	if err := parse.Into(text, &res); err != nil {
		return plan.StepResult{Success: true, Result: text}
	}
	return res
}

// askText extracts the question from a message_ask_user call's arguments.
func askText(arguments string) string {
	var args struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return arguments
	}
	return args.Text
}
