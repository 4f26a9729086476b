// Package event defines the closed set of events exchanged between the
// tool loop, the step executor and the outer runner.
package event

import "github.com/rahul/kestrel/internal/plan"

// Event is the tagged union of everything a step execution can emit.
// Implementations are immutable value objects; ownership passes to the
// consumer that receives them from the stream.
type Event interface {
	isEvent()
}

// StepStatus is the lifecycle signal carried by a StepEvent.
type StepStatus string

const (
	StepStarted   StepStatus = "started"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
)

// ToolStatus distinguishes the two halves of a tool invocation.
type ToolStatus string

const (
	ToolCalling ToolStatus = "calling"
	ToolCalled  ToolStatus = "called"
)

// StepEvent reports a step lifecycle transition together with a snapshot
// of the step at that moment.
type StepEvent struct {
	Status StepStatus `json:"status"`
	Step   plan.Step  `json:"step"`
}

// ToolEvent reports one half of a tool invocation. FunctionName equals
// ToolName for single-function tools and carries the action for
// multi-action ones.
type ToolEvent struct {
	Status       ToolStatus `json:"status"`
	ToolCallID   string     `json:"tool_call_id"`
	ToolName     string     `json:"tool_name"`
	FunctionName string     `json:"function_name"`
	Arguments    string     `json:"arguments,omitempty"`
	Result       string     `json:"result,omitempty"`
}

// MessageEvent carries user-facing text produced during execution.
type MessageEvent struct {
	Text        string   `json:"text"`
	Attachments []string `json:"attachments,omitempty"`
}

// ErrorEvent carries a short, user-presentable failure description.
type ErrorEvent struct {
	Message string `json:"message"`
}

// WaitEvent signals that the step is suspended awaiting user input.
// The step stays non-terminal until a later invocation resumes it.
type WaitEvent struct{}

// DoneEvent marks the end of an event stream.
type DoneEvent struct{}

func (StepEvent) isEvent()    {}
func (ToolEvent) isEvent()    {}
func (MessageEvent) isEvent() {}
func (ErrorEvent) isEvent()   {}
func (WaitEvent) isEvent()    {}
func (DoneEvent) isEvent()    {}
