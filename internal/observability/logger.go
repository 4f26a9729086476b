package observability

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// EventType defines the category of the log event.
type EventType string

const (
	EventTypePlan      EventType = "plan"
	EventTypeStep      EventType = "step"
	EventTypeToolCall  EventType = "tool_call"
	EventTypeRetrieval EventType = "retrieval"
	EventTypeLLM       EventType = "llm"
	EventTypeHeartbeat EventType = "heartbeat"
)

// Event represents a structured log entry.
type Event struct {
	Type      EventType `json:"type"`
	ChatID    string    `json:"chat_id,omitempty"`
	PlanID    string    `json:"plan_id,omitempty"`
	StepID    string    `json:"step_id,omitempty"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Logger handles structured logging: JSONL to stdout, LLM traffic
// additionally to a size-rotated file.
type Logger struct {
	llmLogPath string
	maxSize    int64
}

func NewLogger() *Logger {
	return &Logger{
		llmLogPath: filepath.Join("logs", "llm.jsonl"),
		maxSize:    10 * 1024 * 1024, // 10MB
	}
}

// Log emits a structured JSON event to stdout.
func (l *Logger) Log(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		fmt.Printf("{\"error\": \"failed to marshal event: %v\"}\n", err)
		return
	}
	fmt.Println(string(data))

	if evt.Type == EventTypeLLM {
		l.writeToFile(data)
	}
}

func (l *Logger) writeToFile(data []byte) {
	if err := os.MkdirAll(filepath.Dir(l.llmLogPath), 0755); err != nil {
		log.Printf("failed to create log directory: %v", err)
		return
	}

	info, err := os.Stat(l.llmLogPath)
	if err == nil && info.Size() > l.maxSize {
		l.rotateLogs()
	}

	f, err := os.OpenFile(l.llmLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("failed to open log file: %v", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		log.Printf("failed to write to log file: %v", err)
	}
}

func (l *Logger) rotateLogs() {
	// Simple rotation: keep one .old file
	oldPath := l.llmLogPath + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(l.llmLogPath, oldPath)
}

// Helper methods for common events

func (l *Logger) LogPlan(chatID, planID, action string, stepCount int) {
	l.Log(Event{
		Type:   EventTypePlan,
		ChatID: chatID,
		PlanID: planID,
		Data: map[string]any{
			"action": action,
			"steps":  stepCount,
		},
	})
}

func (l *Logger) LogStep(chatID, planID, stepID, status string) {
	l.Log(Event{
		Type:   EventTypeStep,
		ChatID: chatID,
		PlanID: planID,
		StepID: stepID,
		Data:   map[string]string{"status": status},
	})
}

func (l *Logger) LogToolCall(chatID, stepID, tool, args string) {
	l.Log(Event{
		Type:   EventTypeToolCall,
		ChatID: chatID,
		StepID: stepID,
		Data: map[string]string{
			"tool": tool,
			"args": args,
		},
	})
}

// LogRetrieval records a retrieval pipeline strategy outcome. Failed
// strategies are logged here and nowhere else; the pipeline recovers
// from them by falling through.
func (l *Logger) LogRetrieval(city, stage string, err error) {
	data := map[string]string{"city": city, "stage": stage}
	if err != nil {
		data["error"] = err.Error()
	}
	l.Log(Event{Type: EventTypeRetrieval, Data: data})
}

func (l *Logger) LogLLM(chatID, stepID string, prompt any, response string, toolCalls any) {
	l.Log(Event{
		Type:   EventTypeLLM,
		ChatID: chatID,
		StepID: stepID,
		Data: map[string]any{
			"prompt":     prompt,
			"response":   response,
			"tool_calls": toolCalls,
		},
	})
}

func (l *Logger) LogHeartbeat() {
	l.Log(Event{
		Type: EventTypeHeartbeat,
		Data: map[string]string{"status": "alive"},
	})
}
