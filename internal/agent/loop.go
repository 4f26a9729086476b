package agent

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rahul/kestrel/internal/event"
	"github.com/rahul/kestrel/internal/governance"
	"github.com/rahul/kestrel/internal/observability"
	"github.com/rahul/kestrel/internal/tools"
	"github.com/tmc/langchaingo/llms"
)

// Loop is the generic LLM-driven tool-calling loop the executor
// delegates generic steps to. Run turns a prompt into a lazy event
// stream; Invoke performs one direct tool call on the loop's registry.
type Loop interface {
	Run(ctx context.Context, prompt string) <-chan event.Event
	Invoke(ctx context.Context, tool string, args string) (string, error)
}

// HistoryStore supplies prior conversation context for the loop.
type HistoryStore interface {
	GetHistory(chatID string, limit int) ([]llms.MessageContent, error)
}

// ToolLoop is the production Loop: a ReAct loop over a langchaingo model
// and the tool registry, filtered through the governance gate.
type ToolLoop struct {
	Model    llms.Model
	Registry *tools.Registry
	Gate     *governance.Gate
	History  HistoryStore
	Prompts  *PromptManager
	Log      *observability.Logger
	MaxTurns int
}

func NewToolLoop(model llms.Model, registry *tools.Registry, gate *governance.Gate, history HistoryStore, prompts *PromptManager, log *observability.Logger) *ToolLoop {
	return &ToolLoop{
		Model:    model,
		Registry: registry,
		Gate:     gate,
		History:  history,
		Prompts:  prompts,
		Log:      log,
		MaxTurns: 10,
	}
}

// availableTools builds the schema offered to the model, omitting any
// tool family currently hidden by the gate.
func (l *ToolLoop) availableTools() []llms.Tool {
	var llmTools []llms.Tool
	for _, t := range l.Registry.List() {
		if l.Gate.Restricted(t.Name()) {
			continue
		}
		llmTools = append(llmTools, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return llmTools
}

// Run executes the reasoning loop for one prompt. Events are produced
// lazily on the returned channel; the channel is closed when the loop
// finishes or the context is cancelled.
func (l *ToolLoop) Run(ctx context.Context, prompt string) <-chan event.Event {
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

		chatID := tools.ChatID(ctx)

		messages := []llms.MessageContent{{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(l.Prompts.GetSystemPrompt())},
		}}
		if l.History != nil && chatID != "" {
			if history, err := l.History.GetHistory(chatID, 5); err == nil {
				messages = append(messages, history...)
			}
		}
		messages = append(messages, llms.MessageContent{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(prompt)},
		})

		llmTools := l.availableTools()

		for turn := 0; turn < l.MaxTurns; turn++ {
			resp, err := l.Model.GenerateContent(ctx, messages, llms.WithTools(llmTools))
			if err != nil {
				emit(event.ErrorEvent{Message: fmt.Sprintf("model call failed: %v", err)})
				return
			}
			choice := resp.Choices[0]
			l.Log.LogLLM(chatID, "", prompt, choice.Content, choice.ToolCalls)

			var assistantParts []llms.ContentPart
			if choice.Content != "" {
				assistantParts = append(assistantParts, llms.TextContent{Text: choice.Content})
			}
			for _, tc := range choice.ToolCalls {
				assistantParts = append(assistantParts, tc)
			}
			messages = append(messages, llms.MessageContent{
				Role:  llms.ChatMessageTypeAI,
				Parts: assistantParts,
			})

			// No tool calls means the model produced its final answer.
			if len(choice.ToolCalls) == 0 {
				if choice.Content != "" {
					if !emit(event.MessageEvent{Text: choice.Content}) {
						return
					}
				}
				emit(event.DoneEvent{})
				return
			}

			for _, tc := range choice.ToolCalls {
				name := tc.FunctionCall.Name
				args := tc.FunctionCall.Arguments
				callID := tc.ID
				if callID == "" {
					callID = uuid.NewString()
				}

				if !emit(event.ToolEvent{
					Status:       event.ToolCalling,
					ToolCallID:   callID,
					ToolName:     name,
					FunctionName: name,
					Arguments:    args,
				}) {
					return
				}

				result := l.executeCall(ctx, chatID, name, args)

				if !emit(event.ToolEvent{
					Status:       event.ToolCalled,
					ToolCallID:   callID,
					ToolName:     name,
					FunctionName: name,
					Arguments:    args,
					Result:       result,
				}) {
					return
				}

				messages = append(messages, llms.MessageContent{
					Role: llms.ChatMessageTypeTool,
					Parts: []llms.ContentPart{llms.ToolCallResponse{
						ToolCallID: callID,
						Name:       name,
						Content:    result,
					}},
				})
			}
		}

		emit(event.MessageEvent{Text: `{"success": false, "result": "Reached the maximum number of reasoning turns for this step.", "attachments": []}`})
		emit(event.DoneEvent{})
	}()

	return ch
}

// executeCall runs one tool call behind the gate's standing deny rules.
func (l *ToolLoop) executeCall(ctx context.Context, chatID, name, args string) string {
	verdict, err := l.Gate.Evaluate(ctx, governance.Request{Tool: name, Arguments: args, ChatID: chatID})
	if err == nil && verdict.Effect == governance.EffectDeny {
		return fmt.Sprintf("Error: %s", verdict.Reason)
	}

	tool := l.Registry.Get(name)
	if tool == nil {
		return fmt.Sprintf("Error: Tool %s not found", name)
	}

	l.Log.LogToolCall(chatID, "", name, args)
	result, err := tool.Execute(ctx, args)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	return result
}

// Invoke performs a direct one-shot tool invocation, bypassing the
// model. The retrieval pipeline uses it for its browser and messaging
// actions.
func (l *ToolLoop) Invoke(ctx context.Context, tool string, args string) (string, error) {
	t := l.Registry.Get(tool)
	if t == nil {
		return "", fmt.Errorf("tool %s not found", tool)
	}
	l.Log.LogToolCall(tools.ChatID(ctx), "", tool, args)
	return t.Execute(ctx, args)
}
