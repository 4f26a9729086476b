package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// Sender delivers text to the user on whatever transport is configured.
type Sender interface {
	Send(chatID string, text string) error
}

// NotifyTool pushes a one-way status message to the user.
type NotifyTool struct {
	Out Sender
}

func NewNotifyTool(out Sender) *NotifyTool {
	return &NotifyTool{Out: out}
}

func (t *NotifyTool) Name() string {
	return "message_notify_user"
}

func (t *NotifyTool) Description() string {
	return "Send a progress update to the user. The user cannot reply to it; do not use it for questions."
}

func (t *NotifyTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{
				"type":        "string",
				"description": "The message to show the user",
			},
		},
		"required": []string{"text"},
	}
}

func (t *NotifyTool) Execute(ctx context.Context, input string) (string, error) {
	text, err := messageText(input)
	if err != nil {
		return "", err
	}
	if t.Out != nil {
		if err := t.Out.Send(ChatID(ctx), text); err != nil {
			return "", fmt.Errorf("send notification: %w", err)
		}
	}
	return "Message sent to user.", nil
}

// AskTool poses a question to the user. The step executor watches for
// this function: its completed call suspends the step until the user
// replies.
type AskTool struct {
	Out Sender
}

func NewAskTool(out Sender) *AskTool {
	return &AskTool{Out: out}
}

func (t *AskTool) Name() string {
	return "message_ask_user"
}

func (t *AskTool) Description() string {
	return "Ask the user a question and pause the current step until they answer."
}

func (t *AskTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{
				"type":        "string",
				"description": "The question to ask the user",
			},
		},
		"required": []string{"text"},
	}
}

func (t *AskTool) Execute(ctx context.Context, input string) (string, error) {
	text, err := messageText(input)
	if err != nil {
		return "", err
	}
	if t.Out != nil {
		if err := t.Out.Send(ChatID(ctx), text); err != nil {
			return "", fmt.Errorf("send question: %w", err)
		}
	}
	return "Waiting for the user's reply.", nil
}

func messageText(input string) (string, error) {
	var args struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("invalid input: %v", err)
	}
	return args.Text, nil
}
