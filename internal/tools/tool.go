package tools

import (
	"context"
)

// Tool defines the interface for all agent capabilities.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any // JSON Schema for the tool's inputs
	Execute(ctx context.Context, input string) (string, error)
}

// Registry manages the set of available tools. Listing order is
// registration order so the tool schema presented to the model is stable.
type Registry struct {
	byName map[string]Tool
	order  []string
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Tool)}
}

func (r *Registry) Register(t Tool) {
	if _, ok := r.byName[t.Name()]; !ok {
		r.order = append(r.order, t.Name())
	}
	r.byName[t.Name()] = t
}

func (r *Registry) Get(name string) Tool {
	return r.byName[name]
}

// List returns the registered tools in registration order.
func (r *Registry) List() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

type ctxKey string

const chatIDKey ctxKey = "chat_id"

// WithChatID stores the originating chat id in the context so tools that
// talk back to the user know where to send.
func WithChatID(ctx context.Context, chatID string) context.Context {
	return context.WithValue(ctx, chatIDKey, chatID)
}

// ChatID retrieves the chat id stored by WithChatID, or "".
func ChatID(ctx context.Context) string {
	id, _ := ctx.Value(chatIDKey).(string)
	return id
}
