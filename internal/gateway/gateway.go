package gateway

import "context"

// Handler receives one inbound user message.
type Handler func(ctx context.Context, chatID string, text string)

// Messenger defines the interface for communication gateways (Telegram,
// Discord, etc.)
type Messenger interface {
	// Start begins the message listening loop
	Start(ctx context.Context) error
	// Send sends a message to a specific chat
	Send(chatID string, text string) error
	// Stop gracefully shuts down the gateway
	Stop() error
}
