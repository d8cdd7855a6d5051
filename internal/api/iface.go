package api

import (
	"context"

	"portfolio-chat/internal/chat"
)

// AssistantAPI defines the interface for the assistant service client.
// *Client satisfies this interface. TUI and tests can use mock implementations.
type AssistantAPI interface {
	chat.Assistant
	Health(ctx context.Context) (*HealthResponse, error)
}

var _ AssistantAPI = (*Client)(nil)
