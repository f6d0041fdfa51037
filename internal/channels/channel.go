package channels

import (
	"context"

	"github.com/topicrelay/topicrelay/internal/bus"
)

// Channel defines the interface for inbound platform event sources.
type Channel interface {
	// Name returns the channel name (e.g. "telegram").
	Name() string
	// Start starts the channel listener.
	Start(ctx context.Context) error
	// Stop stops the channel listener.
	Stop() error
}

// BaseChannel provides common functionality for channels.
type BaseChannel struct {
	Bus *bus.MessageBus
}
