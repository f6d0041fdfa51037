// Package bus provides the async message bus between platform channels and the router.
package bus

import (
	"context"
	"time"
)

// Sender identifies the author of an inbound message. A message may carry
// no resolvable sender (service accounts, anonymous group admins).
type Sender struct {
	ID        int64  `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
}

// Media references a downloadable attachment exposed by the bridge.
type Media struct {
	URL      string `json:"url"`
	FileName string `json:"file_name,omitempty"`
}

// InboundMessage represents one platform message delivered by a channel.
type InboundMessage struct {
	Channel     string    `json:"channel"`
	MessageID   int64     `json:"message_id"`
	IsGroup     bool      `json:"is_group"`
	ChatID      int64     `json:"chat_id"`
	ChatTitle   string    `json:"chat_title,omitempty"`
	ThreadTopID int64     `json:"thread_top_id,omitempty"`
	ReplyToID   int64     `json:"reply_to_id,omitempty"`
	Sender      *Sender   `json:"sender,omitempty"`
	Text        string    `json:"text"`
	Timestamp   time.Time `json:"timestamp"`
	Media       *Media    `json:"media,omitempty"`
}

// TopicID derives the topic thread identifier: the top-level thread anchor
// wins, the immediate reply target is the fallback. Zero means the message
// is not part of any topic thread.
func (m *InboundMessage) TopicID() int64 {
	if m.ThreadTopID != 0 {
		return m.ThreadTopID
	}
	return m.ReplyToID
}

// MessageBus decouples platform channels from the router.
type MessageBus struct {
	inbound chan *InboundMessage
}

// NewMessageBus creates a new message bus.
func NewMessageBus() *MessageBus {
	return &MessageBus{
		inbound: make(chan *InboundMessage, 100),
	}
}

// PublishInbound sends a message from a channel to the router.
func (b *MessageBus) PublishInbound(msg *InboundMessage) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	b.inbound <- msg
}

// ConsumeInbound blocks until a message is available or context is cancelled.
func (b *MessageBus) ConsumeInbound(ctx context.Context) (*InboundMessage, error) {
	select {
	case msg := <-b.inbound:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// InboundSize returns the number of pending inbound messages.
func (b *MessageBus) InboundSize() int {
	return len(b.inbound)
}
