package bus

import (
	"context"
	"testing"
	"time"
)

func TestPublishConsume(t *testing.T) {
	b := NewMessageBus()
	b.PublishInbound(&InboundMessage{Channel: "telegram", MessageID: 1, Text: "hi"})

	if b.InboundSize() != 1 {
		t.Fatalf("expected 1 pending message, got %d", b.InboundSize())
	}

	msg, err := b.ConsumeInbound(context.Background())
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if msg.MessageID != 1 || msg.Text != "hi" {
		t.Fatalf("unexpected message %+v", msg)
	}
	if msg.Timestamp.IsZero() {
		t.Fatalf("expected publish to stamp the message")
	}
}

func TestConsumeCancelled(t *testing.T) {
	b := NewMessageBus()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := b.ConsumeInbound(ctx)
	if err == nil {
		t.Fatalf("expected context error")
	}
}

func TestTopicIDDerivation(t *testing.T) {
	msg := &InboundMessage{ThreadTopID: 7, ReplyToID: 3}
	if got := msg.TopicID(); got != 7 {
		t.Fatalf("expected anchor id 7, got %d", got)
	}

	msg = &InboundMessage{ReplyToID: 3}
	if got := msg.TopicID(); got != 3 {
		t.Fatalf("expected reply-target fallback 3, got %d", got)
	}

	msg = &InboundMessage{}
	if got := msg.TopicID(); got != 0 {
		t.Fatalf("expected 0 outside a topic thread, got %d", got)
	}
}
