package relay

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/topicrelay/topicrelay/internal/bus"
	"github.com/topicrelay/topicrelay/internal/store"
)

// Router consumes inbound events, resolves topic destinations and drives
// the transform/deliver/cleanup cycle for each message.
type Router struct {
	store     *store.Store
	deliverer *Deliverer
	bus       *bus.MessageBus
	mediaDir  string
	fetchTime time.Duration
	running   atomic.Bool
}

// NewRouter creates a router. mediaDir holds transient attachment files.
func NewRouter(st *store.Store, d *Deliverer, b *bus.MessageBus, mediaDir string) *Router {
	return &Router{
		store:     st,
		deliverer: d,
		bus:       b,
		mediaDir:  mediaDir,
		fetchTime: defaultSendTimeout,
	}
}

// Run processes messages from the bus until the context is cancelled.
// Errors are caught at the message boundary: one failing message never
// terminates the stream.
func (r *Router) Run(ctx context.Context) error {
	r.running.Store(true)
	slog.Info("Router started")

	for r.running.Load() {
		msg, err := r.bus.ConsumeInbound(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil // Context cancelled, normal shutdown
			}
			slog.Error("Failed to consume message", "error", err)
			continue
		}
		if err := r.Route(ctx, msg); err != nil {
			slog.Error("Failed to route message", "message_id", msg.MessageID, "error", err)
		}
	}
	return nil
}

// Stop signals the router loop to stop.
func (r *Router) Stop() {
	r.running.Store(false)
}

// Route runs the full pipeline for one inbound message: filter, topic
// extraction, destination resolution, normalization, attachment
// acquisition, fan-out dispatch and cleanup.
func (r *Router) Route(ctx context.Context, msg *bus.InboundMessage) error {
	trace := uuid.NewString()

	if !msg.IsGroup {
		slog.Debug("Ignoring non-group message", "trace_id", trace, "message_id", msg.MessageID)
		return nil
	}

	topicID := msg.TopicID()
	if topicID == 0 {
		slog.Debug("Message is not part of a topic thread", "trace_id", trace, "message_id", msg.MessageID)
		return nil
	}

	hooks, err := r.store.ResolveWebhooks(topicID)
	if err != nil {
		return fmt.Errorf("resolve destinations: %w", err)
	}
	if len(hooks) == 0 {
		// Unconfigured topic: expected steady state, not an error.
		slog.Debug("No webhook configured for topic", "trace_id", trace, "topic_id", topicID)
		return nil
	}

	normalized := Normalize(msg, topicID)

	if msg.Media != nil {
		attach, err := r.fetchAttachment(ctx, msg.Media)
		if err != nil {
			// Attachment presence and delivery are coupled: no
			// text-only fallback when the media half is lost.
			return fmt.Errorf("fetch attachment: %w", err)
		}
		normalized.Attachment = attach
		defer attach.Release()
	}

	slog.Info("Routing topic message",
		"trace_id", trace,
		"topic_id", topicID,
		"chat_title", msg.ChatTitle,
		"sender", normalized.Username,
		"destinations", len(hooks))

	for _, hook := range hooks {
		wire, err := Transform(normalized, hook)
		if err != nil {
			slog.Error("Failed to transform message", "trace_id", trace, "webhook_id", hook.ID, "error", err)
			continue
		}
		if err := r.deliverer.Send(ctx, wire); err != nil {
			// Terminal for this destination; the remaining fan-out
			// targets are still attempted.
			slog.Error("Webhook delivery failed", "trace_id", trace, "webhook_id", hook.ID, "kind", hook.Kind, "error", err)
			continue
		}
		slog.Info("Message delivered", "trace_id", trace, "webhook_id", hook.ID, "kind", hook.Kind)
	}
	return nil
}

// fetchAttachment downloads the media reference to a transient local
// file owned by this message's processing.
func (r *Router) fetchAttachment(ctx context.Context, media *bus.Media) (*Attachment, error) {
	reqCtx, cancel := context.WithTimeout(ctx, r.fetchTime)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, media.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media download returned status %d", resp.StatusCode)
	}

	if r.mediaDir != "" {
		if err := os.MkdirAll(r.mediaDir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.CreateTemp(r.mediaDir, "attachment-*")
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, err
	}
	return &Attachment{Path: f.Name()}, nil
}
