// Package channels connects platform event sources to the message bus.
package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/topicrelay/topicrelay/internal/bus"
	"github.com/topicrelay/topicrelay/internal/config"
)

// TelegramChannel long-polls a Telegram bridge process for new group
// messages and publishes them to the bus. The bridge owns the Telegram
// session and credentials; this side only consumes its event feed.
type TelegramChannel struct {
	BaseChannel
	config config.TelegramConfig
	client *http.Client
	stop   context.CancelFunc
}

// NewTelegramChannel creates a new Telegram bridge channel.
func NewTelegramChannel(cfg config.TelegramConfig, messageBus *bus.MessageBus) *TelegramChannel {
	poll := cfg.PollSeconds
	if poll <= 0 {
		poll = 25
	}
	return &TelegramChannel{
		BaseChannel: BaseChannel{Bus: messageBus},
		config:      cfg,
		// The poll request holds open up to PollSeconds; leave headroom.
		client: &http.Client{Timeout: time.Duration(poll+10) * time.Second},
	}
}

func (c *TelegramChannel) Name() string { return "telegram" }

// Start begins long-polling the bridge. No-op when no bridge URL is
// configured.
func (c *TelegramChannel) Start(ctx context.Context) error {
	if strings.TrimSpace(c.config.BridgeURL) == "" {
		return nil
	}
	ctx, c.stop = context.WithCancel(ctx)
	go c.pollLoop(ctx)
	return nil
}

// Stop stops the poll loop.
func (c *TelegramChannel) Stop() error {
	if c.stop != nil {
		c.stop()
	}
	return nil
}

func (c *TelegramChannel) pollLoop(ctx context.Context) {
	retry := time.Duration(c.config.RetrySeconds) * time.Second
	if retry <= 0 {
		retry = 5 * time.Second
	}
	slog.Info("Telegram bridge poll loop started", "bridge_url", c.config.BridgeURL)
	for {
		if ctx.Err() != nil {
			return
		}
		msgs, err := c.poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Warn("Bridge poll failed", "error", err)
			select {
			case <-time.After(retry):
			case <-ctx.Done():
				return
			}
			continue
		}
		for _, msg := range msgs {
			msg.Channel = c.Name()
			c.Bus.PublishInbound(msg)
		}
	}
}

// poll performs one long-poll request against the bridge event feed.
func (c *TelegramChannel) poll(ctx context.Context) ([]*bus.InboundMessage, error) {
	url := strings.TrimRight(c.config.BridgeURL, "/") + "/events"
	if c.config.PollSeconds > 0 {
		url = fmt.Sprintf("%s?wait=%d", url, c.config.PollSeconds)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if tok := strings.TrimSpace(c.config.BridgeToken); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bridge events status: %d", resp.StatusCode)
	}
	var msgs []*bus.InboundMessage
	if err := json.NewDecoder(resp.Body).Decode(&msgs); err != nil {
		return nil, fmt.Errorf("decode bridge events: %w", err)
	}
	return msgs, nil
}
