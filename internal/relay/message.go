// Package relay implements the message routing and delivery pipeline:
// normalizing inbound topic messages, transforming them per destination
// and transmitting them to the configured webhooks.
package relay

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/topicrelay/topicrelay/internal/bus"
)

// avatarPool is the number of placeholder avatar images the sender id is
// hashed into when no real avatar is available.
const avatarPool = 5

// NormalizedMessage is the destination-agnostic record the transformer
// works from. FromID and FromUsername are nil when the platform could
// not resolve a sender.
type NormalizedMessage struct {
	MessageID    int64
	TopicID      int64
	ChatID       int64
	ChatTitle    string
	FromID       *int64
	FromUsername *string
	Text         string
	Date         string
	Username     string
	AvatarURL    string
	Attachment   *Attachment
}

// Attachment is a transient local copy of a message's media, owned by
// the router for the duration of one message's processing.
type Attachment struct {
	Path string
}

// Release deletes the transient file. Failure to delete is logged, not
// escalated.
func (a *Attachment) Release() {
	if a == nil || a.Path == "" {
		return
	}
	if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to remove transient attachment", "path", a.Path, "error", err)
	}
}

// Normalize builds the destination-agnostic record for a message that
// already passed the group and topic filters.
func Normalize(msg *bus.InboundMessage, topicID int64) NormalizedMessage {
	n := NormalizedMessage{
		MessageID: msg.MessageID,
		TopicID:   topicID,
		ChatID:    msg.ChatID,
		ChatTitle: msg.ChatTitle,
		Text:      msg.Text,
		Date:      msg.Timestamp.Format(time.RFC3339),
		Username:  "Unknown",
	}
	if s := msg.Sender; s != nil {
		id := s.ID
		n.FromID = &id
		if s.Username != "" {
			username := s.Username
			n.FromUsername = &username
			n.Username = username
		} else if s.FirstName != "" {
			n.Username = s.FirstName
		}
		n.AvatarURL = AvatarURL(s.ID)
	}
	return n
}

// AvatarURL maps a sender id deterministically into the fixed set of
// placeholder avatars.
func AvatarURL(senderID int64) string {
	idx := senderID % avatarPool
	if idx < 0 {
		idx += avatarPool
	}
	return fmt.Sprintf("https://cdn.discordapp.com/embed/avatars/%d.png", idx)
}
