package relay

import (
	"encoding/json"
	"fmt"

	"github.com/slack-go/slack"

	"github.com/topicrelay/topicrelay/internal/store"
)

const (
	// embedColor is the accent color of every relayed Discord embed.
	embedColor = 0x5865F2

	// Multipart field and filename constants for attachment uploads.
	payloadJSONField   = "payload_json"
	attachmentField    = "file"
	attachmentFilename = "attachment.png"
	attachmentToken    = "attachment://" + attachmentFilename
)

// WireRequest is a fully transformed outbound request. When
// AttachmentPath is set the delivery becomes a multipart upload with
// Body under the payload_json field and the file streamed alongside.
type WireRequest struct {
	URL            string
	Body           []byte
	AttachmentPath string
}

type discordEmbedAuthor struct {
	Name    string `json:"name"`
	IconURL string `json:"icon_url,omitempty"`
}

type discordEmbedImage struct {
	URL string `json:"url"`
}

type discordEmbed struct {
	Description string             `json:"description"`
	Timestamp   string             `json:"timestamp,omitempty"`
	Color       int                `json:"color"`
	Author      discordEmbedAuthor `json:"author"`
	Image       *discordEmbedImage `json:"image,omitempty"`
}

type discordPayload struct {
	Content   string         `json:"content"`
	Username  string         `json:"username,omitempty"`
	AvatarURL string         `json:"avatar_url,omitempty"`
	Embeds    []discordEmbed `json:"embeds"`
}

// Transform maps a normalized message to the wire payload for one
// destination. Pure: it never touches the network or the filesystem.
func Transform(msg NormalizedMessage, dest store.Webhook) (WireRequest, error) {
	var (
		payload any
		attach  string
	)
	switch dest.Kind {
	case store.KindDiscord:
		embed := discordEmbed{
			Description: msg.Text,
			Timestamp:   msg.Date,
			Color:       embedColor,
			Author: discordEmbedAuthor{
				Name:    msg.Username,
				IconURL: msg.AvatarURL,
			},
		}
		if msg.Attachment != nil {
			embed.Image = &discordEmbedImage{URL: attachmentToken}
			attach = msg.Attachment.Path
		}
		payload = discordPayload{
			// Discord rejects a wholly absent content field when no
			// embed exists; empty string keeps the field present.
			Content:   msg.Text,
			Username:  msg.Username,
			AvatarURL: msg.AvatarURL,
			Embeds:    []discordEmbed{embed},
		}
	case store.KindSlack:
		// Attachments are not transformed for Slack destinations:
		// documented content loss, not a bug.
		payload = slack.WebhookMessage{
			Text:     msg.Text,
			Username: msg.Username,
		}
	default:
		payload = map[string]any{
			"message_id":    msg.MessageID,
			"topic_id":      msg.TopicID,
			"chat_id":       msg.ChatID,
			"chat_title":    msg.ChatTitle,
			"from_id":       msg.FromID,
			"from_username": msg.FromUsername,
			"text":          msg.Text,
			"date":          msg.Date,
			"username":      msg.Username,
			"avatar_url":    msg.AvatarURL,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return WireRequest{}, fmt.Errorf("transform for %s: %w", dest.Kind, err)
	}
	return WireRequest{URL: dest.URL, Body: body, AttachmentPath: attach}, nil
}
