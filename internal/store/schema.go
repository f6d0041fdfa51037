package store

import "strings"

// WebhookKind is the destination wire format, classified once when the
// webhook row is created and stored alongside the URL.
type WebhookKind string

const (
	KindDiscord WebhookKind = "discord"
	KindSlack   WebhookKind = "slack"
	KindGeneric WebhookKind = "generic"
)

// DetectKind classifies a webhook URL by a case-insensitive substring
// match. Only used at configuration time; routing reads the stored kind.
func DetectKind(url string) WebhookKind {
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, "discord"):
		return KindDiscord
	case strings.Contains(lower, "slack"):
		return KindSlack
	default:
		return KindGeneric
	}
}

// Group is a platform group chat monitored for topic messages.
type Group struct {
	ID   int64  `json:"group_id"`
	Name string `json:"group_name"`
}

// Topic is a threaded sub-conversation inside a group, identified by the
// anchor message id. Topic ids are stored globally unique even though the
// platform scopes them per group; see the schema note below.
type Topic struct {
	ID      int64  `json:"topic_id"`
	GroupID int64  `json:"group_id"`
	Name    string `json:"topic_name"`
}

// Webhook is an outbound destination endpoint.
type Webhook struct {
	ID          int64       `json:"webhook_id"`
	URL         string      `json:"url"`
	Kind        WebhookKind `json:"kind"`
	Description string      `json:"description,omitempty"`
}

// Configuration is one denormalized routing rule row, as shown to
// operators and logged at startup.
type Configuration struct {
	GroupName  string `json:"group_name"`
	TopicName  string `json:"topic_name"`
	WebhookURL string `json:"webhook_url"`
	TopicID    int64  `json:"topic_id"`
}

// topic_id is the primary key on its own: the platform only scopes topic
// ids within a group, so (group_id, topic_id) collisions across groups
// are technically accepted. Known looseness, kept as-is.
const Schema = `
CREATE TABLE IF NOT EXISTS groups (
	group_id INTEGER PRIMARY KEY,
	group_name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS topics (
	topic_id INTEGER PRIMARY KEY,
	group_id INTEGER NOT NULL,
	topic_name TEXT NOT NULL,
	FOREIGN KEY (group_id) REFERENCES groups(group_id)
);

CREATE TABLE IF NOT EXISTS webhooks (
	webhook_id INTEGER PRIMARY KEY AUTOINCREMENT,
	url TEXT NOT NULL,
	kind TEXT NOT NULL DEFAULT '',
	description TEXT
);

CREATE TABLE IF NOT EXISTS topic_webhook_mapping (
	mapping_id INTEGER PRIMARY KEY AUTOINCREMENT,
	topic_id INTEGER NOT NULL,
	webhook_id INTEGER NOT NULL,
	FOREIGN KEY (topic_id) REFERENCES topics(topic_id),
	FOREIGN KEY (webhook_id) REFERENCES webhooks(webhook_id),
	UNIQUE(topic_id, webhook_id)
);

CREATE INDEX IF NOT EXISTS idx_mapping_topic ON topic_webhook_mapping(topic_id);
CREATE INDEX IF NOT EXISTS idx_mapping_webhook ON topic_webhook_mapping(webhook_id);
`
