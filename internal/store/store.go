// Package store persists the routing configuration: which group topics
// forward to which webhook destinations.
package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// ErrGroupNotFound is returned when a topic references an unknown group.
var ErrGroupNotFound = errors.New("group not found")

// Store is the SQLite-backed configuration store. Reads are safe for
// concurrent use; multi-statement writes run in a transaction.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the configuration database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open config db: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	// Best-effort migration for databases created before kind was stored.
	_, _ = db.Exec(`ALTER TABLE webhooks ADD COLUMN kind TEXT NOT NULL DEFAULT ''`)
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertGroup inserts or updates a group row. Idempotent.
func (s *Store) UpsertGroup(groupID int64, name string) error {
	_, err := s.db.Exec(`
		INSERT INTO groups (group_id, group_name) VALUES (?, ?)
		ON CONFLICT(group_id) DO UPDATE SET group_name = excluded.group_name`,
		groupID, name)
	if err != nil {
		return fmt.Errorf("upsert group %d: %w", groupID, err)
	}
	return nil
}

// UpsertTopic inserts or updates a topic row. The group must already
// exist; ErrGroupNotFound otherwise.
func (s *Store) UpsertTopic(groupID, topicID int64, name string) error {
	var exists int
	err := s.db.QueryRow(`SELECT 1 FROM groups WHERE group_id = ?`, groupID).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("upsert topic %d: group %d: %w", topicID, groupID, ErrGroupNotFound)
	}
	if err != nil {
		return fmt.Errorf("upsert topic %d: %w", topicID, err)
	}
	_, err = s.db.Exec(`
		INSERT INTO topics (topic_id, group_id, topic_name) VALUES (?, ?, ?)
		ON CONFLICT(topic_id) DO UPDATE SET group_id = excluded.group_id, topic_name = excluded.topic_name`,
		topicID, groupID, name)
	if err != nil {
		return fmt.Errorf("upsert topic %d: %w", topicID, err)
	}
	return nil
}

// CreateWebhook allocates a new webhook row and returns its id. Duplicate
// URLs get distinct rows; the destination kind is classified here once.
func (s *Store) CreateWebhook(url, description string) (int64, error) {
	desc := sql.NullString{String: description, Valid: description != ""}
	res, err := s.db.Exec(`INSERT INTO webhooks (url, kind, description) VALUES (?, ?, ?)`,
		url, string(DetectKind(url)), desc)
	if err != nil {
		return 0, fmt.Errorf("create webhook: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create webhook: %w", err)
	}
	return id, nil
}

// MapTopicToWebhook links a topic to a webhook. No-op if the pair
// already exists.
func (s *Store) MapTopicToWebhook(topicID, webhookID int64) error {
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO topic_webhook_mapping (topic_id, webhook_id) VALUES (?, ?)`,
		topicID, webhookID)
	if err != nil {
		return fmt.Errorf("map topic %d to webhook %d: %w", topicID, webhookID, err)
	}
	return nil
}

// ResolveWebhooks returns every webhook mapped to a topic, in mapping
// order. An empty slice means the topic is not configured.
func (s *Store) ResolveWebhooks(topicID int64) ([]Webhook, error) {
	rows, err := s.db.Query(`
		SELECT w.webhook_id, w.url, w.kind, w.description
		FROM webhooks w
		JOIN topic_webhook_mapping m ON w.webhook_id = m.webhook_id
		WHERE m.topic_id = ?
		ORDER BY m.mapping_id`, topicID)
	if err != nil {
		return nil, fmt.Errorf("resolve webhooks for topic %d: %w", topicID, err)
	}
	defer rows.Close()

	var hooks []Webhook
	for rows.Next() {
		var (
			w    Webhook
			kind string
			desc sql.NullString
		)
		if err := rows.Scan(&w.ID, &w.URL, &kind, &desc); err != nil {
			return nil, fmt.Errorf("resolve webhooks for topic %d: %w", topicID, err)
		}
		w.Kind = WebhookKind(kind)
		if w.Kind == "" {
			// Rows predating the kind column.
			w.Kind = DetectKind(w.URL)
		}
		w.Description = desc.String
		hooks = append(hooks, w)
	}
	return hooks, rows.Err()
}

// ListConfigurations returns the denormalized join of every routing rule.
func (s *Store) ListConfigurations() ([]Configuration, error) {
	rows, err := s.db.Query(`
		SELECT g.group_name, t.topic_name, w.url, t.topic_id
		FROM groups g
		JOIN topics t ON g.group_id = t.group_id
		JOIN topic_webhook_mapping m ON t.topic_id = m.topic_id
		JOIN webhooks w ON m.webhook_id = w.webhook_id
		ORDER BY t.topic_id, m.mapping_id`)
	if err != nil {
		return nil, fmt.Errorf("list configurations: %w", err)
	}
	defer rows.Close()

	var configs []Configuration
	for rows.Next() {
		var c Configuration
		if err := rows.Scan(&c.GroupName, &c.TopicName, &c.WebhookURL, &c.TopicID); err != nil {
			return nil, fmt.Errorf("list configurations: %w", err)
		}
		configs = append(configs, c)
	}
	return configs, rows.Err()
}

// DeleteConfiguration removes the mapping rows for a topic, any webhook
// left unreferenced by other topics, and the topic row itself. The whole
// sequence runs in one transaction. Returns false when the topic had no
// mapping to remove.
func (s *Store) DeleteConfiguration(topicID int64) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("delete configuration %d: %w", topicID, err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(`SELECT webhook_id FROM topic_webhook_mapping WHERE topic_id = ?`, topicID)
	if err != nil {
		return false, fmt.Errorf("delete configuration %d: %w", topicID, err)
	}
	var webhookIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return false, fmt.Errorf("delete configuration %d: %w", topicID, err)
		}
		webhookIDs = append(webhookIDs, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return false, fmt.Errorf("delete configuration %d: %w", topicID, err)
	}
	rows.Close()

	if len(webhookIDs) == 0 {
		return false, nil
	}

	if _, err := tx.Exec(`DELETE FROM topic_webhook_mapping WHERE topic_id = ?`, topicID); err != nil {
		return false, fmt.Errorf("delete configuration %d: %w", topicID, err)
	}
	for _, id := range webhookIDs {
		// Reference-counted by query: the webhook survives while any
		// other topic still maps to it.
		if _, err := tx.Exec(`
			DELETE FROM webhooks
			WHERE webhook_id = ?
			AND NOT EXISTS (
				SELECT 1 FROM topic_webhook_mapping WHERE webhook_id = ?
			)`, id, id); err != nil {
			return false, fmt.Errorf("delete configuration %d: %w", topicID, err)
		}
	}
	if _, err := tx.Exec(`DELETE FROM topics WHERE topic_id = ?`, topicID); err != nil {
		return false, fmt.Errorf("delete configuration %d: %w", topicID, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("delete configuration %d: %w", topicID, err)
	}
	return true, nil
}
