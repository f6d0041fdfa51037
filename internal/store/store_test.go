package store

import (
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "config.db")
	st, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func mustConfigure(t *testing.T, st *Store, groupID int64, groupName string, topicID int64, topicName, url string) int64 {
	t.Helper()
	if err := st.UpsertGroup(groupID, groupName); err != nil {
		t.Fatalf("upsert group: %v", err)
	}
	if err := st.UpsertTopic(groupID, topicID, topicName); err != nil {
		t.Fatalf("upsert topic: %v", err)
	}
	webhookID, err := st.CreateWebhook(url, "")
	if err != nil {
		t.Fatalf("create webhook: %v", err)
	}
	if err := st.MapTopicToWebhook(topicID, webhookID); err != nil {
		t.Fatalf("map topic to webhook: %v", err)
	}
	return webhookID
}

func TestConfigurationRoundTrip(t *testing.T) {
	st := newTestStore(t)
	mustConfigure(t, st, 100, "Ops", 7, "alerts", "https://discord.com/api/webhooks/x")

	hooks, err := st.ResolveWebhooks(7)
	if err != nil {
		t.Fatalf("resolve webhooks: %v", err)
	}
	if len(hooks) != 1 {
		t.Fatalf("expected 1 webhook, got %d", len(hooks))
	}
	if hooks[0].URL != "https://discord.com/api/webhooks/x" {
		t.Fatalf("unexpected url %q", hooks[0].URL)
	}
	if hooks[0].Kind != KindDiscord {
		t.Fatalf("expected discord kind, got %q", hooks[0].Kind)
	}
}

func TestUpsertTopicUnknownGroup(t *testing.T) {
	st := newTestStore(t)
	err := st.UpsertTopic(999, 7, "alerts")
	if !errors.Is(err, ErrGroupNotFound) {
		t.Fatalf("expected ErrGroupNotFound, got %v", err)
	}
}

func TestUpsertIdempotence(t *testing.T) {
	st := newTestStore(t)
	webhookID := mustConfigure(t, st, 100, "Ops", 7, "alerts", "https://discord.com/api/webhooks/x")

	// Re-running every upsert with identical arguments must leave row
	// counts unchanged.
	for i := 0; i < 3; i++ {
		if err := st.UpsertGroup(100, "Ops"); err != nil {
			t.Fatalf("re-upsert group: %v", err)
		}
		if err := st.UpsertTopic(100, 7, "alerts"); err != nil {
			t.Fatalf("re-upsert topic: %v", err)
		}
		if err := st.MapTopicToWebhook(7, webhookID); err != nil {
			t.Fatalf("re-map topic: %v", err)
		}
	}

	var groups, topics, mappings int
	if err := st.db.QueryRow(`SELECT COUNT(*) FROM groups`).Scan(&groups); err != nil {
		t.Fatalf("count groups: %v", err)
	}
	if err := st.db.QueryRow(`SELECT COUNT(*) FROM topics`).Scan(&topics); err != nil {
		t.Fatalf("count topics: %v", err)
	}
	if err := st.db.QueryRow(`SELECT COUNT(*) FROM topic_webhook_mapping`).Scan(&mappings); err != nil {
		t.Fatalf("count mappings: %v", err)
	}
	if groups != 1 || topics != 1 || mappings != 1 {
		t.Fatalf("expected 1/1/1 rows, got %d/%d/%d", groups, topics, mappings)
	}
}

func TestCreateWebhookNoURLDedup(t *testing.T) {
	st := newTestStore(t)
	first, err := st.CreateWebhook("https://hooks.slack.com/y", "primary")
	if err != nil {
		t.Fatalf("create webhook: %v", err)
	}
	second, err := st.CreateWebhook("https://hooks.slack.com/y", "backup")
	if err != nil {
		t.Fatalf("create webhook: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct ids for duplicate URLs, got %d twice", first)
	}
}

func TestResolveWebhooksFanOut(t *testing.T) {
	st := newTestStore(t)
	mustConfigure(t, st, 100, "Ops", 7, "alerts", "https://discord.com/api/webhooks/x")

	slackID, err := st.CreateWebhook("https://hooks.slack.com/y", "")
	if err != nil {
		t.Fatalf("create webhook: %v", err)
	}
	if err := st.MapTopicToWebhook(7, slackID); err != nil {
		t.Fatalf("map topic: %v", err)
	}

	hooks, err := st.ResolveWebhooks(7)
	if err != nil {
		t.Fatalf("resolve webhooks: %v", err)
	}
	if len(hooks) != 2 {
		t.Fatalf("expected 2 webhooks, got %d", len(hooks))
	}
	if hooks[0].Kind != KindDiscord || hooks[1].Kind != KindSlack {
		t.Fatalf("unexpected kinds %q/%q", hooks[0].Kind, hooks[1].Kind)
	}
}

func TestResolveWebhooksUnconfigured(t *testing.T) {
	st := newTestStore(t)
	hooks, err := st.ResolveWebhooks(42)
	if err != nil {
		t.Fatalf("resolve webhooks: %v", err)
	}
	if len(hooks) != 0 {
		t.Fatalf("expected no webhooks, got %d", len(hooks))
	}
}

func TestListConfigurations(t *testing.T) {
	st := newTestStore(t)
	mustConfigure(t, st, 100, "Ops", 7, "alerts", "https://discord.com/api/webhooks/x")
	mustConfigure(t, st, 200, "Dev", 9, "builds", "https://hooks.slack.com/y")

	configs, err := st.ListConfigurations()
	if err != nil {
		t.Fatalf("list configurations: %v", err)
	}
	if len(configs) != 2 {
		t.Fatalf("expected 2 configurations, got %d", len(configs))
	}
	if configs[0].GroupName != "Ops" || configs[0].TopicName != "alerts" || configs[0].TopicID != 7 {
		t.Fatalf("unexpected first configuration %+v", configs[0])
	}
}

func TestDeleteConfigurationExclusiveWebhook(t *testing.T) {
	st := newTestStore(t)
	webhookID := mustConfigure(t, st, 100, "Ops", 7, "alerts", "https://discord.com/api/webhooks/x")

	deleted, err := st.DeleteConfiguration(7)
	if err != nil {
		t.Fatalf("delete configuration: %v", err)
	}
	if !deleted {
		t.Fatalf("expected deletion")
	}

	var webhooks, topics int
	if err := st.db.QueryRow(`SELECT COUNT(*) FROM webhooks WHERE webhook_id = ?`, webhookID).Scan(&webhooks); err != nil {
		t.Fatalf("count webhooks: %v", err)
	}
	if webhooks != 0 {
		t.Fatalf("expected exclusive webhook row to be removed")
	}
	if err := st.db.QueryRow(`SELECT COUNT(*) FROM topics WHERE topic_id = 7`).Scan(&topics); err != nil {
		t.Fatalf("count topics: %v", err)
	}
	if topics != 0 {
		t.Fatalf("expected topic row to be removed")
	}
}

func TestDeleteConfigurationSharedWebhook(t *testing.T) {
	st := newTestStore(t)
	webhookID := mustConfigure(t, st, 100, "Ops", 7, "alerts", "https://discord.com/api/webhooks/x")
	if err := st.UpsertTopic(100, 8, "incidents"); err != nil {
		t.Fatalf("upsert topic: %v", err)
	}
	if err := st.MapTopicToWebhook(8, webhookID); err != nil {
		t.Fatalf("map topic: %v", err)
	}

	deleted, err := st.DeleteConfiguration(7)
	if err != nil {
		t.Fatalf("delete configuration: %v", err)
	}
	if !deleted {
		t.Fatalf("expected deletion")
	}

	// The webhook is still referenced by topic 8 and must survive.
	hooks, err := st.ResolveWebhooks(8)
	if err != nil {
		t.Fatalf("resolve webhooks: %v", err)
	}
	if len(hooks) != 1 || hooks[0].ID != webhookID {
		t.Fatalf("expected shared webhook to survive, got %+v", hooks)
	}
}

func TestDeleteConfigurationNothingToDelete(t *testing.T) {
	st := newTestStore(t)
	deleted, err := st.DeleteConfiguration(42)
	if err != nil {
		t.Fatalf("delete configuration: %v", err)
	}
	if deleted {
		t.Fatalf("expected no deletion for unknown topic")
	}
}

func TestDetectKind(t *testing.T) {
	cases := []struct {
		url  string
		want WebhookKind
	}{
		{"https://discord.com/api/webhooks/x", KindDiscord},
		{"https://DISCORDAPP.com/api/webhooks/x", KindDiscord},
		{"https://hooks.slack.com/y", KindSlack},
		{"https://example.com/hook", KindGeneric},
	}
	for _, tc := range cases {
		if got := DetectKind(tc.url); got != tc.want {
			t.Errorf("DetectKind(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}
