package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/topicrelay/topicrelay/internal/bus"
	"github.com/topicrelay/topicrelay/internal/channels"
	"github.com/topicrelay/topicrelay/internal/config"
	"github.com/topicrelay/topicrelay/internal/relay"
	"github.com/topicrelay/topicrelay/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the relay: consume bridge events and forward topic messages",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		setupLogging(cfg.Log.Level)

		if err := os.MkdirAll(filepath.Dir(cfg.Paths.DBPath), 0o755); err != nil {
			return err
		}
		st, err := store.NewStore(cfg.Paths.DBPath)
		if err != nil {
			return err
		}
		defer st.Close()

		logConfigurations(st)

		messageBus := bus.NewMessageBus()
		telegram := channels.NewTelegramChannel(cfg.Telegram, messageBus)
		deliverer := relay.NewDeliverer(time.Duration(cfg.Relay.HTTPTimeoutSeconds) * time.Second)
		router := relay.NewRouter(st, deliverer, messageBus, cfg.Paths.MediaDir)

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if err := telegram.Start(ctx); err != nil {
			return fmt.Errorf("start telegram channel: %w", err)
		}
		defer telegram.Stop()

		slog.Info("Relay running, waiting for messages")
		return router.Run(ctx)
	},
}

// logConfigurations reports the monitored routing rules at startup.
func logConfigurations(st *store.Store) {
	configs, err := st.ListConfigurations()
	if err != nil {
		slog.Error("Failed to list configurations", "error", err)
		return
	}
	if len(configs) == 0 {
		slog.Warn("No forwarding configurations added yet")
		return
	}
	slog.Info("Monitoring configurations", "count", len(configs))
	for _, c := range configs {
		slog.Info("Forwarding rule", "group", c.GroupName, "topic", c.TopicName, "topic_id", c.TopicID)
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
