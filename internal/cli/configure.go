package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/topicrelay/topicrelay/internal/config"
	"github.com/topicrelay/topicrelay/internal/store"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage forwarding configurations",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var (
	addGroupID     int64
	addGroupName   string
	addTopicID     int64
	addTopicName   string
	addWebhookURL  string
	addDescription string
)

var configAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a forwarding rule (group, topic, webhook and mapping in one go)",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := addConfiguration(st, addGroupID, addGroupName, addTopicID, addTopicName, addWebhookURL, addDescription); err != nil {
			return err
		}
		color.Green("Added configuration for topic %q in group %q", addTopicName, addGroupName)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all forwarding rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		configs, err := st.ListConfigurations()
		if err != nil {
			return err
		}
		if len(configs) == 0 {
			fmt.Println("No configurations found.")
			return nil
		}
		color.Cyan("Current Configurations:")
		for _, c := range configs {
			fmt.Println("----------------------")
			fmt.Printf("Topic ID: %d\n", c.TopicID)
			fmt.Printf("Group:    %s\n", c.GroupName)
			fmt.Printf("Topic:    %s\n", c.TopicName)
			fmt.Printf("Webhook:  %s\n", c.WebhookURL)
		}
		fmt.Println("----------------------")
		return nil
	},
}

var deleteTopicID int64

var configDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the forwarding rule for a topic",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		deleted, err := st.DeleteConfiguration(deleteTopicID)
		if err != nil {
			return err
		}
		if !deleted {
			color.Yellow("No configuration found for topic ID %d", deleteTopicID)
			return nil
		}
		color.Green("Deleted configuration for topic ID %d", deleteTopicID)
		return nil
	},
}

// addConfiguration performs the compound add: group, topic, webhook and
// mapping. Each step is idempotent except webhook creation, which always
// allocates a new row.
func addConfiguration(st *store.Store, groupID int64, groupName string, topicID int64, topicName, webhookURL, description string) error {
	if err := st.UpsertGroup(groupID, groupName); err != nil {
		return err
	}
	if err := st.UpsertTopic(groupID, topicID, topicName); err != nil {
		if errors.Is(err, store.ErrGroupNotFound) {
			return fmt.Errorf("group %d must exist before its topics: %w", groupID, err)
		}
		return err
	}
	webhookID, err := st.CreateWebhook(webhookURL, description)
	if err != nil {
		return err
	}
	return st.MapTopicToWebhook(topicID, webhookID)
}

func openStore() (*store.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Paths.DBPath), 0o755); err != nil {
		return nil, err
	}
	return store.NewStore(cfg.Paths.DBPath)
}

func init() {
	configAddCmd.Flags().Int64Var(&addGroupID, "group-id", 0, "Telegram group ID")
	configAddCmd.Flags().StringVar(&addGroupName, "group-name", "", "Telegram group name")
	configAddCmd.Flags().Int64Var(&addTopicID, "topic-id", 0, "Topic ID")
	configAddCmd.Flags().StringVar(&addTopicName, "topic-name", "", "Topic name")
	configAddCmd.Flags().StringVar(&addWebhookURL, "webhook-url", "", "Webhook URL")
	configAddCmd.Flags().StringVar(&addDescription, "description", "", "Optional description")
	configAddCmd.MarkFlagRequired("group-id")
	configAddCmd.MarkFlagRequired("group-name")
	configAddCmd.MarkFlagRequired("topic-id")
	configAddCmd.MarkFlagRequired("topic-name")
	configAddCmd.MarkFlagRequired("webhook-url")

	configDeleteCmd.Flags().Int64Var(&deleteTopicID, "topic-id", 0, "Topic ID to delete")
	configDeleteCmd.MarkFlagRequired("topic-id")

	configCmd.AddCommand(configAddCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configDeleteCmd)
}
