// Package cli implements the topicrelay command line interface.
package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/topicrelay/topicrelay/internal/cli.version=1.2.3"
	version = "1.1.0"
	logo    = "\n" +
		"  _              _                _\n" +
		" | |_ ___  _ __ (_) ___ _ __ ___| | __ _ _   _\n" +
		" | __/ _ \\| '_ \\| |/ __| '__/ _ \\ |/ _` | | | |\n" +
		" | || (_) | |_) | | (__| | |  __/ | (_| | |_| |\n" +
		"  \\__\\___/| .__/|_|\\___|_|  \\___|_|\\__,_|\\__, |\n" +
		"          |_|                            |___/\n"
)

var rootCmd = &cobra.Command{
	Use:   "topicrelay",
	Short: "topicrelay - Telegram topic to webhook relay",
	Long:  color.CyanString(logo) + "\nRelays Telegram group topic messages to Discord/Slack style webhooks.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the topicrelay version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("topicrelay", version)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
}
