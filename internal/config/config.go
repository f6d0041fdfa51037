// Package config provides configuration types and loading for topicrelay.
package config

// Config is the root configuration struct.
type Config struct {
	Paths    PathsConfig    `json:"paths"`
	Telegram TelegramConfig `json:"telegram"`
	Relay    RelayConfig    `json:"relay"`
	Log      LogConfig      `json:"log"`
}

// PathsConfig groups all filesystem path settings.
type PathsConfig struct {
	StateDir string `json:"stateDir" envconfig:"STATE_DIR"`
	DBPath   string `json:"dbPath" envconfig:"DB_PATH"`
	MediaDir string `json:"mediaDir" envconfig:"MEDIA_DIR"`
}

// TelegramConfig configures the Telegram bridge channel. Session and
// authentication with Telegram itself live in the bridge process, not here.
type TelegramConfig struct {
	BridgeURL    string `json:"bridgeUrl" envconfig:"TELEGRAM_BRIDGE_URL"`
	BridgeToken  string `json:"bridgeToken" envconfig:"TELEGRAM_BRIDGE_TOKEN"`
	PollSeconds  int    `json:"pollSeconds" envconfig:"TELEGRAM_POLL_SECONDS"`
	RetrySeconds int    `json:"retrySeconds" envconfig:"TELEGRAM_RETRY_SECONDS"`
}

// RelayConfig groups delivery pipeline settings.
type RelayConfig struct {
	HTTPTimeoutSeconds int `json:"httpTimeoutSeconds" envconfig:"HTTP_TIMEOUT_SECONDS"`
}

// LogConfig configures the structured log output.
type LogConfig struct {
	Level string `json:"level" envconfig:"LOG_LEVEL"`
}
