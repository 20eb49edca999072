package config

type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`
	Storage  StorageConfig  `json:"storage"`
	Mailing  MailingConfig  `json:"mailing"`
	Texts    TextsConfig    `json:"texts,omitempty"`
	Digest   DigestConfig   `json:"digest,omitempty"`
}

type TelegramConfig struct {
	// Token falls back to the BOT_TOKEN environment variable (a .env file
	// next to the binary is honored).
	Token string `json:"token,omitempty"`
	// AdminIDs lists operators allowed to broadcast. Falls back to the
	// ADMIN_IDS environment variable (comma-separated).
	AdminIDs []int64 `json:"admin_ids,omitempty"`
	// PollTimeout is a Go duration string (e.g. "10s").
	PollTimeout string `json:"poll_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string            `json:"level,omitempty"`
	Console bool              `json:"console"`
	File    LoggingFileConfig `json:"file,omitempty"`
}

type LoggingFileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

type StorageConfig struct {
	Path string `json:"path,omitempty"`
	// BusyTimeout is a Go duration string (sqlite busy handler).
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

type MailingConfig struct {
	// AppURL is the fixed target of in-app buttons and of the /start
	// keyboard.
	AppURL string `json:"app_url,omitempty"`
	// GroupDebounce is the media-group quiet period (Go duration string).
	GroupDebounce string `json:"group_debounce,omitempty"`
	RatePerSec    int    `json:"rate_per_sec,omitempty"`
}

// TextsConfig points at the directory of admin-editable message templates.
// Missing files fall back to built-in defaults.
type TextsConfig struct {
	Dir string `json:"dir,omitempty"`
}

// DigestConfig controls the optional scheduled statistics card for admins.
type DigestConfig struct {
	Enabled bool `json:"enabled"`
	// Schedule is a cron expression (robfig/cron, five fields).
	Schedule string `json:"schedule,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}
