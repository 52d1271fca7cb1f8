package config

import "os"

type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`
	Poll     PollConfig     `json:"poll"`
	Dispatch DispatchConfig `json:"dispatch"`
	Storage  StorageConfig  `json:"storage"`
	Sources  SourcesConfig  `json:"sources"`
}

// TelegramConfig carries the bot credentials and target channel.
//
// Token and Channel fall back to the TELEGRAM_BOT_TOKEN and
// TELEGRAM_CHANNEL_ID environment variables when left empty, so secrets
// can stay out of the config file.
type TelegramConfig struct {
	Token   string `json:"token,omitempty"`
	Channel string `json:"channel,omitempty"`
	// Timeout is a Go duration string bounding each Bot API call.
	Timeout string `json:"timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// PollConfig controls the poll cycle.
//
// All durations are Go duration strings (e.g. "30s", "5m").
type PollConfig struct {
	// Interval between cycle starts. The first cycle runs immediately.
	Interval string `json:"interval,omitempty"`
	// StartupAnnouncement posts a "monitoring started" message on boot.
	StartupAnnouncement *bool `json:"startup_announcement,omitempty"`
}

// DispatchConfig controls delivery pacing and retries.
//
// All durations are Go duration strings (e.g. "500ms", "10s").
type DispatchConfig struct {
	// MessageInterval is the minimum spacing between channel messages.
	MessageInterval string `json:"message_interval,omitempty"`
	RetryMax        int    `json:"retry_max,omitempty"`
	RetryBase       string `json:"retry_base,omitempty"`
	RetryMaxDelay   string `json:"retry_max_delay,omitempty"`
}

// StorageConfig controls the seen-item database.
type StorageConfig struct {
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"`
	// Retention is the age horizon for pruning announced identities.
	// Per-category floors keep the newest entries regardless of age.
	Retention string `json:"retention,omitempty"`
}

type SourcesConfig struct {
	Blog      BlogSource      `json:"blog"`
	GitHub    GitHubSource    `json:"github"`
	Changelog ChangelogSource `json:"changelog"`
	Litepaper LitepaperSource `json:"litepaper"`
	Status    StatusSource    `json:"status"`
	Twitter   TwitterSource   `json:"twitter"`
}

type BlogSource struct {
	Enabled *bool  `json:"enabled,omitempty"`
	FeedURL string `json:"feed_url,omitempty"`
	// PageURL is scraped when the feed is unreachable.
	PageURL string `json:"page_url,omitempty"`
}

// GitHubSource watches repositories for releases and merged pull
// requests. Token falls back to the GITHUB_TOKEN environment variable;
// without one the adapter still works at the anonymous rate limit.
type GitHubSource struct {
	Enabled *bool  `json:"enabled,omitempty"`
	Token   string `json:"token,omitempty"`
	// APIBase overrides the REST endpoint (tests, GitHub Enterprise).
	APIBase   string   `json:"api_base,omitempty"`
	Repos     []string `json:"repos,omitempty"`
	Releases  *bool    `json:"releases,omitempty"`
	MergedPRs *bool    `json:"merged_prs,omitempty"`
}

type ChangelogSource struct {
	Enabled *bool  `json:"enabled,omitempty"`
	URL     string `json:"url,omitempty"`
}

type LitepaperSource struct {
	Enabled *bool  `json:"enabled,omitempty"`
	URL     string `json:"url,omitempty"`
}

type StatusSource struct {
	Enabled *bool  `json:"enabled,omitempty"`
	FeedURL string `json:"feed_url,omitempty"`
	AtomURL string `json:"atom_url,omitempty"`
}

// TwitterSource reads a handle's timeline through nitter mirrors.
// Disabled by default; public mirrors come and go.
type TwitterSource struct {
	Enabled  *bool    `json:"enabled,omitempty"`
	Handle   string   `json:"handle,omitempty"`
	Mirrors  []string `json:"mirrors,omitempty"`
	MaxItems int      `json:"max_items,omitempty"`
}

// BoolOr dereferences b, falling back to def when the field was omitted.
func BoolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

func boolPtr(v bool) *bool { return &v }

// ApplyEnv fills secrets from the environment when the file left them
// empty. File values win so a config file can still pin credentials.
func ApplyEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.Telegram.Token == "" {
		cfg.Telegram.Token = os.Getenv("TELEGRAM_BOT_TOKEN")
	}
	if cfg.Telegram.Channel == "" {
		cfg.Telegram.Channel = os.Getenv("TELEGRAM_CHANNEL_ID")
	}
	if cfg.Sources.GitHub.Token == "" {
		cfg.Sources.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}
}
