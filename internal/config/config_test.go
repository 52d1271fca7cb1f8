package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestParseMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
telegram:
  token: "123:abc"
  channel: "@zama_news"
poll:
  interval: "10m"
sources:
  twitter:
    enabled: true
`)
	m := NewManager(path)
	cfg, err := m.Parse()
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if cfg.Poll.Interval != "10m" {
		t.Fatalf("poll.interval = %q, want %q", cfg.Poll.Interval, "10m")
	}
	// Omitted sections keep built-in defaults.
	if cfg.Dispatch.MessageInterval != "2s" {
		t.Fatalf("dispatch.message_interval = %q, want default 2s", cfg.Dispatch.MessageInterval)
	}
	if got := len(cfg.Sources.GitHub.Repos); got != 4 {
		t.Fatalf("default repos = %d, want 4", got)
	}
	if !BoolOr(cfg.Sources.Twitter.Enabled, false) {
		t.Fatal("twitter.enabled override lost")
	}
	if cfg.Sources.Twitter.Handle != "zama_fhe" {
		t.Fatalf("twitter.handle = %q, want default", cfg.Sources.Twitter.Handle)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
telegram:
  token: "123:abc"
  channel: "@c"
  chat_id: 42
`)
	if _, err := NewManager(path).Parse(); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestParseExplicitFalseOverridesDefault(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
sources:
  changelog:
    enabled: false
`)
	cfg, err := NewManager(path).Parse()
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if BoolOr(cfg.Sources.Changelog.Enabled, true) {
		t.Fatal("explicit enabled: false was ignored")
	}
}

func TestParseFillsSecretsFromEnv(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("TELEGRAM_CHANNEL_ID", "-100200300")
	t.Setenv("GITHUB_TOKEN", "gh-env")

	path := writeConfig(t, "config.yaml", `
logging:
  level: DEBUG
`)
	cfg, err := NewManager(path).Parse()
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if cfg.Telegram.Token != "env-token" {
		t.Fatalf("token = %q, want env fallback", cfg.Telegram.Token)
	}
	if cfg.Telegram.Channel != "-100200300" {
		t.Fatalf("channel = %q, want env fallback", cfg.Telegram.Channel)
	}
	if cfg.Sources.GitHub.Token != "gh-env" {
		t.Fatalf("github token = %q, want env fallback", cfg.Sources.GitHub.Token)
	}
}

func TestParseFileWinsOverEnv(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	path := writeConfig(t, "config.yaml", `
telegram:
  token: "file-token"
  channel: "@c"
`)
	cfg, err := NewManager(path).Parse()
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if cfg.Telegram.Token != "file-token" {
		t.Fatalf("token = %q, want file value", cfg.Telegram.Token)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	valid := func() *Config {
		cfg := Default()
		cfg.Telegram.Token = "123:abc"
		cfg.Telegram.Channel = "@zama_news"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults with creds", mutate: func(*Config) {}, wantErr: ""},
		{name: "missing token", mutate: func(c *Config) { c.Telegram.Token = "" }, wantErr: "telegram.token"},
		{name: "missing channel", mutate: func(c *Config) { c.Telegram.Channel = " " }, wantErr: "telegram.channel"},
		{name: "bad interval", mutate: func(c *Config) { c.Poll.Interval = "five minutes" }, wantErr: "poll.interval"},
		{name: "negative retry", mutate: func(c *Config) { c.Dispatch.RetryMax = -1 }, wantErr: "retry_max"},
		{name: "empty storage path", mutate: func(c *Config) { c.Storage.Path = "" }, wantErr: "storage.path"},
		{name: "no repos", mutate: func(c *Config) { c.Sources.GitHub.Repos = nil }, wantErr: "repos"},
		{name: "bad repo", mutate: func(c *Config) { c.Sources.GitHub.Repos = []string{"tfhe-rs"} }, wantErr: "owner/name"},
		{name: "blog url missing", mutate: func(c *Config) { c.Sources.Blog.FeedURL = "" }, wantErr: "blog.feed_url"},
		{name: "relative url", mutate: func(c *Config) { c.Sources.Changelog.URL = "/change-log" }, wantErr: "absolute URL"},
		{
			name: "status needs one feed",
			mutate: func(c *Config) {
				c.Sources.Status.FeedURL = ""
				c.Sources.Status.AtomURL = ""
			},
			wantErr: "status",
		},
		{
			name: "disabled source skips checks",
			mutate: func(c *Config) {
				c.Sources.Blog.Enabled = boolPtr(false)
				c.Sources.Blog.FeedURL = ""
			},
			wantErr: "",
		},
		{
			name: "twitter enabled needs mirrors",
			mutate: func(c *Config) {
				c.Sources.Twitter.Enabled = boolPtr(true)
				c.Sources.Twitter.Mirrors = nil
			},
			wantErr: "mirrors",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestSubscribePublishUnsubscribe(t *testing.T) {
	t.Parallel()
	m := NewManager("unused")
	ch := m.Subscribe(1)

	cfg := Default()
	m.publish(cfg)

	select {
	case got := <-ch:
		if got != cfg {
			t.Fatal("received wrong config pointer")
		}
	default:
		t.Fatal("no config delivered to subscriber")
	}

	// A full buffer drops the stale entry, not the fresh one.
	first, second := Default(), Default()
	m.publish(first)
	m.publish(second)
	select {
	case got := <-ch:
		if got != second {
			t.Fatal("subscriber kept the stale config")
		}
	default:
		t.Fatal("no config delivered after overflow")
	}

	m.Unsubscribe(ch)
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("unexpected config after Unsubscribe")
		}
	default:
		t.Fatal("channel not closed after Unsubscribe")
	}
}

func TestLoadCommitsAndGetReturns(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_CHANNEL_ID", "")
	path := writeConfig(t, "config.yaml", `
logging:
  level: WARN
`)
	m := NewManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if m.Get() != cfg {
		t.Fatal("Get did not return the committed config")
	}
	if cfg.Logging.Level != "WARN" {
		t.Fatalf("Level = %q, want WARN", cfg.Logging.Level)
	}
}

func TestSummarizeChangeRedactsSecrets(t *testing.T) {
	t.Parallel()
	oldCfg := Default()
	newCfg := Default()
	newCfg.Telegram.Token = "super-secret"
	newCfg.Poll.Interval = "1m"
	newCfg.Sources.Twitter.Enabled = boolPtr(true)

	changed, _ := SummarizeChange(oldCfg, newCfg)

	want := map[string]bool{"telegram": true, "poll": true, "sources": true}
	for _, c := range changed {
		if !want[c] {
			t.Fatalf("unexpected changed section %q", c)
		}
		delete(want, c)
	}
	for missing := range want {
		t.Fatalf("changed sections missing %q", missing)
	}
}
