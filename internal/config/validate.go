package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks a parsed config for problems that should block startup
// or reject a hot reload. It reports the first error found.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return errors.New("telegram.token is required (or TELEGRAM_BOT_TOKEN)")
	}
	if strings.TrimSpace(cfg.Telegram.Channel) == "" {
		return errors.New("telegram.channel is required (or TELEGRAM_CHANNEL_ID)")
	}

	durations := []struct {
		path string
		raw  string
	}{
		{"telegram.timeout", cfg.Telegram.Timeout},
		{"poll.interval", cfg.Poll.Interval},
		{"dispatch.message_interval", cfg.Dispatch.MessageInterval},
		{"dispatch.retry_base", cfg.Dispatch.RetryBase},
		{"dispatch.retry_max_delay", cfg.Dispatch.RetryMaxDelay},
		{"storage.busy_timeout", cfg.Storage.BusyTimeout},
		{"storage.retention", cfg.Storage.Retention},
	}
	for _, d := range durations {
		if _, err := ParseDurationField(d.path, d.raw); err != nil {
			return err
		}
	}

	if cfg.Dispatch.RetryMax < 0 {
		return errors.New("dispatch.retry_max must be >= 0")
	}
	if strings.TrimSpace(cfg.Storage.Path) == "" {
		return errors.New("storage.path is required")
	}

	src := cfg.Sources
	if BoolOr(src.Blog.Enabled, true) {
		if err := requireURL("sources.blog.feed_url", src.Blog.FeedURL); err != nil {
			return err
		}
		// PageURL is the scrape fallback; optional but must parse when set.
		if err := optionalURL("sources.blog.page_url", src.Blog.PageURL); err != nil {
			return err
		}
	}
	if BoolOr(src.GitHub.Enabled, true) {
		if len(src.GitHub.Repos) == 0 {
			return errors.New("sources.github.repos must list at least one repository")
		}
		for _, r := range src.GitHub.Repos {
			if !validRepo(r) {
				return fmt.Errorf("sources.github.repos: %q is not owner/name", r)
			}
		}
		if err := optionalURL("sources.github.api_base", src.GitHub.APIBase); err != nil {
			return err
		}
	}
	if BoolOr(src.Changelog.Enabled, true) {
		if err := requireURL("sources.changelog.url", src.Changelog.URL); err != nil {
			return err
		}
	}
	if BoolOr(src.Litepaper.Enabled, true) {
		if err := requireURL("sources.litepaper.url", src.Litepaper.URL); err != nil {
			return err
		}
	}
	if BoolOr(src.Status.Enabled, true) {
		// One working feed encoding is enough to run.
		if strings.TrimSpace(src.Status.FeedURL) == "" && strings.TrimSpace(src.Status.AtomURL) == "" {
			return errors.New("sources.status needs feed_url or atom_url")
		}
		if err := optionalURL("sources.status.feed_url", src.Status.FeedURL); err != nil {
			return err
		}
		if err := optionalURL("sources.status.atom_url", src.Status.AtomURL); err != nil {
			return err
		}
	}
	if BoolOr(src.Twitter.Enabled, false) {
		if strings.TrimSpace(src.Twitter.Handle) == "" {
			return errors.New("sources.twitter.handle is required when enabled")
		}
		if len(src.Twitter.Mirrors) == 0 {
			return errors.New("sources.twitter.mirrors must list at least one mirror")
		}
		for _, mirror := range src.Twitter.Mirrors {
			if err := requireURL("sources.twitter.mirrors", mirror); err != nil {
				return err
			}
		}
	}

	return nil
}

func requireURL(path, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%s is required", path)
	}
	return optionalURL(path, raw)
}

func optionalURL(path, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s: %q is not an absolute URL", path, raw)
	}
	return nil
}

func validRepo(r string) bool {
	parts := strings.Split(strings.TrimSpace(r), "/")
	return len(parts) == 2 && parts[0] != "" && parts[1] != ""
}
