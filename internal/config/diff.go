package config

import (
	"reflect"
	"sort"
	"strings"

	"github.com/GoJackzi/zama-news-bot/pkg/logx"
)

// SummarizeChange returns a compact list of changed sections and safe
// structured attrs for logging. Secrets (tokens) are never included;
// only whether they are set.
func SummarizeChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 6)
	attrs := make([]logx.Field, 0, 16)

	// Telegram (never log token)
	if strings.TrimSpace(oldCfg.Telegram.Channel) != strings.TrimSpace(newCfg.Telegram.Channel) ||
		strings.TrimSpace(oldCfg.Telegram.Timeout) != strings.TrimSpace(newCfg.Telegram.Timeout) ||
		(strings.TrimSpace(oldCfg.Telegram.Token) != "") != (strings.TrimSpace(newCfg.Telegram.Token) != "") {
		changed = append(changed, "telegram")
		attrs = append(attrs,
			logx.String("telegram.channel", strings.TrimSpace(newCfg.Telegram.Channel)),
			logx.Bool("telegram.token_set", strings.TrimSpace(newCfg.Telegram.Token) != ""),
		)
	}

	// Logging
	if !reflect.DeepEqual(oldCfg.Logging, newCfg.Logging) {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logx.level", newCfg.Logging.Level),
			logx.Bool("logx.console", newCfg.Logging.Console),
			logx.Bool("logx.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	// Poll
	if strings.TrimSpace(oldCfg.Poll.Interval) != strings.TrimSpace(newCfg.Poll.Interval) ||
		BoolOr(oldCfg.Poll.StartupAnnouncement, true) != BoolOr(newCfg.Poll.StartupAnnouncement, true) {
		changed = append(changed, "poll")
		attrs = append(attrs,
			logx.String("poll.interval", strings.TrimSpace(newCfg.Poll.Interval)),
			logx.Bool("poll.startup_announcement", BoolOr(newCfg.Poll.StartupAnnouncement, true)),
		)
	}

	// Dispatch
	if !reflect.DeepEqual(oldCfg.Dispatch, newCfg.Dispatch) {
		changed = append(changed, "dispatch")
		attrs = append(attrs,
			logx.String("dispatch.message_interval", strings.TrimSpace(newCfg.Dispatch.MessageInterval)),
			logx.Int("dispatch.retry_max", newCfg.Dispatch.RetryMax),
		)
	}

	// Storage
	if !reflect.DeepEqual(oldCfg.Storage, newCfg.Storage) {
		changed = append(changed, "storage")
		attrs = append(attrs,
			logx.Bool("storage.path_set", strings.TrimSpace(newCfg.Storage.Path) != ""),
			logx.String("storage.retention", strings.TrimSpace(newCfg.Storage.Retention)),
		)
	}

	// Sources (never log the github token)
	srcChanged := diffSources(oldCfg.Sources, newCfg.Sources)
	if len(srcChanged) > 0 {
		changed = append(changed, "sources")
		attrs = append(attrs,
			logx.String("sources.changed", strings.Join(srcChanged, ",")),
			logx.Int("sources.enabled_count", countEnabledSources(newCfg.Sources)),
		)
	}

	sort.Strings(changed)
	return changed, attrs
}

func diffSources(o, n SourcesConfig) []string {
	out := make([]string, 0, 6)
	if !reflect.DeepEqual(redactGitHub(o.GitHub), redactGitHub(n.GitHub)) ||
		(strings.TrimSpace(o.GitHub.Token) != "") != (strings.TrimSpace(n.GitHub.Token) != "") {
		out = append(out, "github")
	}
	if !reflect.DeepEqual(o.Blog, n.Blog) {
		out = append(out, "blog")
	}
	if !reflect.DeepEqual(o.Changelog, n.Changelog) {
		out = append(out, "changelog")
	}
	if !reflect.DeepEqual(o.Litepaper, n.Litepaper) {
		out = append(out, "litepaper")
	}
	if !reflect.DeepEqual(o.Status, n.Status) {
		out = append(out, "status")
	}
	if !reflect.DeepEqual(o.Twitter, n.Twitter) {
		out = append(out, "twitter")
	}
	sort.Strings(out)
	return out
}

func redactGitHub(g GitHubSource) GitHubSource {
	g.Token = ""
	return g
}

func countEnabledSources(s SourcesConfig) int {
	n := 0
	for _, on := range []bool{
		BoolOr(s.Blog.Enabled, true),
		BoolOr(s.GitHub.Enabled, true),
		BoolOr(s.Changelog.Enabled, true),
		BoolOr(s.Litepaper.Enabled, true),
		BoolOr(s.Status.Enabled, true),
		BoolOr(s.Twitter.Enabled, false),
	} {
		if on {
			n++
		}
	}
	return n
}
