package app

import (
	"github.com/GoJackzi/zama-news-bot/internal/config"
	"github.com/GoJackzi/zama-news-bot/internal/news"
	"github.com/GoJackzi/zama-news-bot/internal/source"
	"github.com/GoJackzi/zama-news-bot/pkg/logx"
)

// buildSources assembles the enabled source adapters in announcement
// order: blog, releases, merged PRs, changelog, litepaper, status,
// twitter. HTTP timeouts stay on the source package defaults.
func buildSources(cfg *config.Config, hashes source.PageHashes, log logx.Logger) []source.Source {
	src := cfg.Sources
	out := make([]source.Source, 0, 7)

	if config.BoolOr(src.Blog.Enabled, true) {
		out = append(out, source.NewBlog(source.BlogConfig{
			FeedURL: src.Blog.FeedURL,
			PageURL: src.Blog.PageURL,
		}, log.With(logx.String("source", "blog"))))
	}

	if config.BoolOr(src.GitHub.Enabled, true) {
		gh := source.GitHubConfig{
			APIBase: src.GitHub.APIBase,
			Token:   src.GitHub.Token,
			Repos:   src.GitHub.Repos,
		}
		if config.BoolOr(src.GitHub.Releases, true) {
			out = append(out, source.NewGitHubReleases(gh, log.With(logx.String("source", "github"))))
		}
		if config.BoolOr(src.GitHub.MergedPRs, true) {
			out = append(out, source.NewGitHubPRs(gh, log.With(logx.String("source", "github_pr"))))
		}
	}

	if config.BoolOr(src.Changelog.Enabled, true) {
		out = append(out, source.NewChangelog(source.ChangelogConfig{
			URL: src.Changelog.URL,
		}, log.With(logx.String("source", "changelog"))))
	}

	if config.BoolOr(src.Litepaper.Enabled, true) {
		out = append(out, source.NewLitepaper(source.LitepaperConfig{
			URL: src.Litepaper.URL,
		}, hashes, log.With(logx.String("source", "litepaper"))))
	}

	if config.BoolOr(src.Status.Enabled, true) {
		out = append(out, source.NewStatus(source.StatusConfig{
			FeedURL: src.Status.FeedURL,
			AtomURL: src.Status.AtomURL,
		}, log.With(logx.String("source", "status"))))
	}

	if config.BoolOr(src.Twitter.Enabled, false) {
		out = append(out, source.NewTwitter(source.TwitterConfig{
			Handle:   src.Twitter.Handle,
			Mirrors:  src.Twitter.Mirrors,
			MaxItems: src.Twitter.MaxItems,
		}, log.With(logx.String("source", "twitter"))))
	}

	return out
}

func categoriesOf(sources []source.Source) []news.Category {
	cats := make([]news.Category, 0, len(sources))
	for _, s := range sources {
		cats = append(cats, s.Category())
	}
	return cats
}
