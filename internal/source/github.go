package source

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/GoJackzi/zama-news-bot/internal/news"
	"github.com/GoJackzi/zama-news-bot/pkg/logx"
)

const (
	githubAPIBase     = "https://api.github.com"
	githubAccept      = "application/vnd.github.v3+json"
	githubReleasePage = 5
	githubPRsPerRepo  = 3
	githubBodyCap     = 500
)

// GitHubConfig selects the repositories to watch.
type GitHubConfig struct {
	// APIBase overrides the REST endpoint. Empty means api.github.com.
	APIBase string
	// Token raises the rate limit. Anonymous access is enough for the
	// default poll interval.
	Token   string
	Repos   []string
	Timeout time.Duration
}

// githubClient is shared by the release and PR adapters so both speak
// to the API with the same headers and failure handling.
type githubClient struct {
	base   string
	header map[string]string
	client *http.Client
	log    logx.Logger
}

func newGitHubClient(cfg GitHubConfig, log logx.Logger) *githubClient {
	base := strings.TrimRight(cfg.APIBase, "/")
	if base == "" {
		base = githubAPIBase
	}
	header := map[string]string{
		"Accept":     githubAccept,
		"User-Agent": botUA,
	}
	if cfg.Token != "" {
		header["Authorization"] = "token " + cfg.Token
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &githubClient{
		base:   base,
		header: header,
		client: newHTTPClient(cfg.Timeout),
		log:    log,
	}
}

func (c *githubClient) getJSON(ctx context.Context, url string, out any) error {
	body, err := fetch(ctx, c.client, url, c.header)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrUnavailable, url, err)
	}
	return nil
}

type ghRelease struct {
	ID          int64     `json:"id"`
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	Body        string    `json:"body"`
	HTMLURL     string    `json:"html_url"`
	Draft       bool      `json:"draft"`
	PublishedAt time.Time `json:"published_at"`
}

type ghPull struct {
	Number   int        `json:"number"`
	Title    string     `json:"title"`
	Body     string     `json:"body"`
	HTMLURL  string     `json:"html_url"`
	MergedAt *time.Time `json:"merged_at"`
	User     struct {
		Login string `json:"login"`
	} `json:"user"`
	Base struct {
		Ref string `json:"ref"`
	} `json:"base"`
}

func (c *githubClient) releases(ctx context.Context, repo string) ([]news.Item, error) {
	var rels []ghRelease
	url := fmt.Sprintf("%s/repos/%s/releases?per_page=%d", c.base, repo, githubReleasePage)
	if err := c.getJSON(ctx, url, &rels); err != nil {
		return nil, err
	}

	items := make([]news.Item, 0, len(rels))
	for _, r := range rels {
		if r.Draft {
			continue
		}
		tag := cmp.Or(r.TagName, r.Name, "Unknown")
		items = append(items, news.Item{
			Category:  news.CategoryRelease,
			ID:        fmt.Sprintf("%s:%d", repo, r.ID),
			Title:     cmp.Or(strings.TrimSpace(r.Name), tag),
			URL:       r.HTMLURL,
			Summary:   cleanBody(r.Body),
			Repo:      repo,
			Tag:       tag,
			Published: r.PublishedAt,
		})
	}
	return items, nil
}

func (c *githubClient) mergedPulls(ctx context.Context, repo string) ([]news.Item, error) {
	var pulls []ghPull
	// Fetch extra because the closed list mixes merged and abandoned.
	url := fmt.Sprintf("%s/repos/%s/pulls?state=closed&sort=updated&direction=desc&per_page=%d",
		c.base, repo, githubPRsPerRepo*2)
	if err := c.getJSON(ctx, url, &pulls); err != nil {
		return nil, err
	}

	items := make([]news.Item, 0, githubPRsPerRepo)
	for _, pr := range pulls {
		if pr.MergedAt == nil {
			continue
		}
		if pr.Base.Ref != "main" && pr.Base.Ref != "master" {
			continue
		}
		items = append(items, news.Item{
			Category:  news.CategoryPR,
			ID:        fmt.Sprintf("%s:pr:%d", repo, pr.Number),
			Title:     cmp.Or(strings.TrimSpace(pr.Title), "Untitled PR"),
			URL:       pr.HTMLURL,
			Summary:   cleanBody(pr.Body),
			Author:    cmp.Or(pr.User.Login, "Unknown"),
			Repo:      repo,
			Number:    pr.Number,
			Published: *pr.MergedAt,
		})
		if len(items) == githubPRsPerRepo {
			break
		}
	}
	return items, nil
}

// cleanBody drops blank lines from a release or PR body and caps the
// result.
func cleanBody(body string) string {
	lines := strings.Split(body, "\n")
	kept := lines[:0]
	for _, ln := range lines {
		ln = strings.TrimSpace(ln)
		if ln != "" {
			kept = append(kept, ln)
		}
	}
	return capRunes(strings.Join(kept, "\n"), githubBodyCap)
}

// GitHubReleases announces published releases across the watched
// repos. Drafts are skipped; pre-releases are announced like any
// other release.
type GitHubReleases struct {
	c     *githubClient
	repos []string
}

func NewGitHubReleases(cfg GitHubConfig, log logx.Logger) *GitHubReleases {
	return &GitHubReleases{c: newGitHubClient(cfg, log), repos: cfg.Repos}
}

func (g *GitHubReleases) Category() news.Category { return news.CategoryRelease }

// Fetch collects releases repo by repo. One broken repo does not spoil
// the rest; only all repos failing marks the source unavailable.
func (g *GitHubReleases) Fetch(ctx context.Context) ([]news.Item, error) {
	var (
		items  []news.Item
		failed int
	)
	for _, repo := range g.repos {
		rels, err := g.c.releases(ctx, repo)
		if err != nil {
			failed++
			g.c.log.Warn("github releases fetch failed",
				logx.String("repo", repo), logx.Err(err))
			continue
		}
		items = append(items, rels...)
	}
	if len(g.repos) > 0 && failed == len(g.repos) {
		return nil, fmt.Errorf("%w: releases failed for all %d repos", ErrUnavailable, failed)
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].Published.Before(items[j].Published)
	})
	return items, nil
}

// GitHubPRs announces pull requests merged into main or master.
type GitHubPRs struct {
	c     *githubClient
	repos []string
}

func NewGitHubPRs(cfg GitHubConfig, log logx.Logger) *GitHubPRs {
	return &GitHubPRs{c: newGitHubClient(cfg, log), repos: cfg.Repos}
}

func (g *GitHubPRs) Category() news.Category { return news.CategoryPR }

func (g *GitHubPRs) Fetch(ctx context.Context) ([]news.Item, error) {
	var (
		items  []news.Item
		failed int
	)
	for _, repo := range g.repos {
		prs, err := g.c.mergedPulls(ctx, repo)
		if err != nil {
			failed++
			g.c.log.Warn("github merged PRs fetch failed",
				logx.String("repo", repo), logx.Err(err))
			continue
		}
		items = append(items, prs...)
	}
	if len(g.repos) > 0 && failed == len(g.repos) {
		return nil, fmt.Errorf("%w: pulls failed for all %d repos", ErrUnavailable, failed)
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].Published.Before(items[j].Published)
	})
	return items, nil
}
