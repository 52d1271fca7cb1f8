package source

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/GoJackzi/zama-news-bot/internal/news"
	"github.com/GoJackzi/zama-news-bot/pkg/logx"
)

const (
	twitterDefaultMax = 10
	// Nitter renders timestamps like "Aug 24, 2026 · 3:04 PM UTC".
	nitterTimeLayout = "Jan 2, 2006 · 3:04 PM MST"
)

type TwitterConfig struct {
	// Handle without the @, e.g. "zama_fhe".
	Handle   string
	Mirrors  []string
	MaxItems int
	Timeout  time.Duration
}

// Twitter reads a public timeline through nitter mirrors, tried in
// order until one yields tweets. When every mirror fails the fetch
// degrades to an empty result instead of an error: mirrors die weekly
// and a dead mirror set must not mark the whole cycle unhealthy.
type Twitter struct {
	cfg    TwitterConfig
	client *http.Client
	log    logx.Logger
}

func NewTwitter(cfg TwitterConfig, log logx.Logger) *Twitter {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Twitter{cfg: cfg, client: newHTTPClient(cfg.Timeout), log: log}
}

func (t *Twitter) Category() news.Category { return news.CategoryTwitter }

func (t *Twitter) Fetch(ctx context.Context) ([]news.Item, error) {
	max := t.cfg.MaxItems
	if max <= 0 {
		max = twitterDefaultMax
	}
	for _, mirror := range t.cfg.Mirrors {
		items, err := t.fromMirror(ctx, mirror, max)
		if err != nil {
			t.log.Warn("nitter mirror failed",
				logx.String("mirror", mirror), logx.Err(err))
			continue
		}
		if len(items) > 0 {
			slices.Reverse(items)
			return items, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.log.Debug("no nitter mirror yielded tweets", logx.Int("mirrors", len(t.cfg.Mirrors)))
	return nil, nil
}

func (t *Twitter) fromMirror(ctx context.Context, mirror string, max int) ([]news.Item, error) {
	url := strings.TrimRight(mirror, "/") + "/" + t.cfg.Handle
	body, err := fetch(ctx, t.client, url, map[string]string{"User-Agent": browserUA})
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse timeline %s: %v", ErrUnavailable, url, err)
	}

	var items []news.Item
	doc.Find("div.timeline-item").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if sel.Find("div.retweet-header").Length() > 0 {
			return true
		}
		text := collapseSpace(sel.Find("div.tweet-content").First().Text())
		href, _ := sel.Find("a.tweet-link").First().Attr("href")
		id := tweetID(href)
		if text == "" || id == "" {
			return true
		}

		it := news.Item{
			Category: news.CategoryTwitter,
			ID:       id,
			URL:      fmt.Sprintf("https://twitter.com/%s/status/%s", t.cfg.Handle, id),
			Summary:  text,
			Author:   "@" + t.cfg.Handle,
		}
		if title, ok := sel.Find("span.tweet-date a").First().Attr("title"); ok {
			if ts, err := time.Parse(nitterTimeLayout, title); err == nil {
				it.Published = ts
			}
		}
		items = append(items, it)
		return len(items) < max
	})
	return items, nil
}

// tweetID pulls the numeric id out of a nitter status path like
// "/zama_fhe/status/1234567890#m".
func tweetID(href string) string {
	if href == "" {
		return ""
	}
	href = strings.TrimSuffix(href, "/")
	seg := href[strings.LastIndex(href, "/")+1:]
	seg, _, _ = strings.Cut(seg, "#")
	return seg
}
