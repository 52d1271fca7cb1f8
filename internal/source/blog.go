package source

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/GoJackzi/zama-news-bot/internal/news"
	"github.com/GoJackzi/zama-news-bot/pkg/logx"
)

const (
	blogMaxPosts   = 5
	blogSummaryCap = 300
	blogBaseURL    = "https://www.zama.ai"
)

// BlogConfig locates the blog feed and its index page.
type BlogConfig struct {
	FeedURL string
	// PageURL is scraped when the feed cannot be fetched or parsed.
	PageURL string
	Timeout time.Duration
}

// Blog watches the Zama blog. The RSS feed is authoritative; when it
// is down the adapter falls back to scraping the index page, which
// yields titles and links but no summaries or dates.
type Blog struct {
	cfg    BlogConfig
	client *http.Client
	parser *gofeed.Parser
	log    logx.Logger
}

func NewBlog(cfg BlogConfig, log logx.Logger) *Blog {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Blog{
		cfg:    cfg,
		client: newHTTPClient(cfg.Timeout),
		parser: gofeed.NewParser(),
		log:    log,
	}
}

func (b *Blog) Category() news.Category { return news.CategoryBlog }

func (b *Blog) Fetch(ctx context.Context) ([]news.Item, error) {
	items, feedErr := b.fromFeed(ctx)
	if feedErr == nil {
		return items, nil
	}
	b.log.Warn("blog feed failed, scraping index page", logx.Err(feedErr))
	return b.fromPage(ctx)
}

func (b *Blog) fromFeed(ctx context.Context) ([]news.Item, error) {
	body, err := fetch(ctx, b.client, b.cfg.FeedURL, map[string]string{"User-Agent": botUA})
	if err != nil {
		return nil, err
	}
	feed, err := b.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse blog feed: %v", ErrUnavailable, err)
	}

	entries := feed.Items
	if len(entries) > blogMaxPosts {
		entries = entries[:blogMaxPosts]
	}

	items := make([]news.Item, 0, len(entries))
	for _, e := range entries {
		if e == nil {
			continue
		}
		it := news.Item{
			Category: news.CategoryBlog,
			ID:       cmp.Or(e.GUID, e.Link),
			Title:    cmp.Or(strings.TrimSpace(e.Title), "Untitled"),
			URL:      e.Link,
			Summary:  capRunes(stripHTML(cmp.Or(e.Description, e.Content)), blogSummaryCap),
		}
		if e.PublishedParsed != nil {
			it.Published = *e.PublishedParsed
		} else if e.UpdatedParsed != nil {
			it.Published = *e.UpdatedParsed
		}
		items = append(items, it)
	}

	// Feeds lead with the newest entry; announcements go out oldest
	// first.
	slices.Reverse(items)
	return items, nil
}

func (b *Blog) fromPage(ctx context.Context) ([]news.Item, error) {
	if b.cfg.PageURL == "" {
		return nil, fmt.Errorf("%w: no blog page url configured", ErrUnavailable)
	}
	body, err := fetch(ctx, b.client, b.cfg.PageURL, map[string]string{"User-Agent": browserUA})
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse blog page: %v", ErrUnavailable, err)
	}

	var items []news.Item
	doc.Find("article.post, article.blog-post, article.article, div.post, div.blog-post, div.article").
		EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			title := collapseSpace(sel.Find("h1, h2, h3, a").First().Text())
			href, ok := sel.Find("a[href]").First().Attr("href")
			if title == "" || !ok || href == "" {
				return true
			}
			if !strings.HasPrefix(href, "http") {
				href = blogBaseURL + href
			}
			items = append(items, news.Item{
				Category: news.CategoryBlog,
				ID:       href,
				Title:    title,
				URL:      href,
			})
			return len(items) < blogMaxPosts
		})

	slices.Reverse(items)
	return items, nil
}
