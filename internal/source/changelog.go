package source

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/GoJackzi/zama-news-bot/internal/news"
	"github.com/GoJackzi/zama-news-bot/pkg/logx"
)

const (
	changelogScanLimit = 10
	changelogKeep      = 5
	changelogTitleCap  = 100
	changelogBodyCap   = 500
	changelogMinRunes  = 10
)

type ChangelogConfig struct {
	URL     string
	Timeout time.Duration
}

// Changelog scrapes the docs changelog page. Entries carry no stable
// upstream id, so each block is identified by a hash of its text: an
// edited block reads as a new entry, which is the wanted behavior for
// a changelog.
type Changelog struct {
	cfg    ChangelogConfig
	client *http.Client
	log    logx.Logger
}

func NewChangelog(cfg ChangelogConfig, log logx.Logger) *Changelog {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Changelog{cfg: cfg, client: newHTTPClient(cfg.Timeout), log: log}
}

func (c *Changelog) Category() news.Category { return news.CategoryChangelog }

func (c *Changelog) Fetch(ctx context.Context) ([]news.Item, error) {
	body, err := fetch(ctx, c.client, c.cfg.URL, map[string]string{"User-Agent": browserUA})
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse changelog page: %v", ErrUnavailable, err)
	}

	now := time.Now()
	var items []news.Item
	doc.Find("h2, h3, article").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if i >= changelogScanLimit {
			return false
		}
		text := collapseSpace(sel.Text())
		if utf8.RuneCountInString(text) < changelogMinRunes ||
			strings.Contains(text, "Table of Contents") ||
			strings.Contains(text, "Navigation") {
			return true
		}
		items = append(items, news.Item{
			Category:  news.CategoryChangelog,
			ID:        "changelog:" + news.HashText(text),
			Title:     ellipsize(text, changelogTitleCap),
			URL:       c.cfg.URL,
			Summary:   capRunes(text, changelogBodyCap),
			Published: now,
		})
		return true
	})

	if len(items) > changelogKeep {
		items = items[:changelogKeep]
	}
	// Page order is newest first.
	slices.Reverse(items)
	return items, nil
}
