package source

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/GoJackzi/zama-news-bot/internal/news"
	"github.com/GoJackzi/zama-news-bot/pkg/logx"
)

const (
	statusMaxItems   = 5
	statusContentCap = 400
)

type StatusConfig struct {
	// FeedURL is the RSS encoding of the incident stream, AtomURL the
	// Atom encoding of the same stream.
	FeedURL string
	AtomURL string
	Timeout time.Duration
}

// Status watches the status page's incident stream. Both encodings
// are read and merged by entry id; they drift during incidents, so
// neither alone is trusted to be complete.
type Status struct {
	cfg    StatusConfig
	client *http.Client
	parser *gofeed.Parser
	log    logx.Logger
}

func NewStatus(cfg StatusConfig, log logx.Logger) *Status {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Status{
		cfg:    cfg,
		client: newHTTPClient(cfg.Timeout),
		parser: gofeed.NewParser(),
		log:    log,
	}
}

func (s *Status) Category() news.Category { return news.CategoryStatus }

func (s *Status) Fetch(ctx context.Context) ([]news.Item, error) {
	var (
		items []news.Item
		seen  = make(map[string]bool)
		errs  []error
		reads int
	)
	for _, url := range []string{s.cfg.FeedURL, s.cfg.AtomURL} {
		if url == "" {
			continue
		}
		feed, err := s.parseFeed(ctx, url)
		if err != nil {
			errs = append(errs, err)
			s.log.Warn("status feed fetch failed", logx.String("url", url), logx.Err(err))
			continue
		}
		reads++
		for _, e := range feed.Items {
			if e == nil {
				continue
			}
			id := cmp.Or(e.GUID, e.Link)
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			items = append(items, s.toItem(e, url))
		}
	}
	if reads == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	// Both encodings lead with the newest entry, so the merge is
	// already newest first with RSS order winning.
	if len(items) > statusMaxItems {
		items = items[:statusMaxItems]
	}
	slices.Reverse(items)
	return items, nil
}

func (s *Status) parseFeed(ctx context.Context, url string) (*gofeed.Feed, error) {
	body, err := fetch(ctx, s.client, url, map[string]string{"User-Agent": botUA})
	if err != nil {
		return nil, err
	}
	feed, err := s.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse status feed %s: %v", ErrUnavailable, url, err)
	}
	return feed, nil
}

func (s *Status) toItem(e *gofeed.Item, feedURL string) news.Item {
	title := cmp.Or(strings.TrimSpace(e.Title), "Status Update")
	it := news.Item{
		Category: news.CategoryStatus,
		ID:       cmp.Or(e.GUID, e.Link),
		Title:    title,
		URL:      cmp.Or(e.Link, feedURL),
		Summary:  capRunes(stripHTML(cmp.Or(e.Description, e.Content)), statusContentCap),
		Kind:     classifyStatus(title),
	}
	if e.PublishedParsed != nil {
		it.Published = *e.PublishedParsed
	} else if e.UpdatedParsed != nil {
		it.Published = *e.UpdatedParsed
	}
	return it
}

// classifyStatus buckets an entry by title keywords.
func classifyStatus(title string) news.StatusKind {
	t := strings.ToLower(title)
	switch {
	case containsAny(t, "incident", "outage", "down", "error"):
		return news.StatusIncident
	case containsAny(t, "resolved", "fixed", "restored"):
		return news.StatusResolved
	case containsAny(t, "maintenance", "scheduled", "upgrade"):
		return news.StatusMaintenance
	case containsAny(t, "degraded", "performance", "slow"):
		return news.StatusDegraded
	default:
		return news.StatusUpdate
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
