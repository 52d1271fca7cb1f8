package pipeline

import (
	"context"
	"time"

	"github.com/GoJackzi/zama-news-bot/internal/news"
	"github.com/GoJackzi/zama-news-bot/pkg/logx"
)

// A fresh database would replay every source's reachable history into
// the channel. The grace pass records that backlog silently instead:
// when fewer than firstRunThreshold identities were ever committed for
// the core categories, old items are committed without announcement.
const firstRunThreshold = 5

var coreCategories = []news.Category{
	news.CategoryBlog,
	news.CategoryRelease,
	news.CategoryPR,
}

// Age windows for the first-run grace. Items within the window announce
// even on the first cycle; items with no date always announce.
const (
	blogGraceAge    = 30 * 24 * time.Hour
	releaseGraceAge = 30 * 24 * time.Hour
	prGraceAge      = 7 * 24 * time.Hour
)

func (p *Pipeline) isFirstRun(ctx context.Context) bool {
	total := 0
	for _, cat := range coreCategories {
		n, err := p.store.Count(ctx, cat)
		if err != nil {
			p.log.Warn("seen count failed",
				logx.String("category", cat.String()),
				logx.Err(err),
			)
			continue
		}
		total += n
	}
	return total < firstRunThreshold
}

func tooOldForFirstRun(it news.Item, now time.Time) bool {
	if it.Published.IsZero() {
		return false
	}
	var window time.Duration
	switch it.Category {
	case news.CategoryBlog:
		window = blogGraceAge
	case news.CategoryRelease:
		window = releaseGraceAge
	case news.CategoryPR:
		window = prGraceAge
	default:
		return false
	}
	return now.Sub(it.Published) > window
}
