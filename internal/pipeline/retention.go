package pipeline

import (
	"context"
	"time"

	"github.com/GoJackzi/zama-news-bot/internal/news"
	"github.com/GoJackzi/zama-news-bot/pkg/logx"
)

// Retention floors: pruning always keeps this many of the newest
// identities per category. An identity a source still serves must stay
// in the store or the item would be re-announced, so the floors sit
// well above every source's window.
var pruneFloors = map[news.Category]int{
	news.CategoryBlog:      100,
	news.CategoryRelease:   100,
	news.CategoryPR:        200,
	news.CategoryChangelog: 100,
	news.CategoryLitepaper: 50,
	news.CategoryStatus:    100,
	news.CategoryTwitter:   200,
}

const defaultPruneFloor = 100

func (p *Pipeline) pruneAll(ctx context.Context, now time.Time) int64 {
	horizon := now.Add(-p.cfg.Retention)
	var total int64
	for _, cat := range news.Categories() {
		floor, ok := pruneFloors[cat]
		if !ok {
			floor = defaultPruneFloor
		}
		n, err := p.store.Prune(ctx, cat, horizon, floor)
		if err != nil {
			p.log.Warn("prune failed",
				logx.String("category", cat.String()),
				logx.Err(err),
			)
			continue
		}
		total += n
	}
	return total
}
