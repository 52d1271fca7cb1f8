package pipeline

import (
	"context"
	"time"

	"github.com/GoJackzi/zama-news-bot/internal/format"
	"github.com/GoJackzi/zama-news-bot/internal/news"
	"github.com/GoJackzi/zama-news-bot/internal/source"
	"github.com/GoJackzi/zama-news-bot/pkg/logx"
)

// announce handles a single fetched item: dedup, grace, send, commit.
//
// Failed sends stay uncommitted so the item is offered again next cycle.
// A failed seen lookup counts the item as fresh; the commit on delivery
// still dedupes it once the store recovers.
func (p *Pipeline) announce(ctx context.Context, it news.Item, firstRun bool, now time.Time, batch map[news.Key]struct{}, rep *CycleReport) {
	key := news.KeyFor(it)
	if _, dup := batch[key]; dup {
		return
	}
	batch[key] = struct{}{}

	seen, err := p.store.Has(ctx, key)
	if err != nil {
		p.log.Warn("seen lookup failed",
			logx.String("category", key.Category.String()),
			logx.String("id", key.ID),
			logx.Err(err),
		)
	}
	if seen {
		return
	}
	rep.Fresh++

	if firstRun && tooOldForFirstRun(it, now) {
		if err := p.store.Commit(ctx, key, time.Time{}); err != nil {
			p.log.Warn("backlog commit failed",
				logx.String("category", key.Category.String()),
				logx.String("id", key.ID),
				logx.Err(err),
			)
			return
		}
		rep.Suppressed++
		p.log.Debug("backlog item recorded without announcement",
			logx.String("category", key.Category.String()),
			logx.String("title", it.Title),
		)
		return
	}

	if err := p.send.Send(ctx, format.Render(it)); err != nil {
		rep.SendErrs++
		p.log.Error("announcement failed",
			logx.String("category", key.Category.String()),
			logx.String("title", it.Title),
			logx.Err(err),
		)
		return
	}
	rep.Sent++

	if err := p.store.Commit(ctx, key, time.Time{}); err != nil {
		p.log.Warn("commit after send failed",
			logx.String("category", key.Category.String()),
			logx.String("id", key.ID),
			logx.Err(err),
		)
	}
	if hash, ok := source.LitepaperHash(it); ok {
		if err := p.store.SetPageHash(ctx, source.LitepaperPage, hash); err != nil {
			p.log.Warn("page hash update failed", logx.Err(err))
		}
	}

	p.log.Info("announced",
		logx.String("category", key.Category.String()),
		logx.String("title", it.Title),
	)
}
