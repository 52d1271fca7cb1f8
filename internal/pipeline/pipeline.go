// Package pipeline runs the poll cycle: fetch from every source,
// drop what was already announced, deliver the rest in order, and
// record deliveries so restarts stay quiet.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/GoJackzi/zama-news-bot/internal/news"
	"github.com/GoJackzi/zama-news-bot/internal/source"
	"github.com/GoJackzi/zama-news-bot/pkg/logx"
)

// SeenStore is the persistence surface the pipeline drives.
type SeenStore interface {
	Has(ctx context.Context, key news.Key) (bool, error)
	Commit(ctx context.Context, key news.Key, firstSeen time.Time) error
	Count(ctx context.Context, cat news.Category) (int, error)
	Prune(ctx context.Context, cat news.Category, before time.Time, keepLast int) (int64, error)
	SetPageHash(ctx context.Context, page, hash string) error
}

// Deliverer posts one rendered message to the channel.
type Deliverer interface {
	Send(ctx context.Context, text string) error
}

type Config struct {
	// Retention is the age horizon for pruning announced identities.
	Retention time.Duration
}

const defaultRetention = 90 * 24 * time.Hour

// Pipeline wires sources to the store and the deliverer.
type Pipeline struct {
	sources []source.Source
	store   SeenStore
	send    Deliverer
	cfg     Config
	log     logx.Logger
}

// New builds a Pipeline. Sources are announced in the order given.
func New(sources []source.Source, st SeenStore, d Deliverer, cfg Config, log logx.Logger) *Pipeline {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.Retention <= 0 {
		cfg.Retention = defaultRetention
	}
	return &Pipeline{sources: sources, store: st, send: d, cfg: cfg, log: log}
}

// CycleReport summarizes one poll cycle.
type CycleReport struct {
	Fetched    int
	Fresh      int
	Sent       int
	Suppressed int // recorded without announcement during first-run grace
	FetchErrs  int
	SendErrs   int
	Pruned     int64
}

// Run executes one poll cycle. Sources are fetched concurrently and
// announced in registration order, oldest first within each source.
func (p *Pipeline) Run(ctx context.Context) CycleReport {
	started := time.Now()
	var rep CycleReport

	batches, fetchErrs := p.fetchAll(ctx)
	rep.FetchErrs = fetchErrs
	for _, b := range batches {
		rep.Fetched += len(b)
	}

	firstRun := p.isFirstRun(ctx)
	if firstRun {
		p.log.Info("fresh database, backlog will be recorded without announcements")
	}

	now := time.Now()
	batchSeen := make(map[news.Key]struct{})
	for _, items := range batches {
		for _, it := range items {
			if ctx.Err() != nil {
				return rep
			}
			p.announce(ctx, it, firstRun, now, batchSeen, &rep)
		}
	}

	rep.Pruned = p.pruneAll(ctx, now)

	p.log.Info("cycle complete",
		logx.Int("fetched", rep.Fetched),
		logx.Int("fresh", rep.Fresh),
		logx.Int("sent", rep.Sent),
		logx.Int("suppressed", rep.Suppressed),
		logx.Int("fetch_errors", rep.FetchErrs),
		logx.Int("send_errors", rep.SendErrs),
		logx.Int64("pruned", rep.Pruned),
		logx.Duration("took", time.Since(started)),
	)
	return rep
}

// fetchAll polls every source concurrently. A failing source costs its
// batch, never the cycle.
func (p *Pipeline) fetchAll(ctx context.Context) ([][]news.Item, int) {
	batches := make([][]news.Item, len(p.sources))
	errs := make([]error, len(p.sources))

	var wg sync.WaitGroup
	for i, src := range p.sources {
		wg.Add(1)
		go func(i int, src source.Source) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("fetch panicked: %v", r)
				}
			}()
			items, err := src.Fetch(ctx)
			if err != nil {
				errs[i] = err
				return
			}
			batches[i] = items
		}(i, src)
	}
	wg.Wait()

	failed := 0
	for i, err := range errs {
		if err != nil {
			failed++
			p.log.Warn("source fetch failed",
				logx.String("category", p.sources[i].Category().String()),
				logx.Err(err),
			)
		}
	}
	return batches, failed
}
