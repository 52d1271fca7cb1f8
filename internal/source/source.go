// Package source implements the poll adapters for Zama's public
// surfaces: the blog feed, GitHub releases and merged pull requests,
// the docs changelog, the litepaper page, the status feed and the
// @zama_fhe timeline.
//
// Adapters share one contract: Fetch returns whatever the surface
// currently shows, oldest first, without consulting the seen store.
// Change detection happens downstream in the pipeline.
package source

import (
	"context"
	"errors"

	"github.com/GoJackzi/zama-news-bot/internal/news"
)

// ErrUnavailable marks a fetch that failed for transient reasons:
// network errors, non-200 responses, unparseable payloads. The cycle
// records the outage and retries on the next tick; nothing is ever
// re-announced because of it.
var ErrUnavailable = errors.New("source unavailable")

// Source is one polled surface.
type Source interface {
	Category() news.Category
	Fetch(ctx context.Context) ([]news.Item, error)
}
