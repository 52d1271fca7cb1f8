// Package news defines the items flowing through the poll pipeline and
// their durable identity.
package news

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Category names a monitored source family. It is part of every stored
// identity, so renaming a value orphans previously recorded items.
type Category string

const (
	CategoryBlog      Category = "blog"
	CategoryRelease   Category = "github"
	CategoryPR        Category = "github_pr"
	CategoryChangelog Category = "changelog"
	CategoryLitepaper Category = "litepaper"
	CategoryStatus    Category = "status"
	CategoryTwitter   Category = "twitter"
)

// Categories lists all known categories in announcement order.
func Categories() []Category {
	return []Category{
		CategoryBlog,
		CategoryRelease,
		CategoryPR,
		CategoryChangelog,
		CategoryLitepaper,
		CategoryStatus,
		CategoryTwitter,
	}
}

func (c Category) String() string { return string(c) }

// StatusKind classifies a status-page entry by its title.
type StatusKind string

const (
	StatusIncident    StatusKind = "incident"
	StatusResolved    StatusKind = "resolved"
	StatusMaintenance StatusKind = "maintenance"
	StatusDegraded    StatusKind = "degraded"
	StatusUpdate      StatusKind = "update"
)

// Item is one unit of news produced by a source adapter.
//
// ID carries the source's natural identity when it has one (feed GUID,
// release id, PR number). Adapters that synthesize items from content
// hashes fill ID themselves; everything else may leave it empty and rely
// on KeyFor's content hash.
type Item struct {
	Category  Category
	ID        string
	Title     string
	URL       string
	Summary   string // plain text, already stripped of markup
	Author    string
	Repo      string     // owner/name for release and PR items
	Tag       string     // release tag name
	Number    int        // pull request number
	Kind      StatusKind // status items only
	Published time.Time
}

// Key is the durable identity of an item within its category.
type Key struct {
	Category Category
	ID       string
}

// KeyFor derives the durable identity of an item.
//
// Natural IDs win. Without one the key is a content hash over the
// normalized title and URL, so the same logical item keys identically
// across polls and across processes. Items with neither get a hash of
// their normalized summary prefix as a last resort.
func KeyFor(it Item) Key {
	if id := strings.TrimSpace(it.ID); id != "" {
		return Key{Category: it.Category, ID: id}
	}

	title := Normalize(it.Title)
	url := Normalize(it.URL)
	if title != "" || url != "" {
		return Key{Category: it.Category, ID: HashText(title + "\n" + url)}
	}

	return Key{Category: it.Category, ID: HashText(prefixRunes(Normalize(it.Summary), 256))}
}

// Normalize collapses inner whitespace, trims and lower-cases s.
// Identity hashes go through this so cosmetic reflows of the same
// content do not re-announce.
func Normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// HashText returns the hex sha256 of s.
func HashText(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func prefixRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
