// Package format renders news items as Telegram HTML messages.
//
// Render is pure and total: every category has a template, missing
// fields fall back to category defaults, and all interpolated text is
// escaped. Messages are capped below Telegram's size limit.
package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/GoJackzi/zama-news-bot/internal/news"
	"github.com/GoJackzi/zama-news-bot/pkg/tghtml"
)

// Format-time caps, on top of whatever the adapters already trimmed.
const (
	titleCap         = 256
	blogSummaryCap   = 300
	releaseBodyCap   = 400
	prBodyCap        = 300
	changelogBodyCap = 400
	statusBodyCap    = 400
)

// Render produces the Telegram HTML message for one item.
func Render(it news.Item) string {
	var msg string
	switch it.Category {
	case news.CategoryBlog:
		msg = renderBlog(it)
	case news.CategoryRelease:
		msg = renderRelease(it)
	case news.CategoryPR:
		msg = renderPR(it)
	case news.CategoryChangelog:
		msg = renderChangelog(it)
	case news.CategoryLitepaper:
		msg = renderLitepaper(it)
	case news.CategoryStatus:
		msg = renderStatus(it)
	case news.CategoryTwitter:
		msg = renderTweet(it)
	default:
		msg = renderGeneric(it)
	}
	// TruncRunes appends the ellipsis after the cut, so budget one rune for it.
	return tghtml.TruncRunes(msg, tghtml.MaxMessageLen-1)
}

func renderBlog(it news.Item) string {
	return compose(
		header("📝", "New Blog Post"),
		tghtml.B(title(it, "Untitled")),
		tghtml.Esc(tghtml.TruncRunes(it.Summary, blogSummaryCap)),
		tail(shortDate(it.Published), it.URL, "Read more"),
	)
}

func renderRelease(it news.Item) string {
	repo := fallback(it.Repo, "Unknown")
	tag := fallback(it.Tag, "Unknown")
	return compose(
		header("🚀", "New Release: "+repo),
		tghtml.B("Version "+tag),
		tghtml.Esc(tghtml.TruncRunes(it.Summary, releaseBodyCap)),
		tail(longDate(it.Published), it.URL, "View release"),
	)
}

func renderPR(it news.Item) string {
	head := tghtml.JoinH("\n",
		tghtml.B(fmt.Sprintf("#%d: %s", it.Number, title(it, "Untitled"))),
		tghtml.Esc("by @"+fallback(it.Author, "Unknown")),
	)
	return compose(
		header("🔀", "Merged PR: "+fallback(it.Repo, "Unknown")),
		head,
		tghtml.Esc(tghtml.TruncRunes(it.Summary, prBodyCap)),
		tail(longDate(it.Published), it.URL, "View PR"),
	)
}

func renderChangelog(it news.Item) string {
	return compose(
		header("📋", "Documentation Changelog"),
		tghtml.B(title(it, "Changelog Update")),
		tghtml.Esc(tghtml.TruncRunes(it.Summary, changelogBodyCap)),
		tail(shortDate(it.Published), it.URL, "View Changelog"),
	)
}

func renderLitepaper(it news.Item) string {
	return compose(
		header("📄", "Litepaper Updated"),
		tghtml.B(title(it, "Litepaper Update")),
		tghtml.Esc("The Zama Protocol Litepaper has been updated with new information."),
		tail(shortDate(it.Published), it.URL, "Read Litepaper"),
	)
}

func renderStatus(it news.Item) string {
	return compose(
		header(StatusEmoji(it.Kind), "System Status: "+title(it, "Status Update")),
		tghtml.Esc(tghtml.TruncRunes(it.Summary, statusBodyCap)),
		tail(longDate(it.Published), it.URL, "View Status Page"),
	)
}

func renderTweet(it news.Item) string {
	return compose(
		header("🐦", "New Tweet from "+fallback(it.Author, "@zama_fhe")),
		tghtml.Esc(it.Summary),
		tail(longDate(it.Published), it.URL, "View on Twitter"),
	)
}

func renderGeneric(it news.Item) string {
	return compose(
		tghtml.B(title(it, "Update")),
		tghtml.Esc(it.Summary),
		tail(shortDate(it.Published), it.URL, "Read more"),
	)
}

// StatusEmoji maps a status kind to its channel marker.
func StatusEmoji(k news.StatusKind) string {
	switch k {
	case news.StatusIncident:
		return "🔴"
	case news.StatusResolved:
		return "✅"
	case news.StatusMaintenance:
		return "🔧"
	case news.StatusDegraded:
		return "⚠️"
	default:
		return "🔵"
	}
}

// StartupMessage announces the bot and the sources it watches.
func StartupMessage(cats []news.Category) string {
	var b strings.Builder
	b.WriteString("🤖 " + tghtml.B("Zama News Bot Started").String() + "\n\n")
	b.WriteString("Monitoring:\n")
	for _, c := range cats {
		if line, ok := monitorLines[c]; ok {
			b.WriteString(line + "\n")
		}
	}
	b.WriteString("\nStay tuned for updates about Fully Homomorphic Encryption!")
	return b.String()
}

var monitorLines = map[news.Category]string{
	news.CategoryBlog:      "📝 Zama Blog",
	news.CategoryRelease:   "🚀 GitHub Releases",
	news.CategoryPR:        "🔀 GitHub Merged PRs",
	news.CategoryChangelog: "📋 Documentation Changelog",
	news.CategoryLitepaper: "📄 Protocol Litepaper",
	news.CategoryStatus:    "🔵 System Status",
	news.CategoryTwitter:   "🐦 Twitter / X",
}

// compose joins message blocks, dropping the empty ones.
func compose(blocks ...tghtml.H) string {
	return tghtml.JoinH("\n\n", blocks...).String()
}

func header(emoji, text string) tghtml.H {
	return tghtml.Raw(emoji + " " + tghtml.B(text).String())
}

// tail renders the date and link footer. Either line may be absent.
func tail(date, url, label string) tghtml.H {
	var parts []tghtml.H
	if date != "" {
		parts = append(parts, tghtml.Esc("📅 "+date))
	}
	if url != "" {
		parts = append(parts, tghtml.Raw("🔗 "+tghtml.Link(label, url).String()))
	}
	return tghtml.JoinH("\n", parts...)
}

func title(it news.Item, def string) string {
	t := strings.TrimSpace(it.Title)
	if t == "" {
		return def
	}
	return tghtml.TruncRunes(t, titleCap)
}

func fallback(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func shortDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

func longDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04 UTC")
}
