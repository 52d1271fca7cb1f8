package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/GoJackzi/zama-news-bot/internal/news"
	"github.com/GoJackzi/zama-news-bot/pkg/logx"
)

const blogFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Zama Blog</title>
    <item>
      <guid>post-2</guid>
      <title>TFHE-rs 1.0</title>
      <link>https://www.zama.ai/post/tfhe-rs-1-0</link>
      <description><![CDATA[<p>Fully &amp; homomorphic <b>encryption</b> ships.</p>]]></description>
      <pubDate>Tue, 10 Jun 2025 09:00:00 +0000</pubDate>
    </item>
    <item>
      <guid>post-1</guid>
      <title>Hello FHE</title>
      <link>https://www.zama.ai/post/hello-fhe</link>
      <description>First post.</description>
      <pubDate>Mon, 09 Jun 2025 09:00:00 +0000</pubDate>
    </item>
  </channel>
</rss>`

func TestBlogFetchFromFeed(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(blogFeedXML))
	}))
	defer srv.Close()

	b := NewBlog(BlogConfig{FeedURL: srv.URL}, logx.Nop())
	items, err := b.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}

	// Feed order is newest first; announcements come back oldest first.
	if items[0].ID != "post-1" || items[1].ID != "post-2" {
		t.Fatalf("order = [%s %s], want [post-1 post-2]", items[0].ID, items[1].ID)
	}
	if items[1].Summary != "Fully & homomorphic encryption ships." {
		t.Fatalf("Summary = %q, want stripped text", items[1].Summary)
	}
	if items[0].Category != news.CategoryBlog {
		t.Fatalf("Category = %s, want %s", items[0].Category, news.CategoryBlog)
	}
	if items[0].Published.IsZero() {
		t.Fatal("Published not parsed from pubDate")
	}
}

func TestBlogFeedCapsEntries(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		feed := `<?xml version="1.0"?><rss version="2.0"><channel><title>b</title>`
		for i := 0; i < 8; i++ {
			feed += `<item><guid>p` + strconv.Itoa(i) + `</guid><title>t</title><link>https://x/p</link></item>`
		}
		feed += `</channel></rss>`
		_, _ = w.Write([]byte(feed))
	}))
	defer srv.Close()

	b := NewBlog(BlogConfig{FeedURL: srv.URL}, logx.Nop())
	items, err := b.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(items) != blogMaxPosts {
		t.Fatalf("len(items) = %d, want %d", len(items), blogMaxPosts)
	}
	// The five newest survive the cap, oldest of them first.
	if items[0].ID != "p4" || items[4].ID != "p0" {
		t.Fatalf("order = [%s .. %s], want [p4 .. p0]", items[0].ID, items[4].ID)
	}
}

func TestBlogFallsBackToPageScrape(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/blog", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
			<div class="blog-post"><h2>Newest Post</h2><a href="/post/newest">read</a></div>
			<div class="blog-post"><h2>Older Post</h2><a href="https://example.org/older">read</a></div>
			<div class="sidebar"><a href="/ignored">nav</a></div>
		</body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	b := NewBlog(BlogConfig{FeedURL: srv.URL + "/feed", PageURL: srv.URL + "/blog"}, logx.Nop())
	items, err := b.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	// Scraped page order is newest first too.
	if items[0].Title != "Older Post" || items[1].Title != "Newest Post" {
		t.Fatalf("order = [%s %s], want oldest first", items[0].Title, items[1].Title)
	}
	if items[1].URL != "https://www.zama.ai/post/newest" {
		t.Fatalf("URL = %q, want relative link prefixed", items[1].URL)
	}
	if items[0].URL != "https://example.org/older" {
		t.Fatalf("URL = %q, want absolute link untouched", items[0].URL)
	}
	if !items[0].Published.IsZero() {
		t.Fatal("scraped items carry no date")
	}
}

func TestBlogUnavailableWhenBothPathsFail(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	b := NewBlog(BlogConfig{FeedURL: srv.URL + "/feed", PageURL: srv.URL + "/blog"}, logx.Nop())
	_, err := b.Fetch(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}
