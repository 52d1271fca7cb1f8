package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GoJackzi/zama-news-bot/internal/news"
	"github.com/GoJackzi/zama-news-bot/pkg/logx"
)

type fakePageHashes struct {
	hash string
	err  error
}

func (f fakePageHashes) PageHash(ctx context.Context, page string) (string, error) {
	return f.hash, f.err
}

const litepaperHTML = `<html><body>
<main>
<h1>Zama Protocol</h1>
<p>Confidential smart contracts.</p>
</main>
</body></html>`

// The collapsed main text of litepaperHTML.
const litepaperText = "Zama Protocol Confidential smart contracts."

func litepaperServer(t *testing.T, html string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(html))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLitepaperFirstSight(t *testing.T) {
	t.Parallel()
	srv := litepaperServer(t, litepaperHTML)

	l := NewLitepaper(LitepaperConfig{URL: srv.URL}, fakePageHashes{}, logx.Nop())
	items, err := l.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}

	wantID := "litepaper:" + news.HashText(litepaperText)
	if items[0].ID != wantID {
		t.Fatalf("ID = %q, want %q", items[0].ID, wantID)
	}
	if items[0].Title != "Zama Protocol" {
		t.Fatalf("Title = %q, want h1 text", items[0].Title)
	}
	if items[0].Summary != litepaperText {
		t.Fatalf("Summary = %q", items[0].Summary)
	}
}

func TestLitepaperUnchanged(t *testing.T) {
	t.Parallel()
	srv := litepaperServer(t, litepaperHTML)

	l := NewLitepaper(LitepaperConfig{URL: srv.URL},
		fakePageHashes{hash: news.HashText(litepaperText)}, logx.Nop())
	items, err := l.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("len(items) = %d, want 0 for unchanged page", len(items))
	}
}

func TestLitepaperChanged(t *testing.T) {
	t.Parallel()
	srv := litepaperServer(t, litepaperHTML)

	l := NewLitepaper(LitepaperConfig{URL: srv.URL},
		fakePageHashes{hash: news.HashText("previous revision")}, logx.Nop())
	items, err := l.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1 for changed page", len(items))
	}
}

func TestLitepaperHashLookupFailureFailsOpen(t *testing.T) {
	t.Parallel()
	srv := litepaperServer(t, litepaperHTML)

	l := NewLitepaper(LitepaperConfig{URL: srv.URL},
		fakePageHashes{err: errors.New("db locked")}, logx.Nop())
	items, err := l.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(items) != 1 {
		t.Fatal("lookup failure should offer the item, not hide it")
	}
}

func TestLitepaperTitleFallback(t *testing.T) {
	t.Parallel()
	srv := litepaperServer(t, `<html><body><main><p>No heading on this page.</p></main></body></html>`)

	l := NewLitepaper(LitepaperConfig{URL: srv.URL}, fakePageHashes{}, logx.Nop())
	items, err := l.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if items[0].Title != litepaperTitle {
		t.Fatalf("Title = %q, want %q", items[0].Title, litepaperTitle)
	}
}

func TestLitepaperUnavailable(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	l := NewLitepaper(LitepaperConfig{URL: srv.URL}, fakePageHashes{}, logx.Nop())
	_, err := l.Fetch(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestLitepaperHash(t *testing.T) {
	t.Parallel()
	h, ok := LitepaperHash(news.Item{Category: news.CategoryLitepaper, ID: "litepaper:abc123"})
	if !ok || h != "abc123" {
		t.Fatalf("LitepaperHash = (%q, %v), want (abc123, true)", h, ok)
	}
	if _, ok := LitepaperHash(news.Item{Category: news.CategoryBlog, ID: "litepaper:abc123"}); ok {
		t.Fatal("non-litepaper items must not yield a hash")
	}
}
