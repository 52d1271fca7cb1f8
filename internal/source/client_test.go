package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetchWrapsFailuresAsUnavailable(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := newHTTPClient(time.Second)
	tests := []struct {
		name string
		url  string
	}{
		{name: "non-200 status", url: srv.URL},
		{name: "connection refused", url: "http://127.0.0.1:1"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := fetch(context.Background(), client, tt.url, nil)
			if !errors.Is(err, ErrUnavailable) {
				t.Fatalf("err = %v, want ErrUnavailable", err)
			}
		})
	}
}

func TestFetchSendsHeaders(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != browserUA {
			t.Errorf("User-Agent = %q, want %q", got, browserUA)
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	body, err := fetch(context.Background(), newHTTPClient(0), srv.URL,
		map[string]string{"User-Agent": browserUA})
	if err != nil {
		t.Fatalf("fetch error: %v", err)
	}
	if string(body) != "ok" {
		t.Fatalf("body = %q, want ok", body)
	}
}

func TestFetchHonorsContext(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := fetch(ctx, newHTTPClient(10*time.Second), srv.URL, nil)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestStripHTML(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "tags removed", in: "<p>Hello <b>world</b></p>", want: "Hello world"},
		{name: "entities decoded", in: "a &amp; b", want: "a & b"},
		{name: "whitespace collapsed", in: "<div>\n  a\n\n  b\t</div>", want: "a b"},
		{name: "plain text", in: "  already plain  ", want: "already plain"},
		{name: "empty", in: "", want: ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := stripHTML(tt.in); got != tt.want {
				t.Fatalf("stripHTML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCapRunes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 3, "hel"},
		{"héllo", 2, "hé"},
		{"hello", 0, ""},
		{"", 5, ""},
	}
	for _, tt := range tests {
		if got := capRunes(tt.in, tt.n); got != tt.want {
			t.Fatalf("capRunes(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestEllipsize(t *testing.T) {
	t.Parallel()
	if got := ellipsize("short", 10); got != "short" {
		t.Fatalf("ellipsize(short) = %q", got)
	}
	if got := ellipsize(strings.Repeat("a", 12), 10); got != strings.Repeat("a", 10)+"…" {
		t.Fatalf("ellipsize(long) = %q", got)
	}
}
