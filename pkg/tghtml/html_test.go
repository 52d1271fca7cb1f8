package tghtml

import "testing"

func TestEsc(t *testing.T) {
	t.Parallel()

	got := Esc(`<b> & "quoted" </b>`)
	want := H("&lt;b&gt; &amp; &#34;quoted&#34; &lt;/b&gt;")
	if got != want {
		t.Fatalf("Esc = %q, want %q", got, want)
	}
}

func TestTagBuilders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		got  H
		want H
	}{
		{"bold", B("a <i> b"), "<b>a &lt;i&gt; b</b>"},
		{"italic", I("x & y"), "<i>x &amp; y</i>"},
		{"code", Code(`fmt.Println("hi")`), "<code>fmt.Println(&#34;hi&#34;)</code>"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.got != tt.want {
				t.Fatalf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestLinkEscapesTextAndAttribute(t *testing.T) {
	t.Parallel()

	got := Link(`Read "more" <now>`, `https://example.com/?a=1&b="x"`)
	want := H(`<a href="https://example.com/?a=1&amp;b=&#34;x&#34;">Read &#34;more&#34; &lt;now&gt;</a>`)
	if got != want {
		t.Fatalf("Link = %q, want %q", got, want)
	}
}

func TestJoinHSkipsBlankParts(t *testing.T) {
	t.Parallel()

	got := JoinH("\n\n", B("head"), "", Raw("  "), Esc("body"))
	want := H("<b>head</b>\n\nbody")
	if got != want {
		t.Fatalf("JoinH = %q, want %q", got, want)
	}

	if JoinH(", ") != "" {
		t.Fatal("JoinH with no parts should be empty")
	}
}

func TestTruncRunes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		s    string
		n    int
		want string
	}{
		{"shorter than limit", "héllo", 10, "héllo"},
		{"exactly at limit", "héllo", 5, "héllo"},
		{"cut ascii", "abcdef", 3, "abc…"},
		{"cut multibyte", "日本語テスト", 3, "日本語…"},
		{"cut after multibyte", "héllo", 4, "héll…"},
		{"zero limit", "abc", 0, ""},
		{"empty input", "", 5, ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncRunes(tt.s, tt.n); got != tt.want {
				t.Fatalf("TruncRunes(%q, %d) = %q, want %q", tt.s, tt.n, got, tt.want)
			}
		})
	}
}
