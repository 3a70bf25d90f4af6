package validate

import (
	"strings"
	"testing"
)

func TestKeyword(t *testing.T) {
	cases := []struct {
		in      string
		wantErr bool
	}{
		{"seo tools", false},
		{"SEO工具", false},
		{"a", false},
		{"", true},
		{"   ", true},
		{strings.Repeat("k", 51), true},
		{strings.Repeat("字", 50), false},
		{"drop'table", true},
		{"<script>", true},
		{`say "hi"`, true},
		{"back`tick", true},
		{`c:\path`, true},
	}
	for _, c := range cases {
		err := Keyword(c.in)
		if c.wantErr && err == nil {
			t.Fatalf("Keyword(%q): expected error", c.in)
		}
		if !c.wantErr && err != nil {
			t.Fatalf("Keyword(%q): unexpected error %v", c.in, err)
		}
	}
}

func TestCleanKeyword(t *testing.T) {
	cases := []struct{ in, want string }{
		{"  seo tools  ", "seo tools"},
		{"seo\t\n  tools", "seo tools"},
		{"se<o> 'tools'", "seo tools"},
		{"already clean", "already clean"},
	}
	for _, c := range cases {
		if got := CleanKeyword(c.in); got != c.want {
			t.Fatalf("CleanKeyword(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCleanKeyword_Idempotent(t *testing.T) {
	for _, in := range []string{"  a   b ", "x'y\"z", "SEO工具", "plain"} {
		once := CleanKeyword(in)
		if twice := CleanKeyword(once); twice != once {
			t.Fatalf("not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}

func TestEmail(t *testing.T) {
	if err := Email("alice@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, bad := range []string{"", "nope", "a@b", "two@@example.com"} {
		if err := Email(bad); err == nil {
			t.Fatalf("Email(%q): expected error", bad)
		}
	}
}
