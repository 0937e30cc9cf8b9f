package sanitize

import (
	"strings"
	"testing"
)

func TestHTMLAllowsListedTags(t *testing.T) {
	s := HTML()
	cases := []struct{ in, want string }{
		{"<b>hi</b>", "<b>hi</b>"},
		{"<em>word</em>", "<em>word</em>"},
		{"<ul><li>a</li><li>b</li></ul>", "<ul><li>a</li><li>b</li></ul>"},
		{"plain text", "plain text"},
	}
	for _, c := range cases {
		if got := s.Sanitize(c.in); got != c.want {
			t.Errorf("Sanitize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestHTMLStripsDisallowedMarkup(t *testing.T) {
	s := HTML()

	if got := s.Sanitize(`<script>alert(1)</script><b>hi</b>`); got != "<b>hi</b>" {
		t.Errorf("script survived: %q", got)
	}
	if got := s.Sanitize(`<a href="https://example.com">link</a>`); strings.Contains(got, "<a") {
		t.Errorf("anchor survived: %q", got)
	}
	// Attributes are stripped even from allowed tags.
	if got := s.Sanitize(`<b onclick="x()">hi</b>`); got != "<b>hi</b>" {
		t.Errorf("attribute survived: %q", got)
	}
	// Disallowed tags are removed, not escaped.
	if got := s.Sanitize(`<div>inner</div>`); strings.Contains(got, "&lt;") || strings.Contains(got, "<div") {
		t.Errorf("div not stripped cleanly: %q", got)
	}
}
