// Package sanitize wraps HTML sanitization of posted message content
// behind a small interface so the engine never depends on a concrete
// policy.
package sanitize

import "github.com/microcosm-cc/bluemonday"

// Sanitizer reduces untrusted HTML to safe output. Disallowed markup is
// stripped, not escaped.
type Sanitizer interface {
	Sanitize(html string) string
}

// allowedTags is the fixed allow-list for message content: basic emphasis
// and list structure, nothing else. No attributes are allowed on any tag.
var allowedTags = []string{"ul", "ol", "b", "i", "em", "strike", "pre", "strong", "li"}

// HTML returns the message-content Sanitizer backed by bluemonday.
func HTML() Sanitizer {
	p := bluemonday.NewPolicy()
	p.AllowElements(allowedTags...)
	return policy{p}
}

type policy struct{ p *bluemonday.Policy }

func (s policy) Sanitize(html string) string { return s.p.Sanitize(html) }
