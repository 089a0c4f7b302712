// Package htmlsanitize cleans user-supplied text before it is stored or
// rendered.
package htmlsanitize

import (
	"html"
	"html/template"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	notesOnce   sync.Once
	notesPolicy *bluemonday.Policy

	strict = bluemonday.StrictPolicy()
)

// policy allows the small set of formatting an applicant or reviewer might
// paste into a notes field.
func policy() *bluemonday.Policy {
	notesOnce.Do(func() {
		p := bluemonday.NewPolicy()
		p.AllowElements("p", "br", "strong", "b", "em", "i", "u", "ul", "ol", "li", "blockquote", "pre", "code")
		p.AllowStandardURLs()
		p.AllowAttrs("href").OnElements("a")
		p.RequireNoFollowOnLinks(true)
		notesPolicy = p
	})
	return notesPolicy
}

// Sanitize strips everything outside the notes policy.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return policy().Sanitize(s)
}

// SanitizeToHTML is Sanitize typed for templates.
func SanitizeToHTML(s string) template.HTML {
	return template.HTML(Sanitize(s))
}

// StripTags removes all markup and returns unescaped plain text, trimmed.
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// IsPlainText reports whether s contains no markup.
func IsPlainText(s string) bool {
	return !strings.ContainsAny(s, "<>")
}
