// Package htmlsanitize strips markup from free text that is echoed back to
// client-rendered pages (member notes, feed posts).
package htmlsanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	once   sync.Once
	strict *bluemonday.Policy
)

func policy() *bluemonday.Policy {
	once.Do(func() {
		strict = bluemonday.StrictPolicy()
	})
	return strict
}

// PlainText removes every tag and attribute from s and returns the remaining
// text unescaped, trimmed of surrounding whitespace.
func PlainText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(policy().Sanitize(s)))
}
