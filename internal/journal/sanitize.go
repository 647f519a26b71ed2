package journal

import (
	"regexp"
	"strings"
)

var (
	boldRe    = regexp.MustCompile(`\*\*`)
	italicRe  = regexp.MustCompile(`\*`)
	headingRe = regexp.MustCompile(`#+\s*`)
)

// StripMarkdown removes the markdown the model sneaks in despite being
// told not to use any. Diary text is rendered as plain prose.
func StripMarkdown(s string) string {
	s = boldRe.ReplaceAllString(s, "")
	s = italicRe.ReplaceAllString(s, "")
	s = headingRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
