package tts

import (
	"regexp"
	"strings"
)

var (
	headingRe   = regexp.MustCompile(`#+\s+`)
	emphasisRe  = regexp.MustCompile(`[*_]+`)
	codeBlockRe = regexp.MustCompile("```[\\s\\S]*?```")
	inlineRe    = regexp.MustCompile("`[^`]*`")
	quoteRe     = regexp.MustCompile(`(?m)^\s*>\s*`)
	linkRe      = regexp.MustCompile(`\[([^\]]+)\]\([^\)]+\)`)
	htmlTagRe   = regexp.MustCompile(`<[^>]*>`)
	spaceRe     = regexp.MustCompile(`\s+`)
)

// FilterText strips markdown and other non-speech symbols from text
// before it is handed to the synthesis service
func FilterText(text string) string {
	text = codeBlockRe.ReplaceAllString(text, "")
	text = inlineRe.ReplaceAllString(text, "")
	text = headingRe.ReplaceAllString(text, "")
	text = emphasisRe.ReplaceAllString(text, "")
	text = quoteRe.ReplaceAllString(text, "")
	text = linkRe.ReplaceAllString(text, "$1")
	text = htmlTagRe.ReplaceAllString(text, "")
	text = spaceRe.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}
