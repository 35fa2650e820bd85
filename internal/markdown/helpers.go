package markdown

import "strings"

// Taken from https://core.telegram.org/bots/api#markdownv2-style.
const (
	mdV2SpecialChars = `._[](){}#|!+-=*~>` + "`" + `\`
	mdV2URLChars     = `)\`
	mdV2CodeChars    = "`" + `\`
)

//nolint:gochecknoglobals // Lookup tables meant to be immutable.
var (
	textLookup = lookup(mdV2SpecialChars)
	urlLookup  = lookup(mdV2URLChars)
	codeLookup = lookup(mdV2CodeChars)
)

// EscapeV2 escapes plain text for MarkdownV2 messages.
func EscapeV2(input string) string {
	return escape(input, &textLookup)
}

// EscapeURL escapes the URL part of an inline link.
func EscapeURL(input string) string {
	return escape(input, &urlLookup)
}

// Code wraps input in an inline code span.
func Code(input string) string {
	return "`" + escape(input, &codeLookup) + "`"
}

// Link renders an inline link, falling back to plain text without a URL.
func Link(title string, url string) string {
	if strings.TrimSpace(url) == "" {
		return EscapeV2(title)
	}
	return "[" + EscapeV2(title) + "](" + EscapeURL(url) + ")"
}

func escape(input string, lookup *[256]bool) string {
	charsToEscape := 0

	for i := range len(input) {
		if lookup[input[i]] {
			charsToEscape++
		}
	}
	if charsToEscape == 0 {
		return input
	}

	var b strings.Builder
	b.Grow(len(input) + charsToEscape)

	for i := range len(input) {
		c := input[i]
		if lookup[c] {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}

	return b.String()
}

func lookup(chars string) [256]bool {
	var m [256]bool
	for i := range len(chars) {
		m[chars[i]] = true
	}
	return m
}
