package summarizer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"offblog/internal/cache"
	"offblog/internal/domain"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	tldrCacheMaxEntries = 512
	tldrCacheTTL        = 24 * time.Hour
	excerptMaxChars     = 200
)

// TLDR produces short summaries of post bodies. Without a Summarizer, or
// when it fails, a plain-text excerpt is returned instead.
type TLDR struct {
	summarizer Summarizer
	cache      *cache.LRU[string]
	now        func() time.Time
	log        *slog.Logger
}

// NewTLDR builds a TLDR. summarizer may be nil.
func NewTLDR(summarizer Summarizer, log *slog.Logger) *TLDR {
	return &TLDR{
		summarizer: summarizer,
		cache:      cache.NewLRU[string](tldrCacheMaxEntries),
		now:        time.Now,
		log:        log,
	}
}

// Summary returns the TL;DR for post and whether it came from the model.
func (t *TLDR) Summary(ctx context.Context, post domain.Post) (string, bool) {
	text := PlainText(post.Body)
	if text == "" {
		return "", false
	}

	if t.summarizer == nil {
		return Excerpt(text, excerptMaxChars), false
	}

	now := t.now()
	key := cacheKey(post.ID, text)

	if summary, ok := t.cache.Get(key, now); ok {
		return summary, true
	}

	summary, err := t.summarizer.Summarize(ctx, Input{
		Title: post.Title,
		Text:  text,
	})
	if err != nil {
		t.log.ErrorContext(ctx, "Failed to summarize post",
			"error", err,
			"postID", post.ID,
			"fallback", true,
			"textLen", len(text))

		return Excerpt(text, excerptMaxChars), false
	}

	summary = strings.TrimSpace(summary)
	if summary == "" {
		return Excerpt(text, excerptMaxChars), false
	}

	t.cache.Set(key, summary, now.Add(tldrCacheTTL), now)

	return summary, true
}

// PlainText strips markup from body and collapses whitespace. Bodies without
// markup come back unchanged apart from whitespace.
func PlainText(body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return ""
	}

	if !strings.ContainsAny(body, "<&") {
		return strings.Join(strings.Fields(body), " ")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return strings.Join(strings.Fields(body), " ")
	}

	doc.Find("script, style").Remove()
	doc.Find("br").ReplaceWithHtml(" ")
	doc.Find("p, div, li, h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})

	return strings.Join(strings.Fields(doc.Text()), " ")
}

// Excerpt cuts text to at most maxChars runes on a word boundary.
func Excerpt(text string, maxChars int) string {
	normalized := strings.Join(strings.Fields(text), " ")

	runes := []rune(normalized)
	if len(runes) <= maxChars {
		return normalized
	}

	trimmed := string(runes[:maxChars])
	if i := strings.LastIndexByte(trimmed, ' '); i > maxChars/2 {
		trimmed = trimmed[:i]
	}

	trimmed = strings.TrimSpace(trimmed)
	if trimmed == "" {
		return normalized
	}

	return trimmed + "..."
}

func cacheKey(postID string, text string) string {
	hash := sha256.Sum256([]byte(text))

	return postID + "|" + hex.EncodeToString(hash[:])
}
