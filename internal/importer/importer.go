// Package importer turns items of RSS, Atom and JSON feeds into blog posts.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"offblog/internal/domain"
	"offblog/internal/summarizer"
	"offblog/internal/writer"
	"slices"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"mvdan.cc/xurls/v2"
)

const (
	maxImportedItems = 10
	maxTitleChars    = 200
	maxTagChars      = 64
)

// Creator is the write path imported posts go through.
type Creator interface {
	Create(ctx context.Context, input domain.NewPost) (writer.Result, error)
}

type Report struct {
	FeedTitle string
	Created   int
	// Offline counts posts that were kept only in the local cache.
	Offline int
	Failed  int
}

type Importer struct {
	parser  *gofeed.Parser
	creator Creator
	log     *slog.Logger
}

func New(creator Creator, log *slog.Logger) *Importer {
	return &Importer{
		parser:  gofeed.NewParser(),
		creator: creator,
		log:     log,
	}
}

// FindURL returns the first http(s) URL in text.
func FindURL(text string) (string, error) {
	re, err := xurls.StrictMatchingScheme("https?://")
	if err != nil {
		return "", fmt.Errorf("create regexp: %w", err)
	}

	found := re.FindString(text)
	if found == "" {
		return "", errors.New("URL is not found")
	}

	return found, nil
}

// Import fetches the feed at feedURL and creates a post for each of its most
// recent items, oldest first. Failures of single items are joined into the
// returned error; the report counts them too.
func (i *Importer) Import(ctx context.Context, feedURL string, authorID string) (Report, error) {
	feedURL = strings.TrimSpace(feedURL)

	parsed, err := i.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return Report{}, fmt.Errorf("parse feed by URL %q: %w", feedURL, err)
	}

	report := Report{FeedTitle: strings.TrimSpace(parsed.Title)}
	if report.FeedTitle == "" {
		report.FeedTitle = feedURL
	}

	var errs []error
	for _, item := range recentItems(parsed.Items, maxImportedItems) {
		input, ok := newPostFromItem(item, authorID)
		if !ok {
			i.log.WarnContext(ctx, "Skipping feed item without content",
				"feedURL", feedURL,
				"itemGUID", item.GUID)

			continue
		}

		res, err := i.creator.Create(ctx, input)
		if err != nil {
			report.Failed++
			errs = append(errs, fmt.Errorf("create post %q: %w", input.Title, err))

			continue
		}

		if res.Offline {
			report.Offline++
		} else {
			report.Created++
		}
	}

	i.log.InfoContext(ctx, "Feed is imported",
		"feedURL", feedURL,
		"created", report.Created,
		"offline", report.Offline,
		"failed", report.Failed)

	return report, errors.Join(errs...)
}

// recentItems keeps the newest limit items and orders them oldest first.
// Items without dates keep their feed order behind dated ones.
func recentItems(items []*gofeed.Item, limit int) []*gofeed.Item {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b *gofeed.Item) int {
		at, aok := itemTime(a)
		bt, bok := itemTime(b)

		switch {
		case aok && bok:
			return bt.Compare(at)
		case aok:
			return -1
		case bok:
			return 1
		default:
			return 0
		}
	})

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	slices.Reverse(sorted)

	return sorted
}

func itemTime(item *gofeed.Item) (time.Time, bool) {
	switch {
	case item.PublishedParsed != nil:
		return *item.PublishedParsed, true
	case item.UpdatedParsed != nil:
		return *item.UpdatedParsed, true
	default:
		return time.Time{}, false
	}
}

func newPostFromItem(item *gofeed.Item, authorID string) (domain.NewPost, bool) {
	link := strings.TrimSpace(item.Link)

	body := summarizer.PlainText(item.Content)
	if body == "" {
		body = summarizer.PlainText(item.Description)
	}
	if link != "" {
		if body == "" {
			body = link
		} else {
			body += "\n\n" + link
		}
	}

	title := strings.Join(strings.Fields(item.Title), " ")
	if title == "" {
		title = summarizer.Excerpt(body, maxTitleChars/4)
	}
	if runes := []rune(title); len(runes) > maxTitleChars {
		title = string(runes[:maxTitleChars])
	}

	if title == "" || body == "" {
		return domain.NewPost{}, false
	}

	var tags []string
	for _, category := range item.Categories {
		tag := strings.ToLower(strings.Join(strings.Fields(category), "-"))
		if tag == "" || len([]rune(tag)) > maxTagChars {
			continue
		}
		tags = append(tags, tag)
	}

	return domain.NewPost{
		Title:    title,
		Body:     body,
		Tags:     tags,
		AuthorID: authorID,
	}, true
}
