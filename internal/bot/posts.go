package bot

import (
	"fmt"
	"offblog/internal/domain"
	"offblog/internal/markdown"
	"offblog/internal/reconcile"
	"strings"
	"unicode/utf8"
)

const (
	telegramMessageMaxLength = 4096
	maxDetailBodyChars       = 3000

	listHeader         = "📰 *Posts \\(%d\\)*\n\n"
	listContinueHeader = "📰 *Posts \\(continue\\)*\n\n"
	remoteFailedNotice = "⚠️ Blog server is unreachable, showing posts saved on this device\\.\n\n"
	emptyListText      = "✖️ There are no posts yet\\. Create one with /new\\."
	notFoundText       = "✖️ Post is not found\\."
	offlineBadge       = "📴"
	publishedLayout    = "2 Jan 2006 15:04 UTC"
)

// formatListMessages renders a ready listing, splitting it into messages
// that fit Telegram's length limit.
func formatListMessages(view reconcile.ListView) []string {
	var messages []string
	var currentMessage strings.Builder

	fmt.Fprintf(&currentMessage, listHeader, len(view.Posts))
	if view.RemoteFailed {
		currentMessage.WriteString(remoteFailedNotice)
	}

	headerLength := currentMessage.Len()

	for i, post := range view.Posts {
		entry := formatListEntry(i+1, post)

		if currentMessage.Len()+len(entry) > telegramMessageMaxLength {
			messages = append(messages, currentMessage.String())
			currentMessage.Reset()
			currentMessage.WriteString(listContinueHeader)
			headerLength = currentMessage.Len()
		}

		currentMessage.WriteString(entry)
	}

	if currentMessage.Len() > headerLength {
		messages = append(messages, currentMessage.String())
	}

	return messages
}

func formatListEntry(n int, post domain.Post) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%d\\. *%s*", n, markdown.EscapeV2(displayTitle(post.Title)))
	if post.IsLocal() {
		b.WriteString(" " + offlineBadge)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "   _%s · %s_\n",
		markdown.EscapeV2(authorName(post.Author)),
		markdown.EscapeV2(publishedDate(post)))

	if tags := formatTags(post.Tags); tags != "" {
		b.WriteString("   " + tags + "\n")
	}
	b.WriteString("\n")

	return b.String()
}

// formatPostMessage renders the detail view of a post. summary is shown as
// a TL;DR when not empty.
func formatPostMessage(view reconcile.PostView, summary string, aiSummary bool) string {
	post := view.Post

	var b strings.Builder

	fmt.Fprintf(&b, "*%s*\n", markdown.EscapeV2(displayTitle(post.Title)))
	fmt.Fprintf(&b, "_by %s · %s_\n",
		markdown.EscapeV2(authorName(post.Author)),
		markdown.EscapeV2(publishedDate(post)))

	if tags := formatTags(post.Tags); tags != "" {
		b.WriteString(tags + "\n")
	}
	b.WriteString("\n")

	switch {
	case post.IsLocal():
		b.WriteString(offlineBadge + " _Saved on this device only, it is not published yet\\._\n\n")
	case view.FromCache:
		b.WriteString("⚠️ _Blog server is unreachable, showing the saved copy\\._\n\n")
	}

	if summary != "" {
		label := "TL;DR"
		if aiSummary {
			label = "🤖 TL;DR"
		}
		fmt.Fprintf(&b, "*%s:* %s\n\n", markdown.EscapeV2(label), markdown.EscapeV2(summary))
	}

	footer := "\n\nID: " + markdown.Code(post.ID)
	budget := telegramMessageMaxLength -
		utf8.RuneCountInString(b.String()) -
		utf8.RuneCountInString(footer)

	b.WriteString(escapeTruncated(post.Body, maxDetailBodyChars, budget))
	b.WriteString(footer)

	return b.String()
}

func formatAuthors(authors []domain.Author, defaultID string) string {
	var b strings.Builder

	b.WriteString("👥 *Authors*\n\n")

	for _, author := range authors {
		fmt.Fprintf(&b, "%s %s",
			markdown.Code(author.ID),
			markdown.Link(authorName(author), author.AvatarURL))
		if author.ID == defaultID {
			b.WriteString(" \\(default\\)")
		}
		b.WriteString("\n")
	}

	b.WriteString("\nUse the ID after /new to post as another author\\.")

	return b.String()
}

func formatTags(tags []string) string {
	parts := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			parts = append(parts, markdown.EscapeV2("#"+tag))
		}
	}

	return strings.Join(parts, " ")
}

func displayTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "Untitled"
	}
	return title
}

func authorName(author domain.Author) string {
	switch {
	case strings.TrimSpace(author.Name) != "":
		return strings.TrimSpace(author.Name)
	case strings.TrimSpace(author.ID) != "":
		return strings.TrimSpace(author.ID)
	default:
		return "unknown author"
	}
}

func publishedDate(post domain.Post) string {
	t, ok := post.PublishedTime()
	if !ok {
		if raw := strings.TrimSpace(post.PublishedAt); raw != "" {
			return raw
		}
		return "unknown date"
	}

	return t.UTC().Format(publishedLayout)
}

// escapeTruncated escapes s for MarkdownV2, keeping at most maxChars of
// its runes and at most maxEscaped runes of escaped output, ellipsis included.
func escapeTruncated(s string, maxChars int, maxEscaped int) string {
	s = strings.TrimSpace(s)

	escaped := markdown.EscapeV2(s)
	if utf8.RuneCountInString(s) <= maxChars && utf8.RuneCountInString(escaped) <= maxEscaped {
		return escaped
	}

	const ellipsis = "…"

	limit := maxEscaped - utf8.RuneCountInString(ellipsis)
	if limit <= 0 {
		return ""
	}

	var (
		b     strings.Builder
		used  int
		chars int
	)

	for _, r := range s {
		piece := markdown.EscapeV2(string(r))
		size := utf8.RuneCountInString(piece)
		if chars == maxChars || used+size > limit {
			break
		}

		b.WriteString(piece)
		used += size
		chars++
	}

	return strings.TrimRight(b.String(), " \t\n") + ellipsis
}
