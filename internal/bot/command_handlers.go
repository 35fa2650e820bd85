package bot

import (
	"context"
	"errors"
	"fmt"
	"offblog/internal/importer"
	"offblog/internal/markdown"
	"offblog/internal/reconcile"
	"offblog/internal/remote"
	"strings"
	"time"
)

const navigateTimeout = 30 * time.Second

const welcomeText = `🤖 *Welcome to Offblog\!*

I'm your blog assistant\. I can help you:

– Read the blog with /list and open a post with /post \<id\>
– Write a post with /new, even when the blog server is down
– Delete a post with /delete \<id\>
– See who can post with /authors
– Publish posts saved on this device with /sync
– Import posts from an RSS / Atom / JSON feed with /import \<url\>`

func (b *Bot) handleStartCommand(ctx context.Context, chatID int64) error {
	return b.sendMessageWithKeyboard(ctx, chatID, welcomeText, b.menuKeyboard)
}

func (b *Bot) handleMenuCommand(ctx context.Context, chatID int64) error {
	return b.sendMessageWithKeyboard(ctx, chatID, "❔ *Choose an option:*", b.menuKeyboard)
}

func (b *Bot) handleListCommand(ctx context.Context, chatID int64) error {
	view := b.services.Loader.List(ctx)

	if view.State != reconcile.StateReady {
		text := emptyListText
		if view.RemoteFailed {
			text = remoteFailedNotice + text
		}

		return b.sendMessageWithKeyboard(ctx, chatID, text, b.returnKeyboard)
	}

	messages := formatListMessages(view)

	var errs []error
	for i, message := range messages {
		keyboard := b.returnKeyboard
		if i == len(messages)-1 {
			keyboard = getListKeyboard(view.Posts)
		}

		if err := b.sendMessageWithKeyboard(ctx, chatID, message, keyboard); err != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (b *Bot) handlePostCommand(ctx context.Context, chatID int64, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return b.sendMessageWithKeyboard(ctx, chatID, "✖️ Usage: /post \\<id\\>\\.", b.returnKeyboard)
	}

	view := b.services.Loader.Get(ctx, id)
	if view.State != reconcile.StateReady {
		return b.sendMessageWithKeyboard(ctx, chatID, notFoundText, b.returnKeyboard)
	}

	var summary string
	var aiSummary bool
	if b.services.Summarizer != nil {
		summary, aiSummary = b.services.Summarizer.Summary(ctx, view.Post)
	}

	return b.sendMessageWithKeyboard(
		ctx,
		chatID,
		formatPostMessage(view, summary, aiSummary),
		getPostKeyboard(view.Post),
	)
}

func (b *Bot) handleNewCommand(ctx context.Context, chatID int64, text string) error {
	input, ok := parseCompose(text, b.opts.DefaultAuthorID)
	if !ok {
		return b.sendMessageWithKeyboard(ctx, chatID, composeUsageText, b.returnKeyboard)
	}

	if _, known := b.services.Authors.Get(input.AuthorID); !known {
		return b.sendMessageWithKeyboard(
			ctx,
			chatID,
			fmt.Sprintf("✖️ Author %s is unknown, see /authors\\.", markdown.Code(input.AuthorID)),
			b.returnKeyboard,
		)
	}

	res, err := b.services.Creator.Create(ctx, input)
	if err != nil {
		errs := []error{fmt.Errorf("create post: %w", err)}

		sendErr := b.sendMessageWithKeyboard(ctx, chatID, failureText(err), b.returnKeyboard)
		if sendErr != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	text = "✅ Post is published\\."
	if res.Offline {
		text = offlineBadge + " Blog server is unreachable\\. " +
			"The post is saved on this device and will be published by /sync\\."
	}

	if err = b.sendMessageWithKeyboard(ctx, chatID, text, nil); err != nil {
		return fmt.Errorf("send message with keyboard: %w", err)
	}

	return b.navigateToPost(ctx, chatID, res.Post.ID)
}

// navigateToPost opens the post detail view after the configured delay.
// With a delay the view is sent in the background so the update handler
// can return.
func (b *Bot) navigateToPost(ctx context.Context, chatID int64, id string) error {
	if b.opts.NavigateDelay <= 0 {
		return b.handlePostCommand(ctx, chatID, id)
	}

	navigateCtx, cancel := context.WithTimeout(
		context.WithoutCancel(ctx),
		b.opts.NavigateDelay+navigateTimeout,
	)

	b.navigations.Go(func() {
		defer cancel()

		t := time.NewTimer(b.opts.NavigateDelay)
		defer t.Stop()

		select {
		case <-t.C:
		case <-navigateCtx.Done():
			return
		}

		if err := b.handlePostCommand(navigateCtx, chatID, id); err != nil {
			b.log.ErrorContext(navigateCtx, "Failed to open created post",
				"error", err,
				"chatID", chatID,
				"postID", id)
		}
	})

	return nil
}

func (b *Bot) handleDeleteCommand(ctx context.Context, chatID int64, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return b.sendMessageWithKeyboard(ctx, chatID, "✖️ Usage: /delete \\<id\\>\\.", b.returnKeyboard)
	}

	b.services.Deleter.Delete(ctx, id)

	if err := b.sendMessageWithKeyboard(
		ctx,
		chatID,
		fmt.Sprintf("🗑 Post %s is deleted\\.", markdown.Code(id)),
		nil,
	); err != nil {
		return fmt.Errorf("send message with keyboard: %w", err)
	}

	return b.handleListCommand(ctx, chatID)
}

func (b *Bot) handleAuthorsCommand(ctx context.Context, chatID int64) error {
	return b.sendMessageWithKeyboard(
		ctx,
		chatID,
		formatAuthors(b.services.Authors.List(), b.opts.DefaultAuthorID),
		b.returnKeyboard,
	)
}

func (b *Bot) handleSyncCommand(ctx context.Context, chatID int64) error {
	report := b.services.Syncer.Sync(ctx)

	var text string
	switch {
	case report.Pending == 0:
		text = "✅ Nothing to sync, every post is published\\."
	case report.Offline:
		text = fmt.Sprintf(
			"%s Blog server is unreachable\\. %d of %d saved posts are published\\.",
			offlineBadge, report.Synced, report.Pending)
	case report.Failed > 0:
		text = fmt.Sprintf(
			"⚠️ Partial success \\(%d of %d published, %d rejected\\)\\.",
			report.Synced, report.Pending, report.Failed)
	default:
		text = fmt.Sprintf("✅ %d saved posts are published\\.", report.Synced)
	}

	return b.sendMessageWithKeyboard(ctx, chatID, text, b.returnKeyboard)
}

func (b *Bot) handleImportCommand(ctx context.Context, chatID int64, text string) error {
	feedURL, err := importer.FindURL(text)
	if err != nil {
		return b.sendMessageWithKeyboard(ctx, chatID, "✖️ Usage: /import \\<feed url\\>\\.", b.returnKeyboard)
	}

	report, err := b.services.Importer.Import(ctx, feedURL, b.opts.DefaultAuthorID)

	var errs []error
	if err != nil {
		errs = append(errs, fmt.Errorf("import feed: %w", err))
	}

	var message string
	switch {
	case report.FeedTitle == "":
		message = "❌ Failed to read the feed\\."
	case report.Created+report.Offline == 0 && report.Failed == 0:
		message = fmt.Sprintf("✖️ %s has no posts to import\\.", markdown.Link(report.FeedTitle, feedURL))
	default:
		message = fmt.Sprintf(
			"📥 Imported from %s: %d published, %d saved on this device, %d failed\\.",
			markdown.Link(report.FeedTitle, feedURL),
			report.Created,
			report.Offline,
			report.Failed,
		)
	}

	if sendErr := b.sendMessageWithKeyboard(ctx, chatID, message, b.returnKeyboard); sendErr != nil {
		errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
	}

	return errors.Join(errs...)
}

// failureText shows the failure message to the user as is.
func failureText(err error) string {
	return "❌ " + markdown.EscapeV2(remote.Message(err))
}
