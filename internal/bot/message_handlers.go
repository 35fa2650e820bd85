package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	if message.Chat == nil {
		return nil
	}

	chatID := message.Chat.ID

	return b.withSpinner(ctx, chatID, func() error {
		text := strings.TrimSpace(message.Text)
		command, args := splitCommand(text)

		switch command {
		case "/start":
			return b.handleStartCommand(ctx, chatID)
		case "/menu":
			return b.handleMenuCommand(ctx, chatID)
		case "/list":
			return b.handleListCommand(ctx, chatID)
		case "/post":
			return b.handlePostCommand(ctx, chatID, args)
		case "/new":
			return b.handleNewCommand(ctx, chatID, text)
		case "/delete":
			return b.handleDeleteCommand(ctx, chatID, args)
		case "/authors":
			return b.handleAuthorsCommand(ctx, chatID)
		case "/sync":
			return b.handleSyncCommand(ctx, chatID)
		case "/import":
			return b.handleImportCommand(ctx, chatID, args)
		default:
			return b.sendMessageWithKeyboard(ctx, chatID, "❔ Unknown command\\.", b.menuKeyboard)
		}
	})
}

// splitCommand returns the command without a @botname suffix and the rest
// of the first line.
func splitCommand(text string) (string, string) {
	firstLine, _, _ := strings.Cut(text, "\n")

	command, args, _ := strings.Cut(strings.TrimSpace(firstLine), " ")
	command, _, _ = strings.Cut(command, "@")

	return strings.ToLower(command), strings.TrimSpace(args)
}
