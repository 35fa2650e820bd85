package bot

import (
	"context"
	"offblog/internal/domain"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	postCallbackPrefix   = "post_"
	deleteCallbackPrefix = "delete_"

	// Telegram rejects callback data over 64 bytes.
	maxCallbackDataBytes = 64
	maxListButtons       = 20
	maxButtonTitleChars  = 40
)

func (b *Bot) sendMessageWithKeyboard(
	ctx context.Context,
	chatID int64,
	text string,
	keyboard [][]tgbotapi.InlineKeyboardButton,
) error {
	normalizedText := strings.ToValidUTF8(text, "?")
	if normalizedText != text {
		b.log.WarnContext(ctx, "Message text had invalid UTF-8 and was normalized",
			"chatID", chatID,
			"originalLen", len(text),
			"normalizedLen", len(normalizedText))
	}

	message := tgbotapi.NewMessage(chatID, normalizedText)

	// See https://core.telegram.org/bots/api#markdownv2-style.
	message.ParseMode = tgbotapi.ModeMarkdownV2

	message.DisableWebPagePreview = true
	if len(keyboard) > 0 {
		message.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	}

	_, err := b.messenger.Send(ctx, message)
	return err
}

func getReturnKeyboard() [][]tgbotapi.InlineKeyboardButton {
	return [][]tgbotapi.InlineKeyboardButton{
		{tgbotapi.NewInlineKeyboardButtonData("⬅️ Return to menu", "menu")},
	}
}

func getMenuKeyboard() [][]tgbotapi.InlineKeyboardButton {
	return [][]tgbotapi.InlineKeyboardButton{
		{
			tgbotapi.NewInlineKeyboardButtonData("📄 Posts", "menu_list"),
			tgbotapi.NewInlineKeyboardButtonData("✍️ New post", "menu_new"),
		},
		{
			tgbotapi.NewInlineKeyboardButtonData("👥 Authors", "menu_authors"),
		},
	}
}

// getListKeyboard has one button per post that opens its detail view.
func getListKeyboard(posts []domain.Post) [][]tgbotapi.InlineKeyboardButton {
	var keyboard [][]tgbotapi.InlineKeyboardButton

	for _, post := range posts {
		if len(keyboard) == maxListButtons {
			break
		}

		data := postCallbackPrefix + post.ID
		if len(data) > maxCallbackDataBytes {
			continue
		}

		label := buttonTitle(post.Title)
		if post.IsLocal() {
			label = "📴 " + label
		}

		keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(label, data),
		})
	}

	return append(keyboard, getReturnKeyboard()...)
}

func getPostKeyboard(post domain.Post) [][]tgbotapi.InlineKeyboardButton {
	var keyboard [][]tgbotapi.InlineKeyboardButton

	if data := deleteCallbackPrefix + post.ID; len(data) <= maxCallbackDataBytes {
		keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("🗑 Delete", data),
		})
	}

	return append(keyboard, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("📄 Posts", "menu_list"),
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Menu", "menu"),
	})
}

func buttonTitle(title string) string {
	title = strings.Join(strings.Fields(title), " ")
	if title == "" {
		return "Untitled"
	}

	if utf8.RuneCountInString(title) <= maxButtonTitleChars {
		return title
	}

	return string([]rune(title)[:maxButtonTitleChars-1]) + "…"
}
