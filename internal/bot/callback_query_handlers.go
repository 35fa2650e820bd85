package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	chatID := callbackChatID(callback)
	if chatID == 0 {
		return b.errorCallbackAnswer(callback, errors.New("callback message is missing"))
	}

	return b.withSpinner(ctx, chatID, func() error {
		data := strings.TrimSpace(callback.Data)

		switch data {
		case "menu":
			return b.withEmptyCallbackAnswer(callback, func() error {
				return b.handleMenuCommand(ctx, chatID)
			})
		case "menu_list":
			return b.withEmptyCallbackAnswer(callback, func() error {
				return b.handleListCommand(ctx, chatID)
			})
		case "menu_new":
			return b.withEmptyCallbackAnswer(callback, func() error {
				return b.sendMessageWithKeyboard(ctx, chatID, composeUsageText, b.returnKeyboard)
			})
		case "menu_authors":
			return b.withEmptyCallbackAnswer(callback, func() error {
				return b.handleAuthorsCommand(ctx, chatID)
			})
		}

		if id, ok := strings.CutPrefix(data, postCallbackPrefix); ok {
			return b.withEmptyCallbackAnswer(callback, func() error {
				return b.handlePostCommand(ctx, chatID, id)
			})
		}

		if id, ok := strings.CutPrefix(data, deleteCallbackPrefix); ok {
			return b.handleDeleteQuery(ctx, chatID, id, callback)
		}

		return nil
	})
}

func (b *Bot) handleDeleteQuery(
	ctx context.Context,
	chatID int64,
	id string,
	callback *tgbotapi.CallbackQuery,
) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return b.errorCallbackAnswer(callback, errors.New("post ID is empty"))
	}

	b.services.Deleter.Delete(ctx, id)

	if _, err := b.messenger.Request(tgbotapi.NewCallback(callback.ID, "🗑 Post is deleted.")); err != nil {
		return fmt.Errorf("send request: %w", err)
	}

	return b.handleListCommand(ctx, chatID)
}

func (b *Bot) withEmptyCallbackAnswer(
	callback *tgbotapi.CallbackQuery,
	fn func() error,
) error {
	var errs []error

	if _, err := b.messenger.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		errs = append(errs, b.errorCallbackAnswer(callback, fmt.Errorf("send request: %w", err)))
	}

	err := fn()
	if err != nil {
		errs = append(errs, fmt.Errorf("call fn: %w", err))
	}

	return errors.Join(errs...)
}

func (b *Bot) errorCallbackAnswer(
	callback *tgbotapi.CallbackQuery,
	err error,
) error {
	if _, sendErr := b.messenger.Request(tgbotapi.NewCallback(callback.ID, "❌ Failed.")); sendErr != nil {
		return errors.Join(err, fmt.Errorf("send request: %w", sendErr))
	}
	return err
}
