package ratelimiter

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fakeAPI struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, f.err
}

func (f *fakeAPI) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func TestGetDelay(t *testing.T) {
	tests := []struct {
		name     string
		chatID   int64
		elapsed  time.Duration
		wantZero bool
	}{
		{"Private chat - no delay needed", 123456789, 2 * time.Second, true},
		{"Private chat - delay needed", 123456789, 500 * time.Millisecond, false},
		{"Group chat - no delay needed", -123456789, 4 * time.Second, true},
		{"Group chat - delay needed", -123456789, time.Second, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := getDelay(test.chatID, test.elapsed)

			if test.wantZero && got > 0 {
				t.Errorf("Expected zero delay, got %v", got)
			}

			if !test.wantZero && got <= 0 {
				t.Errorf("Expected positive delay, got %v", got)
			}
		})
	}
}

func TestGetChatID(t *testing.T) {
	tests := []struct {
		name    string
		message tgbotapi.Chattable
		want    int64
	}{
		{"MessageConfig", tgbotapi.NewMessage(12345, "test"), 12345},
		{"ChatActionConfig", tgbotapi.NewChatAction(67890, tgbotapi.ChatTyping), 67890},
		{"EditMessageTextConfig", tgbotapi.NewEditMessageText(-5, 1, "x"), -5},
		{"CallbackConfig", tgbotapi.NewCallback("id", ""), 0},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := getChatID(test.message); got != test.want {
				t.Errorf("Expected %v chatID, got %v", test.want, got)
			}
		})
	}
}

func TestGetRate(t *testing.T) {
	if got := getRate(1); got != privateChatRate {
		t.Errorf("Expected %v rate, got %v", privateChatRate, got)
	}
	if got := getRate(-1); got != groupChatRate {
		t.Errorf("Expected %v rate, got %v", groupChatRate, got)
	}
}

func TestSendDeliversMessage(t *testing.T) {
	api := &fakeAPI{}
	rl := New(api, slog.Default())
	defer rl.Stop()

	msg, err := rl.Send(context.Background(), tgbotapi.NewMessage(1, "hello"))
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if msg.MessageID != 1 {
		t.Fatalf("Send() messageID = %d, want 1", msg.MessageID)
	}
}

func TestSendPropagatesAPIError(t *testing.T) {
	api := &fakeAPI{err: errors.New("bad request")}
	rl := New(api, slog.Default())
	defer rl.Stop()

	if _, err := rl.Send(context.Background(), tgbotapi.NewMessage(1, "hello")); err == nil {
		t.Fatal("Send() error = nil, want API error")
	}
}

func TestSendHonoursCanceledContext(t *testing.T) {
	api := &fakeAPI{}
	rl := New(api, slog.Default())
	defer rl.Stop()

	if _, err := rl.Send(context.Background(), tgbotapi.NewMessage(-1, "first")); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// The group chat rate keeps the second message waiting past the deadline.
	if _, err := rl.Send(ctx, tgbotapi.NewMessage(-1, "second")); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Send() error = %v, want deadline exceeded", err)
	}
}

func TestSendAfterStop(t *testing.T) {
	rl := New(&fakeAPI{}, slog.Default())
	rl.Stop()

	if _, err := rl.Send(context.Background(), tgbotapi.NewMessage(1, "late")); err == nil {
		t.Fatal("Send() error = nil after Stop")
	}
}
