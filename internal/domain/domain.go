package domain

import (
	"fmt"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// LocalIDPrefix marks posts that exist only in the local cache.
	LocalIDPrefix = "local_"

	localIDSuffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	localIDSuffixLength   = 9
)

type Author struct {
	ID        string
	Name      string
	AvatarURL string
}

type Post struct {
	ID          string
	Title       string
	Body        string
	Tags        []string
	PublishedAt string
	Author      Author
}

// NewPost is the submitted create form.
type NewPost struct {
	Title    string   `form:"title"    validate:"required,max=200"`
	Body     string   `form:"body"     validate:"required"`
	Tags     []string `form:"tags"     validate:"dive,required,max=64"`
	AuthorID string   `form:"authorId" validate:"required"`
}

func (p Post) IsLocal() bool {
	return IsLocalID(p.ID)
}

// PublishedTime parses PublishedAt. The second result is false for
// malformed timestamps.
func (p Post) PublishedTime() (time.Time, bool) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(p.PublishedAt))
	if err != nil {
		return time.Time{}, false
	}

	return t, true
}

func IsLocalID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix)
}

// NewLocalID builds local_<unix millis>_<random suffix>.
func NewLocalID(now time.Time) (string, error) {
	suffix, err := gonanoid.Generate(localIDSuffixAlphabet, localIDSuffixLength)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}

	return fmt.Sprintf("%s%d_%s", LocalIDPrefix, now.UnixMilli(), suffix), nil
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
