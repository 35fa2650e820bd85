// Package writer implements the write paths of the blog client: create with
// local fallback, delete with best-effort local cleanup, and resubmission of
// local-only posts.
package writer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"offblog/internal/domain"
	"offblog/internal/remote"
	"strings"
	"time"
)

type Creator interface {
	CreatePost(ctx context.Context, input domain.NewPost) (*domain.Post, error)
}

type Remover interface {
	DeletePost(ctx context.Context, id string) (bool, error)
}

// LocalStore is the local persistence port. Implementations must not fail.
type LocalStore interface {
	GetAll(ctx context.Context) []domain.Post
	Get(ctx context.Context, id string) (domain.Post, bool)
	Save(ctx context.Context, post domain.Post)
	Delete(ctx context.Context, id string)
}

// Local cache writes get their own deadline once the remote outcome is
// known, so an expired request cannot drop them.
const localWriteTimeout = 5 * time.Second

type Result struct {
	Post domain.Post
	// Offline is set when the post exists only in the local cache.
	Offline bool
}

type Writer struct {
	remote      Creator
	local       LocalStore
	invalidator remote.Invalidator
	authors     *domain.Authors
	validator   *formValidator
	now         func() time.Time
	newID       func(time.Time) (string, error)
	log         *slog.Logger
}

// New builds a Writer. invalidator may be nil.
func New(
	creator Creator,
	local LocalStore,
	invalidator remote.Invalidator,
	authors *domain.Authors,
	log *slog.Logger,
) *Writer {
	return &Writer{
		remote:      creator,
		local:       local,
		invalidator: invalidator,
		authors:     authors,
		validator:   newFormValidator(),
		now:         time.Now,
		newID:       domain.NewLocalID,
		log:         log,
	}
}

// Create submits the post remotely. A created post is mirrored into the
// local cache. When the remote source is unreachable the post is kept
// locally under a fresh local id and Create still succeeds. Any other
// failure is returned and nothing is persisted.
func (w *Writer) Create(ctx context.Context, input domain.NewPost) (Result, error) {
	input = normalizeNewPost(input)

	if err := w.validator.validate(input); err != nil {
		return Result{}, err
	}

	created, err := w.remote.CreatePost(ctx, input)
	if err == nil && created == nil {
		err = errors.New("remote source returned no post")
	}

	localCtx, cancel := localContext(ctx)
	defer cancel()

	switch {
	case err == nil:
		w.local.Save(localCtx, *created)
		w.invalidate()

		w.log.InfoContext(ctx, "Post is created",
			"postID", created.ID,
			"authorID", input.AuthorID)

		return Result{Post: *created}, nil

	case remote.IsConnectivity(err):
		post, localErr := w.createLocal(localCtx, input)
		if localErr != nil {
			return Result{}, errors.Join(err, localErr)
		}

		w.log.WarnContext(ctx, "Remote source is unreachable so post is kept locally",
			"error", err,
			"postID", post.ID,
			"authorID", input.AuthorID)

		return Result{Post: post, Offline: true}, nil

	default:
		return Result{}, fmt.Errorf("create post: %w", err)
	}
}

func (w *Writer) createLocal(ctx context.Context, input domain.NewPost) (domain.Post, error) {
	now := w.now()

	id, err := w.newID(now)
	if err != nil {
		return domain.Post{}, fmt.Errorf("generate local ID: %w", err)
	}

	post := domain.Post{
		ID:          id,
		Title:       input.Title,
		Body:        input.Body,
		Tags:        input.Tags,
		PublishedAt: domain.FormatTimestamp(now),
		Author:      w.authors.Resolve(input.AuthorID),
	}

	w.local.Save(ctx, post)
	w.invalidate()

	return post, nil
}

func localContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), localWriteTimeout)
}

func (w *Writer) invalidate() {
	if w.invalidator != nil {
		w.invalidator.Invalidate()
	}
}

func normalizeNewPost(input domain.NewPost) domain.NewPost {
	input.Title = strings.TrimSpace(input.Title)
	input.Body = strings.TrimSpace(input.Body)
	input.AuthorID = strings.TrimSpace(input.AuthorID)

	var tags []string
	seen := make(map[string]struct{}, len(input.Tags))

	for _, tag := range input.Tags {
		tag = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}

		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	input.Tags = tags

	return input
}
