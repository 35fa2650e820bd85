package writer

import (
	"context"
	"errors"
	"log/slog"
	"offblog/internal/domain"
	"offblog/internal/remote"
	"slices"
	"sync"
)

type SyncReport struct {
	Pending int
	Synced  int
	Failed  int
	// Offline is set when the run stopped because the remote source was
	// unreachable.
	Offline bool
}

// Syncer resubmits local-only posts to the remote source.
type Syncer struct {
	mu          sync.Mutex
	remote      Creator
	local       LocalStore
	invalidator remote.Invalidator
	log         *slog.Logger
}

func NewSyncer(
	creator Creator,
	local LocalStore,
	invalidator remote.Invalidator,
	log *slog.Logger,
) *Syncer {
	return &Syncer{
		remote:      creator,
		local:       local,
		invalidator: invalidator,
		log:         log,
	}
}

// Sync submits every local-only post, oldest first. A submitted post
// replaces its local-only record with a mirror of the remote one. The run
// stops at the first connectivity failure; other failures keep the record.
func (s *Syncer) Sync(ctx context.Context) SyncReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := localOnly(s.local.GetAll(ctx))
	report := SyncReport{Pending: len(pending)}

	for _, post := range pending {
		if ctx.Err() != nil {
			break
		}

		created, err := s.remote.CreatePost(ctx, domain.NewPost{
			Title:    post.Title,
			Body:     post.Body,
			Tags:     post.Tags,
			AuthorID: post.Author.ID,
		})
		if err == nil && created == nil {
			err = errors.New("remote source returned no post")
		}

		if remote.IsConnectivity(err) {
			s.log.WarnContext(ctx, "Remote source is unreachable so sync is postponed",
				"error", err,
				"postID", post.ID,
				"pending", len(pending),
				"synced", report.Synced)

			report.Offline = true

			break
		}

		if err != nil {
			s.log.ErrorContext(ctx, "Failed to sync local post",
				"error", err,
				"postID", post.ID)

			report.Failed++

			continue
		}

		s.replaceLocal(ctx, post.ID, *created)
		report.Synced++

		s.log.InfoContext(ctx, "Local post is synced",
			"localID", post.ID,
			"postID", created.ID)
	}

	if report.Synced > 0 && s.invalidator != nil {
		s.invalidator.Invalidate()
	}

	return report
}

// replaceLocal swaps the local-only record for the mirror of the created
// post. It runs even when ctx expired during the remote call: a record left
// behind would be submitted again by the next run.
func (s *Syncer) replaceLocal(ctx context.Context, localID string, created domain.Post) {
	localCtx, cancel := localContext(ctx)
	defer cancel()

	s.local.Delete(localCtx, localID)
	s.local.Save(localCtx, created)
}

func localOnly(posts []domain.Post) []domain.Post {
	var out []domain.Post
	for _, post := range posts {
		if post.IsLocal() {
			out = append(out, post)
		}
	}

	slices.SortStableFunc(out, func(a, b domain.Post) int {
		at, _ := a.PublishedTime()
		bt, _ := b.PublishedTime()

		return at.Compare(bt)
	})

	return out
}
