package writer

import (
	"context"
	"log/slog"
	"offblog/internal/domain"
	"offblog/internal/remote"
)

type Deleter struct {
	remote      Remover
	local       LocalStore
	invalidator remote.Invalidator
	log         *slog.Logger
}

func NewDeleter(
	remover Remover,
	local LocalStore,
	invalidator remote.Invalidator,
	log *slog.Logger,
) *Deleter {
	return &Deleter{
		remote:      remover,
		local:       local,
		invalidator: invalidator,
		log:         log,
	}
}

// Delete removes the post everywhere it can. Local-only posts leave the
// local cache first; the remote source is always asked to delete. A remote
// failure is logged and never reported to the caller. Posts without the
// local prefix are never touched in the local cache.
func (d *Deleter) Delete(ctx context.Context, id string) {
	localCtx, cancel := localContext(ctx)
	defer cancel()

	local := domain.IsLocalID(id)
	if local {
		d.local.Delete(localCtx, id)
	}

	deleted, err := d.remote.DeletePost(ctx, id)
	switch {
	case err != nil:
		d.log.ErrorContext(ctx, "Failed to delete remote post",
			"error", err,
			"postID", id,
			"kind", remote.Classify(err).String(),
			"local", local)

		if local {
			d.local.Delete(localCtx, id)
		}
	case !deleted:
		d.log.InfoContext(ctx, "Remote post is not found for deletion",
			"postID", id,
			"local", local)
	default:
		d.log.InfoContext(ctx, "Post is deleted",
			"postID", id,
			"local", local)
	}

	if d.invalidator != nil {
		d.invalidator.Invalidate()
	}
}
