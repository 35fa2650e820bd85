package reconcile

import (
	"context"
	"log/slog"
	"offblog/internal/domain"
)

type State int

const (
	StateLoading State = iota
	StateEmpty
	StateReady
	StateNotFound
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateEmpty:
		return "empty"
	case StateReady:
		return "ready"
	case StateNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// ListView is the merged post listing as shown to the user.
type ListView struct {
	State State
	Posts []domain.Post
	// RemoteFailed is set when the remote listing could not be fetched and
	// only the local cache was used.
	RemoteFailed bool
}

type PostView struct {
	State State
	Post  domain.Post
	// FromCache is set when the post came from the local cache.
	FromCache bool
}

func NewListView(remote, local []domain.Post) ListView {
	posts := Merge(remote, local)
	if len(posts) == 0 {
		return ListView{State: StateEmpty}
	}

	return ListView{State: StateReady, Posts: posts}
}

type RemoteReader interface {
	FetchPosts(ctx context.Context) ([]domain.Post, error)
	FetchPost(ctx context.Context, id string) (*domain.Post, error)
}

type LocalReader interface {
	GetAll(ctx context.Context) []domain.Post
	Get(ctx context.Context, id string) (domain.Post, bool)
}

// Loader owns the fetch lifecycle for the list and detail views.
type Loader struct {
	remote RemoteReader
	local  LocalReader
	log    *slog.Logger
}

func NewLoader(remote RemoteReader, local LocalReader, log *slog.Logger) *Loader {
	return &Loader{
		remote: remote,
		local:  local,
		log:    log,
	}
}

// List never fails: a remote error is logged and treated as an empty
// remote listing.
func (l *Loader) List(ctx context.Context) ListView {
	remotePosts, err := l.remote.FetchPosts(ctx)
	if err != nil {
		l.log.WarnContext(ctx, "Failed to fetch remote posts so local cache is used",
			"error", err)

		remotePosts = nil
	}

	localPosts := l.local.GetAll(ctx)

	view := NewListView(remotePosts, localPosts)
	view.RemoteFailed = err != nil

	l.log.DebugContext(ctx, "Posts are reconciled",
		"remoteCount", len(remotePosts),
		"localCount", len(localPosts),
		"mergedCount", len(view.Posts),
		"state", view.State.String())

	return view
}

// Get prefers the remote post and falls back to the local cache.
func (l *Loader) Get(ctx context.Context, id string) PostView {
	post, err := l.remote.FetchPost(ctx, id)
	if err != nil {
		l.log.WarnContext(ctx, "Failed to fetch remote post so local cache is used",
			"error", err,
			"postID", id)
	}

	if err == nil && post != nil {
		return PostView{State: StateReady, Post: *post}
	}

	if cached, ok := l.local.Get(ctx, id); ok {
		return PostView{State: StateReady, Post: cached, FromCache: true}
	}

	return PostView{State: StateNotFound}
}
