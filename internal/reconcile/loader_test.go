package reconcile_test

import (
	"context"
	"errors"
	"log/slog"
	"offblog/internal/domain"
	"offblog/internal/reconcile"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	posts []domain.Post
	err   error
}

func (f *fakeRemote) FetchPosts(context.Context) ([]domain.Post, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.posts, nil
}

func (f *fakeRemote) FetchPost(_ context.Context, id string) (*domain.Post, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, p := range f.posts {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, nil //nolint:nilnil // Absent.
}

type fakeLocal struct {
	posts []domain.Post
}

func (f *fakeLocal) GetAll(context.Context) []domain.Post {
	return f.posts
}

func (f *fakeLocal) Get(_ context.Context, id string) (domain.Post, bool) {
	for _, p := range f.posts {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Post{}, false
}

func TestLoaderListSwallowsRemoteError(t *testing.T) {
	local := &fakeLocal{posts: []domain.Post{post("local_1", "Offline", "2024-06-01T00:00:00Z")}}
	loader := reconcile.NewLoader(&fakeRemote{err: errors.New("Failed to fetch")}, local, slog.Default())

	view := loader.List(context.Background())

	assert.Equal(t, reconcile.StateReady, view.State)
	assert.True(t, view.RemoteFailed)
	require.Len(t, view.Posts, 1)
	assert.Equal(t, "local_1", view.Posts[0].ID)
}

func TestLoaderListEmpty(t *testing.T) {
	loader := reconcile.NewLoader(&fakeRemote{posts: []domain.Post{}}, &fakeLocal{}, slog.Default())

	view := loader.List(context.Background())

	assert.Equal(t, reconcile.StateEmpty, view.State)
	assert.False(t, view.RemoteFailed)
	assert.Empty(t, view.Posts)
}

func TestLoaderListMerges(t *testing.T) {
	remote := &fakeRemote{posts: []domain.Post{post("1", "A", "2024-01-01T00:00:00Z")}}
	local := &fakeLocal{posts: []domain.Post{
		post("1", "stale", "2024-01-01T00:00:00Z"),
		post("local_999", "B", "2024-06-01T00:00:00Z"),
	}}
	loader := reconcile.NewLoader(remote, local, slog.Default())

	view := loader.List(context.Background())

	require.Len(t, view.Posts, 2)
	assert.Equal(t, []string{"local_999", "1"}, ids(view.Posts))
	assert.Equal(t, "A", view.Posts[1].Title)
}

func TestLoaderGet(t *testing.T) {
	remote := &fakeRemote{posts: []domain.Post{post("1", "Remote", "2024-01-01T00:00:00Z")}}
	local := &fakeLocal{posts: []domain.Post{
		post("1", "Local copy", "2024-01-01T00:00:00Z"),
		post("local_2", "Local only", "2024-01-02T00:00:00Z"),
	}}
	loader := reconcile.NewLoader(remote, local, slog.Default())
	ctx := context.Background()

	view := loader.Get(ctx, "1")
	assert.Equal(t, reconcile.StateReady, view.State)
	assert.Equal(t, "Remote", view.Post.Title)
	assert.False(t, view.FromCache)

	view = loader.Get(ctx, "local_2")
	assert.Equal(t, reconcile.StateReady, view.State)
	assert.True(t, view.FromCache)

	view = loader.Get(ctx, "nope")
	assert.Equal(t, reconcile.StateNotFound, view.State)
}

func TestLoaderGetFallsBackOnRemoteError(t *testing.T) {
	local := &fakeLocal{posts: []domain.Post{post("1", "Local copy", "2024-01-01T00:00:00Z")}}
	loader := reconcile.NewLoader(&fakeRemote{err: errors.New("boom")}, local, slog.Default())

	view := loader.Get(context.Background(), "1")

	assert.Equal(t, reconcile.StateReady, view.State)
	assert.Equal(t, "Local copy", view.Post.Title)
	assert.True(t, view.FromCache)
}
