package writer

import (
	"context"
	"errors"
	"log/slog"
	"offblog/internal/domain"
	"offblog/internal/remote"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// callLog records side effects shared by the fakes, in call order.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) record(call string) {
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls = append(l.calls, call)
}

type memStore struct {
	mu    sync.Mutex
	posts []domain.Post
	saves int
	calls *callLog
}

func (s *memStore) GetAll(context.Context) []domain.Post {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]domain.Post(nil), s.posts...)
}

func (s *memStore) Get(_ context.Context, id string) (domain.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.posts {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Post{}, false
}

func (s *memStore) Save(_ context.Context, post domain.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saves++
	s.calls.record("save " + post.ID)
	for i, p := range s.posts {
		if p.ID == post.ID {
			s.posts[i] = post
			return
		}
	}
	s.posts = append(s.posts, post)
}

func (s *memStore) Delete(_ context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.posts {
		if p.ID == id {
			s.posts = append(s.posts[:i], s.posts[i+1:]...)
			return
		}
	}
}

type stubRemote struct {
	createErr  error
	createErrs []error
	createNil  bool
	deleteErr  error
	creates    []domain.NewPost
	deletes    []string
	nextID     int
}

func (r *stubRemote) CreatePost(_ context.Context, input domain.NewPost) (*domain.Post, error) {
	r.creates = append(r.creates, input)

	if len(r.createErrs) > 0 {
		err := r.createErrs[0]
		r.createErrs = r.createErrs[1:]
		if err != nil {
			return nil, err
		}
	} else if r.createErr != nil {
		return nil, r.createErr
	}

	if r.createNil {
		return nil, nil //nolint:nilnil // Misbehaving remote source.
	}

	r.nextID++

	return &domain.Post{
		ID:          "srv-" + strconv.Itoa(r.nextID),
		Title:       input.Title,
		Body:        input.Body,
		Tags:        input.Tags,
		PublishedAt: "2024-06-01T00:00:00Z",
		Author:      domain.Author{ID: input.AuthorID, Name: "Server name"},
	}, nil
}

func (r *stubRemote) DeletePost(_ context.Context, id string) (bool, error) {
	r.deletes = append(r.deletes, id)
	if r.deleteErr != nil {
		return false, r.deleteErr
	}
	return true, nil
}

type countingInvalidator struct {
	calls int
	log   *callLog
}

func (c *countingInvalidator) Invalidate() {
	c.calls++
	c.log.record("invalidate")
}

var fixedNow = time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)

func newTestWriter(r *stubRemote, store *memStore, inv *countingInvalidator) *Writer {
	authors := domain.NewAuthors(
		map[string]string{"1": "Keisuke", "2": "Taro"},
		map[string]string{"1": "https://example.com/avatar.png"},
	)

	var invalidator remote.Invalidator
	if inv != nil {
		invalidator = inv
	}

	w := New(r, store, invalidator, authors, slog.Default())
	w.now = func() time.Time { return fixedNow }

	return w
}

func validInput() domain.NewPost {
	return domain.NewPost{
		Title:    " Hello ",
		Body:     "First post body",
		Tags:     []string{"#go", "blog", "go", " "},
		AuthorID: "1",
	}
}

func TestWriterCreateMirrorsRemotePost(t *testing.T) {
	r := &stubRemote{}
	store := &memStore{}
	inv := &countingInvalidator{}
	w := newTestWriter(r, store, inv)

	res, err := w.Create(context.Background(), validInput())
	require.NoError(t, err)

	assert.False(t, res.Offline)
	assert.Equal(t, "srv-1", res.Post.ID)
	assert.Equal(t, 1, inv.calls)

	require.Len(t, r.creates, 1)
	assert.Equal(t, "Hello", r.creates[0].Title)
	assert.Equal(t, []string{"go", "blog"}, r.creates[0].Tags)

	mirrored, ok := store.Get(context.Background(), "srv-1")
	require.True(t, ok)
	assert.Equal(t, res.Post, mirrored)
}

func TestWriterCreatePersistsBeforeInvalidating(t *testing.T) {
	tests := []struct {
		name   string
		remote *stubRemote
	}{
		{"remote success", &stubRemote{}},
		{"offline fallback", &stubRemote{createErr: errors.New("Failed to fetch")}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			calls := &callLog{}
			store := &memStore{calls: calls}
			w := newTestWriter(test.remote, store, &countingInvalidator{log: calls})

			res, err := w.Create(context.Background(), validInput())
			require.NoError(t, err)

			assert.Equal(t, []string{"save " + res.Post.ID, "invalidate"}, calls.calls)
		})
	}
}

func TestWriterCreateRejectsEmptyRemoteResult(t *testing.T) {
	store := &memStore{}
	w := newTestWriter(&stubRemote{createNil: true}, store, &countingInvalidator{})

	_, err := w.Create(context.Background(), validInput())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remote source returned no post")
	assert.Empty(t, store.GetAll(context.Background()))
}

func TestWriterCreateFallsBackOnFetchFailure(t *testing.T) {
	r := &stubRemote{createErr: errors.New("Failed to fetch")}
	store := &memStore{}
	inv := &countingInvalidator{}
	w := newTestWriter(r, store, inv)

	res, err := w.Create(context.Background(), validInput())
	require.NoError(t, err)

	assert.True(t, res.Offline)
	assert.True(t, strings.HasPrefix(res.Post.ID, "local_"), "unexpected id %q", res.Post.ID)
	assert.Equal(t, "2024-06-01T12:30:00Z", res.Post.PublishedAt)
	assert.Equal(t, "Keisuke", res.Post.Author.Name)
	assert.Equal(t, "https://example.com/avatar.png", res.Post.Author.AvatarURL)
	assert.Equal(t, []string{"go", "blog"}, res.Post.Tags)
	assert.Equal(t, 1, inv.calls)

	stored := store.GetAll(context.Background())
	require.Len(t, stored, 1)
	assert.Equal(t, res.Post, stored[0])
}

func TestWriterCreateFallsBackOnTypedConnectivityError(t *testing.T) {
	r := &stubRemote{createErr: &remote.Error{
		Kind: remote.KindConnectivity,
		Op:   "create post",
		Err:  errors.New("dial tcp: connection refused"),
	}}
	store := &memStore{}
	w := newTestWriter(r, store, &countingInvalidator{})

	res, err := w.Create(context.Background(), validInput())
	require.NoError(t, err)
	assert.True(t, res.Offline)
	assert.Len(t, store.GetAll(context.Background()), 1)
}

func TestWriterCreatePropagatesValidationFailure(t *testing.T) {
	r := &stubRemote{createErr: errors.New("Validation failed: title required")}
	store := &memStore{}
	inv := &countingInvalidator{}
	w := newTestWriter(r, store, inv)

	_, err := w.Create(context.Background(), validInput())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Validation failed: title required")

	assert.Empty(t, store.GetAll(context.Background()))
	assert.Zero(t, store.saves)
	assert.Zero(t, inv.calls)
}

func TestWriterCreateRejectsInvalidForm(t *testing.T) {
	r := &stubRemote{}
	store := &memStore{}
	w := newTestWriter(r, store, &countingInvalidator{})

	_, err := w.Create(context.Background(), domain.NewPost{Title: "  ", Body: "x"})
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "is required", validationErr.Fields["title"])
	assert.Equal(t, "is required", validationErr.Fields["authorId"])
	assert.Equal(t, "validation failed: authorId is required, title is required", err.Error())

	assert.Empty(t, r.creates)
	assert.Empty(t, store.GetAll(context.Background()))
}

func TestWriterCreateUnknownAuthorOffline(t *testing.T) {
	r := &stubRemote{createErr: errors.New("NetworkError when attempting to fetch resource.")}
	store := &memStore{}
	w := newTestWriter(r, store, nil)

	input := validInput()
	input.AuthorID = "77"

	res, err := w.Create(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, domain.Author{ID: "77", Name: "77"}, res.Post.Author)
}

func TestWriterCreateLocalIDFailure(t *testing.T) {
	r := &stubRemote{createErr: errors.New("Failed to fetch")}
	store := &memStore{}
	w := newTestWriter(r, store, &countingInvalidator{})
	w.newID = func(time.Time) (string, error) { return "", errors.New("no entropy") }

	_, err := w.Create(context.Background(), validInput())
	require.Error(t, err)
	assert.Empty(t, store.GetAll(context.Background()))
}
