package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"offblog/internal/domain"
	"offblog/internal/writer"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Example blog</title>
  <link>https://example.com</link>
  <item>
    <title>Newer post</title>
    <link>https://example.com/newer</link>
    <description>&lt;p&gt;Newer &lt;b&gt;body&lt;/b&gt;&lt;/p&gt;</description>
    <category>Go Lang</category>
    <pubDate>Sat, 01 Jun 2024 10:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Older post</title>
    <link>https://example.com/older</link>
    <description>Older body</description>
    <pubDate>Mon, 01 Jan 2024 10:00:00 GMT</pubDate>
  </item>
  <item>
    <title></title>
    <description></description>
  </item>
</channel>
</rss>`

type stubCreator struct {
	inputs  []domain.NewPost
	offline bool
	errs    map[string]error
}

func (c *stubCreator) Create(_ context.Context, input domain.NewPost) (writer.Result, error) {
	c.inputs = append(c.inputs, input)

	if err := c.errs[input.Title]; err != nil {
		return writer.Result{}, err
	}

	return writer.Result{
		Post:    domain.Post{ID: fmt.Sprint(len(c.inputs)), Title: input.Title},
		Offline: c.offline,
	}, nil
}

func newFeedServer(t *testing.T, body string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, err := w.Write([]byte(body))
		assert.NoError(t, err)
	}))
	t.Cleanup(server.Close)

	return server
}

func TestImportCreatesPostsOldestFirst(t *testing.T) {
	server := newFeedServer(t, rssFeed)
	creator := &stubCreator{}

	report, err := New(creator, slog.Default()).Import(context.Background(), server.URL, "2")
	require.NoError(t, err)

	assert.Equal(t, Report{FeedTitle: "Example blog", Created: 2}, report)
	require.Len(t, creator.inputs, 2)

	assert.Equal(t, domain.NewPost{
		Title:    "Older post",
		Body:     "Older body\n\nhttps://example.com/older",
		AuthorID: "2",
	}, creator.inputs[0])

	assert.Equal(t, "Newer post", creator.inputs[1].Title)
	assert.Equal(t, "Newer body\n\nhttps://example.com/newer", creator.inputs[1].Body)
	assert.Equal(t, []string{"go-lang"}, creator.inputs[1].Tags)
}

func TestImportCountsOfflineAndFailedItems(t *testing.T) {
	server := newFeedServer(t, rssFeed)
	creator := &stubCreator{
		offline: true,
		errs:    map[string]error{"Newer post": errors.New("Validation failed: title taken")},
	}

	report, err := New(creator, slog.Default()).Import(context.Background(), server.URL, "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Validation failed: title taken")
	assert.Equal(t, Report{FeedTitle: "Example blog", Offline: 1, Failed: 1}, report)
}

func TestImportRejectsInvalidFeed(t *testing.T) {
	server := newFeedServer(t, "not a feed")

	_, err := New(&stubCreator{}, slog.Default()).Import(context.Background(), server.URL, "1")
	assert.Error(t, err)
}

func TestRecentItemsLimit(t *testing.T) {
	feed := strings.Builder{}
	feed.WriteString(`<?xml version="1.0"?><rss version="2.0"><channel><title>Many</title>`)
	for day := 1; day <= 15; day++ {
		fmt.Fprintf(&feed,
			`<item><title>Day %d</title><description>x</description><pubDate>%02d Jun 2024 10:00:00 GMT</pubDate></item>`,
			day, day)
	}
	feed.WriteString(`</channel></rss>`)

	server := newFeedServer(t, feed.String())
	creator := &stubCreator{}

	_, err := New(creator, slog.Default()).Import(context.Background(), server.URL, "1")
	require.NoError(t, err)

	require.Len(t, creator.inputs, maxImportedItems)
	assert.Equal(t, "Day 6", creator.inputs[0].Title)
	assert.Equal(t, "Day 15", creator.inputs[maxImportedItems-1].Title)
}

func TestFindURL(t *testing.T) {
	got, err := FindURL("/import https://example.com/feed.xml please")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/feed.xml", got)

	_, err = FindURL("/import example")
	assert.Error(t, err)
}
