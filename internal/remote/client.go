package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"offblog/internal/domain"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	maxResponseBytes = 8 << 20

	postFields = `id title body tags publishedAt author { id name avatarUrl }`

	postsQuery = `query Posts { posts { id title tags publishedAt author { id name avatarUrl } } }`
	postQuery  = `query Post($id: ID!) { post(id: $id) { ` + postFields + ` } }`
	userQuery  = `query User($id: ID!) { user(id: $id) { id name avatarUrl } }`

	createPostMutation = `mutation CreatePost($input: CreatePostInput!) { createPost(input: $input) { ` +
		postFields + ` } }`
	deletePostMutation = `mutation DeletePost($id: ID!) { deletePost(id: $id) }`
)

// Client talks to the blog GraphQL endpoint. Every operation is a single
// attempt; failures are returned as *Error.
type Client struct {
	endpoint   string
	httpClient *http.Client
	log        *slog.Logger
}

type variable struct {
	path  string
	value any
}

func NewClient(endpoint string, timeout time.Duration, log *slog.Logger) *Client {
	return &Client{
		endpoint:   strings.TrimSpace(endpoint),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

func (c *Client) FetchPosts(ctx context.Context) ([]domain.Post, error) {
	data, err := c.do(ctx, "fetch posts", postsQuery)
	if err != nil {
		return nil, err
	}

	items := data.Get("posts").Array()
	posts := make([]domain.Post, 0, len(items))

	for _, item := range items {
		posts = append(posts, parsePost(item))
	}

	return posts, nil
}

func (c *Client) FetchPost(ctx context.Context, id string) (*domain.Post, error) {
	data, err := c.do(ctx, "fetch post", postQuery, variable{"id", id})
	if err != nil {
		return nil, err
	}

	item := data.Get("post")
	if !item.Exists() || item.Type == gjson.Null {
		return nil, nil //nolint:nilnil // Absence is not an error.
	}

	post := parsePost(item)

	return &post, nil
}

func (c *Client) FetchAuthor(ctx context.Context, id string) (*domain.Author, error) {
	data, err := c.do(ctx, "fetch author", userQuery, variable{"id", id})
	if err != nil {
		return nil, err
	}

	item := data.Get("user")
	if !item.Exists() || item.Type == gjson.Null {
		return nil, nil //nolint:nilnil // Absence is not an error.
	}

	author := parseAuthor(item)

	return &author, nil
}

func (c *Client) CreatePost(ctx context.Context, input domain.NewPost) (*domain.Post, error) {
	vars := []variable{
		{"input.title", input.Title},
		{"input.body", input.Body},
		{"input.authorId", input.AuthorID},
	}
	if len(input.Tags) > 0 {
		vars = append(vars, variable{"input.tags", input.Tags})
	}

	data, err := c.do(ctx, "create post", createPostMutation, vars...)
	if err != nil {
		return nil, err
	}

	item := data.Get("createPost")
	if !item.Exists() || item.Type == gjson.Null {
		return nil, applicationError("create post", errors.New("empty createPost payload"))
	}

	post := parsePost(item)

	return &post, nil
}

func (c *Client) DeletePost(ctx context.Context, id string) (bool, error) {
	data, err := c.do(ctx, "delete post", deletePostMutation, variable{"id", id})
	if err != nil {
		return false, err
	}

	return data.Get("deletePost").Bool(), nil
}

func (c *Client) do(
	ctx context.Context,
	op string,
	query string,
	vars ...variable,
) (gjson.Result, error) {
	body, err := buildRequestBody(query, vars)
	if err != nil {
		return gjson.Result{}, applicationError(op, fmt.Errorf("build request body: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return gjson.Result{}, applicationError(op, fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return gjson.Result{}, applicationError(op, fmt.Errorf("do request: %w", err))
		}

		return gjson.Result{}, connectivityError(op, fmt.Errorf("do request: %w", err))
	}
	defer func() {
		if err = resp.Body.Close(); err != nil {
			c.log.ErrorContext(ctx, "Failed to close response body",
				"error", err,
				"endpoint", c.endpoint,
				"operation", op)
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return gjson.Result{}, connectivityError(op, fmt.Errorf("read response: %w", err))
	}

	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, statusError(op, resp.StatusCode, "invalid response body")
	}

	parsed := gjson.ParseBytes(raw)

	if msgs := graphQLErrorMessages(parsed); len(msgs) > 0 {
		return gjson.Result{}, applicationError(op, errors.New(strings.Join(msgs, "; ")))
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return gjson.Result{}, statusError(op, resp.StatusCode, "unexpected status")
	}

	data := parsed.Get("data")
	if !data.Exists() {
		return gjson.Result{}, applicationError(op, errors.New("response has no data"))
	}

	return data, nil
}

func buildRequestBody(query string, vars []variable) ([]byte, error) {
	body, err := sjson.SetBytes([]byte(`{}`), "query", query)
	if err != nil {
		return nil, fmt.Errorf("set query: %w", err)
	}

	for _, v := range vars {
		body, err = sjson.SetBytes(body, "variables."+v.path, v.value)
		if err != nil {
			return nil, fmt.Errorf("set variable %s: %w", v.path, err)
		}
	}

	return body, nil
}

func graphQLErrorMessages(parsed gjson.Result) []string {
	var msgs []string

	for _, item := range parsed.Get("errors").Array() {
		msg := strings.TrimSpace(item.Get("message").String())
		if msg == "" {
			msg = strings.TrimSpace(item.String())
		}
		if msg != "" {
			msgs = append(msgs, msg)
		}
	}

	return msgs
}

func statusError(op string, status int, reason string) *Error {
	err := fmt.Errorf("%s: %d", reason, status)

	switch {
	case status >= http.StatusInternalServerError,
		status == http.StatusRequestTimeout,
		status == http.StatusTooManyRequests:
		return connectivityError(op, err)
	default:
		return applicationError(op, err)
	}
}

func parsePost(r gjson.Result) domain.Post {
	post := domain.Post{
		ID:          strings.TrimSpace(r.Get("id").String()),
		Title:       strings.TrimSpace(r.Get("title").String()),
		Body:        r.Get("body").String(),
		PublishedAt: strings.TrimSpace(r.Get("publishedAt").String()),
		Author:      parseAuthor(r.Get("author")),
	}

	for _, tag := range r.Get("tags").Array() {
		post.Tags = append(post.Tags, tag.String())
	}

	return post
}

func parseAuthor(r gjson.Result) domain.Author {
	return domain.Author{
		ID:        strings.TrimSpace(r.Get("id").String()),
		Name:      strings.TrimSpace(r.Get("name").String()),
		AvatarURL: strings.TrimSpace(r.Get("avatarUrl").String()),
	}
}
