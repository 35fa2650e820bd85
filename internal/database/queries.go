package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"offblog/internal/domain"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

//nolint:gochecknoglobals // Stateless codec.
var tagsCodec = jsoniter.ConfigCompatibleWithStandardLibrary

const selectPostColumns = `select id, title, body, tags, published_at,
	author_id, author_name, author_avatar_url
	from local_posts`

// GetAll returns every cached post in no particular order.
func (d *Database) GetAll(ctx context.Context) []domain.Post {
	posts, err := d.getAll(ctx)
	if err != nil {
		d.log.ErrorContext(ctx, "Failed to read local posts",
			"error", err,
			"operation", "GetAll")

		return nil
	}

	return posts
}

func (d *Database) Get(ctx context.Context, id string) (domain.Post, bool) {
	post, found, err := d.get(ctx, id)
	if err != nil {
		d.log.ErrorContext(ctx, "Failed to read local post",
			"error", err,
			"postID", id,
			"operation", "Get")

		return domain.Post{}, false
	}

	return post, found
}

// Save inserts the post or replaces the one with the same id.
func (d *Database) Save(ctx context.Context, post domain.Post) {
	if err := d.save(ctx, post); err != nil {
		d.log.ErrorContext(ctx, "Failed to save local post",
			"error", err,
			"postID", post.ID,
			"operation", "Save")
	}
}

func (d *Database) Delete(ctx context.Context, id string) {
	if err := d.delete(ctx, id); err != nil {
		d.log.ErrorContext(ctx, "Failed to delete local post",
			"error", err,
			"postID", id,
			"operation", "Delete")
	}
}

func (d *Database) getAll(ctx context.Context) ([]domain.Post, error) {
	rows, err := d.db.QueryContext(ctx, selectPostColumns)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"operation", "getAll")
		}
	}()

	var posts []domain.Post
	for rows.Next() {
		post, scanErr := scanPost(rows)
		if scanErr != nil {
			d.log.WarnContext(ctx, "Skipping corrupted local post",
				"error", scanErr,
				"operation", "getAll")

			continue
		}

		posts = append(posts, post)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return posts, nil
}

func (d *Database) get(ctx context.Context, id string) (domain.Post, bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Post{}, false, nil
	}

	row := d.db.QueryRowContext(ctx, selectPostColumns+" where id = ?", id)

	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Post{}, false, nil
	}
	if err != nil {
		return domain.Post{}, false, err
	}

	return post, true, nil
}

func (d *Database) save(ctx context.Context, post domain.Post) error {
	post.ID = strings.TrimSpace(post.ID)
	if post.ID == "" {
		return errors.New("post ID is empty")
	}

	tags := post.Tags
	if tags == nil {
		tags = []string{}
	}

	encodedTags, err := tagsCodec.MarshalToString(tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	query := `insert into local_posts (
		id, title, body, tags, published_at, author_id, author_name, author_avatar_url
	) values (?, ?, ?, ?, ?, ?, ?, ?)
	on conflict (id) do update set
		title = excluded.title,
		body = excluded.body,
		tags = excluded.tags,
		published_at = excluded.published_at,
		author_id = excluded.author_id,
		author_name = excluded.author_name,
		author_avatar_url = excluded.author_avatar_url,
		updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`

	_, err = d.db.ExecContext(ctx, query,
		post.ID,
		post.Title,
		post.Body,
		encodedTags,
		post.PublishedAt,
		post.Author.ID,
		post.Author.Name,
		post.Author.AvatarURL,
	)

	return err
}

func (d *Database) delete(ctx context.Context, id string) error {
	query := "delete from local_posts where id = ?"

	_, err := d.db.ExecContext(ctx, query, strings.TrimSpace(id))

	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (domain.Post, error) {
	var (
		post        domain.Post
		encodedTags string
	)

	if err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Body,
		&encodedTags,
		&post.PublishedAt,
		&post.Author.ID,
		&post.Author.Name,
		&post.Author.AvatarURL,
	); err != nil {
		return domain.Post{}, err
	}

	if err := tagsCodec.UnmarshalFromString(encodedTags, &post.Tags); err != nil {
		return domain.Post{}, fmt.Errorf("decode tags (postID = %s): %w", post.ID, err)
	}

	return post, nil
}
