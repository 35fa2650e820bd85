package bot

import (
	"offblog/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCompose(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   domain.NewPost
		wantOK bool
	}{
		{
			name:   "command only",
			text:   "/new",
			wantOK: false,
		},
		{
			name:   "author only",
			text:   "/new 2\n\n  ",
			wantOK: false,
		},
		{
			name: "full message",
			text: "/new 2\nHello\nFirst line\n\nSecond line\n#go #blog",
			want: domain.NewPost{
				Title:    "Hello",
				Body:     "First line\n\nSecond line",
				Tags:     []string{"#go", "#blog"},
				AuthorID: "2",
			},
			wantOK: true,
		},
		{
			name: "default author and no tags",
			text: "/new\r\nHello\r\nBody with #hashtag inside",
			want: domain.NewPost{
				Title:    "Hello",
				Body:     "Body with #hashtag inside",
				AuthorID: "1",
			},
			wantOK: true,
		},
		{
			name: "bot mention in command",
			text: "/new@offblog_bot 3\nTitle\nBody",
			want: domain.NewPost{
				Title:    "Title",
				Body:     "Body",
				AuthorID: "3",
			},
			wantOK: true,
		},
		{
			name: "title only",
			text: "/new\nJust a title",
			want: domain.NewPost{
				Title:    "Just a title",
				AuthorID: "1",
			},
			wantOK: true,
		},
		{
			name: "lone hash is body",
			text: "/new\nTitle\n#",
			want: domain.NewPost{
				Title:    "Title",
				Body:     "#",
				AuthorID: "1",
			},
			wantOK: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, ok := parseCompose(test.text, "1")

			assert.Equal(t, test.wantOK, ok)
			assert.Equal(t, test.want, got)
		})
	}
}
