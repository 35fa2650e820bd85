package bot

import (
	"offblog/internal/domain"
	"strings"
)

const composeUsageText = `✍️ *New post*

Send the post in one message:

` + "```" + `
/new [authorID]
Title
Body text,
as many lines as needed
#tag1 #tag2
` + "```" + `
The author ID is optional, see /authors\. The last line is read as tags when every word on it starts with \#\.`

// parseCompose reads a /new message. It returns false when the message has
// nothing besides the command line.
func parseCompose(text string, defaultAuthorID string) (domain.NewPost, bool) {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	command, rest, _ := strings.Cut(text, "\n")

	input := domain.NewPost{AuthorID: defaultAuthorID}
	if fields := strings.Fields(command); len(fields) > 1 {
		input.AuthorID = fields[1]
	}

	lines := strings.Split(strings.TrimSpace(rest), "\n")
	if len(lines) == 1 && strings.TrimSpace(lines[0]) == "" {
		return domain.NewPost{}, false
	}

	input.Title = strings.TrimSpace(lines[0])
	lines = lines[1:]

	if n := len(lines); n > 0 {
		if tags, ok := parseTagLine(lines[n-1]); ok {
			input.Tags = tags
			lines = lines[:n-1]
		}
	}

	input.Body = strings.TrimSpace(strings.Join(lines, "\n"))

	return input, true
}

func parseTagLine(line string) ([]string, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, false
	}

	for _, field := range fields {
		if !strings.HasPrefix(field, "#") || len(field) == 1 {
			return nil, false
		}
	}

	return fields, true
}
