package summarizer

import (
	"context"
)

// Input describes the payload for a summary request.
type Input struct {
	// Title is the post headline, used as context only.
	Title string
	// Text contains the plain text body to summarise.
	Text string
}

// Summarizer produces a single summary for a given input text.
type Summarizer interface {
	Summarize(ctx context.Context, input Input) (string, error)
}
