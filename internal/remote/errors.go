package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

type Kind int

const (
	// KindApplication covers validation and server-logic failures.
	KindApplication Kind = iota
	// KindConnectivity means the remote source could not be reached.
	KindConnectivity
)

func (k Kind) String() string {
	switch k {
	case KindConnectivity:
		return "connectivity"
	case KindApplication:
		return "application"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is returned by every Source operation that fails.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func connectivityError(op string, err error) *Error {
	return &Error{Kind: KindConnectivity, Op: op, Err: err}
}

func applicationError(op string, err error) *Error {
	return &Error{Kind: KindApplication, Op: op, Err: err}
}

// Message returns the text meant for the user: the innermost message
// without the operation prefix.
func Message(err error) string {
	var remoteErr *Error
	if errors.As(err, &remoteErr) {
		return remoteErr.Err.Error()
	}

	return err.Error()
}

// Phrases emitted by fetch-style transports when the network is down.
// Matching is case-sensitive.
//
//nolint:gochecknoglobals // Immutable allow-list.
var connectivityPhrases = []string{
	"Failed to fetch",
	"NetworkError",
	"Network request failed",
}

// Classify reports the kind of err. Typed errors win; untyped errors are
// connectivity when they are network errors or carry a known transport phrase.
func Classify(err error) Kind {
	if err == nil {
		return KindApplication
	}

	var remoteErr *Error
	if errors.As(err, &remoteErr) {
		return remoteErr.Kind
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindConnectivity
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return KindConnectivity
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindConnectivity
	}

	msg := err.Error()
	for _, phrase := range connectivityPhrases {
		if strings.Contains(msg, phrase) {
			return KindConnectivity
		}
	}

	return KindApplication
}

func IsConnectivity(err error) bool {
	return err != nil && Classify(err) == KindConnectivity
}
