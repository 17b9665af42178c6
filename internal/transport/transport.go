// Package transport receives raw notification payloads from the network.
package transport

import "context"

// Handler processes one payload. Sources call it synchronously, one message
// at a time, so a slow handler delays the next delivery rather than
// overlapping with it.
type Handler func(ctx context.Context, payload []byte)

// Source delivers payloads until its context is cancelled.
type Source interface {
	// Run connects and blocks, invoking handle for each message. It returns
	// nil after ctx is cancelled, or an error if the initial connection fails.
	Run(ctx context.Context, handle Handler) error
	// Describe names the endpoint for status output.
	Describe() string
}
