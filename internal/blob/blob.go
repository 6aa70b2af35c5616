// Package blob is the gateway to the path-addressed file store that holds
// profile and event images.
package blob

import "context"

// Store uploads objects by path and hands out download references for them.
type Store interface {
	// Put uploads an object. It does not clean up on later failures; an
	// uploaded blob whose reference never gets linked simply stays orphaned.
	Put(ctx context.Context, path string, data []byte, contentType string) error
	// DownloadURL returns a fetchable reference for an uploaded object.
	DownloadURL(ctx context.Context, path string) (string, error)
}
