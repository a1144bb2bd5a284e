// Package blob stores uploaded file bytes. Metadata lives in the store;
// backends only see opaque keys.
package blob

import (
	"context"
	"errors"
	"io"
	"strings"
)

var ErrNotExist = errors.New("blob: not found")

type Store interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// ValidKey reports whether key is a single safe path segment.
func ValidKey(key string) bool {
	if key == "" || key == "." || key == ".." {
		return false
	}
	return !strings.ContainsAny(key, `/\`) && !strings.Contains(key, "\x00")
}
