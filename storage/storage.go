// Package storage holds the object store backends that keep uploaded bytes.
// Metadata about those bytes lives in the database; the two are linked only
// by the object key.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"
)

// ErrObjectNotFound is returned by Delete when the key is already absent.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore is implemented by every backend. Implementations must be safe
// for concurrent use.
type ObjectStore interface {
	// Put stores size bytes from body under key and returns where they can be
	// fetched.
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (*Object, error)

	// Delete removes key. A missing key yields ErrObjectNotFound where the
	// backend can tell; callers treat it as success.
	Delete(ctx context.Context, key string) error

	// List returns every object whose key starts with prefix.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

// Object is the result of a successful Put.
type Object struct {
	Key  string
	URL  string
	Size int64
}

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// NewKey builds a unique object key for filename inside folder.
func NewKey(folder, filename string) string {
	name := sanitizeName(filename)
	if name == "" {
		name = "file"
	}
	return path.Join(strings.Trim(folder, "/"), shortuuid.New()+"-"+name)
}

func sanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	return b.String()
}

// publicURL joins a configured public base URL and an object key.
func publicURL(base, key string) string {
	if base == "" {
		return ""
	}
	parts := strings.Split(key, "/")
	return strings.TrimRight(base, "/") + "/" + strings.Join(parts, "/")
}
