// Package storage persists recipe images on the local filesystem or in S3.
package storage

import (
	"context"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"
)

// KeyPrefix is the directory every recipe image is stored under
const KeyPrefix = "recipes/images"

// ImageStore saves image bytes under a generated key and resolves keys to public URLs
type ImageStore interface {
	Save(ctx context.Context, ext string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// NewKey builds a unique object key for an image with the given extension
func NewKey(ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		ext = "bin"
	}
	return path.Join(KeyPrefix, fmt.Sprintf("%s.%s", uuid.NewString(), ext))
}

func contentType(key string) string {
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
