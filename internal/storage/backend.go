package storage

import (
	"context"
	"path"
)

// BlobStore is a destination for published artifacts.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	// Location returns a human-readable address of key, for logs and summaries.
	Location(key string) string
}

var contentTypes = map[string]string{
	".md":   "text/markdown; charset=utf-8",
	".mmd":  "text/plain; charset=utf-8",
	".json": "application/json",
}

// ContentType returns the MIME type used when publishing key.
func ContentType(key string) string {
	if ct, ok := contentTypes[path.Ext(key)]; ok {
		return ct
	}
	return "application/octet-stream"
}
