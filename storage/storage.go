// Package storage persists run artifacts such as per-test transcripts on
// the local filesystem or in S3.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a requested object does not exist.
	ErrNotFound = errors.New("object not found")

	// ErrInvalidKey is returned when a key is empty, absolute or escapes the root.
	ErrInvalidKey = errors.New("invalid key")
)

// BlobStorage stores artifacts under slash-separated keys.
type BlobStorage interface {
	// Put stores the reader's content at key, replacing any previous object.
	Put(ctx context.Context, key string, reader io.Reader) error

	// Get opens the object at key.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// List returns the keys under prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists reports whether an object exists at key.
	Exists(ctx context.Context, key string) (bool, error)

	// URL returns a location a human can open: a file path or a presigned URL.
	URL(ctx context.Context, key string) (string, error)
}

// Config selects and configures a backend.
type Config struct {
	Type          string
	BaseDir       string
	Bucket        string
	Region        string
	Prefix        string
	PresignExpiry time.Duration
}

// New creates the configured BlobStorage.
func New(ctx context.Context, cfg Config) (BlobStorage, error) {
	switch strings.ToLower(cfg.Type) {
	case "", "local":
		if cfg.BaseDir == "" {
			return nil, fmt.Errorf("base_dir is required for local storage")
		}
		return NewLocalStorage(cfg.BaseDir)

	case "s3":
		s, err := NewS3Storage(ctx, cfg.Bucket, cfg.Region, cfg.Prefix)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 storage: %w", err)
		}
		if cfg.PresignExpiry > 0 {
			s.presignExpiration = cfg.PresignExpiry
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// cleanKey normalizes a key and rejects traversal or absolute keys.
func cleanKey(key string) (string, error) {
	key = strings.ReplaceAll(key, "\\", "/")
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("%w: absolute keys not allowed", ErrInvalidKey)
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: path traversal detected", ErrInvalidKey)
	}
	return cleaned, nil
}
