package storage

import (
	"context"
	"errors"
	"io"
)

var ErrImageNotFound = errors.New("Summary image not found")

// ImageStore holds the single summary PNG. Save overwrites; no history is kept.
type ImageStore interface {
	Save(ctx context.Context, png []byte) error
	// Open returns the image and its size, or ErrImageNotFound.
	Open(ctx context.Context) (io.ReadCloser, int64, error)
}
