package service

import (
	"context"
	"io"
)

// PhotoStorage keeps profile photos in a public bucket.
type PhotoStorage interface {
	// UploadPhoto stores file under the user's folder and returns its public URL.
	UploadPhoto(ctx context.Context, uid string, file io.Reader, contentType string) (string, error)
	DeletePhoto(ctx context.Context, url string) error
	Close() error
}
