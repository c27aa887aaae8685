package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"matchmate/internal/domain/service"
)

const publicURLPrefix = "https://storage.googleapis.com/"

type CloudStorageClient struct {
	client     *storage.Client
	bucketName string
	now        func() time.Time
}

func NewCloudStorageClient(ctx context.Context, bucketName string, opts ...option.ClientOption) (*CloudStorageClient, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %v", err)
	}

	return &CloudStorageClient{
		client:     client,
		bucketName: bucketName,
		now:        time.Now,
	}, nil
}

var _ service.PhotoStorage = (*CloudStorageClient)(nil)

// ObjectName builds public/profiles/<uid>/<uuid>-<timestamp>.<ext>.
func ObjectName(uid, contentType string, id string, at time.Time) string {
	name := fmt.Sprintf("public/profiles/%s/%s-%s", uid, id, at.UTC().Format("20060102150405"))

	switch contentType {
	case "image/jpeg", "image/jpg":
		return name + ".jpg"
	case "image/png":
		return name + ".png"
	default:
		return name + ".bin"
	}
}

func (c *CloudStorageClient) UploadPhoto(ctx context.Context, uid string, file io.Reader, contentType string) (string, error) {
	filename := ObjectName(uid, contentType, uuid.NewString(), c.now())

	obj := c.client.Bucket(c.bucketName).Object(filename)
	wc := obj.NewWriter(ctx)
	wc.ContentType = contentType
	wc.CacheControl = "public, max-age=86400"

	if _, err := io.Copy(wc, file); err != nil {
		wc.Close()
		return "", fmt.Errorf("failed to copy file to GCS: %v", err)
	}

	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %v", err)
	}

	if err := obj.ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		return "", fmt.Errorf("failed to set ACL: %v", err)
	}

	return publicURLPrefix + c.bucketName + "/" + filename, nil
}

func (c *CloudStorageClient) DeletePhoto(ctx context.Context, fileURL string) error {
	objectName, err := ParseObjectURL(fileURL, c.bucketName)
	if err != nil {
		return err
	}

	if err := c.client.Bucket(c.bucketName).Object(objectName).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete file: %v", err)
	}
	return nil
}

// ParseObjectURL extracts the object name from a public URL of bucket.
func ParseObjectURL(fileURL, bucket string) (string, error) {
	if !strings.HasPrefix(fileURL, publicURLPrefix) {
		return "", fmt.Errorf("invalid GCS URL format")
	}

	parts := strings.SplitN(strings.TrimPrefix(fileURL, publicURLPrefix), "/", 2)
	if len(parts) != 2 || parts[0] != bucket || parts[1] == "" {
		return "", fmt.Errorf("invalid GCS URL format or bucket mismatch")
	}
	return parts[1], nil
}

func (c *CloudStorageClient) Close() error {
	return c.client.Close()
}
