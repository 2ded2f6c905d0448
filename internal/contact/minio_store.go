package contact

import (
	"context"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
)

// MinIOStore adapts minio.Client to the objectStore interface.
type MinIOStore struct {
	client *minio.Client
}

// NewMinIOStore constructs an adapter.
func NewMinIOStore(client *minio.Client) *MinIOStore {
	return &MinIOStore{client: client}
}

func (s *MinIOStore) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return s.client.PutObject(ctx, bucketName, objectName, reader, objectSize, opts)
}

// GetObject opens the object and stats it, so a missing key surfaces here
// rather than on the first read.
func (s *MinIOStore) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	object, err := s.client.GetObject(ctx, bucketName, objectName, opts)
	if err != nil {
		return nil, translateObjectError(err)
	}
	if _, err := object.Stat(); err != nil {
		_ = object.Close()
		return nil, translateObjectError(err)
	}
	return object, nil
}

func (s *MinIOStore) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	return s.client.RemoveObject(ctx, bucketName, objectName, opts)
}

func (s *MinIOStore) PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, params url.Values) (*url.URL, error) {
	return s.client.PresignedGetObject(ctx, bucketName, objectName, expires, params)
}

func translateObjectError(err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return ErrAvatarNotFound
	}
	return err
}
