package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config describes the MinIO (or S3 compatible) endpoint used to archive photos.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// objectStore is the part of *minio.Client the archive uses.
type objectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Archive keeps a copy of every uploaded ingredient photo.
type Archive struct {
	client objectStore
	bucket string
	logger *slog.Logger
	newID  func() string
}

// NewArchive connects to the endpoint and makes sure the bucket exists.
func NewArchive(ctx context.Context, cfg Config, logger *slog.Logger) (*Archive, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return newArchive(ctx, client, cfg.Bucket, logger)
}

func newArchive(ctx context.Context, client objectStore, bucket string, logger *slog.Logger) (*Archive, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %q: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("make bucket %q: %w", bucket, err)
		}
		logger.Info("storage.bucket.created", "bucket", bucket)
	}

	return &Archive{client: client, bucket: bucket, logger: logger, newID: uuid.NewString}, nil
}

// Put stores data under the owner's prefix and returns the object key.
func (a *Archive) Put(ctx context.Context, ownerID uuid.UUID, filename string, data []byte, contentType string) (string, error) {
	key := ObjectKey(ownerID, a.newID(), filename)
	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		a.logger.Error("storage.put.error", "bucket", a.bucket, "key", key, "error", err)
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	a.logger.Info("storage.put.ok", "bucket", a.bucket, "key", key, "size", len(data))
	return key, nil
}

// ObjectKey builds "{owner}/{id}-{filename}". The filename is reduced to its base name
// so client supplied paths cannot escape the owner's prefix.
func ObjectKey(ownerID uuid.UUID, id, filename string) string {
	name := filepath.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if name == "" || name == "." || name == "/" {
		name = "image"
	}
	return fmt.Sprintf("%s/%s-%s", ownerID, id, name)
}
