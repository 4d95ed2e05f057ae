package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"careassist/careassist/config"
	"careassist/careassist/utils/errs"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOClient keeps a copy of every exported conversation snapshot.
type MinIOClient struct {
	client *minio.Client
	bucket string
}

func NewMinIOClient(ctx context.Context, cfg config.Config) (*MinIOClient, error) {
	client, err := minio.New(
		cfg.MinIOEndpoint,
		&minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
			Secure: cfg.MinIOSecure,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	exists, err := client.BucketExists(ctx, cfg.MinIOBucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinIOBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}
	return &MinIOClient{client: client, bucket: cfg.MinIOBucket}, nil
}

// ExportKey is the object key of an archived export.
func ExportKey(sessionID, filename string) string {
	return path.Join("exports", sessionID, filename)
}

func (m *MinIOClient) ArchiveExport(ctx context.Context, sessionID, filename, contentType string, data []byte) (string, error) {
	key := ExportKey(sessionID, filename)
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", err
	}
	return key, nil
}

func (m *MinIOClient) GetExport(ctx context.Context, sessionID, filename string) ([]byte, error) {
	key := ExportKey(sessionID, filename)
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, objectError(key, err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, objectError(key, err)
	}
	return data, nil
}

// objectError turns a missing object into errs.NotFound.
func objectError(key string, err error) error {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) && (resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket") {
		return errs.NotFound("archived export not found: " + key)
	}
	return err
}

// ListExports returns the filenames archived for a session.
func (m *MinIOClient) ListExports(ctx context.Context, sessionID string) ([]string, error) {
	prefix := ExportKey(sessionID, "") + "/"
	var names []string
	for info := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if info.Err != nil {
			return nil, info.Err
		}
		names = append(names, path.Base(info.Key))
	}
	return names, nil
}
