package upload

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// minioProvider uploads to MinIO or any S3-compatible endpoint.
type minioProvider struct {
	client *minio.Client
	bucket string
	prefix string
}

func newMinioProvider(cfg Config) (*minioProvider, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio: endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio: access_key and secret_key are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio: bucket is required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: !cfg.Insecure,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: failed to create client: %w", err)
	}

	return &minioProvider{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

func (m *minioProvider) Name() string {
	return "minio"
}

func (m *minioProvider) Upload(ctx context.Context, reader io.Reader, remotePath string) error {
	objectName := remotePath
	if m.prefix != "" {
		objectName = path.Join(m.prefix, remotePath)
	}

	// -1 size lets the client stream without knowing the length up front
	_, err := m.client.PutObject(ctx, m.bucket, objectName, reader, -1, minio.PutObjectOptions{})
	if err != nil {
		return fmt.Errorf("minio: failed to upload to %s: %w", objectName, err)
	}
	return nil
}
