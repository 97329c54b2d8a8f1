// Package upload ships the results artifact to object storage.
package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Provider is a destination for artifact uploads.
type Provider interface {
	// Upload writes the content from reader to remotePath.
	Upload(ctx context.Context, reader io.Reader, remotePath string) error

	// Name returns the provider name.
	Name() string
}

// Config holds provider connection settings, populated from CLI flags.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	Region    string
	Insecure  bool
}

// New creates a provider by name.
func New(name string, cfg Config) (Provider, error) {
	switch name {
	case "minio":
		return newMinioProvider(cfg)
	default:
		return nil, fmt.Errorf("unknown upload provider: %s", name)
	}
}

// File uploads a local file, keyed remotely by its base name under the
// provider's prefix.
func File(ctx context.Context, p Provider, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open %s for upload: %w", localPath, err)
	}
	defer f.Close()

	if err := p.Upload(ctx, f, filepath.Base(localPath)); err != nil {
		return fmt.Errorf("failed to upload %s: %w", localPath, err)
	}
	return nil
}
