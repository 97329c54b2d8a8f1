package upload

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUnknownProvider(t *testing.T) {
	_, err := New("s3-compatible-maybe", Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown upload provider")
}

func TestNewMinioValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "missing endpoint",
			cfg:     Config{AccessKey: "a", SecretKey: "s", Bucket: "b"},
			wantErr: "endpoint is required",
		},
		{
			name:    "missing credentials",
			cfg:     Config{Endpoint: "minio.local:9000", Bucket: "b"},
			wantErr: "access_key and secret_key are required",
		},
		{
			name:    "missing bucket",
			cfg:     Config{Endpoint: "minio.local:9000", AccessKey: "a", SecretKey: "s"},
			wantErr: "bucket is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("minio", tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewMinioValidConfig(t *testing.T) {
	// Client construction does not dial; only upload does.
	p, err := New("minio", Config{
		Endpoint:  "minio.local:9000",
		AccessKey: "a",
		SecretKey: "s",
		Bucket:    "ci-artifacts",
		Prefix:    "evals",
	})
	require.NoError(t, err)
	assert.Equal(t, "minio", p.Name())
}

// fakeProvider records the remote path it was asked to write.
type fakeProvider struct {
	remotePath string
	content    []byte
}

func (f *fakeProvider) Upload(_ context.Context, r io.Reader, remotePath string) error {
	f.remotePath = remotePath
	data, err := io.ReadAll(r)
	f.content = data
	return err
}

func (f *fakeProvider) Name() string { return "fake" }

func TestFileUploadsBaseName(t *testing.T) {
	dir := t.TempDir()
	local := dir + "/evaluation_result.json"
	require.NoError(t, writeTestFile(local, `{"rows": []}`))

	fake := &fakeProvider{}
	require.NoError(t, File(context.Background(), fake, local))

	assert.Equal(t, "evaluation_result.json", fake.remotePath)
	assert.Equal(t, `{"rows": []}`, string(fake.content))
}

func writeTestFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}

func TestFileMissingLocalFile(t *testing.T) {
	err := File(context.Background(), &fakeProvider{}, t.TempDir()+"/missing.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open")
}
