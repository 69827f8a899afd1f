package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileStore saves assets to disk under <basePath>/<bucket>. It is meant for
// local development and tests; object metadata such as cache directives is
// left to whatever serves the directory.
type FileStore struct {
	root    string
	bucket  string
	baseURL string
}

// NewFileStore creates the bucket directory if missing.
func NewFileStore(basePath, bucket, publicBaseURL string) (*FileStore, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("storage base path is required")
	}
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	root := filepath.Join(basePath, bucket)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FileStore{root: root, bucket: bucket, baseURL: BaseURLForHost(publicBaseURL)}, nil
}

// Put copies the local file to its destination, replacing any existing file.
func (f *FileStore) Put(ctx context.Context, localPath, destination string, _ PutOptions) (string, error) {
	key := CleanDestination(destination)
	if key == "" {
		return "", ErrDestinationRequired
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	target := f.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create object dir: %w", err)
	}
	out, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close file: %w", err)
	}
	return key, nil
}

// Open returns the stored object.
func (f *FileStore) Open(destination string) (io.ReadCloser, error) {
	return os.Open(f.pathFor(CleanDestination(destination)))
}

// PublicURL returns the public address of an object.
func (f *FileStore) PublicURL(destination string) string {
	return publicURL(f.baseURL, f.bucket, destination)
}

func (f *FileStore) pathFor(key string) string {
	return filepath.Join(f.root, filepath.FromSlash(key))
}
