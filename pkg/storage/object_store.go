package storage

import (
	"context"
	"errors"
	"mime"
	"path"
	"path/filepath"
	"strings"
)

// LongLivedCacheControl is the cache directive stored with uploaded assets.
const LongLivedCacheControl = "public, max-age=31536000"

var ErrDestinationRequired = errors.New("destination required")

// PutOptions carries object metadata for an upload.
type PutOptions struct {
	CacheControl string
	ContentType  string
}

// ObjectStore uploads local files into one bucket and addresses them by a
// deterministic public URL. Re-uploading a destination overwrites it.
type ObjectStore interface {
	// Put uploads the file at localPath and returns the destination it was stored at.
	Put(ctx context.Context, localPath, destination string, opts PutOptions) (string, error)
	// PublicURL returns https://<host>/<bucket>/<destination>.
	PublicURL(destination string) string
}

// publicURL joins base, bucket and destination without doubled slashes.
func publicURL(baseURL, bucket, destination string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return base + "/" + strings.Trim(bucket, "/") + "/" + CleanDestination(destination)
}

// CleanDestination normalizes a destination into a relative slash path.
func CleanDestination(destination string) string {
	destination = strings.ReplaceAll(strings.TrimSpace(destination), "\\", "/")
	cleaned := path.Clean("/" + destination)
	return strings.TrimPrefix(cleaned, "/")
}

// BaseURLForHost turns a bare host into an https base URL.
func BaseURLForHost(host string) string {
	host = strings.TrimSpace(host)
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}
	return "https://" + host
}

// ContentTypeFor guesses a MIME type from the file extension.
func ContentTypeFor(name string) string {
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if contentType == "" {
		return "application/octet-stream"
	}
	return contentType
}

func normalizeOptions(destination string, opts PutOptions) PutOptions {
	if opts.ContentType == "" {
		opts.ContentType = ContentTypeFor(destination)
	}
	return opts
}
