package storage

import (
	"context"
	"time"
)

const (
	StorageProviderLocal = "local"
	StorageProviderS3    = "s3"
)

// UploadTTL is how long a signed upload URL stays valid.
const UploadTTL = 3600 * time.Second

// Storer issues write authorizations for objects and builds their public URL.
type Storer interface {
	// PresignUpload returns a URL allowing a single PUT of key with the
	// given content type, valid for UploadTTL.
	PresignUpload(ctx context.Context, key, contentType string) (string, error)
	// MediaURL returns the public read URL of key. It does not check that
	// the object exists.
	MediaURL(key string) string
}
