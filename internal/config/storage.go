package config

// This file defines configuration for the object storage layer.  Delivered
// design files live in a private S3 bucket; both uploads and downloads go
// through short-lived signed URLs so the bucket never needs public access.

import (
	"os"
	"time"
)

// StorageConfig holds S3 settings.  Endpoint is only set when pointing at
// a local S3 stand-in (MinIO/LocalStack), in which case path-style
// addressing is forced.
type StorageConfig struct {
	Bucket     string        // bucket holding delivered assets and uploads
	Region     string        // AWS region
	Endpoint   string        // custom endpoint for local development (optional)
	PresignTTL time.Duration // lifetime of signed upload/download URLs
	MaxUpload  int64         // maximum accepted upload size in bytes
}

// LoadStorageConfig reads storage environment variables with development
// defaults.  An empty bucket disables signed-URL endpoints; handlers
// report storage as unconfigured instead of failing at startup.
func LoadStorageConfig() StorageConfig {
	return StorageConfig{
		Bucket:     os.Getenv("STORAGE_BUCKET"),
		Region:     getenv("STORAGE_REGION", "us-east-1"),
		Endpoint:   os.Getenv("STORAGE_ENDPOINT"),
		PresignTTL: parseDur(getenv("STORAGE_PRESIGN_TTL", "15m")),
		MaxUpload:  int64(atoi(getenv("STORAGE_MAX_UPLOAD_BYTES", "52428800"))), // 50 MiB
	}
}
