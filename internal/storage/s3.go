// Package storage wraps the S3 object store holding delivered design
// files. The bucket is private; all client access goes through
// short-lived signed URLs issued here.
package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/avelara/design-portal/internal/config"
)

// ErrNotConfigured is returned by every operation when no bucket was
// configured. Handlers translate it into a 503 with remediation text
// instead of failing at startup.
var ErrNotConfigured = errors.New("object storage not configured")

// Store issues signed URLs and performs server-side uploads against the
// configured bucket.
type Store struct {
	cfg     config.StorageConfig
	client  *s3.Client
	presign *s3.PresignClient
}

// New builds a Store from the environment's AWS credentials. A custom
// endpoint (MinIO/LocalStack) forces path-style addressing, matching
// how those stand-ins route bucket names.
func New(ctx context.Context, cfg config.StorageConfig) (*Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &Store{
		cfg:     cfg,
		client:  client,
		presign: s3.NewPresignClient(client),
	}, nil
}

// Configured reports whether a bucket is set.
func (s *Store) Configured() bool { return s != nil && s.cfg.Bucket != "" }

// PresignTTL exposes the configured URL lifetime for response bodies.
func (s *Store) PresignTTL() time.Duration { return s.cfg.PresignTTL }

// MaxUpload exposes the configured upload ceiling in bytes.
func (s *Store) MaxUpload() int64 { return s.cfg.MaxUpload }

// PresignUpload returns a time-limited PUT URL for the given key. The
// client must send the same Content-Type it declared here.
func (s *Store) PresignUpload(ctx context.Context, key, contentType string) (string, error) {
	if !s.Configured() {
		return "", ErrNotConfigured
	}
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.cfg.PresignTTL))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// SignedDownloadURL returns a time-limited GET URL for a stored object.
func (s *Store) SignedDownloadURL(ctx context.Context, key string) (string, error) {
	if !s.Configured() {
		return "", ErrNotConfigured
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.cfg.PresignTTL))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// Upload stores an object server-side; used when an admin attaches a
// delivered file directly instead of handing the client a PUT URL.
func (s *Store) Upload(ctx context.Context, key, contentType string, size int64, body io.Reader) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
		Body:          body,
	})
	return err
}

// Delete removes a stored object; failures are surfaced so callers can
// decide whether the asset row should still be removed.
func (s *Store) Delete(ctx context.Context, key string) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	return err
}
