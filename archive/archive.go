// Package archive uploads rotated log segments to object storage.
//
// Rotation closes a segment locally; archival is a separate, optional
// step so a flaky network never blocks the writer path. Uses the AWS SDK
// default credential chain (env vars, shared config, IAM role) and works
// against S3-compatible providers via endpoint/path-style overrides.
package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds configuration for the segment archive bucket.
type S3Config struct {
	// Bucket is the S3 bucket name (required).
	Bucket string
	// Prefix is the key prefix within the bucket (optional).
	Prefix string
	// Region is the AWS region (optional, uses default chain if empty).
	Region string
	// Endpoint is a custom S3 endpoint URL for S3-compatible providers
	// (e.g. Cloudflare R2, MinIO). Empty uses the default AWS endpoint.
	Endpoint string
	// UsePathStyle forces path-style addressing (bucket in path, not subdomain).
	// Required by most S3-compatible providers (R2, MinIO, etc.).
	UsePathStyle bool
}

// Validate checks that required S3 configuration is present.
func (c *S3Config) Validate() error {
	if c.Bucket == "" {
		return errors.New("S3 bucket is required")
	}
	return nil
}

// ParseS3Path parses a path in format "bucket/prefix" or "bucket".
func ParseS3Path(p string) (bucket, prefix string) {
	parts := strings.SplitN(p, "/", 2)
	bucket = parts[0]
	if len(parts) > 1 {
		prefix = parts[1]
	}
	return bucket, prefix
}

// putObjectAPI is the slice of the S3 client the uploader needs.
// Stubs implement it in tests.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader copies closed log segments into the archive bucket.
type Uploader struct {
	cfg    S3Config
	client putObjectAPI
}

// New creates an uploader against the real S3 service.
func New(ctx context.Context, cfg S3Config) (*Uploader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
		})
	}
	if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return &Uploader{cfg: cfg, client: s3.NewFromConfig(awsConfig, s3Opts...)}, nil
}

// newWithClient wires a caller-supplied client; tests use it with a stub.
func newWithClient(cfg S3Config, client putObjectAPI) (*Uploader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Uploader{cfg: cfg, client: client}, nil
}

// SegmentKey computes the object key for a closed segment:
// <prefix>/segments/day=<YYYY-MM-DD>/<basename>.
func (u *Uploader) SegmentKey(segmentPath string, closedAt time.Time) string {
	day := closedAt.UTC().Format("2006-01-02")
	key := path.Join("segments", "day="+day, filepath.Base(segmentPath))
	if u.cfg.Prefix != "" {
		key = path.Join(u.cfg.Prefix, key)
	}
	return key
}

// UploadSegment puts one closed segment into the bucket and returns the
// object key. The local file is left in place; deletion is the
// operator's call, not this package's.
func (u *Uploader) UploadSegment(ctx context.Context, segmentPath string) (string, error) {
	f, err := os.Open(segmentPath)
	if err != nil {
		return "", fmt.Errorf("archive open segment: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("archive stat segment: %w", err)
	}

	key := u.SegmentKey(segmentPath, time.Now())
	contentType := "text/plain; charset=utf-8"
	length := info.Size()

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &u.cfg.Bucket,
		Key:           &key,
		Body:          f,
		ContentLength: &length,
		ContentType:   &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("archive upload %s: %w", key, err)
	}
	return key, nil
}
