// Package archive exports derived snapshots to S3-compatible object storage.
package archive

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/onnwee/poigraph/internal/graph"
)

// Configuration errors.
var (
	ErrMissingBucket      = errors.New("bucket name is required")
	ErrMissingCredentials = errors.New("access key ID and secret access key are required")
	ErrMissingEndpoint    = errors.New("endpoint is required")
)

// DefaultPrefix is the key prefix snapshots are written under.
const DefaultPrefix = "snapshots"

// Config holds S3 connection settings.
type Config struct {
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	Region          string // Defaults to "auto"
	Prefix          string
}

// putObjectAPI is the subset of the S3 client used by S3Archiver.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver writes gzipped JSON snapshots to a bucket.
type S3Archiver struct {
	client putObjectAPI
	bucket string
	prefix string
	logger *slog.Logger
}

// NewS3Archiver creates an archiver backed by an S3-compatible endpoint
// using path-style addressing.
func NewS3Archiver(cfg Config, logger *slog.Logger) (*S3Archiver, error) {
	if cfg.Bucket == "" {
		return nil, ErrMissingBucket
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, ErrMissingCredentials
	}
	if cfg.Endpoint == "" {
		return nil, ErrMissingEndpoint
	}
	if cfg.Region == "" {
		cfg.Region = "auto"
	}

	client := s3.New(s3.Options{
		Region: cfg.Region,
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		BaseEndpoint: aws.String(cfg.Endpoint),
		UsePathStyle: true,
	})

	return newS3Archiver(client, cfg.Bucket, cfg.Prefix, logger), nil
}

func newS3Archiver(client putObjectAPI, bucket, prefix string, logger *slog.Logger) *S3Archiver {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &S3Archiver{client: client, bucket: bucket, prefix: prefix, logger: logger}
}

// ObjectKey returns the key a snapshot is archived under,
// e.g. snapshots/2026/10/18/<id>.json.gz.
func (a *S3Archiver) ObjectKey(s *graph.Snapshot) string {
	return path.Join(a.prefix, s.CreatedAt.UTC().Format("2006/01/02"), s.ID+".json.gz")
}

// Archive uploads s and returns its object key.
func (a *S3Archiver) Archive(ctx context.Context, s *graph.Snapshot) (string, error) {
	body, err := Encode(s)
	if err != nil {
		return "", err
	}

	key := a.ObjectKey(s)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:          aws.String(a.bucket),
		Key:             aws.String(key),
		Body:            bytes.NewReader(body),
		ContentType:     aws.String("application/json"),
		ContentEncoding: aws.String("gzip"),
		Metadata: map[string]string{
			"snapshot-id": s.ID,
			"entities":    fmt.Sprint(len(s.Entities)),
			"edges":       fmt.Sprint(len(s.Edges)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload snapshot %s: %w", s.ID, err)
	}

	a.logger.Info("snapshot archived",
		slog.String("snapshot_id", s.ID),
		slog.String("bucket", a.bucket),
		slog.String("key", key),
		slog.Int("bytes", len(body)))
	return key, nil
}

// Encode serializes a snapshot as gzipped JSON.
func Encode(s *graph.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if err := json.NewEncoder(zw).Encode(s); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reverses Encode.
func Decode(data []byte) (*graph.Snapshot, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot archive: %w", err)
	}
	defer zr.Close()

	var s graph.Snapshot
	if err := json.NewDecoder(zr).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &s, nil
}
