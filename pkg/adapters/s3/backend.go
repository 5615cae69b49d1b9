// Package s3 stores the notes as a single object in an S3-compatible bucket.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/aretw0/stickies/pkg/core"
)

// ContentType of the stored object.
const ContentType = "application/json"

// Backend implements core.Backend on one S3 object.
type Backend struct {
	client *s3.Client
	bucket string
	key    string
	logger *slog.Logger
}

// Config holds the bucket and credential settings.
type Config struct {
	// Endpoint overrides the AWS endpoint for S3-compatible services.
	Endpoint        string `yaml:"endpoint" env:"ENDPOINT"`
	Region          string `yaml:"region" env:"REGION" env-default:"us-east-1"`
	AccessKeyID     string `yaml:"access_key_id" env:"ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"SECRET_ACCESS_KEY"`
	Bucket          string `yaml:"bucket" env:"BUCKET"`
	// Prefix is prepended to the object key, e.g. "users/42".
	Prefix string `yaml:"prefix" env:"PREFIX"`
	// UsePathStyle is required by most self-hosted S3 implementations.
	UsePathStyle bool   `yaml:"use_path_style" env:"USE_PATH_STYLE"`
	Key          string `yaml:"key" env:"KEY"`
}

// New creates a backend from cfg. Static credentials are used when both
// keys are set; otherwise the default AWS credential chain applies.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Backend, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 backend requires a bucket")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	sdkConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(sdkConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return NewFromClient(client, cfg.Bucket, ObjectKey(cfg.Prefix, cfg.Key), logger), nil
}

// NewFromClient wraps an existing S3 client.
func NewFromClient(client *s3.Client, bucket, key string, logger *slog.Logger) *Backend {
	if key == "" {
		key = ObjectKey("", "")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Backend{client: client, bucket: bucket, key: key, logger: logger}
}

// ObjectKey builds "<prefix>/<key>.json", defaulting key to core.DefaultKey.
func ObjectKey(prefix, key string) string {
	if key == "" {
		key = core.DefaultKey
	}
	return path.Join(prefix, key+".json")
}

// Key returns the object key.
func (b *Backend) Key() string { return b.key }

// Load downloads the object. A missing object is core.ErrNoState.
func (b *Backend) Load(ctx context.Context) ([]byte, error) {
	result, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, core.ErrNoState
		}
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return nil, core.ErrNoState
		}
		return nil, fmt.Errorf("failed to get object %q: %w", b.key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body %q: %w", b.key, err)
	}
	return data, nil
}

// Save uploads the object, replacing any previous version.
func (b *Backend) Save(ctx context.Context, data []byte) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(b.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(ContentType),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %q: %w", b.key, err)
	}
	b.logger.Debug("saved", "backend", "s3", "bucket", b.bucket, "key", b.key, "bytes", len(data))
	return nil
}

var _ core.Backend = (*Backend)(nil)
