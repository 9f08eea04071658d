package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const defaultMaxObjectBytes = 64 << 20

// ErrObjectTooLarge is returned when an object exceeds the configured read
// limit.
var ErrObjectTooLarge = errors.New("object too large")

type objectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Storage reads objects from a single S3-compatible bucket.
type Storage struct {
	client   objectAPI
	bucket   string
	maxBytes int64
}

type Config struct {
	Endpoint       string
	Bucket         string
	AccessKey      string
	SecretKey      string
	Region         string
	MaxObjectBytes int64
}

func New(ctx context.Context, cfg Config) (*Storage, error) {
	if cfg.Region == "" {
		cfg.Region = "eu-central-1"
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newWithClient(client, cfg.Bucket, cfg.MaxObjectBytes), nil
}

func newWithClient(client objectAPI, bucket string, maxBytes int64) *Storage {
	if maxBytes <= 0 {
		maxBytes = defaultMaxObjectBytes
	}
	return &Storage{client: client, bucket: bucket, maxBytes: maxBytes}
}

// ReadObject returns the full body of the object at key.
func (s *Storage) ReadObject(ctx context.Context, key string) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("storage not initialized")
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	defer func() { _ = out.Body.Close() }()

	if out.ContentLength != nil && *out.ContentLength > s.maxBytes {
		return nil, fmt.Errorf("%w: %d > %d", ErrObjectTooLarge, *out.ContentLength, s.maxBytes)
	}
	data, err := io.ReadAll(io.LimitReader(out.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrObjectTooLarge, s.maxBytes)
	}
	return data, nil
}
