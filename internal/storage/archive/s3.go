package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config points at a bucket on AWS or an S3-compatible server (MinIO,
// R2). Setting Endpoint switches to path-style addressing.
type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// S3Storage maps object paths to keys under an optional prefix.
type S3Storage struct {
	client *s3.Client
	bucket string
	prefix string
}

func NewS3(cfg S3Config) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive: s3 bucket is required")
	}

	client := s3.New(s3.Options{
		Region:      cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
	}, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Storage{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

func (s *S3Storage) key(name string) string {
	switch {
	case s.prefix == "":
		return name
	case name == "":
		return s.prefix + "/"
	default:
		return path.Join(s.prefix, name)
	}
}

func (s *S3Storage) relative(key string) string {
	if s.prefix == "" {
		return key
	}
	return strings.TrimPrefix(key, s.prefix+"/")
}

// object returns the bucket and key pointers every request needs.
func (s *S3Storage) object(name string) (*string, *string) {
	return aws.String(s.bucket), aws.String(s.key(name))
}

func (s *S3Storage) Write(ctx context.Context, name string, data []byte) error {
	bucket, key := s.object(name)
	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      bucket,
		Key:         key,
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType(name)),
	}); err != nil {
		return fmt.Errorf("archive: put s3://%s/%s: %w", s.bucket, *key, err)
	}
	return nil
}

func (s *S3Storage) Read(ctx context.Context, name string) ([]byte, error) {
	bucket, key := s.object(name)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: bucket, Key: key})
	switch {
	case err == nil:
	case isNotFound(err):
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	default:
		return nil, fmt.Errorf("archive: get s3://%s/%s: %w", s.bucket, *key, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// List pages through every key under prefix and returns paths relative to
// the configured prefix.
func (s *S3Storage) List(ctx context.Context, prefix string) ([]string, error) {
	bucket, key := s.object(prefix)
	pages := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{Bucket: bucket, Prefix: key})

	names := []string{}
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("archive: list s3://%s/%s: %w", s.bucket, *key, err)
		}
		for _, obj := range page.Contents {
			names = append(names, s.relative(aws.ToString(obj.Key)))
		}
	}
	return names, nil
}

func (s *S3Storage) Delete(ctx context.Context, name string) error {
	bucket, key := s.object(name)
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: bucket, Key: key})
	return err
}

func (s *S3Storage) Exists(ctx context.Context, name string) (bool, error) {
	bucket, key := s.object(name)
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: bucket, Key: key})
	switch {
	case err == nil:
		return true, nil
	case isNotFound(err):
		return false, nil
	default:
		return false, err
	}
}

func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noKey) || errors.As(err, &notFound) {
		return true
	}
	// MinIO and friends sometimes surface only the status text
	msg := err.Error()
	return strings.Contains(msg, "NotFound") || strings.Contains(msg, "404")
}

func contentType(name string) string {
	switch path.Ext(name) {
	case ".json":
		return "application/json"
	case ".jsonl":
		return "application/x-ndjson"
	default:
		return "application/octet-stream"
	}
}

var _ Storage = (*S3Storage)(nil)
