// Package storage stores menu images in S3 or any S3-compatible service.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	menuapp "github.com/coretrack/backend/internal/application/menu"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ErrStorageDisabled is returned by every operation of DisabledStorage
var ErrStorageDisabled = shared.NewDomainError("STORAGE_DISABLED", "Object storage is not configured")

const defaultPresignExpiry = 15 * time.Minute

var (
	_ menuapp.ImageStorage = (*S3ObjectStorage)(nil)
	_ menuapp.ImageStorage = DisabledStorage{}
)

// S3ObjectStorage implements menuapp.ImageStorage with aws-sdk-go-v2
type S3ObjectStorage struct {
	client        *s3.Client
	presign       *s3.PresignClient
	bucket        string
	presignExpiry time.Duration
	logger        *zap.Logger
}

// NewS3ObjectStorage builds a client from cfg. Static credentials are used
// when an access key is configured, the default AWS chain otherwise.
func NewS3ObjectStorage(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (*S3ObjectStorage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var endpoint string
	if cfg.Endpoint != "" {
		endpoint = cfg.Endpoint
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			endpoint = "https://" + endpoint
		}
		if _, err := url.Parse(endpoint); err != nil {
			return nil, fmt.Errorf("invalid storage endpoint: %w", err)
		}
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = defaultPresignExpiry
	}
	return &S3ObjectStorage{
		client:        client,
		presign:       s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		presignExpiry: expiry,
		logger:        logger,
	}, nil
}

// Bucket returns the configured bucket name
func (s *S3ObjectStorage) Bucket() string { return s.bucket }

// EnsureBucket creates the bucket when it does not exist yet
func (s *S3ObjectStorage) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("check bucket: %w", err)
	}

	s.logger.Info("creating storage bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	var owned *types.BucketAlreadyOwnedByYou
	if err != nil && !errors.As(err, &owned) {
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

// Put uploads body under key
func (s *S3ObjectStorage) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *S3ObjectStorage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// DownloadURL returns a presigned GET url
func (s *S3ObjectStorage) DownloadURL(ctx context.Context, key string) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.presignExpiry))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("presign get %s: %w", key, err)
	}
	return req.URL, time.Now().Add(s.presignExpiry), nil
}

// UploadURL returns a presigned PUT url for direct client uploads
func (s *S3ObjectStorage) UploadURL(ctx context.Context, key, contentType string) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.presignExpiry))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("presign put %s: %w", key, err)
	}
	return req.URL, time.Now().Add(s.presignExpiry), nil
}

// DisabledStorage is used when storage.enabled is false
type DisabledStorage struct{}

func (DisabledStorage) Put(context.Context, string, io.Reader, int64, string) error {
	return ErrStorageDisabled
}

func (DisabledStorage) Delete(context.Context, string) error { return ErrStorageDisabled }

func (DisabledStorage) DownloadURL(context.Context, string) (string, time.Time, error) {
	return "", time.Time{}, ErrStorageDisabled
}

func (DisabledStorage) UploadURL(context.Context, string, string) (string, time.Time, error) {
	return "", time.Time{}, ErrStorageDisabled
}

// New returns S3 storage when enabled and DisabledStorage otherwise
func New(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (menuapp.ImageStorage, error) {
	if !cfg.Enabled {
		return DisabledStorage{}, nil
	}
	return NewS3ObjectStorage(ctx, cfg, logger)
}
