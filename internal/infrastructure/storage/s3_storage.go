// Package storage keeps rendered invoice documents in S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const (
	defaultRegion        = "us-east-1"
	defaultPresignExpiry = 15 * time.Minute

	// ContentTypePDF is the content type of archived invoice documents
	ContentTypePDF = "application/pdf"
)

var errKeyRequired = errors.New("storage key is required")

// S3ObjectStorage stores objects in a single bucket of any S3-compatible
// service (AWS S3, MinIO, RustFS).
type S3ObjectStorage struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	presignExpiry time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

// S3ObjectStorageOption configures S3ObjectStorage
type S3ObjectStorageOption func(*S3ObjectStorage)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) S3ObjectStorageOption {
	return func(s *S3ObjectStorage) {
		s.logger = logger
	}
}

// NewS3ObjectStorage creates a client for cfg. No request is sent until first use.
func NewS3ObjectStorage(cfg *config.StorageConfig, opts ...S3ObjectStorageOption) (*S3ObjectStorage, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errors.New("storage access key id and secret access key are required")
	}

	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var endpoint *string
	if cfg.Endpoint != "" {
		if _, err := url.ParseRequestURI(cfg.Endpoint); err != nil {
			return nil, fmt.Errorf("invalid storage endpoint: %w", err)
		}
		endpoint = aws.String(cfg.Endpoint)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != nil {
			o.BaseEndpoint = endpoint
		}
	})

	s := &S3ObjectStorage{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		presignExpiry: cfg.PresignExpiry,
		logger:        zap.NewNop(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.presignExpiry <= 0 {
		s.presignExpiry = defaultPresignExpiry
	}
	return s, nil
}

// Bucket returns the bucket name
func (s *S3ObjectStorage) Bucket() string {
	return s.bucket
}

// EnsureBucket creates the bucket when it does not exist
func (s *S3ObjectStorage) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}

	s.logger.Info("Creating storage bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	var owned *types.BucketAlreadyOwnedByYou
	if err != nil && !errors.As(err, &owned) {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Upload stores data under key
func (s *S3ObjectStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return errKeyRequired
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", key, err)
	}
	s.logger.Debug("Object uploaded", zap.String("key", key), zap.Int("bytes", len(data)))
	return nil
}

// GenerateDownloadURL presigns a GET for key. expiresIn <= 0 uses the configured expiry.
func (s *S3ObjectStorage) GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errKeyRequired
	}
	if expiresIn <= 0 {
		expiresIn = s.presignExpiry
	}
	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiresIn))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to presign download of %s: %w", key, err)
	}
	return req.URL, s.now().Add(expiresIn), nil
}

// ObjectExists reports whether key is stored
func (s *S3ObjectStorage) ObjectExists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errKeyRequired
	}
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check object %s: %w", key, err)
}

// DeleteObject removes key
func (s *S3ObjectStorage) DeleteObject(ctx context.Context, key string) error {
	if key == "" {
		return errKeyRequired
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// InvoiceDocumentKey returns a fresh key of the form invoices/<number>/<uuid>.pdf.
// Every archive call gets its own object so earlier copies stay downloadable.
func InvoiceDocumentKey(invoiceNumber string) string {
	segment := unsafeKeyChars.ReplaceAllString(strings.TrimSpace(invoiceNumber), "_")
	if segment == "" {
		segment = "unnumbered"
	}
	return path.Join("invoices", segment, uuid.NewString()+".pdf")
}
