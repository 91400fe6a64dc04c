package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stuffbox-backend/internal/config"
	"stuffbox-backend/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

const presignExpiry = 5 * time.Minute

// FileStore stores uploaded images by key
type FileStore interface {
	PresignUpload(ctx context.Context, key, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// S3FileStore keeps uploads in a single S3 bucket
type S3FileStore struct {
	client *s3.Client
	bucket string
}

// NewS3FileStore creates a file store from the aws config section
func NewS3FileStore(ctx context.Context, cfg config.AWSConfig) (*S3FileStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3FileStore{client: client, bucket: cfg.S3Bucket}, nil
}

// PresignUpload returns a URL the client can PUT the object to
func (f *S3FileStore) PresignUpload(ctx context.Context, key, contentType string) (string, error) {
	presignClient := s3.NewPresignClient(f.client)
	request, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(f.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = presignExpiry
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}
	return request.URL, nil
}

// Delete removes the object stored under key
func (f *S3FileStore) Delete(ctx context.Context, key string) error {
	_, err := f.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// releasable reports whether key names an upload owned by this store
func releasable(key string) bool {
	if key == "" || key == models.DefaultStuffImage || key == models.DefaultAvatar {
		return false
	}
	return !strings.HasPrefix(key, "http://") && !strings.HasPrefix(key, "https://")
}

// releaseFile deletes an uploaded image. Failures are logged and never returned.
func releaseFile(ctx context.Context, files FileStore, key string) {
	if files == nil || !releasable(key) {
		return
	}
	if err := files.Delete(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to release uploaded file")
		return
	}
	log.Debug().Str("key", key).Msg("Released uploaded file")
}
