package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// Uploader stores a blob and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

type storageService struct {
	s3Client      *s3.Client
	bucketName    string
	publicBaseURL string
	logger        zerolog.Logger
}

// NewStorageService creates an Uploader backed by the Supabase
// S3-compatible storage. publicBaseURL is the project URL the public
// object URLs are derived from.
func NewStorageService(s3Client *s3.Client, bucketName, publicBaseURL string, logger zerolog.Logger) Uploader {
	return &storageService{
		s3Client:      s3Client,
		bucketName:    bucketName,
		publicBaseURL: publicBaseURL,
		logger:        logger.With().Str("service", "StorageService").Logger(),
	}
}

// Upload puts the object and derives its public URL from the configured
// base URL, the bucket and the key.
func (s *storageService) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to upload object")
		return "", fmt.Errorf("uploading %s: %w", key, err)
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.publicBaseURL, s.bucketName, key), nil
}
