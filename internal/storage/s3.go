package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_shop/internal/config"
)

// ImagePrefix is where product images are stored inside the bucket.
const ImagePrefix = "uploads/products"

// ErrNotConfigured is returned by Upload when no credentials are set outside development.
var ErrNotConfigured = errors.New("image storage credentials not configured")

// ImageStore uploads product images to S3 compatible object storage.
type ImageStore struct {
	client    *s3.Client
	bucket    string
	publicURL string
	enabled   bool
	skip      bool
}

// NewImageStore creates an ImageStore. Without credentials uploads fail with
// ErrNotConfigured, or are skipped with a warning when cfg.AllowUnconfigured is set.
func NewImageStore(ctx context.Context, cfg *config.StorageConfig) (*ImageStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("storage config is nil")
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		if cfg.Endpoint != "" {
			publicURL = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
		} else {
			publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}

	store := &ImageStore{
		bucket:    cfg.Bucket,
		publicURL: publicURL,
		enabled:   cfg.AccessKeyID != "" && cfg.SecretAccessKey != "",
		skip:      cfg.AllowUnconfigured,
	}
	if !store.enabled {
		return store, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	store.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return store, nil
}

// ImageKey returns a fresh object key keeping the extension of filename.
func ImageKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return path.Join(ImagePrefix, uuid.New().String()+ext)
}

// Upload stores body under a new key and returns the key.
func (s *ImageStore) Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	key := ImageKey(filename)
	if !s.enabled {
		if s.skip {
			log.Warn().Str("key", key).Msg("S3 credentials not configured - skipping upload")
			return key, nil
		}
		log.Error().Str("key", key).Msg("S3 credentials not configured - rejecting upload")
		return "", ErrNotConfigured
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return key, nil
}

// URL returns the public URL of an object key.
func (s *ImageStore) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.publicURL + "/" + key
}
