package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/ruudy-sib/deferq/internal/config"
	"github.com/ruudy-sib/deferq/internal/port/secondary"
)

const defaultContentType = "application/octet-stream"

// putObjectAPI is the subset of the S3 client used by Uploader.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader implements secondary.ObjectUploader on an S3-compatible bucket
// (AWS S3, Cloudflare R2, MinIO). Objects are written public-read and
// addressed path-style.
type Uploader struct {
	client    putObjectAPI
	bucket    string
	publicURL string
	logger    *zap.Logger
}

// NewUploader creates an object store uploader from the application configuration.
// Public URLs fall back to <endpoint>/<bucket> when no public URL is configured.
func NewUploader(cfg *config.Config, logger *zap.Logger) secondary.ObjectUploader {
	region := cfg.ObjectStoreRegion
	if region == "" {
		region = "auto"
	}

	client := s3.New(s3.Options{
		Region:       region,
		UsePathStyle: true,
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.ObjectStoreAccessKeyID,
			cfg.ObjectStoreSecretAccessKey,
			"",
		),
	}, func(o *s3.Options) {
		if cfg.ObjectStoreURL != "" {
			o.BaseEndpoint = aws.String(cfg.ObjectStoreURL)
		}
	})

	public := cfg.ObjectStorePublicURL
	if public == "" && cfg.ObjectStoreURL != "" {
		public = cfg.ObjectStoreURL + "/" + cfg.ObjectStoreBucket
	}

	return newUploader(client, cfg.ObjectStoreBucket, public, logger)
}

func newUploader(client putObjectAPI, bucket, publicURL string, logger *zap.Logger) *Uploader {
	return &Uploader{
		client:    client,
		bucket:    bucket,
		publicURL: publicURL,
		logger:    logger.Named("object-store"),
	}
}

// Upload stores body under key and returns the object's public URL.
// Deadlines come from ctx.
func (u *Uploader) Upload(ctx context.Context, key, contentType string, body []byte) (string, error) {
	if u.bucket == "" || u.publicURL == "" {
		return "", fmt.Errorf("object store is not configured")
	}
	if contentType == "" {
		contentType = defaultContentType
	}

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
		ACL:           types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", key, err)
	}

	u.logger.Debug("object uploaded",
		zap.String("bucket", u.bucket),
		zap.String("key", key),
		zap.Int("size", len(body)),
	)
	return u.publicURL + "/" + escapeKey(key), nil
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
