package avatar

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/spec-kit/contacts-service/internal/config"
)

// Storage persists uploaded avatar images and returns a public URL.
type Storage interface {
	Upload(ctx context.Context, username, contentType string, body io.Reader, size int64) (string, error)
}

// S3Storage stores avatars in an S3-compatible bucket (MinIO in development).
type S3Storage struct {
	cfg config.StorageConfig
}

// NewS3Storage constructs the storage client wrapper.
func NewS3Storage(cfg config.StorageConfig) *S3Storage {
	return &S3Storage{cfg: cfg}
}

func (s *S3Storage) client(ctx context.Context) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(s.cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.cfg.AccessKey,
			s.cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load storage config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.cfg.Endpoint)
		o.UsePathStyle = true
	}), nil
}

// Upload puts the image under avatars/{username}, overwriting any previous
// avatar for that user, and returns the public object URL.
func (s *S3Storage) Upload(ctx context.Context, username, contentType string, body io.Reader, size int64) (string, error) {
	client, err := s.client(ctx)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("avatars/%s", username)
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put avatar object: %w", err)
	}

	base := s.cfg.PublicBaseURL
	if base == "" {
		base = fmt.Sprintf("%s/%s", strings.TrimRight(s.cfg.Endpoint, "/"), s.cfg.Bucket)
	}
	return fmt.Sprintf("%s/%s", strings.TrimRight(base, "/"), key), nil
}
