package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"fleetledger/config"
)

// ErrNotConfigured is returned when R2 credentials are missing.
var ErrNotConfigured = errors.New("object storage is not configured")

// R2 stores objects in a Cloudflare R2 bucket through the S3 API.
type R2 struct {
	client     *s3.Client
	bucket     string
	publicBase string
}

// NewR2 builds the client from config. It returns ErrNotConfigured when the
// bucket, account or public URL are not set.
func NewR2(ctx context.Context, cfg *config.Config) (*R2, error) {
	if !cfg.StorageConfigured() {
		return nil, ErrNotConfigured
	}
	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.R2AccessKeyID,
			cfg.R2SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})
	return &R2{client: client, bucket: cfg.R2Bucket, publicBase: strings.TrimRight(cfg.R2PublicURL, "/")}, nil
}

// Upload puts body under key and returns its public URL.
func (r *R2) Upload(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to R2: %w", err)
	}
	return PublicURL(r.publicBase, key), nil
}

// Delete removes the object behind a URL returned by Upload.
func (r *R2) Delete(ctx context.Context, fileURL string) error {
	key, err := KeyFromURL(r.publicBase, fileURL)
	if err != nil {
		return err
	}
	_, err = r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete R2 object: %w", err)
	}
	return nil
}

// PublicURL joins the public base and an object key, escaping each segment.
func PublicURL(base, key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(parts, "/")
}

// KeyFromURL recovers the object key from a public URL.
func KeyFromURL(base, fileURL string) (string, error) {
	u, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("invalid file URL: %w", err)
	}
	prefix := ""
	if b, err := url.Parse(base); err == nil {
		prefix = strings.TrimRight(b.Path, "/")
	}
	key := strings.TrimPrefix(u.Path, prefix)
	key = strings.TrimPrefix(path.Clean(key), "/")
	if key == "" || key == "." {
		return "", fmt.Errorf("invalid file URL: %s", fileURL)
	}
	return key, nil
}
