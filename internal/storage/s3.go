package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sirupsen/logrus"

	"market-admin/internal/config"
)

const (
	ProductBucket    = "product-images"
	SubmissionBucket = "submission-images"
)

// Client wraps an S3-compatible bucket store (R2, MinIO, S3).
type Client struct {
	s3        *s3.Client
	publicURL string
	endpoint  string
	logger    *logrus.Logger
}

func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	st := cfg.Storage
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			st.AccessKey,
			st.SecretKey,
			"",
		)),
		awsconfig.WithRegion(st.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(st.Endpoint)
		o.UsePathStyle = true
	})
	return &Client{
		s3:        client,
		publicURL: strings.TrimRight(st.PublicURL, "/"),
		endpoint:  strings.TrimRight(st.Endpoint, "/"),
		logger:    logger,
	}, nil
}

func (c *Client) ListBuckets(ctx context.Context) ([]string, error) {
	out, err := c.s3.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		names = append(names, aws.ToString(b.Name))
	}
	return names, nil
}

// EnsureBucket creates bucket when it is not already listed.
func (c *Client) EnsureBucket(ctx context.Context, bucket string) error {
	names, err := c.ListBuckets(ctx)
	if err != nil {
		return fmt.Errorf("failed to list buckets: %w", err)
	}
	for _, n := range names {
		if n == bucket {
			return nil
		}
	}

	_, err = c.s3.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)})
	var owned *types.BucketAlreadyOwnedByYou
	if err != nil && !errors.As(err, &owned) {
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	c.logger.WithField("bucket", bucket).Info("Created storage bucket")
	return nil
}

// Upload stores data under key and returns its public URL.
func (c *Client) Upload(ctx context.Context, bucket, key, contentType string, data []byte) (string, error) {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("max-age=3600"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return c.PublicURL(bucket, key), nil
}

func (c *Client) Delete(ctx context.Context, bucket, key string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	return err
}

func (c *Client) PublicURL(bucket, key string) string {
	base := c.publicURL
	if base == "" {
		base = c.endpoint
	}
	return fmt.Sprintf("%s/%s/%s", base, bucket, key)
}

// KeyFromURL recovers the object key from a URL produced by PublicURL.
func (c *Client) KeyFromURL(bucket, url string) (string, bool) {
	for _, base := range []string{c.publicURL, c.endpoint} {
		if base == "" {
			continue
		}
		prefix := base + "/" + bucket + "/"
		if strings.HasPrefix(url, prefix) {
			return strings.TrimPrefix(url, prefix), true
		}
	}
	return "", false
}
