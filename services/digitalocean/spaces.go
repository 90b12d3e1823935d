package digitalocean

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// SpacesClient stores archive objects in a DigitalOcean Spaces bucket
type SpacesClient struct {
	s3Client s3iface.S3API
	bucket   string
}

// SpacesConfig holds configuration for Spaces client
type SpacesConfig struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Endpoint  string
}

// NewSpacesClient creates a new Spaces client
func NewSpacesClient(config SpacesConfig) (*SpacesClient, error) {
	if config.Bucket == "" {
		return nil, fmt.Errorf("spaces bucket is required")
	}

	sess, err := session.NewSession(&aws.Config{
		Credentials: credentials.NewStaticCredentials(
			config.AccessKey,
			config.SecretKey,
			"",
		),
		Endpoint:         aws.String(config.Endpoint),
		Region:           aws.String(config.Region),
		S3ForcePathStyle: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Spaces session: %w", err)
	}

	return NewSpacesClientWithAPI(s3.New(sess), config.Bucket), nil
}

// NewSpacesClientWithAPI wraps an existing S3 API, e.g. a stub in tests
func NewSpacesClientWithAPI(api s3iface.S3API, bucket string) *SpacesClient {
	return &SpacesClient{s3Client: api, bucket: bucket}
}

// PutObject uploads a private object
func (s *SpacesClient) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ACL:         aws.String(s3.ObjectCannedACLPrivate),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// GetObject downloads an object
func (s *SpacesClient) GetObject(ctx context.Context, key string) ([]byte, error) {
	result, err := s.s3Client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", key, err)
	}
	defer result.Body.Close()

	return io.ReadAll(result.Body)
}

// ListKeys lists object keys under a prefix
func (s *SpacesClient) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.s3Client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	}, func(page *s3.ListObjectsV2Output, _ bool) bool {
		for _, obj := range page.Contents {
			keys = append(keys, aws.StringValue(obj.Key))
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
	}
	return keys, nil
}

// HeadBucket checks that the bucket is reachable
func (s *SpacesClient) HeadBucket(ctx context.Context) error {
	_, err := s.s3Client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}
