package filestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/cognisync/cognisync-api/internal/config"
	"github.com/cognisync/cognisync-api/internal/domain"
)

// S3 stores blobs in an object bucket keyed {userID}/{name}. Used for
// deployments where the upload volume is not a local disk (e.g. MinIO).
type S3 struct {
	client *s3.Client
	bucket string
}

func NewS3(ctx context.Context, cfg *config.Config) (*S3, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		}
		o.UsePathStyle = cfg.S3BaseEndpoint != ""
	})

	return &S3{client: client, bucket: cfg.S3Bucket}, nil
}

func (s *S3) Save(ctx context.Context, userID, name string, data []byte) (string, error) {
	key := fmt.Sprintf("%s/%s", userID, SanitizeFileName(name))
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return key, nil
}

func (s *S3) Retrieve(ctx context.Context, path string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, domain.ErrFileNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return data, nil
}

func (s *S3) Remove(ctx context.Context, path string) error {
	// DeleteObject succeeds for missing keys, which matches the idempotent
	// delete contract.
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return nil
}

// SecureRemove degrades to Remove: object stores have no in-place overwrite.
func (s *S3) SecureRemove(ctx context.Context, path string) error {
	return s.Remove(ctx, path)
}
