package minio

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"bantayani/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioClient stores detection photos.
type MinioClient struct {
	client *minio.Client
	config config.MinioConfig
}

func NewMinioClient(cfg config.MinioConfig) (*MinioClient, error) {
	endpoint := strings.TrimPrefix(cfg.MinioURL, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	isSecure, err := strconv.ParseBool(cfg.MinioSecure)
	if err != nil {
		slog.Warn("invalid MinIO secure flag, defaulting to false", "value", cfg.MinioSecure)
		isSecure = false
	}

	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: isSecure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := minioClient.ListBuckets(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to MinIO server: %w", err)
	}

	mc := &MinioClient{client: minioClient, config: cfg}
	if err := mc.ensureBucket(ctx, cfg.ImageBucket); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket %s: %w", cfg.ImageBucket, err)
	}
	// Reviewers and farmers open photos straight from the stored URL.
	if err := mc.setPublicReadPolicy(ctx, cfg.ImageBucket); err != nil {
		slog.Warn("failed to set public read policy", "bucket", cfg.ImageBucket, "error", err)
	}

	slog.Info("MinIO client initialized", "endpoint", cfg.MinioURL, "bucket", cfg.ImageBucket)
	return mc, nil
}

func (mc *MinioClient) ensureBucket(ctx context.Context, bucketName string) error {
	exists, err := mc.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("error checking bucket existence: %w", err)
	}
	if exists {
		return nil
	}

	if err := mc.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: mc.config.MinioLocation}); err != nil {
		return fmt.Errorf("error creating bucket %s: %w", bucketName, err)
	}
	slog.Info("created bucket", "bucket", bucketName)
	return nil
}

func (mc *MinioClient) setPublicReadPolicy(ctx context.Context, bucketName string) error {
	policy := fmt.Sprintf(`{
		"Version": "2012-10-17",
		"Statement": [
			{
				"Effect": "Allow",
				"Principal": {"AWS": "*"},
				"Action": ["s3:GetObject"],
				"Resource": ["arn:aws:s3:::%s/*"]
			}
		]
	}`, bucketName)

	return mc.client.SetBucketPolicy(ctx, bucketName, policy)
}

// PutImage uploads an image and returns its public reference.
func (mc *MinioClient) PutImage(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	_, err := mc.client.PutObject(ctx, mc.config.ImageBucket, objectName, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to bucket %s: %w", objectName, mc.config.ImageBucket, err)
	}

	slog.Debug("uploaded image", "object", objectName, "bytes", len(data))
	return ObjectURL(mc.config.MinioResourceURL, mc.config.ImageBucket, objectName), nil
}

func (mc *MinioClient) DeleteImage(ctx context.Context, objectName string) error {
	if err := mc.client.RemoveObject(ctx, mc.config.ImageBucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete %s from bucket %s: %w", objectName, mc.config.ImageBucket, err)
	}
	return nil
}

func (mc *MinioClient) FileExists(ctx context.Context, objectName string) (bool, error) {
	_, err := mc.client.StatObject(ctx, mc.config.ImageBucket, objectName, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("error checking file existence for %s: %w", objectName, err)
	}
	return true, nil
}

func (mc *MinioClient) GetPresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	u, err := mc.client.PresignedGetObject(ctx, mc.config.ImageBucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL for %s: %w", objectName, err)
	}
	return u.String(), nil
}

// Ping is used by the readiness check.
func (mc *MinioClient) Ping(ctx context.Context) error {
	_, err := mc.client.BucketExists(ctx, mc.config.ImageBucket)
	return err
}

// ObjectURL joins the public resource base, bucket and object name.
func ObjectURL(resourceURL, bucket, objectName string) string {
	return strings.TrimRight(resourceURL, "/") + "/" + bucket + "/" + strings.TrimLeft(objectName, "/")
}
