package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	apperrors "github.com/anime-shed/deepfake-inspector-go/internal/errors"
)

// S3Fetcher downloads s3://bucket/key references from an S3-compatible endpoint
type S3Fetcher struct {
	client   *minio.Client
	MaxBytes int64
}

func NewS3Fetcher(endpoint, accessKey, secretKey string, useSSL bool) (*S3Fetcher, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}
	return &S3Fetcher{client: client, MaxBytes: DefaultMaxMediaSize}, nil
}

// parseS3URL splits s3://bucket/key into bucket and object key
func parseS3URL(u *url.URL) (string, string, error) {
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("s3 reference %q must be s3://<bucket>/<key>", u.String())
	}
	return u.Host, key, nil
}

func (s *S3Fetcher) Fetch(ctx context.Context, mediaURL string) (*RawMedia, error) {
	parsedURL, err := url.Parse(mediaURL)
	if err != nil {
		return nil, apperrors.NewFetchError("invalid s3 URL", err)
	}
	bucket, key, err := parseS3URL(parsedURL)
	if err != nil {
		return nil, apperrors.NewFetchError("invalid s3 URL", err)
	}

	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, apperrors.NewFetchError("s3 download failed", err)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, apperrors.NewFetchError("s3 object not found", err)
		}
		return nil, apperrors.NewFetchError("s3 download failed", err)
	}

	data, err := readAllLimited(obj, s.MaxBytes)
	if err != nil {
		return nil, apperrors.NewFetchError("s3 download failed", err)
	}
	return &RawMedia{Data: data, ContentType: info.ContentType}, nil
}
