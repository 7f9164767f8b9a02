package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	apperrors "github.com/anime-shed/deepfake-inspector-go/internal/errors"
)

const azureBlobHostSuffix = ".blob.core.windows.net"

// AzureBlobFetcher downloads media stored in an Azure storage account
type AzureBlobFetcher struct {
	client   *azblob.Client
	MaxBytes int64
}

func NewAzureBlobFetcher(accountName string, accountKey string) (*AzureBlobFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s%s", accountName, azureBlobHostSuffix),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure client: %w", err)
	}

	return &AzureBlobFetcher{client: client, MaxBytes: DefaultMaxMediaSize}, nil
}

// IsAzureBlobURL reports whether u points at an Azure blob endpoint
func IsAzureBlobURL(u *url.URL) bool {
	return u.Scheme == "https" && strings.HasSuffix(strings.ToLower(u.Hostname()), azureBlobHostSuffix)
}

// parseBlobPath splits "/container/dir/name.jpg" into container and blob name
func parseBlobPath(path string) (string, string, error) {
	container, blob, ok := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if !ok || container == "" || blob == "" {
		return "", "", fmt.Errorf("blob path %q must be /<container>/<blob>", path)
	}
	return container, blob, nil
}

func (s *AzureBlobFetcher) Fetch(ctx context.Context, blobURL string) (*RawMedia, error) {
	parsedURL, err := url.Parse(blobURL)
	if err != nil {
		return nil, apperrors.NewFetchError("invalid blob URL", err)
	}
	containerName, blobName, err := parseBlobPath(parsedURL.Path)
	if err != nil {
		return nil, apperrors.NewFetchError("invalid blob URL", err)
	}

	downloadResponse, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		return nil, apperrors.NewFetchError("blob download failed", err)
	}
	body := downloadResponse.Body
	defer body.Close()

	data, err := readAllLimited(body, s.MaxBytes)
	if err != nil {
		return nil, apperrors.NewFetchError("blob download failed", err)
	}

	media := &RawMedia{Data: data}
	if downloadResponse.ContentType != nil {
		media.ContentType = *downloadResponse.ContentType
	}
	return media, nil
}
